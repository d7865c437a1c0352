/*
Package transport is the one concrete AppendEntries transport the dispatch
core ships with, implementing the raftcore.SyncClient and
raftcore.AsyncClient contracts over gRPC.

It deliberately does not depend on protoc-generated stubs: the RPC method
set is exactly one method, AppendEntries, so a hand-registered gob codec
and a manually built grpc.ServiceDesc cover it without a .proto/.pb.go
toolchain step. SyncClient and AsyncClient differ only in whether
AppendEntries blocks for the reply or returns immediately and fires the
supplied raftcore.CompletionHandler from a background goroutine.
*/
package transport
