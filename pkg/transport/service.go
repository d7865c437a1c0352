package transport

import (
	"context"

	"google.golang.org/grpc"

	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

const (
	serviceName        = "raftlog.Dispatch"
	methodAppendEntries = "AppendEntries"
)

// AppendEntriesServer is implemented by whatever runs on a follower: the
// receiving side of the AppendEntries contract.
type AppendEntriesServer interface {
	AppendEntries(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error)
}

func appendEntriesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(raftcore.AppendEntriesRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AppendEntriesServer).AppendEntries(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: serviceName + "/" + methodAppendEntries,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AppendEntriesServer).AppendEntries(ctx, req.(*raftcore.AppendEntriesRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// serviceDesc is the hand-built equivalent of what protoc would generate
// from a one-method .proto file. Registering it against a *grpc.Server
// requires no generated stubs.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AppendEntriesServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: methodAppendEntries,
			Handler:    appendEntriesHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "raftlog/dispatch.proto",
}

// fullMethod is the string passed to grpc.ClientConn.Invoke.
func fullMethod() string {
	return "/" + serviceName + "/" + methodAppendEntries
}
