package transport

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/tsdbcluster/raftlog/pkg/log"
	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// Server hosts the AppendEntries RPC for one follower node, modeled on the
// teacher's dial/serve split in pkg/api/server.go, minus the mTLS and
// multi-service registration this module has no use for.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
}

// NewServer wraps impl behind the hand-built serviceDesc and binds addr.
func NewServer(addr string, impl AppendEntriesServer) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&serviceDesc, impl)

	return &Server{grpcServer: grpcServer, listener: lis}, nil
}

// Serve blocks, accepting connections until Stop is called.
func (s *Server) Serve() error {
	log.WithComponent("transport.server").Info().Str("addr", s.listener.Addr().String()).Msg("append_entries server listening")
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server, waiting for in-flight RPCs to finish.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// Addr returns the bound listen address, useful when addr was ":0".
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// LocalAppendEntriesServer is a thin AppendEntriesServer adapter over a
// follower-side raftcore.LogManager-aware apply function, letting
// test/demo code stand up a server without a full Raft follower.
type LocalAppendEntriesServer struct {
	Apply func(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error)
}

// AppendEntries implements AppendEntriesServer by delegating to Apply.
func (s *LocalAppendEntriesServer) AppendEntries(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error) {
	return s.Apply(ctx, req)
}
