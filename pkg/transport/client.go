package transport

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tsdbcluster/raftlog/pkg/log"
	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// callOpts forces every RPC this package makes through gobCodec instead of
// gRPC's default protobuf codec.
var callOpts = []grpc.CallOption{grpc.CallContentSubtype(codecName)}

// SyncClient is a blocking raftcore.SyncClient implementation over one
// gRPC connection.
type SyncClient struct {
	conn *grpc.ClientConn
}

// DialSync opens a connection suitable for the sync transport path.
// TLS is out of scope here; production deployments should wrap Pool
// around this for real check-out/return discipline.
func DialSync(addr string) (*SyncClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &SyncClient{conn: conn}, nil
}

// AppendEntries implements raftcore.SyncClient.
func (c *SyncClient) AppendEntries(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error) {
	reply := new(raftcore.AppendEntriesReply)
	if err := c.conn.Invoke(ctx, fullMethod(), req, reply, callOpts...); err != nil {
		return nil, err
	}
	return reply, nil
}

// Close releases the underlying connection.
func (c *SyncClient) Close() error {
	return c.conn.Close()
}

// Pool is a minimal check-out/return pool of SyncClients keyed by address.
// Every caller of Get must invoke the returned release func on every exit
// path, success or failure alike.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*SyncClient
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{clients: make(map[string]*SyncClient)}
}

// Get returns the pooled client for addr, dialing one if this is the first
// request for it, paired with a release function. The client is never
// actually removed from the pool on release; release exists so call sites
// have one uniform discipline regardless of pool implementation.
func (p *Pool) Get(addr string) (*SyncClient, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	client, ok := p.clients[addr]
	if !ok {
		var err error
		client, err = DialSync(addr)
		if err != nil {
			return nil, nil, err
		}
		p.clients[addr] = client
	}
	return client, func() {}, nil
}

// Close closes every pooled client.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, c := range p.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AsyncClient is a fire-and-forget raftcore.AsyncClient implementation.
// AppendEntries returns as soon as the RPC is in flight; the handler fires
// later from a goroutine this package owns, never the caller's.
type AsyncClient struct {
	conn   *grpc.ClientConn
	nodeID raftcore.NodeID
}

// DialAsync opens a connection suitable for the async transport path.
func DialAsync(nodeID raftcore.NodeID, addr string) (*AsyncClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &AsyncClient{conn: conn, nodeID: nodeID}, nil
}

// AppendEntries implements raftcore.AsyncClient. The in-flight RPC is not
// cancelled by ctx once dispatched: it runs against a detached context that
// carries no deadline from the caller, since this is a fire-and-forget
// call and its handler must still fire even if ctx is cancelled first.
func (c *AsyncClient) AppendEntries(ctx context.Context, req *raftcore.AppendEntriesRequest, handler raftcore.CompletionHandler) error {
	logger := log.WithFollower("transport.async", string(c.nodeID))
	go func() {
		reply := new(raftcore.AppendEntriesReply)
		if err := c.conn.Invoke(context.Background(), fullMethod(), req, reply, callOpts...); err != nil {
			logger.Error().Err(err).Msg("async append_entries failed")
			handler.OnError(err)
			return
		}
		result := raftcore.Result(reply.Term)
		if !reply.Success {
			result = raftcore.FailureResult
		}
		handler.OnComplete(result)
	}()
	return nil
}

// Close releases the underlying connection.
func (c *AsyncClient) Close() error {
	return c.conn.Close()
}
