package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

func startTestServer(t *testing.T, impl AppendEntriesServer) string {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", impl)
	require.NoError(t, err)
	go func() {
		_ = srv.Serve()
	}()
	t.Cleanup(srv.Stop)
	return srv.Addr()
}

func TestSyncClient_AppendEntriesRoundTrip(t *testing.T) {
	impl := &LocalAppendEntriesServer{
		Apply: func(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error) {
			return &raftcore.AppendEntriesReply{NodeID: "follower-1", Term: req.Term, Success: true, LastMatch: req.PrevLogIndex + int64(len(req.Entries))}, nil
		},
	}
	addr := startTestServer(t, impl)

	client, err := DialSync(addr)
	require.NoError(t, err)
	defer client.Close()

	req := &raftcore.AppendEntriesRequest{
		Term:         3,
		LeaderID:     "leader",
		PrevLogIndex: 10,
		PrevLogTerm:  2,
		Entries:      [][]byte{[]byte("a"), []byte("b")},
		LeaderCommit: 9,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := client.AppendEntries(ctx, req)
	require.NoError(t, err)
	assert.True(t, reply.Success)
	assert.Equal(t, uint64(3), reply.Term)
	assert.Equal(t, int64(12), reply.LastMatch)
}

func TestAsyncClient_AppendEntriesFiresHandler(t *testing.T) {
	impl := &LocalAppendEntriesServer{
		Apply: func(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error) {
			return &raftcore.AppendEntriesReply{Term: 7, Success: true}, nil
		},
	}
	addr := startTestServer(t, impl)

	client, err := DialAsync("follower-1", addr)
	require.NoError(t, err)
	defer client.Close()

	done := make(chan raftcore.Result, 1)
	handler := &recordingHandler{onComplete: func(r raftcore.Result) { done <- r }}

	req := &raftcore.AppendEntriesRequest{Term: 7, Entries: [][]byte{[]byte("a")}}
	err = client.AppendEntries(context.Background(), req, handler)
	require.NoError(t, err)

	select {
	case result := <-done:
		assert.Equal(t, raftcore.Result(7), result)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never fired")
	}
}

type recordingHandler struct {
	onComplete func(raftcore.Result)
	onError    func(error)
}

func (h *recordingHandler) OnComplete(result raftcore.Result) {
	if h.onComplete != nil {
		h.onComplete(result)
	}
}

func (h *recordingHandler) OnError(err error) {
	if h.onError != nil {
		h.onError(err)
	}
}
