package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// fakeLogEntry is a minimal raftcore.LogEntry for tests.
type fakeLogEntry struct {
	index      int64
	term       uint64
	createTime time.Time
	payload    string
	failSerialize bool
}

func newFakeLogEntry(index int64, payload string) *fakeLogEntry {
	return &fakeLogEntry{index: index, term: 1, createTime: time.Now(), payload: payload}
}

func (e *fakeLogEntry) CurrentIndex() int64      { return e.index }
func (e *fakeLogEntry) Term() uint64             { return e.term }
func (e *fakeLogEntry) CreateTime() time.Time    { return e.createTime }
func (e *fakeLogEntry) Serialize() ([]byte, error) {
	if e.failSerialize {
		return nil, errSerializeFailed
	}
	return []byte(e.payload), nil
}

var errSerializeFailed = &serializeError{}

type serializeError struct{}

func (e *serializeError) Error() string { return "serialize failed" }

// fakeLogManager reports a fixed commit index, read under its mutex.
type fakeLogManager struct {
	mu     sync.Mutex
	commit int64
}

func (m *fakeLogManager) CommitIndex() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit
}

// recordingAsyncClient records every AppendEntries call it receives and
// immediately invokes the handler with a fixed result, simulating an
// already-acknowledged RPC for deterministic tests.
type recordingAsyncClient struct {
	mu       sync.Mutex
	requests []*raftcore.AppendEntriesRequest
	result   raftcore.Result
}

func (c *recordingAsyncClient) AppendEntries(ctx context.Context, req *raftcore.AppendEntriesRequest, handler raftcore.CompletionHandler) error {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	handler.OnComplete(c.result)
	return nil
}

func (c *recordingAsyncClient) snapshot() []*raftcore.AppendEntriesRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*raftcore.AppendEntriesRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// recordingSyncClient records every call and returns a fixed reply, or err
// if it is set. released counts how many times a checked-out client was
// returned through its release func.
type recordingSyncClient struct {
	mu       sync.Mutex
	requests []*raftcore.AppendEntriesRequest
	reply    *raftcore.AppendEntriesReply
	err      error
	released int
}

func (c *recordingSyncClient) AppendEntries(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.reply, nil
}

func (c *recordingSyncClient) snapshot() []*raftcore.AppendEntriesRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*raftcore.AppendEntriesRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// fakeCompletion records every OnComplete/OnError invocation for one
// (log, follower) pair.
type fakeCompletion struct {
	mu        sync.Mutex
	completes []raftcore.Result
	errors    []error
}

func (c *fakeCompletion) OnComplete(result raftcore.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completes = append(c.completes, result)
}

func (c *fakeCompletion) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

func (c *fakeCompletion) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.completes) + len(c.errors)
}

// fakeCompletionFactory hands out a fresh fakeCompletion per call and keeps
// every one it made so tests can inspect them.
type fakeCompletionFactory struct {
	mu   sync.Mutex
	made []*fakeCompletion
}

func (f *fakeCompletionFactory) NewCompletion(log raftcore.LogEntry, voteCounter *raftcore.VoteCounter, peer *raftcore.Peer, leadershipStale *raftcore.StaleFlag, newLeaderTerm *raftcore.TermSlot) raftcore.EntryCompletion {
	c := &fakeCompletion{}
	f.mu.Lock()
	f.made = append(f.made, c)
	f.mu.Unlock()
	return c
}

func (f *fakeCompletionFactory) snapshot() []*fakeCompletion {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeCompletion, len(f.made))
	copy(out, f.made)
	return out
}

// fakeMember is a minimal, single-follower-aware raftcore.Member. Tests
// configure its clients/logManager/peerMap directly.
type fakeMember struct {
	self  raftcore.Node
	nodes []raftcore.Node
	peers *raftcore.PeerMap

	logManager *fakeLogManager
	factory    *fakeCompletionFactory

	async *recordingAsyncClient
	sync  *recordingSyncClient

	term uint64

	waitForPrevLogResult bool

	sendLogCalls int
	sendLogMu    sync.Mutex
}

func newFakeMember(self raftcore.Node, nodes []raftcore.Node) *fakeMember {
	return &fakeMember{
		self:                 self,
		nodes:                nodes,
		peers:                raftcore.NewPeerMap(),
		logManager:           &fakeLogManager{},
		factory:              &fakeCompletionFactory{},
		async:                &recordingAsyncClient{},
		sync:                 &recordingSyncClient{reply: &raftcore.AppendEntriesReply{Success: true}},
		term:                 1,
		waitForPrevLogResult: true,
	}
}

func (m *fakeMember) AllNodes() []raftcore.Node { return m.nodes }
func (m *fakeMember) ThisNode() raftcore.Node   { return m.self }
func (m *fakeMember) Header() (raftcore.Header, bool) {
	return raftcore.Header{}, false
}
func (m *fakeMember) WithTermLock(fn func(term uint64)) { fn(m.term) }
func (m *fakeMember) LogManager() raftcore.LogManager   { return m.logManager }
func (m *fakeMember) PeerMap() *raftcore.PeerMap        { return m.peers }

func (m *fakeMember) AsyncClient(node raftcore.Node) (raftcore.AsyncClient, error) {
	return m.async, nil
}

func (m *fakeMember) SyncClient(node raftcore.Node) (raftcore.SyncClient, func(), error) {
	return m.sync, func() { m.sync.released++ }, nil
}

func (m *fakeMember) WaitForPrevLog(ctx context.Context, peer *raftcore.Peer, log raftcore.LogEntry) bool {
	return m.waitForPrevLogResult
}

func (m *fakeMember) SendLogToFollower(ctx context.Context, log raftcore.LogEntry, voteCounter *raftcore.VoteCounter, peer *raftcore.Peer, leadershipStale *raftcore.StaleFlag, newLeaderTerm *raftcore.TermSlot, req *raftcore.AppendEntryRequest) error {
	m.sendLogMu.Lock()
	m.sendLogCalls++
	m.sendLogMu.Unlock()
	return nil
}

func (m *fakeMember) CompletionFactory() raftcore.EntryCompletionFactory { return m.factory }
