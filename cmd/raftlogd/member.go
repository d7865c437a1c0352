package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tsdbcluster/raftlog/pkg/config"
	"github.com/tsdbcluster/raftlog/pkg/raftcore"
	"github.com/tsdbcluster/raftlog/pkg/transport"
)

// demoMember is a minimal raftcore.Member good enough to stand up a
// runnable dispatcher node. Election, term management and log persistence
// live with a real consensus implementation; this just holds the smallest
// state needed to exercise the dispatch core end to end.
type demoMember struct {
	self  raftcore.Node
	nodes []raftcore.Node

	termMu sync.Mutex
	term   uint64

	commitIndex int64

	peers *raftcore.PeerMap

	syncPool *transport.Pool

	asyncMu      sync.Mutex
	asyncClients map[raftcore.NodeID]*transport.AsyncClient

	factory raftcore.EntryCompletionFactory
}

func newDemoMember(cfg config.Config, factory raftcore.EntryCompletionFactory) *demoMember {
	self := raftcore.Node{ID: raftcore.NodeID(cfg.NodeID), Addr: cfg.ListenAddr}
	nodes := make([]raftcore.Node, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		nodes = append(nodes, raftcore.Node{ID: raftcore.NodeID(p.ID), Addr: p.Addr})
	}
	return &demoMember{
		self:         self,
		nodes:        nodes,
		term:         1,
		peers:        raftcore.NewPeerMap(),
		syncPool:     transport.NewPool(),
		asyncClients: make(map[raftcore.NodeID]*transport.AsyncClient),
		factory:      factory,
	}
}

func (m *demoMember) AllNodes() []raftcore.Node { return m.nodes }
func (m *demoMember) ThisNode() raftcore.Node   { return m.self }

func (m *demoMember) Header() (raftcore.Header, bool) {
	return raftcore.Header{}, false
}

func (m *demoMember) WithTermLock(fn func(term uint64)) {
	m.termMu.Lock()
	defer m.termMu.Unlock()
	fn(m.term)
}

func (m *demoMember) LogManager() raftcore.LogManager { return m }

// CommitIndex implements raftcore.LogManager.
func (m *demoMember) CommitIndex() int64 {
	return atomic.LoadInt64(&m.commitIndex)
}

func (m *demoMember) PeerMap() *raftcore.PeerMap { return m.peers }

func (m *demoMember) AsyncClient(node raftcore.Node) (raftcore.AsyncClient, error) {
	m.asyncMu.Lock()
	defer m.asyncMu.Unlock()
	if c, ok := m.asyncClients[node.ID]; ok {
		return c, nil
	}
	c, err := transport.DialAsync(node.ID, node.Addr)
	if err != nil {
		return nil, err
	}
	m.asyncClients[node.ID] = c
	return c, nil
}

func (m *demoMember) SyncClient(node raftcore.Node) (raftcore.SyncClient, func(), error) {
	return m.syncPool.Get(node.Addr)
}

// WaitForPrevLog has no real predecessor tracking to consult in this demo
// member; it reports success immediately when Peer.HasMatch holds, and
// otherwise also reports success unless ctx is already done.
func (m *demoMember) WaitForPrevLog(ctx context.Context, peer *raftcore.Peer, log raftcore.LogEntry) bool {
	if peer.HasMatch() {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}

func (m *demoMember) SendLogToFollower(ctx context.Context, log raftcore.LogEntry, voteCounter *raftcore.VoteCounter, peer *raftcore.Peer, leadershipStale *raftcore.StaleFlag, newLeaderTerm *raftcore.TermSlot, req *raftcore.AppendEntryRequest) error {
	client, err := m.AsyncClient(peer.Node)
	if err != nil {
		return err
	}
	completion := m.factory.NewCompletion(log, voteCounter, peer, leadershipStale, newLeaderTerm)
	batchReq := &raftcore.AppendEntriesRequest{
		Term:         req.Term,
		LeaderID:     req.LeaderID,
		PrevLogIndex: req.PrevLogIndex,
		PrevLogTerm:  req.PrevLogTerm,
		Entries:      [][]byte{req.Entry},
		LeaderCommit: req.LeaderCommit,
		Header:       req.Header,
	}
	return client.AppendEntries(ctx, batchReq, singleEntryHandler{completion})
}

func (m *demoMember) CompletionFactory() raftcore.EntryCompletionFactory { return m.factory }

// singleEntryHandler adapts the single-entry fast path onto one
// raftcore.EntryCompletion, since this demo member unifies both paths
// behind the same transport client.
type singleEntryHandler struct {
	completion raftcore.EntryCompletion
}

func (h singleEntryHandler) OnComplete(result raftcore.Result) { h.completion.OnComplete(result) }
func (h singleEntryHandler) OnError(err error)                 { h.completion.OnError(err) }
