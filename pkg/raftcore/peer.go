package raftcore

import "sync"

// Peer caches one follower's replication progress: the next log index the
// leader will try to send it, and the highest index it is known to have
// matched. The dispatch core only reads it to decide whether the sync-path
// predecessor wait can succeed quickly; it never mutates next/match index
// itself.
type Peer struct {
	Node Node

	mu         sync.RWMutex
	nextIndex  int64
	matchIndex int64
}

// NewPeer creates peer state seeded at the leader's current last-log-index,
// since a follower first seen this late is assumed caught up until proven
// otherwise.
func NewPeer(node Node, lastLogIndex int64) *Peer {
	return &Peer{
		Node:       node,
		nextIndex:  lastLogIndex + 1,
		matchIndex: -1,
	}
}

// NextIndex returns the next log index to try sending this follower.
func (p *Peer) NextIndex() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextIndex
}

// MatchIndex returns the highest index known to be replicated to this
// follower.
func (p *Peer) MatchIndex() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.matchIndex
}

// HasMatch reports whether the leader currently knows of a matching
// predecessor entry for this follower (used to gate the sync-path
// WaitForPrevLog call).
func (p *Peer) HasMatch() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.matchIndex+1 == p.nextIndex
}

// UpdateMatchIndex applies an AppendEntries reply's outcome to this
// follower's cached indices.
func (p *Peer) UpdateMatchIndex(success bool, lastMatch int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		p.nextIndex = lastMatch + 1
		p.matchIndex = lastMatch
		return
	}
	if p.nextIndex > 0 {
		p.nextIndex--
	}
}

// Reset reinitializes the follower's indices, e.g. when a node wins
// election and must stop trusting stale replication state.
func (p *Peer) Reset(lastLogIndex int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextIndex = lastLogIndex + 1
	p.matchIndex = -1
}

// PeerMap is a read-mostly, lazily-populated registry of Peer state keyed
// by node identity.
type PeerMap struct {
	mu    sync.Mutex
	peers map[NodeID]*Peer
}

// NewPeerMap creates an empty peer map.
func NewPeerMap() *PeerMap {
	return &PeerMap{peers: make(map[NodeID]*Peer)}
}

// GetOrInsert returns the existing Peer for node, creating one via
// NewPeer(node, lastLogIndex) if this is the first time node is seen.
func (m *PeerMap) GetOrInsert(node Node, lastLogIndex int64) *Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.peers[node.ID]; ok {
		return p
	}
	p := NewPeer(node, lastLogIndex)
	m.peers[node.ID] = p
	return p
}

// All returns a snapshot slice of every known peer.
func (m *PeerMap) All() []*Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	peers := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		peers = append(peers, p)
	}
	return peers
}

// QuorumReached reports whether a majority of followers (plus the leader's
// own implicit match) have matched at least logIndex. Grounded on
// sidecus-raft's PeerManager.QuorumReached.
func (m *PeerMap) QuorumReached(logIndex int64) bool {
	m.mu.Lock()
	peers := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		peers = append(peers, p)
	}
	m.mu.Unlock()

	matchCount := 1 // the leader itself
	quorum := (len(peers) + 1) / 2
	for _, p := range peers {
		if p.MatchIndex() >= logIndex {
			matchCount++
			if matchCount > quorum {
				return true
			}
		}
	}
	return false
}
