package raftcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeer_NewPeerSeedsAtLastLogIndexPlusOne(t *testing.T) {
	peer := NewPeer(Node{ID: "f1"}, 9)
	assert.Equal(t, int64(10), peer.NextIndex())
	assert.Equal(t, int64(-1), peer.MatchIndex())
	assert.False(t, peer.HasMatch())
}

func TestPeer_UpdateMatchIndexOnSuccessAdvancesBoth(t *testing.T) {
	peer := NewPeer(Node{ID: "f1"}, 0)
	peer.UpdateMatchIndex(true, 5)
	assert.Equal(t, int64(6), peer.NextIndex())
	assert.Equal(t, int64(5), peer.MatchIndex())
	assert.True(t, peer.HasMatch())
}

func TestPeer_UpdateMatchIndexOnFailureBacksOffNextIndex(t *testing.T) {
	peer := NewPeer(Node{ID: "f1"}, 9)
	peer.UpdateMatchIndex(false, 0)
	assert.Equal(t, int64(9), peer.NextIndex())
	assert.Equal(t, int64(-1), peer.MatchIndex())
}

func TestPeerMap_GetOrInsertReturnsSameInstance(t *testing.T) {
	m := NewPeerMap()
	node := Node{ID: "f1"}
	p1 := m.GetOrInsert(node, 0)
	p2 := m.GetOrInsert(node, 99) // lastLogIndex ignored on second call
	assert.Same(t, p1, p2)
}

func TestPeerMap_QuorumReachedCountsLeaderPlusMajority(t *testing.T) {
	m := NewPeerMap()
	f1 := m.GetOrInsert(Node{ID: "f1"}, 0)
	f2 := m.GetOrInsert(Node{ID: "f2"}, 0)
	_ = m.GetOrInsert(Node{ID: "f3"}, 0)

	// 3 peers + leader = 4 voters, quorum is 3.
	assert.False(t, m.QuorumReached(5))

	f1.UpdateMatchIndex(true, 5)
	assert.False(t, m.QuorumReached(5)) // leader + f1 = 2, not enough

	f2.UpdateMatchIndex(true, 5)
	assert.True(t, m.QuorumReached(5)) // leader + f1 + f2 = 3
}
