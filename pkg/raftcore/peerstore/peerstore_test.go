package peerstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

func TestStore_SaveAndLoadRoundTrips(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	node := raftcore.Node{ID: "follower-1"}
	peer := raftcore.NewPeer(node, 10)
	peer.UpdateMatchIndex(true, 7)

	require.NoError(t, store.Save(node.ID, peer))

	next, match, found, err := store.Load(node.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(8), next)
	assert.Equal(t, int64(7), match)
}

func TestStore_LoadMissingReturnsNotFound(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, _, found, err := store.Load("nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_LoadAllReturnsEveryPersistedNode(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for i, id := range []raftcore.NodeID{"a", "b", "c"} {
		node := raftcore.Node{ID: id}
		peer := raftcore.NewPeer(node, int64(i))
		require.NoError(t, store.Save(id, peer))
	}

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
