// Package peerstore provides optional durable persistence for
// per-follower next-index/match-index state, so a restarted leader does
// not have to rediscover every follower's replication progress from
// scratch via the slow back-off path.
package peerstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

var bucketPeers = []byte("peers")

// PeerState is the on-disk shape of one follower's replication progress.
type PeerState struct {
	NextIndex  int64 `json:"next_index"`
	MatchIndex int64 `json:"match_index"`
}

// Store is a bbolt-backed durable peer-state store. It is entirely
// optional: raftcore.PeerMap works without one, reconstructing lazily at
// the leader's current last-log-index on every restart.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the peer-state database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "peerstate.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open peer state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPeers)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create peers bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists peer's current next-index/match-index under node.
func (s *Store) Save(node raftcore.NodeID, peer *raftcore.Peer) error {
	rec := PeerState{NextIndex: peer.NextIndex(), MatchIndex: peer.MatchIndex()}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal peer state for %s: %w", node, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPeers)
		return b.Put([]byte(node), data)
	})
}

// Load returns the last persisted next-index/match-index for node, or
// found=false if nothing was ever saved for it.
func (s *Store) Load(node raftcore.NodeID) (nextIndex, matchIndex int64, found bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPeers)
		data := b.Get([]byte(node))
		if data == nil {
			return nil
		}
		var rec PeerState
		if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
			return unmarshalErr
		}
		nextIndex, matchIndex, found = rec.NextIndex, rec.MatchIndex, true
		return nil
	})
	return nextIndex, matchIndex, found, err
}

// LoadAll returns every persisted node's state, keyed by node ID.
func (s *Store) LoadAll() (map[raftcore.NodeID]PeerState, error) {
	out := make(map[raftcore.NodeID]PeerState)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPeers)
		return b.ForEach(func(k, v []byte) error {
			var rec PeerState
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out[raftcore.NodeID(k)] = rec
			return nil
		})
	})
	return out, err
}
