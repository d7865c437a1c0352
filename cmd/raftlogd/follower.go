package main

import (
	"context"

	"github.com/tsdbcluster/raftlog/pkg/log"
	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// followerApply is the receiving side of AppendEntries for this demo node
// acting as a follower: it just logs what it received and reports success,
// since this module's scope stops at the leader's dispatch core and does
// not include a real follower-side log manager.
func followerApply(ctx context.Context, req *raftcore.AppendEntriesRequest) (*raftcore.AppendEntriesReply, error) {
	logger := log.WithComponent("demo.follower")
	logger.Info().
		Uint64("term", req.Term).
		Str("leader", string(req.LeaderID)).
		Int64("prev_log_index", req.PrevLogIndex).
		Int("entry_count", len(req.Entries)).
		Msg("received append_entries")

	return &raftcore.AppendEntriesReply{
		NodeID:    "", // left empty: this demo follower does not report its ID
		Term:      req.Term,
		Success:   true,
		LastMatch: req.PrevLogIndex + int64(len(req.Entries)),
	}, nil
}
