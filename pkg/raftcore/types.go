// Package raftcore defines the types and external-collaborator contracts
// that the per-follower log dispatch core (pkg/dispatch) consumes. It does
// not implement Raft's election or commit-advance logic; it gives that
// logic a place to plug in.
package raftcore

import (
	"context"
	"time"
)

// NodeID identifies a cluster member.
type NodeID string

// Node describes a cluster member address.
type Node struct {
	ID   NodeID
	Addr string
}

// Header is optional leader-supplied metadata attached to AppendEntries
// requests. A zero Header with Present=false means the member has none.
type Header struct {
	ClusterName string
	Present     bool
}

// LogEntry is the opaque unit replicated by the dispatch core. Concrete
// implementations live with the Raft log manager, outside this module.
type LogEntry interface {
	// CurrentIndex is this entry's monotonically increasing log index.
	CurrentIndex() int64
	// Term is the leader term that created this entry.
	Term() uint64
	// CreateTime is a monotonic nanosecond timestamp set when the entry
	// was appended to the leader's own log.
	CreateTime() time.Time
	// Serialize produces the wire representation. Implementations must be
	// safe to call without holding any log-manager lock.
	Serialize() ([]byte, error)
}

// AppendEntryRequest is the pre-filled single-entry RPC payload Raft
// prepares for the fast path; the dispatch worker fills in Entry just
// before sending.
type AppendEntryRequest struct {
	Term         uint64
	LeaderID     NodeID
	PrevLogIndex int64
	PrevLogTerm  uint64
	Entry        []byte
	LeaderCommit int64
	Header       Header
}

// AppendEntriesRequest is the batched multi-entry RPC payload built by the
// dispatch worker's multi-entry path.
type AppendEntriesRequest struct {
	Term         uint64
	LeaderID     NodeID
	PrevLogIndex int64
	PrevLogTerm  uint64
	Entries      [][]byte
	LeaderCommit int64
	Header       Header
}

// AppendEntriesReply is the follower's response to either the single-entry
// or the batched AppendEntries RPC. Transports turn it into a Result:
// FailureResult (-1) when Success is false, otherwise the follower's
// reported Term.
type AppendEntriesReply struct {
	NodeID    NodeID
	Term      uint64
	Success   bool
	LastMatch int64
}

// Result multiplexes onto a per-entry callback. See BatchCompletionHandler.
type Result int64

// FailureResult is the generic failure indicator a per-entry callback must
// interpret as "no vote, no term information" rather than a real term.
const FailureResult Result = -1

// EntryCompletion is invoked exactly once per (entry, follower) regardless
// of whether the entry was sent alone or as part of a batch. Implementations
// decide whether to count a YES vote, raise the leadership-stale flag, or
// record a higher observed term.
type EntryCompletion interface {
	OnComplete(result Result)
	OnError(err error)
}

// EntryCompletionFactory builds the per-entry completion callback for one
// (log, follower) pair. It is supplied by the Raft member so that vote
// counting logic lives with the consensus implementation, not here.
type EntryCompletionFactory interface {
	NewCompletion(log LogEntry, voteCounter *VoteCounter, peer *Peer, leadershipStale *StaleFlag, newLeaderTerm *TermSlot) EntryCompletion
}

// CompletionHandler receives the single transport-level outcome of a batch
// (or single-entry) AppendEntries call. BatchCompletionHandler is the
// dispatch core's implementation; it fans the single outcome out to one
// EntryCompletion per entry in the batch.
type CompletionHandler interface {
	OnComplete(result Result)
	OnError(err error)
}

// AsyncClient is the non-blocking transport contract for one follower. The
// call returns as soon as the RPC is in flight; handler fires later from
// whatever goroutine the transport uses to observe completion.
type AsyncClient interface {
	AppendEntries(ctx context.Context, req *AppendEntriesRequest, handler CompletionHandler) error
}

// SyncClient is the blocking transport contract for one follower.
type SyncClient interface {
	AppendEntries(ctx context.Context, req *AppendEntriesRequest) (*AppendEntriesReply, error)
}
