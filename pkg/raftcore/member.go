package raftcore

import (
	"context"
	"time"
)

// LogManager is the subset of the Raft log manager the dispatch core
// needs: the current commit index. Log persistence, term management and
// commit-index advancement itself live with the consensus implementation,
// not here.
type LogManager interface {
	CommitIndex() int64
}

// Member is the external collaborator surface the dispatch core consumes
// from the surrounding Raft leader. Implementations live with the
// consensus/election code; pkg/dispatch only ever calls through this
// interface.
type Member interface {
	// AllNodes returns every cluster member except this one.
	AllNodes() []Node
	// ThisNode returns this member's own node descriptor.
	ThisNode() Node
	// Header returns the optional leader header, if the member carries one.
	Header() (Header, bool)
	// WithTermLock runs fn while holding the member's term lock, so a
	// caller can read the current term and build a request against a
	// consistent snapshot of it.
	WithTermLock(fn func(term uint64))
	// LogManager exposes the commit index.
	LogManager() LogManager
	// PeerMap returns the peer registry.
	PeerMap() *PeerMap
	// AsyncClient returns a non-blocking client for node. Never nil under
	// normal operation.
	AsyncClient(node Node) (AsyncClient, error)
	// SyncClient returns a blocking client for node paired with a
	// release function that must be called on every exit path.
	SyncClient(node Node) (client SyncClient, release func(), err error)
	// WaitForPrevLog blocks (bounded by ctx) until peer is known to have
	// matched the predecessor of log, or returns false on timeout.
	WaitForPrevLog(ctx context.Context, peer *Peer, log LogEntry) bool
	// SendLogToFollower is the single-entry fast path: Raft prepares and
	// ships req itself, routing the outcome through completion.
	SendLogToFollower(ctx context.Context, log LogEntry, voteCounter *VoteCounter, peer *Peer, leadershipStale *StaleFlag, newLeaderTerm *TermSlot, req *AppendEntryRequest) error
	// CompletionFactory builds per-entry completion callbacks.
	CompletionFactory() EntryCompletionFactory
}

// PrevLogWaitTimeout bounds WaitForPrevLog implementations when the member
// does not impose its own deadline.
const PrevLogWaitTimeout = 2 * time.Second
