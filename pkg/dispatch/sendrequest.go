package dispatch

import (
	"sync"
	"time"

	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// SendRequest bundles everything one log entry's fan-out to every follower
// needs. A single SendRequest is shared across every follower's queue, so
// its mutable state has to tolerate that: Serialize is safe to call from
// however many follower workers race to drain it first, and EnqueueTime is
// a last-write-wins timestamp rather than a per-follower one.
type SendRequest struct {
	Log                raftcore.LogEntry
	VoteCounter        *raftcore.VoteCounter
	LeadershipStale    *raftcore.StaleFlag
	NewLeaderTerm      *raftcore.TermSlot
	AppendEntryRequest *raftcore.AppendEntryRequest

	// EnqueueTime is last-write-wins across every follower queue this
	// request is successfully enqueued to. It is coarse telemetry only.
	EnqueueTime time.Time

	serializeOnce sync.Once
	serializeErr  error
}

// NewSendRequest builds a SendRequest for one log entry, ready to be
// multicast to every follower via LogDispatcher.Offer. prevLogTerm is the
// predecessor term Raft has already computed for this entry.
func NewSendRequest(log raftcore.LogEntry, initialVotes int64, leaderID raftcore.NodeID, prevLogTerm uint64, leaderCommit int64, header raftcore.Header) *SendRequest {
	return &SendRequest{
		Log:             log,
		VoteCounter:     raftcore.NewVoteCounter(initialVotes),
		LeadershipStale: &raftcore.StaleFlag{},
		NewLeaderTerm:   &raftcore.TermSlot{},
		AppendEntryRequest: &raftcore.AppendEntryRequest{
			Term:         log.Term(),
			LeaderID:     leaderID,
			PrevLogIndex: log.CurrentIndex() - 1,
			PrevLogTerm:  prevLogTerm,
			LeaderCommit: leaderCommit,
			Header:       header,
		},
	}
}

// Serialize produces this request's wire bytes exactly once, no matter how
// many of the followers it was multicast to race to call it first: the
// first caller runs Log.Serialize and stores the result into
// AppendEntryRequest.Entry (or keeps the error); every other caller, on this follower's worker
// or any other, blocks on the same sync.Once and then observes that same
// result. This is what lets AppendEntryRequest.Entry be read afterward by
// every follower's worker goroutine without a data race.
func (r *SendRequest) Serialize() ([]byte, error) {
	r.serializeOnce.Do(func() {
		entry, err := r.Log.Serialize()
		if err != nil {
			r.serializeErr = err
			return
		}
		r.AppendEntryRequest.Entry = entry
	})
	return r.AppendEntryRequest.Entry, r.serializeErr
}
