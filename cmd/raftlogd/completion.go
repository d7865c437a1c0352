package main

import (
	"github.com/tsdbcluster/raftlog/pkg/log"
	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// demoCompletionFactory builds completions that count votes toward quorum
// and flag leadership staleness, the minimum a caller of pkg/dispatch must
// provide per raftcore.EntryCompletionFactory.
type demoCompletionFactory struct {
	quorum int64
}

func (f *demoCompletionFactory) NewCompletion(entry raftcore.LogEntry, voteCounter *raftcore.VoteCounter, peer *raftcore.Peer, leadershipStale *raftcore.StaleFlag, newLeaderTerm *raftcore.TermSlot) raftcore.EntryCompletion {
	return &demoCompletion{
		entry:           entry,
		voteCounter:     voteCounter,
		peer:            peer,
		leadershipStale: leadershipStale,
		newLeaderTerm:   newLeaderTerm,
		quorum:          f.quorum,
	}
}

// demoCompletion implements the per-entry vote-counting decision: a result
// at or below the entry's own term counts a YES vote and advances the
// peer's match index; a result carrying a higher term flags the leader as
// stale instead.
type demoCompletion struct {
	entry           raftcore.LogEntry
	voteCounter     *raftcore.VoteCounter
	peer            *raftcore.Peer
	leadershipStale *raftcore.StaleFlag
	newLeaderTerm   *raftcore.TermSlot
	quorum          int64
}

func (c *demoCompletion) OnComplete(result raftcore.Result) {
	logger := log.WithFollower("demo.completion", string(c.peer.Node.ID))

	if result == raftcore.FailureResult {
		c.peer.UpdateMatchIndex(false, 0)
		logger.Debug().Int64("log_index", c.entry.CurrentIndex()).Msg("append_entries rejected")
		return
	}

	if uint64(result) > c.entry.Term() {
		if c.newLeaderTerm.StoreIfHigher(uint64(result)) {
			c.leadershipStale.Set()
			logger.Warn().Uint64("observed_term", uint64(result)).Msg("observed higher term, leadership stale")
		}
		return
	}

	c.peer.UpdateMatchIndex(true, c.entry.CurrentIndex())
	votes := c.voteCounter.Increment()
	if votes == c.quorum {
		logger.Info().Int64("log_index", c.entry.CurrentIndex()).Int64("votes", votes).Msg("entry reached quorum")
	}
}

func (c *demoCompletion) OnError(err error) {
	log.WithFollower("demo.completion", string(c.peer.Node.ID)).
		Error().Err(err).Int64("log_index", c.entry.CurrentIndex()).Msg("append_entries transport error")
}
