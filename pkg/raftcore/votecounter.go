package raftcore

import "sync/atomic"

// VoteCounter accumulates YES votes toward quorum for a single log entry.
// It is shared across every follower's completion callback for that entry;
// each callback touches it at most once.
type VoteCounter struct {
	votes int64
}

// NewVoteCounter starts a counter at the given initial vote count (usually
// 1, for the leader's own implicit vote).
func NewVoteCounter(initial int64) *VoteCounter {
	return &VoteCounter{votes: initial}
}

// Increment records one more YES vote and returns the new total.
func (c *VoteCounter) Increment() int64 {
	return atomic.AddInt64(&c.votes, 1)
}

// Count returns the current vote total.
func (c *VoteCounter) Count() int64 {
	return atomic.LoadInt64(&c.votes)
}

// HasQuorum reports whether the counter has reached the given quorum size.
func (c *VoteCounter) HasQuorum(quorum int64) bool {
	return c.Count() >= quorum
}

// StaleFlag is set by the first completion callback that observes a peer
// reporting a term higher than the leader's own.
type StaleFlag struct {
	stale int32
}

// Set marks the flag. Safe to call concurrently; idempotent.
func (f *StaleFlag) Set() {
	atomic.StoreInt32(&f.stale, 1)
}

// IsSet reports whether any follower has reported a higher term.
func (f *StaleFlag) IsSet() bool {
	return atomic.LoadInt32(&f.stale) != 0
}

// TermSlot receives the highest peer term observed once leadership is
// found to be stale. Writers race to store their observed term; only the
// maximum observed value should be kept.
type TermSlot struct {
	term uint64
}

// StoreIfHigher stores term if it is greater than the currently held
// value. Returns true if the store happened.
func (s *TermSlot) StoreIfHigher(term uint64) bool {
	for {
		current := atomic.LoadUint64(&s.term)
		if term <= current {
			return false
		}
		if atomic.CompareAndSwapUint64(&s.term, current, term) {
			return true
		}
	}
}

// Load returns the highest term observed so far.
func (s *TermSlot) Load() uint64 {
	return atomic.LoadUint64(&s.term)
}
