/*
Package dispatch turns a Raft leader's stream of newly appended log
entries into an ordered, batched, per-follower delivery stream.

One follower must never stall progress to the rest of the cluster, so
each follower gets its own fixed-capacity queue and its own dedicated
goroutine. A producer calling Offer multicasts one SendRequest to every
follower's queue; each follower's DispatcherWorker drains its queue
independently, opportunistically batches whatever has piled up since its
last iteration, and ships the batch over whichever transport is
configured.

	┌─────────────────────── LogDispatcher ───────────────────────┐
	│                                                                │
	│   Offer(req) ──┬──► queue[A] ──► worker[A] ──► transport[A]  │
	│                ├──► queue[B] ──► worker[B] ──► transport[B]  │
	│                └──► queue[C] ──► worker[C] ──► transport[C]  │
	│                                                                │
	│   per-queue: non-blocking TryOffer, drop on full              │
	│   per-worker: blocking Take, opportunistic DrainTo            │
	└────────────────────────────────────────────────────────────────┘

A batch of size 1 goes through the single-entry fast path, delegating to
the surrounding Member's SendLogToFollower. A batch of size > 1 is
rebuilt into one AppendEntriesRequest and fanned out through a
BatchCompletionHandler, which decomposes the transport's single
outcome into one raftcore.EntryCompletion call per entry so quorum vote
counting never has to know whether an entry travelled alone or in a
batch.

No state is shared across followers. The only cross-goroutine contact
is the VoteCounter/StaleFlag/TermSlot atomics embedded in each
SendRequest, touched exactly once per (entry, follower) by that
follower's completion callback.
*/
package dispatch
