package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tsdbcluster/raftlog/pkg/log"
	"github.com/tsdbcluster/raftlog/pkg/metrics"
	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// WorkerConfig carries the per-follower tunables a DispatcherWorker needs
// that are not already implied by its Member/Peer.
type WorkerConfig struct {
	UseAsyncServer      bool
	EnableInstrumenting bool
}

// DispatcherWorker is the long-lived, single-goroutine loop bound to one
// follower's queue. It owns nothing shared: the only cross-goroutine state
// it touches is the queue it drains and the vote-counting atomics embedded
// in each SendRequest, both built to be touched from more than one worker.
type DispatcherWorker struct {
	peer   *raftcore.Peer
	queue  *BoundedQueue[*SendRequest]
	member raftcore.Member
	cfg    WorkerConfig
	logger zerolog.Logger
}

// NewDispatcherWorker builds a worker bound to (peer, queue). It does not
// start the loop; call Run in its own goroutine.
func NewDispatcherWorker(peer *raftcore.Peer, queue *BoundedQueue[*SendRequest], member raftcore.Member, cfg WorkerConfig) *DispatcherWorker {
	return &DispatcherWorker{
		peer:   peer,
		queue:  queue,
		member: member,
		cfg:    cfg,
		logger: log.WithFollower("dispatch.worker", string(peer.Node.ID)),
	}
}

// Run pulls one request off the queue, opportunistically drains whatever
// else is already waiting behind it into the same batch, and dispatches
// the batch. It returns only when ctx is cancelled; any other error is
// handled locally and the loop continues.
func (w *DispatcherWorker) Run(ctx context.Context) {
	w.logger.Info().Msg("dispatch worker starting")
	defer w.logger.Info().Msg("dispatch worker stopped")

	for {
		first, ok := w.queue.Take(ctx)
		if !ok {
			return
		}

		batch := w.drainBatch(first)
		w.dispatch(ctx, batch)
	}
}

// drainBatch builds the batch buffer starting with first, then moves every
// currently-queued request in without blocking for more.
func (w *DispatcherWorker) drainBatch(first *SendRequest) []*SendRequest {
	if w.cfg.EnableInstrumenting {
		metrics.FollowerQueueDepth.WithLabelValues(string(w.peer.Node.ID)).Set(float64(w.queue.Len()))
	}

	batch := make([]*SendRequest, 0, 1+w.queue.Len())
	batch = append(batch, first)
	batch = append(batch, w.queue.DrainTo()...)

	if w.cfg.EnableInstrumenting {
		metrics.BatchSize.WithLabelValues(string(w.peer.Node.ID)).Observe(float64(len(batch)))
	}
	return batch
}

// dispatch serializes the batch's entries, then routes what survives
// serialization down the single-entry or multi-entry path.
func (w *DispatcherWorker) dispatch(ctx context.Context, batch []*SendRequest) {
	batch = w.serialize(batch)
	if len(batch) == 0 {
		return
	}

	if w.cfg.EnableInstrumenting {
		now := time.Now()
		for _, req := range batch {
			metrics.LogInQueue.WithLabelValues(string(w.peer.Node.ID)).Observe(now.Sub(req.Log.CreateTime()).Seconds())
		}
	}

	if len(batch) == 1 {
		w.dispatchSingle(ctx, batch[0])
		return
	}
	w.dispatchBatch(ctx, batch)
}

// serialize produces each request's wire bytes through SendRequest.Serialize,
// which is shared and idempotent across every follower this same request was
// multicast to: whichever worker gets there first does the real work, the
// rest just observe the cached result. A request whose Serialize fails is
// dropped from the batch rather than aborting the rest of it.
func (w *DispatcherWorker) serialize(batch []*SendRequest) []*SendRequest {
	kept := make([]*SendRequest, 0, len(batch))
	for _, req := range batch {
		if _, err := req.Serialize(); err != nil {
			w.logger.Error().Err(err).Int64("log_index", req.Log.CurrentIndex()).Msg("failed to serialize log entry")
			if w.cfg.EnableInstrumenting {
				metrics.SerializationErrorsTotal.WithLabelValues(string(w.peer.Node.ID)).Inc()
			}
			continue
		}
		kept = append(kept, req)
	}
	return kept
}

// dispatchSingle is the fast path when no sibling requests were waiting
// when this one was drained.
func (w *DispatcherWorker) dispatchSingle(ctx context.Context, req *SendRequest) {
	path := "single"
	err := w.member.SendLogToFollower(ctx, req.Log, req.VoteCounter, w.peer, req.LeadershipStale, req.NewLeaderTerm, req.AppendEntryRequest)
	if err != nil {
		w.logger.Error().Err(err).Int64("log_index", req.Log.CurrentIndex()).Msg("send_log_to_follower failed")
	}
	if w.cfg.EnableInstrumenting {
		metrics.FromCreateToEnd.WithLabelValues(string(w.peer.Node.ID), path).Observe(time.Since(req.Log.CreateTime()).Seconds())
	}
}

// dispatchBatch builds one AppendEntries request out of the whole drained
// batch and ships it via the configured transport.
func (w *DispatcherWorker) dispatchBatch(ctx context.Context, batch []*SendRequest) {
	first := batch[0]

	entries := make([][]byte, len(batch))
	for i, req := range batch {
		entries[i] = req.AppendEntryRequest.Entry
	}

	header, hasHeader := w.member.Header()
	if !hasHeader {
		header = raftcore.Header{}
	}

	var term uint64
	w.member.WithTermLock(func(t uint64) {
		term = t
	})

	req := &raftcore.AppendEntriesRequest{
		Term:         term,
		LeaderID:     w.member.ThisNode().ID,
		PrevLogIndex: first.AppendEntryRequest.PrevLogIndex,
		PrevLogTerm:  first.AppendEntryRequest.PrevLogTerm,
		Entries:      entries,
		LeaderCommit: w.member.LogManager().CommitIndex(),
		Header:       header,
	}

	if w.cfg.UseAsyncServer {
		w.dispatchAsync(ctx, req, batch)
	} else {
		w.dispatchSync(ctx, req, batch)
	}

	if w.cfg.EnableInstrumenting {
		now := time.Now()
		path := "async"
		if !w.cfg.UseAsyncServer {
			path = "sync"
		}
		for _, r := range batch {
			metrics.FromCreateToEnd.WithLabelValues(string(w.peer.Node.ID), path).Observe(now.Sub(r.Log.CreateTime()).Seconds())
		}
	}
}

// dispatchAsync is the async transport arm: the handler is built over a
// defensive copy of batch since the caller's buffer is about to go out of
// scope, and the call returns as soon as the RPC is in flight.
func (w *DispatcherWorker) dispatchAsync(ctx context.Context, req *raftcore.AppendEntriesRequest, batch []*SendRequest) {
	client, err := w.member.AsyncClient(w.peer.Node)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to obtain async client")
		return
	}

	batchCopy := make([]*SendRequest, len(batch))
	copy(batchCopy, batch)
	handler := NewBatchCompletionHandler(batchCopy, w.peer, w.member.CompletionFactory())

	if err := client.AppendEntries(ctx, req, handler); err != nil {
		w.logger.Error().Err(err).Int64("first_log_index", first(batch).Log.CurrentIndex()).Msg("async append_entries failed to dispatch")
	}
}

// dispatchSync is the sync transport arm.
func (w *DispatcherWorker) dispatchSync(ctx context.Context, req *raftcore.AppendEntriesRequest, batch []*SendRequest) {
	waitCtx, cancel := context.WithTimeout(ctx, raftcore.PrevLogWaitTimeout)
	defer cancel()

	if !w.member.WaitForPrevLog(waitCtx, w.peer, first(batch).Log) {
		w.logger.Warn().Int64("first_log_index", first(batch).Log.CurrentIndex()).Msg("wait_for_prev_log timed out, abandoning batch")
		if w.cfg.EnableInstrumenting {
			metrics.PrevLogWaitTimeoutsTotal.WithLabelValues(string(w.peer.Node.ID)).Inc()
		}
		return
	}

	client, release, err := w.member.SyncClient(w.peer.Node)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to obtain sync client")
		return
	}
	defer release()

	handler := NewBatchCompletionHandler(batch, w.peer, w.member.CompletionFactory())

	reply, err := client.AppendEntries(ctx, req)
	if err != nil {
		w.logger.Error().Err(err).Int64("first_log_index", first(batch).Log.CurrentIndex()).Msg("sync append_entries failed")
		if w.cfg.EnableInstrumenting {
			metrics.SyncTransportErrorsTotal.WithLabelValues(string(w.peer.Node.ID)).Inc()
		}
		handler.OnError(err)
		return
	}

	result := raftcore.Result(reply.Term)
	if !reply.Success {
		result = raftcore.FailureResult
	}
	handler.OnComplete(result)
}

func first(batch []*SendRequest) *SendRequest {
	return batch[0]
}
