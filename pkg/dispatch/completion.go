package dispatch

import "github.com/tsdbcluster/raftlog/pkg/raftcore"

// BatchCompletionHandler decomposes a single transport-level outcome (one
// AppendEntries call) into one raftcore.EntryCompletion invocation per
// SendRequest in the batch. It treats the batch as atomic at the transport
// layer: a single OnComplete/OnError fans out to every entry, with no
// partial-success inference.
type BatchCompletionHandler struct {
	completions []raftcore.EntryCompletion
}

// NewBatchCompletionHandler builds the per-entry completion callbacks for
// batch, in batch order, using factory. peer identifies the follower this
// batch was sent to.
func NewBatchCompletionHandler(batch []*SendRequest, peer *raftcore.Peer, factory raftcore.EntryCompletionFactory) *BatchCompletionHandler {
	completions := make([]raftcore.EntryCompletion, len(batch))
	for i, req := range batch {
		completions[i] = factory.NewCompletion(req.Log, req.VoteCounter, peer, req.LeadershipStale, req.NewLeaderTerm)
	}
	return &BatchCompletionHandler{completions: completions}
}

// OnComplete invokes every per-entry callback with the same result. Each
// callback independently decides whether result counts a YES vote, raises
// the leadership-stale flag, or records a higher observed term.
func (h *BatchCompletionHandler) OnComplete(result raftcore.Result) {
	for _, c := range h.completions {
		c.OnComplete(result)
	}
}

// OnError invokes every per-entry callback's OnError with the same error.
func (h *BatchCompletionHandler) OnError(err error) {
	for _, c := range h.completions {
		c.OnError(err)
	}
}
