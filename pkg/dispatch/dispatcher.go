package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tsdbcluster/raftlog/pkg/log"
	"github.com/tsdbcluster/raftlog/pkg/metrics"
	"github.com/tsdbcluster/raftlog/pkg/raftcore"
)

// Config is the dispatcher-wide configuration.
type Config struct {
	// MinLogsInMemory is the fixed capacity of each follower's queue.
	MinLogsInMemory int
	// UseAsyncServer selects the async vs sync transport for the
	// multi-entry path.
	UseAsyncServer bool
	// EnableInstrumenting gates timing-sample collection.
	EnableInstrumenting bool
}

// followerRoute pairs one follower's queue with the peer state its worker
// consults.
type followerRoute struct {
	peer  *raftcore.Peer
	queue *BoundedQueue[*SendRequest]
}

// LogDispatcher is the facade producers call into. It owns one BoundedQueue
// and one DispatcherWorker goroutine per follower and never synchronizes
// across them.
type LogDispatcher struct {
	member raftcore.Member
	cfg    Config
	logger zerolog.Logger

	routes []followerRoute

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewLogDispatcher enumerates member's peers (excluding self) and builds a
// queue + worker pair for each. Call Start to spawn the worker goroutines.
func NewLogDispatcher(member raftcore.Member, cfg Config) *LogDispatcher {
	d := &LogDispatcher{
		member: member,
		cfg:    cfg,
		logger: log.WithComponent("dispatch.dispatcher"),
	}

	lastLogIndex := member.LogManager().CommitIndex()
	for _, node := range member.AllNodes() {
		peer := member.PeerMap().GetOrInsert(node, lastLogIndex)
		queue := NewBoundedQueue[*SendRequest](cfg.MinLogsInMemory)
		d.routes = append(d.routes, followerRoute{peer: peer, queue: queue})
	}

	return d
}

// Start spawns one DispatcherWorker goroutine per follower. ctx governs the
// lifetime of every worker; cancelling it (or calling Stop) causes every
// worker to drain its current Take and exit.
func (d *LogDispatcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	workerCfg := WorkerConfig{
		UseAsyncServer:      d.cfg.UseAsyncServer,
		EnableInstrumenting: d.cfg.EnableInstrumenting,
	}

	for _, route := range d.routes {
		worker := NewDispatcherWorker(route.peer, route.queue, d.member, workerCfg)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			worker.Run(runCtx)
		}()
	}
	d.logger.Info().Int("followers", len(d.routes)).Msg("dispatcher started")
}

// Stop cancels every worker's context and blocks until all workers have
// exited. Queued-but-unsent requests are discarded.
func (d *LogDispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.logger.Info().Msg("dispatcher stopped")
}

// Offer multicasts req to every follower's queue. For each queue it
// attempts a non-blocking insert; every successful insert stamps
// req.EnqueueTime, so the last one wins. A full queue is skipped with a
// debug log and never surfaced to the caller.
func (d *LogDispatcher) Offer(req *SendRequest) {
	for _, route := range d.routes {
		if route.queue.TryOffer(req) {
			req.EnqueueTime = time.Now()
			continue
		}
		d.logger.Debug().Int64("log_index", req.Log.CurrentIndex()).Msg("follower queue full, dropping request")
		if d.cfg.EnableInstrumenting {
			metrics.FollowerQueueDroppedTotal.WithLabelValues(string(route.peer.Node.ID)).Inc()
		}
	}
}
