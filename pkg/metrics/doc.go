/*
Package metrics provides Prometheus metrics collection and exposition for
the per-follower log dispatch core.

Each DispatcherWorker instruments its own queue depth, batch size, and the
two timing samples LOG_IN_QUEUE and FROM_CREATE_TO_END, and LogDispatcher
counts drops per follower queue; all are labeled by follower so a single
slow or disconnected node is visible without scraping logs.

# Architecture

	┌─────────────────── METRICS SYSTEM ────────────────────┐
	│                                                         │
	│  ┌─────────────────────────────────────────────┐      │
	│  │          Prometheus Registry                 │      │
	│  │  - Global DefaultRegistry                    │      │
	│  │  - MustRegister at package init               │      │
	│  └──────────────────┬────────────────────────────┘      │
	│                     │                                   │
	│  ┌──────────────────▼────────────────────────────┐     │
	│  │             Per-follower series                │     │
	│  │                                                 │     │
	│  │  FollowerQueueDepth / FollowerQueueDroppedTotal│     │
	│  │  BatchSize / LogInQueue / FromCreateToEnd      │     │
	│  │  SyncTransportErrorsTotal                      │     │
	│  │  PrevLogWaitTimeoutsTotal                      │     │
	│  │  SerializationErrorsTotal                       │     │
	│  └──────────────────┬────────────────────────────┘      │
	│                     │                                   │
	│  ┌──────────────────▼────────────────────────────┐     │
	│  │          HTTP Metrics Endpoint                  │     │
	│  │  - Path: /metrics                               │     │
	│  │  - Handler: promhttp.Handler()                  │     │
	│  └─────────────────────────────────────────────────┘     │
	└─────────────────────────────────────────────────────────┘

# Usage

	http.Handle("/metrics", metrics.Handler())

	t := metrics.NewTimer()
	// ... do work ...
	t.ObserveDurationVec(metrics.FromCreateToEnd, followerID, "sync")
*/
package metrics
