/*
Package log provides structured logging for raftlog using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support
filtering by severity level for production debugging.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("dispatcher starting")

	workerLog := log.WithFollower("dispatch.worker", "node-2")
	workerLog.Debug().Int("batch_size", 4).Msg("shipped batch")

# Component Loggers

Each per-follower DispatcherWorker holds its own WithFollower logger so
that log lines from a slow or disconnected follower are easy to filter out
from the rest of the fleet. LogDispatcher and the transport server use
WithComponent for loggers that aren't follower-scoped.

# Integration Points

This package is used by:
  - pkg/dispatch: per-follower worker lifecycle, drop/serialize/transport errors
  - pkg/transport: serve lifecycle and async RPC failures
  - cmd/raftlogd: process startup/shutdown and peer-state load/save errors
*/
package log
