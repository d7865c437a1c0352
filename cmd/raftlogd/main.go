package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tsdbcluster/raftlog/pkg/config"
	"github.com/tsdbcluster/raftlog/pkg/dispatch"
	"github.com/tsdbcluster/raftlog/pkg/log"
	"github.com/tsdbcluster/raftlog/pkg/metrics"
	"github.com/tsdbcluster/raftlog/pkg/raftcore/peerstore"
	"github.com/tsdbcluster/raftlog/pkg/transport"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "raftlogd",
	Short:   "Per-follower Raft log dispatch core demo node",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("raftlogd version %s (%s)\n", Version, Commit))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	serveCmd.Flags().StringP("config", "f", "raftlogd.yaml", "Path to the node's YAML config file")
	rootCmd.AddCommand(serveCmd)

	configCmd.AddCommand(configValidateCmd)
	configValidateCmd.Flags().StringP("config", "f", "raftlogd.yaml", "Path to the config file to validate")
	rootCmd.AddCommand(configCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect raftlogd configuration files",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file without starting a node",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		fmt.Printf("ok: node %s, %d peer(s), minLogsInMemory=%d, useAsyncServer=%t\n",
			cfg.NodeID, len(cfg.Peers), cfg.MinLogsInMemory, cfg.UseAsyncServer)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a dispatcher node: AppendEntries server, metrics endpoint, demo dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cfg)
	},
}

func serve(cfg config.Config) error {
	logger := log.WithComponent("raftlogd")

	quorum := int64(len(cfg.Peers)+1)/2 + 1
	factory := &demoCompletionFactory{quorum: quorum}
	member := newDemoMember(cfg, factory)

	server, err := transport.NewServer(cfg.ListenAddr, &transport.LocalAppendEntriesServer{Apply: followerApply})
	if err != nil {
		return fmt.Errorf("failed to start append_entries server: %w", err)
	}
	go func() {
		if err := server.Serve(); err != nil {
			logger.Error().Err(err).Msg("append_entries server exited")
		}
	}()
	defer server.Stop()

	if cfg.EnableInstrumenting {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv := &http.Server{Addr: ":9100", Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
		defer metricsSrv.Close()
	}

	var peerStore *peerstore.Store
	if cfg.DataDir != "" {
		peerStore, err = peerstore.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open peer state store: %w", err)
		}
		defer peerStore.Close()
	}

	dispatcher := dispatch.NewLogDispatcher(member, cfg.DispatchConfig())

	if peerStore != nil {
		loadPeerState(logger, member, peerStore)
	}

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)

	logger.Info().Str("node", cfg.NodeID).Str("addr", cfg.ListenAddr).Int("peers", len(cfg.Peers)).Msg("raftlogd started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	cancel()
	dispatcher.Stop()

	if peerStore != nil {
		savePeerState(logger, member, peerStore)
	}

	time.Sleep(100 * time.Millisecond)
	return nil
}

// loadPeerState restores each follower's last persisted match index into
// the dispatcher's PeerMap before the dispatcher starts sending, so a
// restarted leader doesn't have to rediscover replication progress from
// scratch via the next-index back-off path.
func loadPeerState(logger zerolog.Logger, member *demoMember, store *peerstore.Store) {
	for _, peer := range member.PeerMap().All() {
		_, match, found, err := store.Load(peer.Node.ID)
		if err != nil {
			logger.Warn().Err(err).Str("follower", string(peer.Node.ID)).Msg("failed to load persisted peer state")
			continue
		}
		if !found || match < 0 {
			continue
		}
		peer.UpdateMatchIndex(true, match)
		logger.Info().Str("follower", string(peer.Node.ID)).Int64("match_index", match).Msg("restored persisted peer state")
	}
}

// savePeerState persists every known follower's replication progress on a
// clean shutdown.
func savePeerState(logger zerolog.Logger, member *demoMember, store *peerstore.Store) {
	for _, peer := range member.PeerMap().All() {
		if err := store.Save(peer.Node.ID, peer); err != nil {
			logger.Warn().Err(err).Str("follower", string(peer.Node.ID)).Msg("failed to persist peer state")
		}
	}
}
