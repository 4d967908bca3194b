package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rohmanhakim/site-search/internal/api"
	"github.com/rohmanhakim/site-search/internal/config"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search queries over a saved index.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		logger, err := NewLogger(cfg.LogLevel())
		if err != nil {
			return err
		}
		defer logger.Sync()

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return RunServe(cmd.Context(), cfg, logger, registry)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&indexPath, "index", "i", "index.json", "index file written by crawl")
	serveCmd.Flags().StringVar(&listenAddr, "addr", "127.0.0.1:3000", "address to listen on")
}

// RunServe loads the index and serves it until ctx is cancelled.
func RunServe(ctx context.Context, cfg config.Config, logger *zap.Logger, registry *prometheus.Registry) error {
	recorder := metadata.NewRecorder(logger, registry)
	store := storage.NewLocalIndexStore(recorder)

	idx, loadErr := store.Load(cfg.IndexPath())
	if loadErr != nil {
		return loadErr
	}

	server := api.NewServer(cfg.ListenAddr(), idx, registry, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down search server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
