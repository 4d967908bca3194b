package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rohmanhakim/site-search/internal/config"
	"github.com/rohmanhakim/site-search/internal/index"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/internal/scheduler"
	"github.com/rohmanhakim/site-search/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a website and save its search index.",
	Long: `crawl fetches pages breadth-first from --url, following links on the
same host up to --max-depth hops and --max-pages pages, then writes the
inverted index to --output.`,
	Args: cobra.NoArgs,
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

		_, err = RunCrawl(cmd.Context(), cfg, seedURL, logger, prometheus.NewRegistry(), cmd.OutOrStdout())
		return err
	},
}

func init() {
	crawlCmd.Flags().StringVarP(&seedURL, "url", "u", "", "start URL; only pages on its host are crawled")
	crawlCmd.Flags().IntVarP(&maxPages, "max-pages", "n", 50, "maximum number of pages to index")
	crawlCmd.Flags().IntVarP(&maxDepth, "max-depth", "d", 3, "maximum number of link hops from the start URL")
	crawlCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 5, "maximum number of fetches in flight")
	crawlCmd.Flags().StringVarP(&outputPath, "output", "o", "index.json", "where to write the index")
	crawlCmd.Flags().DurationVar(&fetchTimeout, "timeout", 0, "per-page fetch timeout (0 for none)")
	crawlCmd.Flags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	crawlCmd.Flags().Float64Var(&rateLimit, "rate", 0, "maximum requests per second to the site (0 for unlimited)")
	crawlCmd.Flags().StringVar(&archiveDir, "archive-dir", "", "also save each crawled page as Markdown in this directory")
	crawlCmd.MarkFlagRequired("url")
}

// RunCrawl crawls from seed, builds the index and saves it to the configured
// path. The summary line is written to out.
func RunCrawl(
	ctx context.Context,
	cfg config.Config,
	seed string,
	logger *zap.Logger,
	registry *prometheus.Registry,
	out io.Writer,
) (scheduler.CrawlingExecution, error) {
	recorder := metadata.NewRecorder(logger, registry)
	s := scheduler.NewScheduler(cfg, recorder)

	execution, err := s.Crawl(ctx, seed)
	if err != nil {
		return scheduler.CrawlingExecution{}, err
	}

	idx := index.Build(execution.Results, nil)

	store := storage.NewLocalIndexStore(recorder)
	if err := store.Save(cfg.IndexPath(), idx); err != nil {
		return scheduler.CrawlingExecution{}, err
	}

	fmt.Fprintf(out, "Crawled %d pages, index saved to %s\n", len(execution.Results), cfg.IndexPath())
	return execution, nil
}
