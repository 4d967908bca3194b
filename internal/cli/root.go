package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohmanhakim/site-search/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile      string
	logLevel     string
	seedURL      string
	maxPages     int
	maxDepth     int
	concurrency  int
	outputPath   string
	fetchTimeout time.Duration
	userAgent    string
	rateLimit    float64
	archiveDir   string
	indexPath    string
	listenAddr   string

	// names of flags given explicitly on the command line
	changedFlags = map[string]bool{}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "site-search",
	Short: "Crawl one website and search it locally.",
	Long: `site-search crawls a single website breadth-first, builds a TF-IDF
ranked inverted index of the pages it finds, saves the index as JSON and
serves search queries over HTTP.

Configuration is layered: built-in defaults, then --config-file, then
SITESEARCH_* environment variables, then command-line flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			changedFlags[f.Name] = true
		})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// ExecuteWithArgs runs the command tree with explicit arguments and output.
func ExecuteWithArgs(ctx context.Context, args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path, JSON, YAML or TOML (e.g., /home/myuser/site-search.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(crawlCmd, serveCmd, versionCmd)
}

// InitConfigWithError layers the config file, environment variables and
// explicitly set flags on top of the defaults.
func InitConfigWithError() (config.Config, error) {
	configBuilder := config.WithDefault()

	if cfgFile != "" {
		fromFile, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		configBuilder = fromFile
	}

	configBuilder, err := configBuilder.WithEnv()
	if err != nil {
		return config.Config{}, err
	}

	// Override with CLI flag values where provided; an explicit zero counts
	if changedFlags["max-pages"] {
		configBuilder = configBuilder.WithMaxPages(maxPages)
	}
	if changedFlags["max-depth"] {
		configBuilder = configBuilder.WithMaxDepth(maxDepth)
	}
	if changedFlags["concurrency"] {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}
	if changedFlags["timeout"] {
		configBuilder = configBuilder.WithFetchTimeout(fetchTimeout)
	}
	if changedFlags["user-agent"] {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if changedFlags["rate"] {
		configBuilder = configBuilder.WithRequestsPerSecond(rateLimit)
	}
	if changedFlags["archive-dir"] {
		configBuilder = configBuilder.WithArchiveDir(archiveDir)
	}
	if changedFlags["output"] {
		configBuilder = configBuilder.WithIndexPath(outputPath)
	}
	if changedFlags["index"] {
		configBuilder = configBuilder.WithIndexPath(indexPath)
	}
	if changedFlags["addr"] {
		configBuilder = configBuilder.WithListenAddr(listenAddr)
	}
	if changedFlags["log-level"] {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	return configBuilder.Build()
}

// NewLogger builds a production zap logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %s", config.ErrInvalidConfig, err.Error())
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(parsed)
	return zapConfig.Build()
}

// ResetFlags restores every flag to its default and forgets which were set.
func ResetFlags() {
	commands := append([]*cobra.Command{rootCmd}, rootCmd.Commands()...)
	for _, c := range commands {
		reset := func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.PersistentFlags().VisitAll(reset)
		c.Flags().VisitAll(reset)
	}
	changedFlags = map[string]bool{}
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetLogLevelForTest(level string) {
	logLevel = level
	changedFlags["log-level"] = true
}

func SetSeedURLForTest(raw string) {
	seedURL = raw
}

func SetMaxPagesForTest(pages int) {
	maxPages = pages
	changedFlags["max-pages"] = true
}

func SetMaxDepthForTest(depth int) {
	maxDepth = depth
	changedFlags["max-depth"] = true
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
	changedFlags["concurrency"] = true
}

func SetOutputForTest(path string) {
	outputPath = path
	changedFlags["output"] = true
}

func SetTimeoutForTest(t time.Duration) {
	fetchTimeout = t
	changedFlags["timeout"] = true
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
	changedFlags["user-agent"] = true
}

func SetRateForTest(rps float64) {
	rateLimit = rps
	changedFlags["rate"] = true
}

func SetArchiveDirForTest(dir string) {
	archiveDir = dir
	changedFlags["archive-dir"] = true
}

func SetIndexForTest(path string) {
	indexPath = path
	changedFlags["index"] = true
}

func SetAddrForTest(addr string) {
	listenAddr = addr
	changedFlags["addr"] = true
}
