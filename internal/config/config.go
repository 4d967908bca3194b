package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rohmanhakim/site-search/internal/build"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. SITESEARCH_MAX_PAGES.
const EnvPrefix = "SITESEARCH"

type Config struct {
	//===============
	// Limits
	//===============
	// Maximum number of pages collected by one crawl
	maxPages int
	// Maximum number of hyperlink hops from the seed URL
	maxDepth int

	//===============
	// Politeness
	//===============
	// Maximum number of fetches in flight at once
	concurrency int
	// Per-host request rate. Zero or negative disables pacing
	requestsPerSecond float64

	//===============
	// Fetch
	//===============
	// Upper bound on a single fetch. Zero means no timeout
	fetchTimeout time.Duration
	// User agent sent with every request
	userAgent string

	//===============
	// Output
	//===============
	// Where the crawl command writes, and the serve command reads, the index
	indexPath string
	// Directory for Markdown snapshots of crawled pages. Empty disables archiving
	archiveDir string

	//===============
	// Serving
	//===============
	listenAddr string
	logLevel   string
}

type configDTO struct {
	MaxPages          int           `mapstructure:"maxPages"`
	MaxDepth          int           `mapstructure:"maxDepth"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	FetchTimeout      time.Duration `mapstructure:"fetchTimeout"`
	UserAgent         string        `mapstructure:"userAgent"`
	IndexPath         string        `mapstructure:"indexPath"`
	ArchiveDir        string        `mapstructure:"archiveDir"`
	ListenAddr        string        `mapstructure:"listenAddr"`
	LogLevel          string        `mapstructure:"logLevel"`
}

// envDTO mirrors configDTO for environment variables. Pointer fields stay
// nil when the variable is unset, so an explicit zero still overrides.
type envDTO struct {
	MaxPages          *int           `envconfig:"MAX_PAGES"`
	MaxDepth          *int           `envconfig:"MAX_DEPTH"`
	Concurrency       *int           `envconfig:"CONCURRENCY"`
	RequestsPerSecond *float64       `envconfig:"REQUESTS_PER_SECOND"`
	FetchTimeout      *time.Duration `envconfig:"FETCH_TIMEOUT"`
	UserAgent         *string        `envconfig:"USER_AGENT"`
	IndexPath         *string        `envconfig:"INDEX_PATH"`
	ArchiveDir        *string        `envconfig:"ARCHIVE_DIR"`
	ListenAddr        *string        `envconfig:"LISTEN_ADDR"`
	LogLevel          *string        `envconfig:"LOG_LEVEL"`
}

// WithDefault creates a new Config builder with default values for all fields.
func WithDefault() *Config {
	defaultConfig := Config{
		maxPages:          50,
		maxDepth:          3,
		concurrency:       5,
		requestsPerSecond: 0,
		fetchTimeout:      0,
		userAgent:         "site-search/" + build.Version,
		indexPath:         "index.json",
		archiveDir:        "",
		listenAddr:        "127.0.0.1:3000",
		logLevel:          "info",
	}
	return &defaultConfig
}

// WithConfigFile starts from the defaults and applies every key present in
// the file at path. The format (json, yaml, toml) follows the file extension.
func WithConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	dto := configDTO{}
	if err := v.Unmarshal(&dto); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg := WithDefault()
	cfg.applyFile(v, dto)
	return cfg, nil
}

func (c *Config) applyFile(v *viper.Viper, dto configDTO) {
	// only keys written in the file override defaults, so an explicit 0 is honored
	if v.IsSet("maxPages") {
		c.maxPages = dto.MaxPages
	}
	if v.IsSet("maxDepth") {
		c.maxDepth = dto.MaxDepth
	}
	if v.IsSet("concurrency") {
		c.concurrency = dto.Concurrency
	}
	if v.IsSet("requestsPerSecond") {
		c.requestsPerSecond = dto.RequestsPerSecond
	}
	if v.IsSet("fetchTimeout") {
		c.fetchTimeout = dto.FetchTimeout
	}
	if v.IsSet("userAgent") {
		c.userAgent = dto.UserAgent
	}
	if v.IsSet("indexPath") {
		c.indexPath = dto.IndexPath
	}
	if v.IsSet("archiveDir") {
		c.archiveDir = dto.ArchiveDir
	}
	if v.IsSet("listenAddr") {
		c.listenAddr = dto.ListenAddr
	}
	if v.IsSet("logLevel") {
		c.logLevel = dto.LogLevel
	}
}

// WithEnv applies SITESEARCH_* environment overrides on top of the current values.
func (c *Config) WithEnv() (*Config, error) {
	env := envDTO{}
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return c, fmt.Errorf("%w: %s", ErrEnvParsingFail, err.Error())
	}

	if env.MaxPages != nil {
		c.maxPages = *env.MaxPages
	}
	if env.MaxDepth != nil {
		c.maxDepth = *env.MaxDepth
	}
	if env.Concurrency != nil {
		c.concurrency = *env.Concurrency
	}
	if env.RequestsPerSecond != nil {
		c.requestsPerSecond = *env.RequestsPerSecond
	}
	if env.FetchTimeout != nil {
		c.fetchTimeout = *env.FetchTimeout
	}
	if env.UserAgent != nil {
		c.userAgent = *env.UserAgent
	}
	if env.IndexPath != nil {
		c.indexPath = *env.IndexPath
	}
	if env.ArchiveDir != nil {
		c.archiveDir = *env.ArchiveDir
	}
	if env.ListenAddr != nil {
		c.listenAddr = *env.ListenAddr
	}
	if env.LogLevel != nil {
		c.logLevel = *env.LogLevel
	}
	return c, nil
}

func (c *Config) WithMaxPages(pages int) *Config {
	c.maxPages = pages
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithRequestsPerSecond(rps float64) *Config {
	c.requestsPerSecond = rps
	return c
}

func (c *Config) WithFetchTimeout(timeout time.Duration) *Config {
	c.fetchTimeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithIndexPath(path string) *Config {
	c.indexPath = path
	return c
}

func (c *Config) WithArchiveDir(dir string) *Config {
	c.archiveDir = dir
	return c
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if c.concurrency < 1 {
		return Config{}, fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.concurrency)
	}
	if c.maxPages < 0 {
		return Config{}, fmt.Errorf("%w: maxPages must not be negative, got %d", ErrInvalidConfig, c.maxPages)
	}
	if c.maxDepth < 0 {
		return Config{}, fmt.Errorf("%w: maxDepth must not be negative, got %d", ErrInvalidConfig, c.maxDepth)
	}
	if c.fetchTimeout < 0 {
		return Config{}, fmt.Errorf("%w: fetchTimeout must not be negative, got %s", ErrInvalidConfig, c.fetchTimeout)
	}
	if c.indexPath == "" {
		return Config{}, fmt.Errorf("%w: indexPath cannot be empty", ErrInvalidConfig)
	}
	return *c, nil
}

func (c Config) MaxPages() int {
	return c.maxPages
}

func (c Config) MaxDepth() int {
	return c.maxDepth
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) RequestsPerSecond() float64 {
	return c.requestsPerSecond
}

func (c Config) FetchTimeout() time.Duration {
	return c.fetchTimeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) IndexPath() string {
	return c.indexPath
}

func (c Config) ArchiveDir() string {
	return c.archiveDir
}

func (c Config) ListenAddr() string {
	return c.listenAddr
}

func (c Config) LogLevel() string {
	return c.logLevel
}
