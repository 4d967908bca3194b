package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rohmanhakim/site-search/internal/index"
	"go.uber.org/zap"
)

// Searcher is the read side of the index the server needs.
type Searcher interface {
	SearchRanked(query string) []index.Hit
	Search(query string) []string
	DocCount() int
	TermCount() int
}

var _ Searcher = index.Index{}

// Server answers search queries over a loaded index.
type Server struct {
	addr       string
	router     http.Handler
	httpServer *http.Server
	searcher   Searcher
	gatherer   prometheus.Gatherer
	requests   *prometheus.CounterVec
	logger     *zap.Logger
}

// NewServer registers its request metrics on registry and exposes everything
// registry gathers on /metrics.
func NewServer(addr string, searcher Searcher, registry *prometheus.Registry, logger *zap.Logger) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:     addr,
		searcher: searcher,
		gatherer: registry,
		requests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "sitesearch_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		logger: logger,
	}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("search server listening",
		zap.String("addr", s.addr),
		zap.Int("documents", s.searcher.DocCount()),
		zap.Int("terms", s.searcher.TermCount()),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
