package scheduler_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/site-search/internal/config"
	"github.com/rohmanhakim/site-search/internal/extractor"
	"github.com/rohmanhakim/site-search/internal/fetcher"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/internal/scheduler"
	"github.com/rohmanhakim/site-search/internal/storage"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// fetcherMock is a testify mock for the Fetcher
type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(
	ctx context.Context,
	crawlDepth int,
	fetchUrl url.URL,
) (fetcher.FetchResult, failure.ClassifiedError) {
	args := f.Called(ctx, crawlDepth, fetchUrl)
	result := args.Get(0).(fetcher.FetchResult)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return result, err
}

// mockClassifiedError is a ClassifiedError with a chosen severity
type mockClassifiedError struct {
	msg      string
	severity failure.Severity
}

func (e *mockClassifiedError) Error() string {
	return e.msg
}

func (e *mockClassifiedError) Severity() failure.Severity {
	return e.severity
}

// siteFetcher serves an in-memory site keyed by absolute URL and tracks
// how many fetches overlap.
type siteFetcher struct {
	pages map[string]string
	delay time.Duration

	mu          sync.Mutex
	hits        map[string]int
	inFlight    int
	maxInFlight int
}

func newSiteFetcher(pages map[string]string) *siteFetcher {
	return &siteFetcher{
		pages: pages,
		hits:  make(map[string]int),
	}
}

func (f *siteFetcher) Fetch(
	ctx context.Context,
	crawlDepth int,
	fetchUrl url.URL,
) (fetcher.FetchResult, failure.ClassifiedError) {
	key := fetchUrl.String()

	f.mu.Lock()
	f.hits[key]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	body, ok := f.pages[key]
	if !ok {
		return fetcher.FetchResult{}, &fetcher.FetchError{
			Message:    "not found",
			StatusCode: 404,
			Cause:      fetcher.ErrCauseUnsuccessfulStatus,
		}
	}
	return fetcher.NewFetchResultForTest(fetchUrl, []byte(body), 200, "text/html"), nil
}

func (f *siteFetcher) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *siteFetcher) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.hits {
		total += n
	}
	return total
}

func (f *siteFetcher) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

// panickingExtractor blows up on one URL and delegates otherwise
type panickingExtractor struct {
	next    extractor.Extractor
	panicOn string
}

func (p *panickingExtractor) Extract(sourceUrl url.URL, htmlByte []byte) (extractor.ExtractionResult, failure.ClassifiedError) {
	if sourceUrl.String() == p.panicOn {
		panic("extractor exploded")
	}
	return p.next.Extract(sourceUrl, htmlByte)
}

// fixedLinksExtractor ignores the page and always reports the same links
type fixedLinksExtractor struct {
	links []url.URL
}

func (f *fixedLinksExtractor) Extract(sourceUrl url.URL, htmlByte []byte) (extractor.ExtractionResult, failure.ClassifiedError) {
	return extractor.ExtractionResult{
		BodyText: "fixed",
		Links:    f.links,
	}, nil
}

// archiverSpy records archived URLs and can be told to fail
type archiverSpy struct {
	mu   sync.Mutex
	urls []string
	fail bool
}

func (a *archiverSpy) Archive(sourceUrl string, title string, documentRoot *html.Node) (storage.WriteResult, failure.ClassifiedError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, sourceUrl)
	if a.fail {
		return storage.WriteResult{}, &storage.StorageError{Message: "disk gone", Cause: storage.ErrCauseWriteFailure}
	}
	return storage.NewWriteResult("hash", "/tmp/"+title, "content"), nil
}

func (a *archiverSpy) archived() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.urls...)
}

// mockFinalizer is a test double that captures final crawl statistics
type mockFinalizer struct {
	mu            sync.Mutex
	calls         int
	recordedStats *capturedStats
}

type capturedStats struct {
	totalPages  int
	totalErrors int
	duration    time.Duration
}

func (m *mockFinalizer) RecordFinalCrawlStats(
	totalPages int,
	totalErrors int,
	duration time.Duration,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.recordedStats = &capturedStats{
		totalPages:  totalPages,
		totalErrors: totalErrors,
		duration:    duration,
	}
}

func buildConfig(t *testing.T, builder *config.Config) config.Config {
	t.Helper()
	cfg, err := builder.Build()
	require.NoError(t, err)
	return cfg
}

// newTestScheduler wires a scheduler around the given fetcher with the real extractor
func newTestScheduler(
	t *testing.T,
	cfg config.Config,
	finalizer metadata.CrawlFinalizer,
	pageFetcher fetcher.Fetcher,
	pageExtractor extractor.Extractor,
	archiver scheduler.Archiver,
) *scheduler.Scheduler {
	t.Helper()
	sink := &metadata.NoopSink{}
	if pageExtractor == nil {
		domExtractor := extractor.NewDomExtractor(sink)
		pageExtractor = &domExtractor
	}
	s := scheduler.NewSchedulerWithDeps(cfg, finalizer, sink, pageFetcher, pageExtractor, archiver)
	return &s
}

func resultURLs(results []scheduler.CrawlResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.URL())
	}
	return out
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}
