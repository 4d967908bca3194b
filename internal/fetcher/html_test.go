package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/site-search/internal/fetcher"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/rohmanhakim/site-search/pkg/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMetadataSink is a test double for metadata.MetadataSink
type mockMetadataSink struct {
	metadata.NoopSink
	mu          sync.Mutex
	fetchEvents []fetchEvent
	errorEvents []errorEvent
}

type fetchEvent struct {
	fetchUrl    string
	httpStatus  int
	contentType string
	crawlDepth  int
}

type errorEvent struct {
	packageName string
	action      string
	cause       metadata.ErrorCause
	details     string
}

func (m *mockMetadataSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchEvents = append(m.fetchEvents, fetchEvent{
		fetchUrl:    fetchUrl,
		httpStatus:  httpStatus,
		contentType: contentType,
		crawlDepth:  crawlDepth,
	})
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorEvents = append(m.errorEvents, errorEvent{
		packageName: packageName,
		action:      action,
		cause:       cause,
		details:     details,
	})
}

func newTestFetcher(t *testing.T, client *http.Client, rl limiter.RateLimiter) (*fetcher.HtmlFetcher, *mockMetadataSink) {
	t.Helper()
	sink := &mockMetadataSink{}
	f := fetcher.NewHtmlFetcher(sink)
	f.Init(client, "site-search-test/1.0", rl)
	return &f, sink
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func requireFetchError(t *testing.T, err failure.ClassifiedError) *fetcher.FetchError {
	t.Helper()
	require.NotNil(t, err)
	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr), "expected *fetcher.FetchError, got %T", err)
	assert.Equal(t, failure.SeverityRecoverable, err.Severity())
	return fetchErr
}

func TestHtmlFetcher_Fetch_Success(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>Hello World</body></html>"))
	}))
	defer server.Close()

	f, sink := newTestFetcher(t, nil, nil)

	result, err := f.Fetch(context.Background(), 2, mustParseURL(t, server.URL+"/page"))

	require.Nil(t, err)
	assert.Equal(t, http.StatusOK, result.Code())
	assert.Equal(t, "<html><body>Hello World</body></html>", string(result.Body()))
	assert.Equal(t, "text/html; charset=utf-8", result.ContentType())
	assert.Equal(t, uint64(len(result.Body())), result.SizeByte())
	resultURL := result.URL()
	assert.Equal(t, server.URL+"/page", resultURL.String())
	assert.Equal(t, "site-search-test/1.0", gotUserAgent)

	require.Len(t, sink.fetchEvents, 1)
	assert.Equal(t, server.URL+"/page", sink.fetchEvents[0].fetchUrl)
	assert.Equal(t, http.StatusOK, sink.fetchEvents[0].httpStatus)
	assert.Equal(t, 2, sink.fetchEvents[0].crawlDepth)
	assert.Empty(t, sink.errorEvents)
}

// TestHtmlFetcher_Fetch_NonHTMLAccepted verifies that content type is not used to reject pages
func TestHtmlFetcher_Fetch_NonHTMLAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("plain words"))
	}))
	defer server.Close()

	f, _ := newTestFetcher(t, nil, nil)

	result, err := f.Fetch(context.Background(), 0, mustParseURL(t, server.URL))

	require.Nil(t, err)
	assert.Equal(t, "plain words", string(result.Body()))
}

func TestHtmlFetcher_Fetch_UnsuccessfulStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"too many requests", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f, sink := newTestFetcher(t, nil, nil)

			_, err := f.Fetch(context.Background(), 1, mustParseURL(t, server.URL))

			fetchErr := requireFetchError(t, err)
			assert.Equal(t, fetcher.ErrCauseUnsuccessfulStatus, fetchErr.Cause)
			assert.Equal(t, tt.status, fetchErr.StatusCode)
			assert.Equal(t, int32(1), hits.Load(), "fetch must not retry")

			require.Len(t, sink.fetchEvents, 1)
			assert.Equal(t, tt.status, sink.fetchEvents[0].httpStatus)
			require.Len(t, sink.errorEvents, 1)
			assert.Equal(t, "fetcher", sink.errorEvents[0].packageName)
			assert.Equal(t, "HtmlFetcher.Fetch", sink.errorEvents[0].action)
			assert.Equal(t, metadata.CauseNetworkFailure, sink.errorEvents[0].cause)
		})
	}
}

func TestHtmlFetcher_Fetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	f, sink := newTestFetcher(t, nil, nil)

	_, err := f.Fetch(context.Background(), 0, mustParseURL(t, addr))

	fetchErr := requireFetchError(t, err)
	assert.Equal(t, fetcher.ErrCauseNetworkFailure, fetchErr.Cause)
	require.Len(t, sink.fetchEvents, 1)
	assert.Equal(t, 0, sink.fetchEvents[0].httpStatus)
	require.Len(t, sink.errorEvents, 1)
}

func TestHtmlFetcher_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f, _ := newTestFetcher(t, fetcher.NewHTTPClient(50*time.Millisecond), nil)

	start := time.Now()
	_, err := f.Fetch(context.Background(), 0, mustParseURL(t, server.URL))

	fetchErr := requireFetchError(t, err)
	assert.Equal(t, fetcher.ErrCauseTimeout, fetchErr.Cause)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHtmlFetcher_Fetch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f, _ := newTestFetcher(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, 0, mustParseURL(t, server.URL))

	requireFetchError(t, err)
}

func TestHtmlFetcher_Fetch_RateLimiterAborted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	rl := limiter.NewConcurrentRateLimiter(0.01, 1)
	f, _ := newTestFetcher(t, nil, rl)
	target := mustParseURL(t, server.URL)

	_, err := f.Fetch(context.Background(), 0, target)
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, 0, target)

	fetchErr := requireFetchError(t, err)
	assert.Equal(t, fetcher.ErrCauseRateLimitWait, fetchErr.Cause)
}

func TestHtmlFetcher_Fetch_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved here"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f, _ := newTestFetcher(t, nil, nil)

	result, err := f.Fetch(context.Background(), 0, mustParseURL(t, server.URL+"/old"))

	require.Nil(t, err)
	assert.Equal(t, "moved here", string(result.Body()))
	resultURL := result.URL()
	assert.Equal(t, server.URL+"/old", resultURL.String(), "result keeps the requested URL")
}

func TestHtmlFetcher_Fetch_RejectsOffSiteRedirect(t *testing.T) {
	var elsewhereHits atomic.Int32
	elsewhere := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		elsewhereHits.Add(1)
		w.Write([]byte("someone else's page"))
	}))
	defer elsewhere.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, elsewhere.URL+"/landing", http.StatusFound)
	}))
	defer server.Close()

	f, sink := newTestFetcher(t, nil, nil)

	result, err := f.Fetch(context.Background(), 1, mustParseURL(t, server.URL+"/away"))

	fetchErr := requireFetchError(t, err)
	assert.Equal(t, fetcher.ErrCauseOffSiteRedirect, fetchErr.Cause)
	assert.Empty(t, result.Body())
	assert.Equal(t, int32(0), elsewhereHits.Load(), "the other host is never contacted")
	require.Len(t, sink.errorEvents, 1)
	assert.Equal(t, metadata.CauseNetworkFailure, sink.errorEvents[0].cause)
}

func TestHtmlFetcher_Fetch_BodyTooLarge(t *testing.T) {
	oversized := make([]byte, 10<<20+1)
	for i := range oversized {
		oversized[i] = 'a'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(oversized)
	}))
	defer server.Close()

	f, sink := newTestFetcher(t, nil, nil)

	result, err := f.Fetch(context.Background(), 0, mustParseURL(t, server.URL+"/huge"))

	fetchErr := requireFetchError(t, err)
	assert.Equal(t, fetcher.ErrCauseBodyTooLarge, fetchErr.Cause)
	assert.Empty(t, result.Body(), "a truncated body is never returned")
	require.Len(t, sink.errorEvents, 1)
	assert.Equal(t, metadata.CauseContentInvalid, sink.errorEvents[0].cause)
}

func TestHtmlFetcher_Fetch_BodyAtLimit(t *testing.T) {
	exact := make([]byte, 10<<20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(exact)
	}))
	defer server.Close()

	f, _ := newTestFetcher(t, nil, nil)

	result, err := f.Fetch(context.Background(), 0, mustParseURL(t, server.URL+"/big"))

	require.Nil(t, err)
	assert.Len(t, result.Body(), 10<<20)
}

func TestFetchError_Message(t *testing.T) {
	withStatus := &fetcher.FetchError{Message: "Not Found", StatusCode: 404, Cause: fetcher.ErrCauseUnsuccessfulStatus}
	assert.Equal(t, "fetcher error: non-2xx status (404)", withStatus.Error())

	transport := &fetcher.FetchError{Message: "dial tcp: refused", Cause: fetcher.ErrCauseNetworkFailure}
	assert.Equal(t, "fetcher error: network issues: dial tcp: refused", transport.Error())
}
