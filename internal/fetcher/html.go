package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/rohmanhakim/site-search/pkg/limiter"
	"github.com/rohmanhakim/site-search/pkg/urlutil"
)

/*
Responsibilities

- Perform HTTP GET requests through one shared client
- Apply headers, pacing and the optional per-request timeout
- Classify failures

Fetch Semantics

- Any 2xx response is a success, whatever its content type
- Transport errors, timeouts and non-2xx responses are FetchErrors
- Redirects are followed only while they stay on the requested host
- Bodies over maxBodyBytes fail instead of being indexed partially
- There are no retries; a failed page is simply skipped by the caller
- Every attempt is recorded with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

const (
	maxBodyBytes = 10 << 20
	maxRedirects = 10
)

var errOffSiteRedirect = errors.New("redirect leaves the site")

var _ Fetcher = (*HtmlFetcher)(nil)

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
	rateLimiter  limiter.RateLimiter
}

func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   NewHTTPClient(0),
		rateLimiter:  limiter.NoopRateLimiter{},
	}
}

// Init replaces the HTTP client, user agent and rate limiter.
// It must be called before the fetcher is shared between goroutines.
func (h *HtmlFetcher) Init(httpClient *http.Client, userAgent string, rateLimiter limiter.RateLimiter) {
	if httpClient != nil {
		h.httpClient = httpClient
	}
	h.userAgent = userAgent
	if rateLimiter != nil {
		h.rateLimiter = rateLimiter
	}
}

// NewHTTPClient returns a pooled client. A zero timeout means no timeout.
// Redirects to another host are refused.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: sameSiteRedirect,
	}
}

func sameSiteRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if !urlutil.SameSite(*via[0].URL, *req.URL) {
		return fmt.Errorf("%w: %s -> %s", errOffSiteRedirect, via[0].URL.Host, req.URL.Host)
	}
	return nil
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	crawlDepth int,
	fetchUrl url.URL,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"
	startTime := time.Now()

	result, statusCode, err := h.performFetch(ctx, fetchUrl)

	h.metadataSink.RecordFetch(
		fetchUrl.String(),
		statusCode,
		time.Since(startTime),
		result.ContentType(),
		crawlDepth,
	)

	if err != nil {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
				metadata.NewAttr(metadata.AttrDepth, fmt.Sprintf("%d", crawlDepth)),
			},
		)
		return FetchResult{}, err
	}

	return result, nil
}

func (h *HtmlFetcher) performFetch(ctx context.Context, fetchUrl url.URL) (FetchResult, int, *FetchError) {
	if err := h.rateLimiter.Wait(ctx, fetchUrl.Host); err != nil {
		return FetchResult{}, 0, &FetchError{
			Message: err.Error(),
			Cause:   ErrCauseRateLimitWait,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, 0, &FetchError{
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   ErrCauseInvalidRequest,
		}
	}
	for key, value := range requestHeaders(h.userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, 0, &FetchError{
			Message: fmt.Sprintf("request failed: %v", err),
			Cause:   classifyTransportError(err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can go back to the pool
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message:    http.StatusText(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Cause:      ErrCauseUnsuccessfulStatus,
		}
	}

	// one byte past the limit tells a full body from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message: err.Error(),
			Cause:   classifyReadError(err),
		}
	}
	if len(body) > maxBodyBytes {
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message: fmt.Sprintf("response body exceeds %d bytes", maxBodyBytes),
			Cause:   ErrCauseBodyTooLarge,
		}
	}

	result := FetchResult{
		url:  fetchUrl,
		body: body,
		meta: ResponseMeta{
			statusCode:          resp.StatusCode,
			contentType:         resp.Header.Get("Content-Type"),
			transferredSizeByte: uint64(len(body)),
		},
	}
	return result, resp.StatusCode, nil
}

func classifyTransportError(err error) FetchErrorCause {
	if errors.Is(err, errOffSiteRedirect) {
		return ErrCauseOffSiteRedirect
	}
	if isTimeout(err) {
		return ErrCauseTimeout
	}
	return ErrCauseNetworkFailure
}

func classifyReadError(err error) FetchErrorCause {
	if isTimeout(err) {
		return ErrCauseTimeout
	}
	return ErrCauseReadResponseBodyError
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func requestHeaders(userAgent string) map[string]string {
	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
	if userAgent != "" {
		headers["User-Agent"] = userAgent
	}
	return headers
}
