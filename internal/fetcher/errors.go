package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseInvalidRequest        FetchErrorCause = "invalid request"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseUnsuccessfulStatus    FetchErrorCause = "non-2xx status"
	ErrCauseRateLimitWait         FetchErrorCause = "rate limiter wait aborted"
	ErrCauseBodyTooLarge          FetchErrorCause = "response body too large"
	ErrCauseOffSiteRedirect       FetchErrorCause = "redirect to another host"
)

// FetchError covers every way a single page fetch can fail.
// A failed page is skipped and the crawl carries on, so it is always recoverable.
type FetchError struct {
	Message    string
	StatusCode int
	Cause      FetchErrorCause
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetcher error: %s (%d)", e.Cause, e.StatusCode)
	}
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseUnsuccessfulStatus, ErrCauseOffSiteRedirect:
		return metadata.CauseNetworkFailure
	case ErrCauseReadResponseBodyError, ErrCauseBodyTooLarge:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
