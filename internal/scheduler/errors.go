package scheduler

import (
	"fmt"

	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
)

type ConcurrencyErrorCause string

const (
	ErrCauseTaskPanicked      ConcurrencyErrorCause = "crawl task panicked"
	ErrCausePermitUnavailable ConcurrencyErrorCause = "could not acquire a fetch permit"
)

// ConcurrencyError aborts the whole crawl.
type ConcurrencyError struct {
	Message string
	Cause   ConcurrencyErrorCause
	Err     error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency error: %s: %s", e.Cause, e.Message)
}

func (e *ConcurrencyError) Unwrap() error {
	return e.Err
}

func (e *ConcurrencyError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func mapConcurrencyErrorToMetadataCause(err *ConcurrencyError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTaskPanicked, ErrCausePermitUnavailable:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
