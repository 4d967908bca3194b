package extractor

import (
	"fmt"

	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseNotHTML ExtractionErrorCause = "unparseable html"
)

// ExtractionError means a fetched page could not be turned into a result.
// The page is skipped, so it is always recoverable.
type ExtractionError struct {
	Message string
	Cause   ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s: %s", e.Cause, e.Message)
}

func (e *ExtractionError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotHTML:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
