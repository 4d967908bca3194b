package mdconvert

import (
	"fmt"

	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
)

type ConversionErrorCause string

const (
	ErrCauseNilDocument       ConversionErrorCause = "nil document"
	ErrCauseConversionFailure ConversionErrorCause = "conversion failed"
)

// ConversionError only affects the Markdown snapshot of a page, never its
// place in the index, so it is always recoverable.
type ConversionError struct {
	Message string
	Cause   ConversionErrorCause
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error: %s: %s", e.Cause, e.Message)
}

func (e *ConversionError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func mapConversionErrorToMetadataCause(err *ConversionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNilDocument, ErrCauseConversionFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
