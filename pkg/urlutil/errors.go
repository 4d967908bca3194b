package urlutil

import (
	"fmt"

	"github.com/rohmanhakim/site-search/pkg/failure"
)

type ParseErrorCause string

const (
	ErrCauseMalformed   ParseErrorCause = "malformed url"
	ErrCauseNotAbsolute ParseErrorCause = "not an absolute http(s) url"
)

// ParseError is raised when the crawl seed cannot be used as a start URL.
// It is always fatal for the crawl it belongs to.
type ParseError struct {
	Message string
	Input   string
	Cause   ParseErrorCause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("url parse error: %s: %q: %s", e.Cause, e.Input, e.Message)
}

func (e *ParseError) Severity() failure.Severity {
	return failure.SeverityFatal
}
