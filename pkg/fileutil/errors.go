package fileutil

import (
	"fmt"

	"github.com/rohmanhakim/site-search/pkg/failure"
)

type FileErrorCause string

const (
	ErrCausePathError   FileErrorCause = "path error"
	ErrCauseWriteError  FileErrorCause = "write error"
	ErrCauseRenameError FileErrorCause = "rename error"
)

type FileError struct {
	Message string
	Path    string
	Cause   FileErrorCause
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error: %s: %s", e.Cause, e.Message)
}

// Filesystem failures are left to the caller to reclassify; on their own they are fatal.
func (e *FileError) Severity() failure.Severity {
	return failure.SeverityFatal
}
