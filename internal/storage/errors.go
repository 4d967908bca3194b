package storage

import (
	"fmt"

	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
)

type StorageErrorCause string

const (
	ErrCauseDiskFull              StorageErrorCause = "disk is full"
	ErrCauseWriteFailure          StorageErrorCause = "write failed"
	ErrCausePathError             StorageErrorCause = "path error"
	ErrCauseHashComputationFailed StorageErrorCause = "hash computation failed"
)

// StorageError reports a failed archive write. The index is unaffected by the
// archive, so these never stop a crawl.
type StorageError struct {
	Message string
	Cause   StorageErrorCause
	Path    string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %s", e.Cause, e.Message)
}

func (e *StorageError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

type PersistenceErrorCause string

const (
	ErrCauseReadFailure   PersistenceErrorCause = "read failed"
	ErrCauseEncodeFailure PersistenceErrorCause = "encode failed"
	ErrCauseSaveFailure   PersistenceErrorCause = "save failed"
	ErrCauseUnknownSchema PersistenceErrorCause = "unrecognized index schema"
)

// PersistenceError reports a failure to save or load the index file.
// It is always fatal to the command that triggered it.
type PersistenceError struct {
	Message string
	Cause   PersistenceErrorCause
	Path    string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s: %s: %s", e.Cause, e.Path, e.Message)
}

func (e *PersistenceError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// mapStorageErrorToMetadataCause maps storage-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapStorageErrorToMetadataCause(err *StorageError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseDiskFull, ErrCauseWriteFailure, ErrCausePathError:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}

func mapPersistenceErrorToMetadataCause(err *PersistenceError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseSaveFailure, ErrCauseReadFailure:
		return metadata.CauseStorageFailure
	case ErrCauseUnknownSchema, ErrCauseEncodeFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
