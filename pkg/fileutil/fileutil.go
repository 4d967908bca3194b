package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohmanhakim/site-search/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	fullDir := filepath.Join(targetPath...)
	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return &FileError{
			Message: fmt.Sprintf("%v", err),
			Path:    fullDir,
			Cause:   ErrCausePathError,
		}
	}
	return nil
}

// WriteFileAtomic replaces the file at path with data. The content is first
// written to a temporary file in the same directory and then renamed over the
// target, so readers observe either the old or the new file, never a partial one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) failure.ClassifiedError {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &FileError{
			Message: err.Error(),
			Path:    path,
			Cause:   ErrCauseWriteError,
		}
	}
	tmpName := tmp.Name()

	// the temp file is gone after a successful rename, so this only cleans failures
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &FileError{Message: err.Error(), Path: tmpName, Cause: ErrCauseWriteError}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &FileError{Message: err.Error(), Path: tmpName, Cause: ErrCauseWriteError}
	}
	if err := tmp.Close(); err != nil {
		return &FileError{Message: err.Error(), Path: tmpName, Cause: ErrCauseWriteError}
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return &FileError{Message: err.Error(), Path: tmpName, Cause: ErrCauseWriteError}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &FileError{Message: err.Error(), Path: path, Cause: ErrCauseRenameError}
	}
	return nil
}
