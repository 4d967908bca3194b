package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/rohmanhakim/site-search/pkg/fileutil"
	"github.com/rohmanhakim/site-search/pkg/hashutil"
)

/*
Responsibilities
- Persist Markdown snapshots of crawled pages
- Ensure deterministic filenames

Output Characteristics
- Flat directory layout: <outputDir>/<url hash>.md
- Idempotent writes
- Overwrite-safe reruns
*/

// urlHashLength is the number of hex characters of the URL digest used as filename.
const urlHashLength = 12

type Sink interface {
	Write(
		outputDir string,
		page ArchivePage,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

var _ Sink = (*LocalSink)(nil)

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	page ArchivePage,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, page, hashAlgo)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, page.SourceURL()),
				metadata.NewAttr(metadata.AttrWritePath, err.Path),
			},
		)
		return WriteResult{}, err
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactArchivePage,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrURL, page.SourceURL()),
			metadata.NewAttr(metadata.AttrField, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

func write(
	outputDir string,
	page ArchivePage,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, *StorageError) {
	urlHash, err := hashutil.ShortHash([]byte(page.SourceURL()), hashAlgo, urlHashLength)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCauseHashComputationFailed,
		}
	}
	contentHash, err := hashutil.HashBytes(page.Markdown(), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCauseHashComputationFailed,
		}
	}

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCausePathError,
			Path:    outputDir,
		}
	}

	fullPath := filepath.Join(outputDir, urlHash+".md")
	content := renderPage(page, string(hashAlgo)+":"+contentHash)
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		cause := ErrCauseWriteFailure
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
		}
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   cause,
			Path:    fullPath,
		}
	}

	return NewWriteResult(urlHash, fullPath, contentHash), nil
}

// renderPage prefixes the Markdown body with a front-matter block.
// Values are written as quoted strings, which YAML readers accept as-is.
func renderPage(page ArchivePage, contentHash string) []byte {
	header := fmt.Sprintf(
		"---\nsource_url: %q\ntitle: %q\ncontent_hash: %q\n---\n\n",
		page.SourceURL(),
		page.Title(),
		contentHash,
	)
	out := make([]byte, 0, len(header)+len(page.Markdown())+1)
	out = append(out, header...)
	out = append(out, page.Markdown()...)
	if len(page.Markdown()) > 0 && page.Markdown()[len(page.Markdown())-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}
