package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rohmanhakim/site-search/internal/index"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/rohmanhakim/site-search/pkg/fileutil"
)

/*
Index File Layout
- Counted schema: {"term_tf": {term: {url: count}}, "doc_count": n}
- Legacy schema:  {term: [url, ...]}

Save always writes the counted schema. Load accepts both and only ever
returns the canonical index.Index, so the legacy shape never leaks out
of this package.
*/

type IndexStore interface {
	Save(path string, idx index.Index) failure.ClassifiedError
	Load(path string) (index.Index, failure.ClassifiedError)
}

var _ IndexStore = (*LocalIndexStore)(nil)

type LocalIndexStore struct {
	metadataSink metadata.MetadataSink
}

func NewLocalIndexStore(
	metadataSink metadata.MetadataSink,
) LocalIndexStore {
	return LocalIndexStore{
		metadataSink: metadataSink,
	}
}

// Save writes idx to path as indented JSON. The file is replaced atomically.
func (s *LocalIndexStore) Save(path string, idx index.Index) failure.ClassifiedError {
	if err := save(path, idx); err != nil {
		s.recordError("LocalIndexStore.Save", err)
		return err
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactIndex,
		path,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, path),
			metadata.NewAttr(metadata.AttrField, "documents="+strconv.Itoa(idx.DocCount())),
			metadata.NewAttr(metadata.AttrField, "terms="+strconv.Itoa(idx.TermCount())),
		},
	)
	return nil
}

// Load reads an index previously written by Save, or one in the legacy layout.
func (s *LocalIndexStore) Load(path string) (index.Index, failure.ClassifiedError) {
	idx, err := load(path)
	if err != nil {
		s.recordError("LocalIndexStore.Load", err)
		return index.Index{}, err
	}
	return idx, nil
}

func (s *LocalIndexStore) recordError(action string, err *PersistenceError) {
	s.metadataSink.RecordError(
		time.Now(),
		"storage",
		action,
		mapPersistenceErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, err.Path),
		},
	)
}

func save(path string, idx index.Index) *PersistenceError {
	data, err := json.MarshalIndent(toIndexFile(idx), "", "  ")
	if err != nil {
		return &PersistenceError{
			Message: err.Error(),
			Cause:   ErrCauseEncodeFailure,
			Path:    path,
		}
	}
	if writeErr := fileutil.WriteFileAtomic(path, data, 0644); writeErr != nil {
		return &PersistenceError{
			Message: writeErr.Error(),
			Cause:   ErrCauseSaveFailure,
			Path:    path,
		}
	}
	return nil
}

func load(path string) (index.Index, *PersistenceError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return index.Index{}, &PersistenceError{
			Message: err.Error(),
			Cause:   ErrCauseReadFailure,
			Path:    path,
		}
	}

	if idx, ok := decodeCounted(data); ok {
		return idx, nil
	}

	idx, legacyErr := decodeLegacy(data)
	if legacyErr != nil {
		return index.Index{}, &PersistenceError{
			Message: legacyErr.Error(),
			Cause:   ErrCauseUnknownSchema,
			Path:    path,
		}
	}
	return idx, nil
}

// decodeCounted accepts only an object with exactly the two counted-schema keys.
func decodeCounted(data []byte) (index.Index, bool) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var file strictIndexFile
	if err := decoder.Decode(&file); err != nil {
		return index.Index{}, false
	}
	if file.TermTF == nil || file.DocCount == nil || *file.DocCount < 0 {
		return index.Index{}, false
	}
	return index.New(*file.TermTF, *file.DocCount), true
}

func decodeLegacy(data []byte) (index.Index, error) {
	var legacy legacyIndexFile
	if err := json.Unmarshal(data, &legacy); err != nil {
		return index.Index{}, err
	}
	if legacy == nil {
		return index.Index{}, errors.New("index file holds no object")
	}
	return legacy.toIndex(), nil
}
