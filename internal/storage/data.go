package storage

import (
	"github.com/rohmanhakim/site-search/internal/index"
)

// Persistence

type WriteResult struct {
	urlHash     string // identity (filename without extension)
	path        string
	contentHash string
}

func NewWriteResult(
	urlHash string,
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		urlHash:     urlHash,
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) URLHash() string {
	return w.urlHash
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

// ArchivePage is a crawled page ready to be written to the archive.
type ArchivePage struct {
	sourceUrl string
	title     string
	markdown  []byte
}

func NewArchivePage(sourceUrl, title string, markdown []byte) ArchivePage {
	return ArchivePage{
		sourceUrl: sourceUrl,
		title:     title,
		markdown:  markdown,
	}
}

func (p ArchivePage) SourceURL() string {
	return p.sourceUrl
}

func (p ArchivePage) Title() string {
	return p.title
}

func (p ArchivePage) Markdown() []byte {
	return p.markdown
}

// indexFile is the on-disk counted schema.
type indexFile struct {
	TermTF   map[string]map[string]uint32 `json:"term_tf"`
	DocCount int                          `json:"doc_count"`
}

// strictIndexFile detects a missing key: both fields must decode to non-nil.
type strictIndexFile struct {
	TermTF   *map[string]map[string]uint32 `json:"term_tf"`
	DocCount *int                          `json:"doc_count"`
}

// legacyIndexFile is the older term -> URL list layout without counts.
type legacyIndexFile map[string][]string

func toIndexFile(idx index.Index) indexFile {
	return indexFile{
		TermTF:   idx.TermTF(),
		DocCount: idx.DocCount(),
	}
}

func (l legacyIndexFile) toIndex() index.Index {
	termTF := make(map[string]map[string]uint32, len(l))
	documents := make(map[string]struct{})
	for term, urls := range l {
		postings := make(map[string]uint32, len(urls))
		for _, u := range urls {
			postings[u] = 1
			documents[u] = struct{}{}
		}
		termTF[term] = postings
	}
	return index.New(termTF, len(documents))
}
