package index

import (
	"github.com/rohmanhakim/site-search/internal/tokenize"
)

// Document is anything the builder can index: a stable identity and its text.
type Document interface {
	URL() string
	BodyText() string
}

// Index is an immutable term-frequency inverted index.
// termTF maps term -> document URL -> occurrence count.
// Every inner count is at least 1; terms with no postings are never stored.
type Index struct {
	termTF    map[string]map[string]uint32
	docCount  int
	tokenizer tokenize.Tokenizer
}

// New wraps already computed postings, as read back from storage.
// The maps are copied, so later changes by the caller do not leak in.
func New(termTF map[string]map[string]uint32, docCount int) Index {
	return Index{
		termTF:    copyPostings(termTF),
		docCount:  docCount,
		tokenizer: tokenize.Tokenize,
	}
}

// Hit is one ranked search result.
type Hit struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

func (i Index) DocCount() int {
	return i.docCount
}

func (i Index) TermCount() int {
	return len(i.termTF)
}

// TermTF returns a copy of the postings.
func (i Index) TermTF() map[string]map[string]uint32 {
	return copyPostings(i.termTF)
}

// TermFrequency returns how often term occurs in the document at url.
func (i Index) TermFrequency(term, url string) uint32 {
	return i.termTF[term][url]
}

func (i Index) tokenize(text string) []string {
	if i.tokenizer == nil {
		return tokenize.Tokenize(text)
	}
	return i.tokenizer(text)
}

func copyPostings(src map[string]map[string]uint32) map[string]map[string]uint32 {
	dst := make(map[string]map[string]uint32, len(src))
	for term, postings := range src {
		inner := make(map[string]uint32, len(postings))
		for url, count := range postings {
			inner[url] = count
		}
		dst[term] = inner
	}
	return dst
}
