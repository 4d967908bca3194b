package index

import (
	"sort"

	"github.com/rohmanhakim/site-search/internal/tokenize"
)

/*
Responsibilities
- Turn crawled documents into term -> document -> count postings
- Record how many documents were indexed

Build runs once, after the crawl has finished. It reads nothing but the
documents it is handed and never mutates them.
*/

// Build indexes docs with tokenizer. A nil tokenizer means tokenize.Tokenize.
// The resulting document count is len(docs).
func Build[D Document](docs []D, tokenizer tokenize.Tokenizer) Index {
	if tokenizer == nil {
		tokenizer = tokenize.Tokenize
	}

	termTF := make(map[string]map[string]uint32)
	for _, doc := range docs {
		url := doc.URL()
		for _, token := range tokenizer(doc.BodyText()) {
			postings, ok := termTF[token]
			if !ok {
				postings = make(map[string]uint32)
				termTF[token] = postings
			}
			postings[url]++
		}
	}

	return Index{
		termTF:    termTF,
		docCount:  len(docs),
		tokenizer: tokenizer,
	}
}

// Inverted returns term -> URLs containing it, URLs sorted.
func (i Index) Inverted() map[string][]string {
	inverted := make(map[string][]string, len(i.termTF))
	for term, postings := range i.termTF {
		inverted[term] = sortedKeys(postings)
	}
	return inverted
}

func sortedKeys(postings map[string]uint32) []string {
	urls := make([]string, 0, len(postings))
	for url := range postings {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
