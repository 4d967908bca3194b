package index

import (
	"math"
	"sort"

	"github.com/rohmanhakim/site-search/internal/tokenize"
)

// SearchRanked scores every document containing at least one query term.
//
// For each distinct query term t with document frequency df over n indexed
// documents:
//
//	idf(t) = ln((n+1)/(df+1)) + 1
//	score(d) += tf(t, d) * idf(t)
//
// Terms absent from the index contribute nothing. Results are ordered by
// score descending, equal scores by URL ascending.
// An empty query or an empty index yields an empty result.
func (i Index) SearchRanked(query string) []Hit {
	hits := []Hit{}
	if i.docCount == 0 {
		return hits
	}
	terms := tokenize.Distinct(i.tokenize(query))
	if len(terms) == 0 {
		return hits
	}

	n := float64(i.docCount)
	scores := make(map[string]float64)
	for _, term := range terms {
		postings, ok := i.termTF[term]
		if !ok {
			continue
		}
		idf := math.Log((n+1)/(float64(len(postings))+1)) + 1
		for url, tf := range postings {
			scores[url] += float64(tf) * idf
		}
	}

	for url, score := range scores {
		hits = append(hits, Hit{URL: url, Score: score})
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].URL < hits[b].URL
	})
	return hits
}

// Search returns the URLs containing every query term, sorted.
// An empty query, or any term missing from the index, yields an empty result.
func (i Index) Search(query string) []string {
	terms := tokenize.Distinct(i.tokenize(query))
	if len(terms) == 0 {
		return []string{}
	}

	first, ok := i.termTF[terms[0]]
	if !ok {
		return []string{}
	}
	candidates := make(map[string]struct{}, len(first))
	for url := range first {
		candidates[url] = struct{}{}
	}

	for _, term := range terms[1:] {
		postings, ok := i.termTF[term]
		if !ok {
			return []string{}
		}
		for url := range candidates {
			if _, present := postings[url]; !present {
				delete(candidates, url)
			}
		}
	}

	urls := make([]string, 0, len(candidates))
	for url := range candidates {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
