package index_test

import (
	"math"
	"strings"
	"testing"

	"github.com/rohmanhakim/site-search/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	url  string
	body string
}

func (p page) URL() string      { return p.url }
func (p page) BodyText() string { return p.body }

const (
	urlA = "https://example.com/a"
	urlB = "https://example.com/b"
	urlC = "https://example.com/c"
)

func twoPageIndex() index.Index {
	return index.Build([]page{
		{url: urlA, body: "rust async rust"},
		{url: urlB, body: "go async"},
	}, nil)
}

// TestBuild_CountsEveryOccurrence verifies per-document term counts and the document count
func TestBuild_CountsEveryOccurrence(t *testing.T) {
	idx := twoPageIndex()

	assert.Equal(t, 2, idx.DocCount())
	assert.Equal(t, 3, idx.TermCount())
	assert.Equal(t, uint32(2), idx.TermFrequency("rust", urlA))
	assert.Equal(t, uint32(0), idx.TermFrequency("rust", urlB))
	assert.Equal(t, uint32(1), idx.TermFrequency("async", urlA))
	assert.Equal(t, uint32(1), idx.TermFrequency("async", urlB))
	assert.Equal(t, uint32(1), idx.TermFrequency("go", urlB))
}

// TestBuild_DocumentWithoutTokensStillCounted verifies an empty page contributes to n but not to postings
func TestBuild_DocumentWithoutTokensStillCounted(t *testing.T) {
	idx := index.Build([]page{
		{url: urlA, body: "hello"},
		{url: urlB, body: "  ... "},
	}, nil)

	assert.Equal(t, 2, idx.DocCount())
	assert.Equal(t, 1, idx.TermCount())
}

// TestBuild_Empty verifies indexing nothing produces an empty but usable index
func TestBuild_Empty(t *testing.T) {
	idx := index.Build([]page{}, nil)

	assert.Equal(t, 0, idx.DocCount())
	assert.Empty(t, idx.TermTF())
	assert.Empty(t, idx.SearchRanked("anything"))
	assert.Empty(t, idx.Search("anything"))
}

func TestInverted(t *testing.T) {
	inverted := twoPageIndex().Inverted()

	assert.Equal(t, []string{urlA, urlB}, inverted["async"])
	assert.Equal(t, []string{urlA}, inverted["rust"])
	assert.Equal(t, []string{urlB}, inverted["go"])
	assert.Len(t, inverted, 3)
}

func TestTermTF_ReturnsCopy(t *testing.T) {
	idx := twoPageIndex()

	tf := idx.TermTF()
	tf["rust"][urlA] = 99
	delete(tf, "go")

	assert.Equal(t, uint32(2), idx.TermFrequency("rust", urlA))
	assert.Equal(t, uint32(1), idx.TermFrequency("go", urlB))
}

// TestSearchRanked_Scores verifies tf*idf accumulation with idf = ln((n+1)/(df+1)) + 1
func TestSearchRanked_Scores(t *testing.T) {
	idx := twoPageIndex()

	hits := idx.SearchRanked("rust async")
	require.Len(t, hits, 2)

	rustIDF := math.Log(3.0/2.0) + 1
	assert.Equal(t, urlA, hits[0].URL)
	assert.InDelta(t, 2*rustIDF+1, hits[0].Score, 1e-9)
	assert.Equal(t, urlB, hits[1].URL)
	assert.InDelta(t, 1.0, hits[1].Score, 1e-9)
}

// TestSearchRanked_RareTermOutranksCommonTerm verifies that higher idf wins for equal tf
func TestSearchRanked_RareTermOutranksCommonTerm(t *testing.T) {
	idx := index.Build([]page{
		{url: urlA, body: "common rare"},
		{url: urlB, body: "common"},
		{url: urlC, body: "common"},
	}, nil)

	hits := idx.SearchRanked("common rare")
	require.Len(t, hits, 3)
	assert.Equal(t, urlA, hits[0].URL)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

// TestSearchRanked_TiesOrderedByURL verifies deterministic order for equal scores
func TestSearchRanked_TiesOrderedByURL(t *testing.T) {
	idx := index.Build([]page{
		{url: urlC, body: "shared"},
		{url: urlA, body: "shared"},
		{url: urlB, body: "shared"},
	}, nil)

	hits := idx.SearchRanked("shared")
	require.Len(t, hits, 3)
	assert.Equal(t, []string{urlA, urlB, urlC}, []string{hits[0].URL, hits[1].URL, hits[2].URL})
}

// TestSearchRanked_DuplicateQueryTermsCountOnce verifies each distinct query term contributes once
func TestSearchRanked_DuplicateQueryTermsCountOnce(t *testing.T) {
	idx := twoPageIndex()

	once := idx.SearchRanked("rust")
	twice := idx.SearchRanked("rust RUST rust!")
	require.Len(t, once, 1)
	require.Len(t, twice, 1)
	assert.InDelta(t, once[0].Score, twice[0].Score, 1e-12)
}

func TestSearchRanked_EmptyResults(t *testing.T) {
	idx := twoPageIndex()

	tests := []struct {
		name  string
		query string
	}{
		{"empty query", ""},
		{"whitespace query", "   "},
		{"punctuation query", "?!"},
		{"unknown term", "python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := idx.SearchRanked(tt.query)
			assert.NotNil(t, hits)
			assert.Empty(t, hits)
		})
	}
}

// TestSearchRanked_UnknownTermsIgnored verifies absent terms do not remove matches of present ones
func TestSearchRanked_UnknownTermsIgnored(t *testing.T) {
	idx := twoPageIndex()

	hits := idx.SearchRanked("go python")
	require.Len(t, hits, 1)
	assert.Equal(t, urlB, hits[0].URL)
}

func TestSearch_AndSemantics(t *testing.T) {
	idx := twoPageIndex()

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"shared term", "async", []string{urlA, urlB}},
		{"intersection", "rust async", []string{urlA}},
		{"case and punctuation", "ASYNC, Go!", []string{urlB}},
		{"one term missing", "rust python", []string{}},
		{"no overlap", "rust go", []string{}},
		{"empty query", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, idx.Search(tt.query))
		})
	}
}

// TestBuild_CustomTokenizerAppliesToQueries verifies the index keeps its tokenizer for search
func TestBuild_CustomTokenizerAppliesToQueries(t *testing.T) {
	commaSplit := func(text string) []string {
		var out []string
		for _, part := range strings.Split(text, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}

	idx := index.Build([]page{{url: urlA, body: "New York, Paris"}}, commaSplit)

	assert.Equal(t, uint32(1), idx.TermFrequency("New York", urlA))
	assert.Equal(t, []string{urlA}, idx.Search("Paris, New York"))
	assert.Empty(t, idx.Search("new york"))
}

func TestNew_CopiesInput(t *testing.T) {
	postings := map[string]map[string]uint32{
		"alpha": {urlA: 3},
	}
	idx := index.New(postings, 1)
	postings["alpha"][urlA] = 0

	assert.Equal(t, uint32(3), idx.TermFrequency("alpha", urlA))
	assert.Equal(t, []string{urlA}, idx.Search("Alpha"))
}
