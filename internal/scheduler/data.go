package scheduler

import (
	"net/url"
	"time"

	"github.com/rohmanhakim/site-search/internal/extractor"
)

// CrawlResult is one successfully fetched and parsed page.
// It is immutable; accessors return copies.
type CrawlResult struct {
	url      string
	title    string
	bodyText string
	links    []url.URL
}

// newCrawlResult keeps the first occurrence of every link, in discovery order.
func newCrawlResult(pageUrl string, extraction extractor.ExtractionResult) CrawlResult {
	seen := make(map[string]struct{}, len(extraction.Links))
	links := make([]url.URL, 0, len(extraction.Links))
	for _, link := range extraction.Links {
		key := link.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		links = append(links, link)
	}
	return CrawlResult{
		url:      pageUrl,
		title:    extraction.Title,
		bodyText: extraction.BodyText,
		links:    links,
	}
}

// NewCrawlResultForTest creates a CrawlResult for testing purposes.
func NewCrawlResultForTest(pageUrl, title, bodyText string, links []url.URL) CrawlResult {
	return newCrawlResult(pageUrl, extractor.ExtractionResult{
		Title:    title,
		BodyText: bodyText,
		Links:    links,
	})
}

func (c CrawlResult) URL() string {
	return c.url
}

func (c CrawlResult) Title() string {
	return c.title
}

func (c CrawlResult) BodyText() string {
	return c.bodyText
}

// Links returns the distinct same-site links found on the page.
func (c CrawlResult) Links() []string {
	out := make([]string, 0, len(c.links))
	for _, link := range c.links {
		out = append(out, link.String())
	}
	return out
}

type CrawlingExecution struct {
	// Results in completion order
	Results     []CrawlResult
	TotalErrors int
	Duration    time.Duration
	CrawlID     string
}

// taskOutcome is what a crawl task hands back to the dispatcher.
type taskOutcome struct {
	depth      int
	result     CrawlResult
	err        error
	archiveErr error
	panicValue any
	panicked   bool
}
