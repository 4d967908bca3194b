package extractor

import (
	"net/url"

	"golang.org/x/net/html"
)

// ExtractionResult holds the extraction outcome.
// Title is the trimmed text of the first <title>, empty when absent.
// BodyText is the trimmed text of the first <body>, empty when absent.
// Links holds every same-site <a href> target in document order, fragments
// stripped; duplicates are kept.
// DocumentRoot is the parsed HTML document.
type ExtractionResult struct {
	Title        string
	BodyText     string
	Links        []url.URL
	DocumentRoot *html.Node
}
