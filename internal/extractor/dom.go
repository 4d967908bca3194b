package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/rohmanhakim/site-search/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse HTML into a DOM tree
- Pull out the page title and the visible body text
- Collect outgoing links that stay on the page's own host

Link Rules
- Only <a> elements with an href attribute are considered
- Each href is resolved against the page URL and loses its fragment
- Hrefs that do not parse are dropped silently
- Links to any other host are dropped

The extractor is stateless and safe for concurrent use.
*/

type Extractor interface {
	Extract(sourceUrl url.URL, htmlByte []byte) (ExtractionResult, failure.ClassifiedError)
}

var _ Extractor = (*DomExtractor)(nil)

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
	}
}

func (d *DomExtractor) Extract(
	sourceUrl url.URL,
	htmlByte []byte,
) (ExtractionResult, failure.ClassifiedError) {
	result, err := extract(sourceUrl, htmlByte)
	if err != nil {
		d.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"DomExtractor.Extract",
			mapExtractionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
			},
		)
		return ExtractionResult{}, err
	}
	return result, nil
}

func extract(sourceUrl url.URL, htmlByte []byte) (ExtractionResult, *ExtractionError) {
	doc, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return ExtractionResult{}, &ExtractionError{
			Message: fmt.Sprintf("failed to parse HTML: %v", err),
			Cause:   ErrCauseNotHTML,
		}
	}

	gqDoc := goquery.NewDocumentFromNode(doc)

	return ExtractionResult{
		Title:        firstText(gqDoc, "title"),
		BodyText:     firstText(gqDoc, "body"),
		Links:        sameSiteLinks(gqDoc, sourceUrl),
		DocumentRoot: doc,
	}, nil
}

func firstText(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}

func sameSiteLinks(doc *goquery.Document, sourceUrl url.URL) []url.URL {
	var links []url.URL
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := urlutil.Normalize(sourceUrl, strings.TrimSpace(href))
		if !ok || !urlutil.SameSite(link, sourceUrl) {
			return
		}
		links = append(links, link)
	})
	return links
}
