package mdconvert

import (
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/site-search/internal/metadata"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"golang.org/x/net/html"
)

/*
Conversion Rules
- Only the <body> subtree is converted; <head> never reaches the output
- Headings map directly (h1-h6 to # - ######)
- Code blocks preserved verbatim
- Tables converted structurally (GFM)
- Links and images preserved as-is (no resolution)
- DOM order preserved

The output is a readable snapshot for the archive. It is never indexed.
*/

type ConvertRule interface {
	Convert(sourceUrl string, documentRoot *html.Node) (ConversionResult, failure.ClassifiedError)
}

var _ ConvertRule = (*StrictConversionRule)(nil)

type StrictConversionRule struct {
	metadataSink metadata.MetadataSink
}

func NewRule(metadataSink metadata.MetadataSink) *StrictConversionRule {
	return &StrictConversionRule{
		metadataSink: metadataSink,
	}
}

func (s *StrictConversionRule) Convert(
	sourceUrl string,
	documentRoot *html.Node,
) (ConversionResult, failure.ClassifiedError) {
	result, err := s.convert(documentRoot)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"StrictConversionRule.Convert",
			mapConversionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl),
			},
		)
		return ConversionResult{}, err
	}
	return result, nil
}

func (s *StrictConversionRule) convert(documentRoot *html.Node) (ConversionResult, *ConversionError) {
	if documentRoot == nil {
		return ConversionResult{}, &ConversionError{
			Message: "cannot convert nil HTML node",
			Cause:   ErrCauseNilDocument,
		}
	}

	content := contentNode(documentRoot)

	// a fresh converter per call keeps concurrent crawl tasks independent
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	markdown, err := conv.ConvertNode(content)
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message: err.Error(),
			Cause:   ErrCauseConversionFailure,
		}
	}

	headings := goquery.NewDocumentFromNode(content).Find("h1, h2, h3, h4, h5, h6").Length()
	return NewConversionResult(markdown, headings), nil
}

// contentNode returns the first <body> under root, or root itself when the
// document has none.
func contentNode(root *html.Node) *html.Node {
	body := goquery.NewDocumentFromNode(root).Find("body").First()
	if body.Length() == 0 {
		return root
	}
	return body.Get(0)
}
