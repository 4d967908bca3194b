package storage

import (
	"github.com/rohmanhakim/site-search/internal/mdconvert"
	"github.com/rohmanhakim/site-search/pkg/failure"
	"github.com/rohmanhakim/site-search/pkg/hashutil"
	"golang.org/x/net/html"
)

// PageArchiver converts a crawled page to Markdown and writes it through a Sink.
// It is safe for concurrent use as long as the converter and sink are.
type PageArchiver struct {
	outputDir string
	converter mdconvert.ConvertRule
	sink      Sink
	hashAlgo  hashutil.HashAlgo
}

func NewPageArchiver(
	outputDir string,
	converter mdconvert.ConvertRule,
	sink Sink,
) *PageArchiver {
	return &PageArchiver{
		outputDir: outputDir,
		converter: converter,
		sink:      sink,
		hashAlgo:  hashutil.HashAlgoBLAKE3,
	}
}

func (a *PageArchiver) Archive(
	sourceUrl string,
	title string,
	documentRoot *html.Node,
) (WriteResult, failure.ClassifiedError) {
	conversion, err := a.converter.Convert(sourceUrl, documentRoot)
	if err != nil {
		return WriteResult{}, err
	}
	page := NewArchivePage(sourceUrl, title, conversion.GetMarkdownContent())
	return a.sink.Write(a.outputDir, page, a.hashAlgo)
}
