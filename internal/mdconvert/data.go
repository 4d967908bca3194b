package mdconvert

type ConversionResult struct {
	markdownContent []byte
	headingCount    int
}

func NewConversionResult(
	markdownContent []byte,
	headingCount int,
) ConversionResult {
	return ConversionResult{
		markdownContent: markdownContent,
		headingCount:    headingCount,
	}
}

func (c *ConversionResult) GetMarkdownContent() []byte {
	return c.markdownContent
}

// HeadingCount is the number of h1-h6 elements in the converted subtree.
func (c *ConversionResult) HeadingCount() int {
	return c.headingCount
}
