package fetcher

import (
	"net/url"
)

// HTTP boundary

type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) ContentType() string {
	return f.meta.contentType
}

func (f *FetchResult) SizeByte() uint64 {
	return f.meta.transferredSizeByte
}

type ResponseMeta struct {
	statusCode          int
	contentType         string
	transferredSizeByte uint64
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	contentType string,
) FetchResult {
	return FetchResult{
		url:  url,
		body: body,
		meta: ResponseMeta{
			statusCode:          statusCode,
			contentType:         contentType,
			transferredSizeByte: uint64(len(body)),
		},
	}
}
