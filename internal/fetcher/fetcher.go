package fetcher

import (
	"context"
	"net/url"

	"github.com/rohmanhakim/site-search/pkg/failure"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		crawlDepth int,
		fetchUrl url.URL,
	) (FetchResult, failure.ClassifiedError)
}
