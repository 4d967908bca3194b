package frontier

import (
	"net/url"
)

// Entry is a URL waiting to be crawled together with its hop distance
// from the seed. The seed has depth 0; a link found on a page of depth d
// has depth d+1.
type Entry struct {
	url   url.URL
	depth int
}

func NewEntry(u url.URL, depth int) Entry {
	return Entry{
		url:   u,
		depth: depth,
	}
}

func (e Entry) URL() url.URL {
	return e.url
}

func (e Entry) Depth() int {
	return e.depth
}

// Key is the visited-set identity of the entry.
func (e Entry) Key() string {
	return e.url.String()
}
