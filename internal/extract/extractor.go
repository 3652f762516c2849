// Package extract converts fetched resources into normalized visible text.
// Each content type has its own strategy behind the Extractor interface.
package extract

import (
	"context"

	"github.com/hyperifyio/readinglist/internal/fetch"
)

// Extractor retrieves the resource at url and returns its normalized text.
// Implementations do not retry; callers decide how to treat errors.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Fetcher is the subset of fetch.Client the strategies need.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Document is the result of parsing an HTML page.
type Document struct {
	Title string
	Text  string
}
