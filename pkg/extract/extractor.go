// Package extract turns one configured (source, category) endpoint into
// candidate articles, either by parsing a syndication feed or by scraping
// paginated list pages.
package extract

import (
	"context"
	"fmt"
	"strings"

	"news-ingest/pkg/config"
	"news-ingest/pkg/domain"
)

// Extractor pulls candidate articles for one pair.
//
// Implementations return the articles in source order. On failure they may
// return a non-nil Batch holding what was collected before the error.
type Extractor interface {
	Extract(ctx context.Context, ep config.Endpoint) (*Batch, error)
}

// Fetcher is the network boundary used by extractors.
// *httpclient.HTTPClient implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Batch is the result of one extraction.
type Batch struct {
	Articles []domain.Article
	// Skipped counts candidates dropped because they had no usable link or title.
	Skipped int
}

// FetchError is a network failure or timeout reaching a source.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the document could not be parsed into the expected shape.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// collapseSpace trims s and folds every whitespace run into a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
