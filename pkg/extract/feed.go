package extract

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"news-ingest/pkg/config"
	"news-ingest/pkg/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// FeedExtractor handles RSS/Atom feed sources
type FeedExtractor struct {
	fetcher Fetcher
	now     func() time.Time
}

// NewFeedExtractor creates a feed extractor that fetches through fetcher
func NewFeedExtractor(fetcher Fetcher) *FeedExtractor {
	return &FeedExtractor{
		fetcher: fetcher,
		now:     time.Now,
	}
}

// Extract fetches and parses the feed at ep.URL and maps every entry to an
// article, in feed order. Entries without a link or title are skipped.
func (e *FeedExtractor) Extract(ctx context.Context, ep config.Endpoint) (*Batch, error) {
	body, err := e.fetcher.Fetch(ctx, ep.URL)
	if err != nil {
		return nil, &FetchError{URL: ep.URL, Err: err}
	}

	// gofeed.Parser keeps per-parse state, so each call gets its own.
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: ep.URL, Err: err}
	}
	if feed == nil {
		return nil, &ParseError{URL: ep.URL, Err: errors.New("empty feed document")}
	}

	base, _ := url.Parse(ep.URL)
	scrapedAt := e.now()

	batch := &Batch{Articles: make([]domain.Article, 0, len(feed.Items))}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		link := resolveLink(base, item.Link)
		title := collapseSpace(item.Title)
		if link == "" || title == "" {
			batch.Skipped++
			continue
		}

		batch.Articles = append(batch.Articles, domain.Article{
			Title:       title,
			Link:        link,
			Summary:     feedSummary(item),
			PublishedAt: publishedAt(item, scrapedAt),
			Source:      ep.Source,
			Category:    ep.Category,
		})
	}

	log.Printf("FeedExtractor: %s: %d entries, %d skipped", ep, len(batch.Articles), batch.Skipped)
	return batch, nil
}

// publishedAt prefers the published date, then the updated date, then the scrape time
func publishedAt(item *gofeed.Item, fallback time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return fallback
}

// feedSummary returns the entry description (or content) as plain text
func feedSummary(item *gofeed.Item) string {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}
	return plainText(summary)
}

// plainText strips markup from an HTML snippet.
func plainText(snippet string) string {
	if !strings.Contains(snippet, "<") {
		return collapseSpace(snippet)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return collapseSpace(snippet)
	}
	return collapseSpace(doc.Text())
}

// resolveLink makes href absolute against base and drops the fragment.
// Returns "" when no absolute URL can be produced.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !parsed.IsAbs() {
		if base == nil {
			return ""
		}
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	parsed.Fragment = ""
	return parsed.String()
}
