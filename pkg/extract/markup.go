package extract

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"news-ingest/pkg/config"
	"news-ingest/pkg/domain"

	"github.com/PuerkitoBio/goquery"
)

// DefaultPageParam is the query parameter used for pages after the first.
const DefaultPageParam = "page"

// SiteProfile describes how to scrape the list pages of one site.
type SiteProfile struct {
	Source domain.Source
	// Origin is prefixed to relative hrefs, e.g. "https://www.asahi.com".
	Origin string
	// ItemSelector selects the article anchors on a list page.
	ItemSelector string
	// ArticleMarker must appear in a link for it to count as an article.
	ArticleMarker string
	// PageParam names the query parameter for pages > 1. Defaults to "page".
	PageParam string
	// PagePattern, when set, is appended to the base URL instead of the query
	// parameter, e.g. "/page/%d".
	PagePattern string
}

// PageURL builds the URL of page n of a list. Page 1 is the bare base URL.
func (p SiteProfile) PageURL(base string, n int) (string, error) {
	if n <= 1 {
		return base, nil
	}
	if p.PagePattern != "" {
		return strings.TrimRight(base, "/") + fmt.Sprintf(p.PagePattern, n), nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", base, err)
	}
	param := p.PageParam
	if param == "" {
		param = DefaultPageParam
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Validate reports profile fields that make scraping impossible.
func (p SiteProfile) Validate() error {
	origin, err := url.Parse(p.Origin)
	if err != nil || !origin.IsAbs() || origin.Host == "" {
		return fmt.Errorf("site %s: origin %q is not an absolute URL", p.Source, p.Origin)
	}
	if strings.TrimSpace(p.ItemSelector) == "" {
		return fmt.Errorf("site %s: item selector is required", p.Source)
	}
	if p.PagePattern != "" && !strings.Contains(p.PagePattern, "%d") {
		return fmt.Errorf("site %s: page pattern %q has no %%d placeholder", p.Source, p.PagePattern)
	}
	return nil
}

// MarkupExtractor scrapes article anchors from paginated HTML list pages
type MarkupExtractor struct {
	fetcher Fetcher
	profile SiteProfile
	origin  *url.URL
	filters []UrlFilter
	now     func() time.Time
}

// NewMarkupExtractor creates a markup extractor for one site profile
func NewMarkupExtractor(fetcher Fetcher, profile SiteProfile) (*MarkupExtractor, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	origin, _ := url.Parse(profile.Origin)

	filters := []UrlFilter{NewBaseURLFilter(), NewSameHostFilter(profile.Origin)}
	if profile.ArticleMarker != "" {
		filters = append(filters, NewContainsPathFilter(profile.ArticleMarker))
	}

	return &MarkupExtractor{
		fetcher: fetcher,
		profile: profile,
		origin:  origin,
		filters: filters,
		now:     time.Now,
	}, nil
}

// Profile returns the site profile the extractor was built with.
func (e *MarkupExtractor) Profile() SiteProfile {
	return e.profile
}

// Extract walks pages 1..ep.Pages in order and accumulates the articles found.
//
// If a page fails, the walk stops and the articles gathered from earlier pages
// are returned together with the error.
func (e *MarkupExtractor) Extract(ctx context.Context, ep config.Endpoint) (*Batch, error) {
	pages := ep.Pages
	if pages < 1 {
		return nil, fmt.Errorf("pages must be >= 1, got %d", pages)
	}

	scrapedAt := e.now()
	batch := &Batch{}
	seen := make(map[string]bool)

	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return batch, &FetchError{URL: ep.URL, Err: err}
		}

		pageURL, err := e.profile.PageURL(ep.URL, i)
		if err != nil {
			return batch, &ParseError{URL: ep.URL, Err: err}
		}

		log.Printf("MarkupExtractor: %s: fetching page %d/%d: %s", ep, i, pages, pageURL)
		body, err := e.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			log.Printf("MarkupExtractor: %s: page %d failed, keeping %d articles from earlier pages: %v", ep, i, len(batch.Articles), err)
			return batch, &FetchError{URL: pageURL, Err: err}
		}

		found, err := e.extractPage(ctx, body, ep, scrapedAt, seen, batch)
		if err != nil {
			return batch, &ParseError{URL: pageURL, Err: err}
		}
		log.Printf("MarkupExtractor: %s: page %d yielded %d articles", ep, i, found)
	}

	return batch, nil
}

// extractPage appends the articles of one list page to batch and returns how many it added.
func (e *MarkupExtractor) extractPage(ctx context.Context, body []byte, ep config.Endpoint, scrapedAt time.Time, seen map[string]bool, batch *Batch) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	added := 0
	var filterErr error
	doc.Find(e.profile.ItemSelector).EachWithBreak(func(i int, anchor *goquery.Selection) bool {
		href, exists := anchor.Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			batch.Skipped++
			return true
		}

		link := resolveLink(e.origin, href)
		if link == "" {
			batch.Skipped++
			return true
		}

		keep, err := keepURL(ctx, link, e.filters)
		if err != nil {
			filterErr = err
			return false
		}
		if !keep {
			// navigation, ads and off-site links are not candidates
			return true
		}

		title := collapseSpace(anchor.Text())
		if title == "" {
			batch.Skipped++
			return true
		}
		if seen[link] {
			batch.Skipped++
			return true
		}
		seen[link] = true

		batch.Articles = append(batch.Articles, domain.Article{
			Title:       title,
			Link:        link,
			Summary:     "",
			PublishedAt: scrapedAt,
			Source:      ep.Source,
			Category:    ep.Category,
		})
		added++
		return true
	})

	if filterErr != nil {
		return added, fmt.Errorf("filter links: %w", filterErr)
	}
	return added, nil
}

// IsPartial reports whether a failed extraction still produced articles.
func IsPartial(batch *Batch, err error) bool {
	return err != nil && batch != nil && len(batch.Articles) > 0
}
