package extract

import (
	"context"
	"net/url"
	"strings"
)

// UrlFilter defines the interface for URL filtering
type UrlFilter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// BaseURLFilter filters out base/root URLs
type BaseURLFilter struct{}

// NewBaseURLFilter creates a new base URL filter
func NewBaseURLFilter() *BaseURLFilter {
	return &BaseURLFilter{}
}

// ShouldKeep returns false if URL is a base/root URL
func (f *BaseURLFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false, nil
	}

	path := strings.Trim(parsed.Path, "/")
	return path != "", nil
}

// ContainsPathFilter keeps only URLs containing a marker such as "/articles/"
type ContainsPathFilter struct {
	pathSegment string
}

// NewContainsPathFilter creates a new path filter that keeps URLs containing the specified path segment
func NewContainsPathFilter(pathSegment string) *ContainsPathFilter {
	return &ContainsPathFilter{
		pathSegment: pathSegment,
	}
}

// ShouldKeep returns true if URL contains the specified path segment
func (f *ContainsPathFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	return strings.Contains(urlStr, f.pathSegment), nil
}

// SameHostFilter drops links that left the site (ads, partner sites).
type SameHostFilter struct {
	host string
}

// NewSameHostFilter keeps URLs whose host equals the host of origin.
func NewSameHostFilter(origin string) *SameHostFilter {
	host := ""
	if u, err := url.Parse(origin); err == nil {
		host = strings.ToLower(u.Host)
	}
	return &SameHostFilter{host: host}
}

// ShouldKeep returns true if the URL is on the configured host.
func (f *SameHostFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false, nil
	}
	return strings.ToLower(u.Host) == f.host, nil
}

// keepURL reports whether every filter keeps urlStr.
func keepURL(ctx context.Context, urlStr string, filters []UrlFilter) (bool, error) {
	for _, filter := range filters {
		keep, err := filter.ShouldKeep(ctx, urlStr)
		if err != nil {
			return false, err
		}
		if !keep {
			return false, nil
		}
	}
	return true, nil
}
