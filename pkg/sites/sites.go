// Package sites holds the scraping profiles of the markup-scraped news sites.
package sites

import (
	"news-ingest/pkg/domain"
	"news-ingest/pkg/extract"
)

// Profiles returns the built-in markup profiles keyed by source.
func Profiles() map[domain.Source]extract.SiteProfile {
	return map[domain.Source]extract.SiteProfile{
		Asahi.Source:   Asahi,
		Yomiuri.Source: Yomiuri,
	}
}
