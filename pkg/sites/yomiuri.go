package sites

import (
	"news-ingest/pkg/domain"
	"news-ingest/pkg/extract"
)

// Yomiuri scrapes the section pages of yomiuri.co.jp. Article URLs carry a
// dated id such as /national/20251211-OYT1T50001/.
var Yomiuri = extract.SiteProfile{
	Source:        domain.SourceYomiuri,
	Origin:        "https://www.yomiuri.co.jp",
	ItemSelector:  "ul.p-list li h3 a, div.p-list-item h3 a",
	ArticleMarker: "-OYT",
	PageParam:     "page",
}
