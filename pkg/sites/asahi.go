package sites

import (
	"news-ingest/pkg/domain"
	"news-ingest/pkg/extract"
)

// Asahi scrapes the category list pages of asahi.com, e.g.
// https://www.asahi.com/national/list/. Article pages live under /articles/.
var Asahi = extract.SiteProfile{
	Source:        domain.SourceAsahi,
	Origin:        "https://www.asahi.com",
	ItemSelector:  "ul.List li a, div.c-articleList a",
	ArticleMarker: "/articles/",
	PageParam:     "page",
}
