package sites

import (
	"context"
	"testing"

	"news-ingest/pkg/config"
	"news-ingest/pkg/domain"
	"news-ingest/pkg/extract"
)

type staticFetcher map[string]string

func (f staticFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return []byte(f[url]), nil
}

func TestProfiles_Valid(t *testing.T) {
	for source, profile := range Profiles() {
		if profile.Source != source {
			t.Errorf("profile keyed %s has source %s", source, profile.Source)
		}
		if err := profile.Validate(); err != nil {
			t.Errorf("profile %s invalid: %v", source, err)
		}
	}
}

func TestAsahi_ListPage(t *testing.T) {
	page := `<html><body>
<header><a href="/articles/pickup.html">Header pickup</a></header>
<ul class="List">
	<li><a href="/articles/ASTC1ABC.html"><span>Cabinet approves budget</span></a></li>
	<li><a href="/national/list/?page=2">Next</a></li>
	<li><a href="https://www.asahi.com/articles/ASTC2DEF.html">Snow in Hokkaido</a></li>
</ul>
</body></html>`

	extractor, err := extract.NewMarkupExtractor(staticFetcher{"https://www.asahi.com/national/list/": page}, Asahi)
	if err != nil {
		t.Fatalf("NewMarkupExtractor failed: %v", err)
	}

	batch, err := extractor.Extract(context.Background(), config.Endpoint{
		Source: domain.SourceAsahi, Category: "society", URL: "https://www.asahi.com/national/list/", Pages: 1,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{
		"https://www.asahi.com/articles/ASTC1ABC.html",
		"https://www.asahi.com/articles/ASTC2DEF.html",
	}
	if len(batch.Articles) != len(want) {
		t.Fatalf("Expected %d articles, got %+v", len(want), batch.Articles)
	}
	for i, link := range want {
		if batch.Articles[i].Link != link {
			t.Errorf("article %d link = %q; want %q", i, batch.Articles[i].Link, link)
		}
	}
}

func TestYomiuri_ListPage(t *testing.T) {
	page := `<html><body>
<ul class="p-list">
	<li><h3><a href="/national/20251211-OYT1T50001/">Train delays in Tokyo</a></h3></li>
	<li><h3><a href="/national/ranking/">Ranking</a></h3></li>
</ul>
</body></html>`

	extractor, err := extract.NewMarkupExtractor(staticFetcher{"https://www.yomiuri.co.jp/national/": page}, Yomiuri)
	if err != nil {
		t.Fatalf("NewMarkupExtractor failed: %v", err)
	}

	batch, err := extractor.Extract(context.Background(), config.Endpoint{
		Source: domain.SourceYomiuri, Category: "society", URL: "https://www.yomiuri.co.jp/national/", Pages: 1,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(batch.Articles) != 1 {
		t.Fatalf("Expected 1 article, got %+v", batch.Articles)
	}
	if batch.Articles[0].Link != "https://www.yomiuri.co.jp/national/20251211-OYT1T50001/" {
		t.Errorf("Unexpected link %q", batch.Articles[0].Link)
	}
	if batch.Articles[0].Title != "Train delays in Tokyo" {
		t.Errorf("Unexpected title %q", batch.Articles[0].Title)
	}
}
