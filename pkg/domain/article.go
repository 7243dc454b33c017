package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Source identifies the site an article was ingested from.
type Source string

const (
	SourceNHK     Source = "NHK"
	SourceAsahi   Source = "Asahi"
	SourceYomiuri Source = "Yomiuri"
)

// Article represents one ingested news item.
// Link is the natural key: two articles with the same Link are the same article.
type Article struct {
	Title       string    `bson:"title" json:"title"`
	Link        string    `bson:"link" json:"link"`
	Summary     string    `bson:"summary" json:"summary"`
	PublishedAt time.Time `bson:"published_at" json:"published_at"`
	Source      Source    `bson:"source" json:"source"`
	Category    string    `bson:"category" json:"category"`
}

var (
	ErrEmptyTitle    = errors.New("article title is empty")
	ErrMissingLink   = errors.New("article link is missing")
	ErrRelativeLink  = errors.New("article link is not absolute")
	ErrMissingOrigin = errors.New("article source or category is missing")
)

// Validate checks the invariants a record must hold before it can be stored.
func (a *Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(a.Link) == "" {
		return ErrMissingLink
	}
	u, err := url.Parse(a.Link)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrRelativeLink
	}
	if a.Source == "" || a.Category == "" {
		return ErrMissingOrigin
	}
	return nil
}
