// Package config holds the static source table and the process settings for
// the ingestion runner.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"news-ingest/pkg/domain"

	"gopkg.in/yaml.v3"
)

// Strategy selects the extractor used for a source.
type Strategy string

const (
	StrategyFeed   Strategy = "feed"
	StrategyMarkup Strategy = "markup"
)

// DefaultPages is the number of list pages walked for markup sources when
// the source does not set one.
const DefaultPages = 3

// ConfigError reports a deployment defect in the source table. It is raised
// before any pair is processed.
type ConfigError struct {
	Source string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: source %q: %s", e.Source, e.Reason)
}

// Category is one labelled endpoint of a source.
type Category struct {
	Label string
	URL   string
}

// Categories keeps the order categories were written in the YAML mapping.
type Categories []Category

// UnmarshalYAML decodes a `label: url` mapping without losing key order.
func (c *Categories) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("categories must be a mapping of label to URL (line %d)", value.Line)
	}
	out := make(Categories, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		out = append(out, Category{Label: key.Value, URL: val.Value})
	}
	*c = out
	return nil
}

// SourceConfig describes one configured site.
type SourceConfig struct {
	Name       string     `yaml:"name"`
	Strategy   Strategy   `yaml:"strategy"`
	Pages      int        `yaml:"pages"`
	Categories Categories `yaml:"categories"`
}

// SourcesFile is the root of the sources YAML document.
type SourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// Endpoint is one (source, category, endpoint) triple processed as a unit.
type Endpoint struct {
	Source   domain.Source
	Category string
	URL      string
	Strategy Strategy
	Pages    int
}

// String renders the pair identity used in logs and reports.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s/%s", e.Source, e.Category)
}

// LoadSources reads and validates a sources YAML file.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a sources YAML document.
func ParseSources(data []byte) ([]SourceConfig, error) {
	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parse sources: %v", err)}
	}
	if err := Validate(file.Sources); err != nil {
		return nil, err
	}
	return file.Sources, nil
}

// Validate checks the source table for defects that must fail fast.
func Validate(sources []SourceConfig) error {
	if len(sources) == 0 {
		return &ConfigError{Reason: "at least one source is required"}
	}

	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return &ConfigError{Reason: "source name is required"}
		}
		if seen[name] {
			return &ConfigError{Source: name, Reason: "duplicate source name"}
		}
		seen[name] = true

		switch s.Strategy {
		case StrategyFeed, StrategyMarkup:
		default:
			return &ConfigError{Source: name, Reason: fmt.Sprintf("unknown extraction strategy %q", s.Strategy)}
		}
		if s.Pages < 0 {
			return &ConfigError{Source: name, Reason: "pages must be >= 1"}
		}
		if len(s.Categories) == 0 {
			return &ConfigError{Source: name, Reason: "at least one category is required"}
		}
		labels := make(map[string]bool, len(s.Categories))
		for _, c := range s.Categories {
			label := strings.TrimSpace(c.Label)
			if label == "" {
				return &ConfigError{Source: name, Reason: "category label is required"}
			}
			if labels[label] {
				return &ConfigError{Source: name, Reason: fmt.Sprintf("duplicate category label %q", label)}
			}
			labels[label] = true
			u, err := url.Parse(c.URL)
			if err != nil || !u.IsAbs() || u.Host == "" {
				return &ConfigError{Source: name, Reason: fmt.Sprintf("category %q: endpoint %q is not an absolute URL", c.Label, c.URL)}
			}
		}
	}
	return nil
}

// Endpoints flattens the source table into pairs, in source order and then
// category order as configured.
func Endpoints(sources []SourceConfig) []Endpoint {
	var out []Endpoint
	for _, s := range sources {
		pages := s.Pages
		if pages == 0 {
			pages = DefaultPages
		}
		for _, c := range s.Categories {
			out = append(out, Endpoint{
				Source:   domain.Source(s.Name),
				Category: c.Label,
				URL:      c.URL,
				Strategy: s.Strategy,
				Pages:    pages,
			})
		}
	}
	return out
}

// DefaultSources is the built-in table used when no sources file is given.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:     string(domain.SourceNHK),
			Strategy: StrategyFeed,
			Categories: Categories{
				{Label: "society", URL: "https://www3.nhk.or.jp/rss/news/cat1.xml"},
				{Label: "politics", URL: "https://www3.nhk.or.jp/rss/news/cat4.xml"},
				{Label: "economy", URL: "https://www3.nhk.or.jp/rss/news/cat5.xml"},
			},
		},
		{
			Name:     string(domain.SourceAsahi),
			Strategy: StrategyMarkup,
			Pages:    DefaultPages,
			Categories: Categories{
				{Label: "society", URL: "https://www.asahi.com/national/list/"},
				{Label: "politics", URL: "https://www.asahi.com/politics/list/"},
				{Label: "economy", URL: "https://www.asahi.com/business/list/"},
			},
		},
		{
			Name:     string(domain.SourceYomiuri),
			Strategy: StrategyMarkup,
			Pages:    DefaultPages,
			Categories: Categories{
				{Label: "society", URL: "https://www.yomiuri.co.jp/national/"},
				{Label: "politics", URL: "https://www.yomiuri.co.jp/politics/"},
				{Label: "economy", URL: "https://www.yomiuri.co.jp/economy/"},
			},
		},
	}
}
