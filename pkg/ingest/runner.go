// Package ingest runs every configured (source, category) pair through its
// extractor and the deduplicator, and reports the outcome per pair.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"news-ingest/pkg/config"
	"news-ingest/pkg/dedup"
	"news-ingest/pkg/domain"
	"news-ingest/pkg/extract"
)

// ErrAlreadyRunning is returned when Run is called while a run is in progress.
var ErrAlreadyRunning = errors.New("ingestion run already in progress")

// Config holds the collaborators of a Runner
type Config struct {
	Sources []config.SourceConfig
	Fetcher extract.Fetcher
	// PageFetcher serves markup sources; Fetcher is used when nil.
	PageFetcher extract.Fetcher
	Profiles    map[domain.Source]extract.SiteProfile
	Dedup       *dedup.Deduplicator
	// Workers bounds how many sources are processed at once. Pairs of one
	// source always run sequentially.
	Workers int
}

// Runner orchestrates one ingestion pass over all configured pairs
type Runner struct {
	endpoints  []config.Endpoint
	extractors map[domain.Source]extract.Extractor
	dedup      *dedup.Deduplicator
	workers    int

	mu    sync.Mutex
	state State
}

// NewRunner validates the source table and binds every source to the
// extractor of its strategy. Any defect is returned as a *config.ConfigError
// before a single pair has run.
func NewRunner(cfg Config) (*Runner, error) {
	if err := config.Validate(cfg.Sources); err != nil {
		return nil, err
	}
	if cfg.Fetcher == nil {
		return nil, &config.ConfigError{Reason: "fetcher is required"}
	}
	if cfg.Dedup == nil {
		return nil, &config.ConfigError{Reason: "deduplicator is required"}
	}

	pages := cfg.PageFetcher
	if pages == nil {
		pages = cfg.Fetcher
	}

	feed := extract.NewFeedExtractor(cfg.Fetcher)
	extractors := make(map[domain.Source]extract.Extractor, len(cfg.Sources))
	for _, s := range cfg.Sources {
		source := domain.Source(s.Name)
		switch s.Strategy {
		case config.StrategyFeed:
			extractors[source] = feed
		case config.StrategyMarkup:
			profile, ok := cfg.Profiles[source]
			if !ok {
				return nil, &config.ConfigError{Source: s.Name, Reason: "no site profile registered for markup source"}
			}
			if profile.Source == "" {
				profile.Source = source
			}
			markup, err := extract.NewMarkupExtractor(pages, profile)
			if err != nil {
				return nil, &config.ConfigError{Source: s.Name, Reason: err.Error()}
			}
			extractors[source] = markup
		default:
			return nil, &config.ConfigError{Source: s.Name, Reason: fmt.Sprintf("unknown extraction strategy %q", s.Strategy)}
		}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Runner{
		endpoints:  config.Endpoints(cfg.Sources),
		extractors: extractors,
		dedup:      cfg.Dedup,
		workers:    workers,
		state:      Idle,
	}, nil
}

// State returns the current state of the runner. After a run it holds the
// status of that run.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Endpoints returns the configured pairs in processing order.
func (r *Runner) Endpoints() []config.Endpoint {
	out := make([]config.Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Run processes every configured pair once. Pair failures are recorded in the
// report and never stop the remaining pairs. The only error Run returns is
// ErrAlreadyRunning.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	r.mu.Lock()
	if r.state == Running {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r.state = Running
	r.mu.Unlock()

	report := &RunReport{StartedAt: time.Now()}
	log.Printf("Runner: starting run over %d pairs with %d workers", len(r.endpoints), r.workers)

	report.Pairs = r.processSources(ctx, groupBySource(r.endpoints))
	report.FinishedAt = time.Now()
	report.Status = Completed
	for _, p := range report.Pairs {
		if p.Failed() {
			report.Status = PartiallyFailed
			break
		}
	}

	r.mu.Lock()
	r.state = report.Status
	r.mu.Unlock()

	t := report.Totals()
	log.Printf("Runner: run %s: %d pairs (%d failed), inserted=%d duplicates=%d",
		report.Status, t.Pairs, t.Failed, t.Inserted, t.Duplicates)
	return report, nil
}

// sourceGroup is the ordered pairs of one source; index is its position in the
// configuration.
type sourceGroup struct {
	index     int
	endpoints []config.Endpoint
}

func groupBySource(endpoints []config.Endpoint) []sourceGroup {
	var groups []sourceGroup
	pos := make(map[domain.Source]int)
	for _, ep := range endpoints {
		i, ok := pos[ep.Source]
		if !ok {
			i = len(groups)
			pos[ep.Source] = i
			groups = append(groups, sourceGroup{index: i})
		}
		groups[i].endpoints = append(groups[i].endpoints, ep)
	}
	return groups
}

// processSources runs the groups on a bounded pool and returns the pair
// reports in configuration order.
func (r *Runner) processSources(ctx context.Context, groups []sourceGroup) []PairReport {
	jobChan := make(chan sourceGroup, len(groups))
	for _, g := range groups {
		jobChan <- g
	}
	close(jobChan)

	type result struct {
		index    int
		workerID int
		pairs    []PairReport
	}
	resultsChan := make(chan result, len(groups))

	workers := r.workers
	if workers > len(groups) {
		workers = len(groups)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for g := range jobChan {
				pairs := make([]PairReport, 0, len(g.endpoints))
				for _, ep := range g.endpoints {
					pairs = append(pairs, r.runPair(ctx, ep))
				}
				resultsChan <- result{index: g.index, workerID: workerID, pairs: pairs}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	bySource := make([][]PairReport, len(groups))
	for res := range resultsChan {
		bySource[res.index] = res.pairs
	}

	var out []PairReport
	for _, pairs := range bySource {
		out = append(out, pairs...)
	}
	return out
}

// runPair extracts one pair and saves its candidates in source order.
func (r *Runner) runPair(ctx context.Context, ep config.Endpoint) (pr PairReport) {
	start := time.Now()
	pr = PairReport{Source: ep.Source, Category: ep.Category, Endpoint: ep.URL}
	defer func() {
		if rec := recover(); rec != nil {
			pr.Err = errors.Join(pr.Err, fmt.Errorf("panic while processing pair: %v", rec))
		}
		pr.Duration = time.Since(start)
		if pr.Err != nil {
			log.Printf("Runner: %s failed after storing %d articles: %v", ep, pr.Inserted, pr.Err)
		} else {
			log.Printf("Runner: %s done: fetched=%d inserted=%d duplicates=%d skipped=%d",
				ep, pr.Fetched, pr.Inserted, pr.Duplicates, pr.Skipped)
		}
	}()

	if err := ctx.Err(); err != nil {
		pr.Err = err
		return pr
	}

	extractor, ok := r.extractors[ep.Source]
	if !ok {
		pr.Err = &config.ConfigError{Source: string(ep.Source), Reason: "no extractor bound"}
		return pr
	}

	batch, err := extractor.Extract(ctx, ep)
	if err != nil {
		pr.Err = err
		if extract.IsPartial(batch, err) {
			log.Printf("Runner: %s: keeping %d articles extracted before the failure", ep, len(batch.Articles))
		}
	}
	if batch == nil {
		return pr
	}

	pr.Fetched = len(batch.Articles)
	pr.Skipped = batch.Skipped
	for i := range batch.Articles {
		article := &batch.Articles[i]
		outcome, err := r.dedup.SaveIfNew(ctx, article)
		if err != nil {
			// stop at the first store failure
			pr.Err = errors.Join(pr.Err, err)
			return pr
		}
		switch outcome {
		case dedup.Inserted:
			pr.Inserted++
			if i < 3 || i == len(batch.Articles)-1 {
				log.Printf("Runner: %s: stored %s", ep, article.Link)
			}
		case dedup.Duplicate:
			pr.Duplicates++
		case dedup.Invalid:
			pr.Skipped++
		}
	}
	return pr
}
