// Package replication copies stored articles from one store into another,
// for example when moving from MongoDB to Postgres.
package replication

import (
	"context"
	"fmt"
	"log"
	"sync"

	"news-ingest/pkg/dedup"
	"news-ingest/pkg/domain"
)

// DefaultBatchSize is the number of articles handed to one worker at a time.
const DefaultBatchSize = 100

// ArticleReader lists every stored article.
type ArticleReader interface {
	ReadAll(ctx context.Context) ([]domain.Article, error)
}

// Config wires the replication dependencies.
type Config struct {
	Source    ArticleReader
	Target    *dedup.Deduplicator
	Workers   int
	BatchSize int
}

// Result counts what a replication did.
type Result struct {
	Processed  int
	Inserted   int
	Duplicates int
	Invalid    int
}

// Replicator copies articles from Source into Target. Links already present
// in Target are skipped, so a replication can be rerun safely.
type Replicator struct {
	source    ArticleReader
	target    *dedup.Deduplicator
	workers   int
	batchSize int
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source store is required")
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("target store is required")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 5
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Replicator{
		source:    cfg.Source,
		target:    cfg.Target,
		workers:   workers,
		batchSize: batchSize,
	}, nil
}

// Replicate reads all articles from the source and saves the new ones into the
// target. It stops at the first store error.
func (r *Replicator) Replicate(ctx context.Context) (Result, error) {
	articles, err := r.source.ReadAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read source articles: %w", err)
	}
	log.Printf("Replicator: loaded %d articles, processing in batches of %d...", len(articles), r.batchSize)

	res, err := r.processBatches(ctx, articles)
	if err != nil {
		return res, err
	}
	log.Printf("Replicator: complete: processed %d, inserted %d, duplicates %d, invalid %d",
		res.Processed, res.Inserted, res.Duplicates, res.Invalid)
	return res, nil
}

type batchJob struct {
	batch      []domain.Article
	start, end int
}

type batchResult struct {
	Result
	err error
}

// processBatches runs the batches on the worker pool and sums their results.
func (r *Replicator) processBatches(ctx context.Context, articles []domain.Article) (Result, error) {
	numBatches := (len(articles) + r.batchSize - 1) / r.batchSize
	jobs := make(chan batchJob, numBatches)
	results := make(chan batchResult, numBatches)

	for start := 0; start < len(articles); start += r.batchSize {
		end := min(start+r.batchSize, len(articles))
		jobs <- batchJob{batch: articles[start:end], start: start, end: end}
	}
	close(jobs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := r.processBatch(ctx, job)
				results <- batchResult{Result: res, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total Result
	var firstErr error
	for res := range results {
		total.Processed += res.Processed
		total.Inserted += res.Inserted
		total.Duplicates += res.Duplicates
		total.Invalid += res.Invalid
		if res.err != nil && firstErr == nil {
			firstErr = res.err
			cancel()
		}
		if total.Processed%1000 == 0 {
			log.Printf("Replicator: progress: processed %d/%d, inserted %d", total.Processed, len(articles), total.Inserted)
		}
	}
	return total, firstErr
}

func (r *Replicator) processBatch(ctx context.Context, job batchJob) (Result, error) {
	var res Result
	for i := range job.batch {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		outcome, err := r.target.SaveIfNew(ctx, &job.batch[i])
		if err != nil {
			return res, fmt.Errorf("batch [%d:%d]: %w", job.start, job.end, err)
		}
		res.Processed++
		switch outcome {
		case dedup.Inserted:
			res.Inserted++
		case dedup.Duplicate:
			res.Duplicates++
		case dedup.Invalid:
			res.Invalid++
		}
	}
	return res, nil
}
