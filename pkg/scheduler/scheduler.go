// Package scheduler invokes a job on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Job is one scheduled unit of work. Its error is logged and does not stop
// the schedule.
type Job func(ctx context.Context) error

// Every runs job immediately and then once per interval until ctx is done.
// Runs never overlap: a tick that arrives while job is still running is
// dropped. Every returns ctx.Err() when the schedule stops.
func Every(ctx context.Context, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	run := func() {
		start := time.Now()
		if err := job(ctx); err != nil {
			log.Printf("Scheduler: job failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("Scheduler: stopping: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			run()
		}
	}
}
