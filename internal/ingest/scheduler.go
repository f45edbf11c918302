package ingest

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// Scheduler rescans the data directory on a cron schedule. It backstops
// the watcher: files that appeared while the process was down, or events
// the OS dropped, get picked up on the next tick.
type Scheduler struct {
	pipeline *Pipeline
	dir      string
	expr     *cronexpr.Expression
	logger   *log.Logger
}

// NewScheduler parses spec as a cron expression ("@daily" and friends
// included) and returns a scheduler for dir.
func NewScheduler(pipeline *Pipeline, dir, spec string, logger *log.Logger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RESCAN] ", log.LstdFlags)
	}
	return &Scheduler{pipeline: pipeline, dir: dir, expr: expr, logger: logger}, nil
}

// Start runs the rescan loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		for {
			next := s.expr.Next(time.Now())
			if next.IsZero() {
				s.logger.Printf("cron expression yields no further runs, stopping")
				return
			}
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				n, err := s.pipeline.ScanDir(ctx, s.dir)
				if err != nil {
					s.logger.Printf("rescan of %s: %v", s.dir, err)
				}
				if n > 0 {
					s.logger.Printf("rescan of %s indexed %d new chunks", s.dir, n)
				}
			}
		}
	}()
}
