// Package trace records the route taken by each query for diagnostics.
// Records are keyed by thread ID and expire; the answer path never reads
// them back, so they are observability data rather than conversation
// memory.
package trace

import (
	"context"
	"time"
)

// Record captures one workflow invocation.
type Record struct {
	ThreadID  string        `json:"thread_id"`
	Query     string        `json:"query"`
	Decision  string        `json:"decision"`
	Stages    []string      `json:"stages"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store persists and lists route traces per thread.
type Store interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, threadID string) ([]Record, error)
}
