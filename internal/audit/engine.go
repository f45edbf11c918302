package audit

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fintelligent/auditor/internal/trace"
)

// ErrEmptyQuery reports a blank query string.
var ErrEmptyQuery = errors.New("query must not be empty")

// Engine is the sole contract the core exposes upward: a query string and
// an optional thread identifier in, the final assistant response out.
type Engine struct {
	workflow *Workflow
	traces   trace.Store
	logger   *log.Logger
}

func NewEngine(workflow *Workflow, traces trace.Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)
	}
	return &Engine{workflow: workflow, traces: traces, logger: logger}
}

// Ask runs one query through the workflow and returns the final response
// text along with the finished state. A missing thread ID gets a fresh
// UUID; the effective ID is carried on the returned state so callers can
// look up the recorded trace.
func (e *Engine) Ask(ctx context.Context, query, threadID string) (string, *State, error) {
	if strings.TrimSpace(query) == "" {
		return "", nil, ErrEmptyQuery
	}
	if strings.TrimSpace(threadID) == "" {
		threadID = uuid.NewString()
	}

	start := time.Now()
	state := NewState(query)
	state.ThreadID = threadID
	if err := e.workflow.Run(ctx, state); err != nil {
		return "", nil, err
	}

	if e.traces != nil {
		rec := trace.Record{
			ThreadID:  threadID,
			Query:     query,
			Decision:  string(state.Routing),
			Stages:    append([]string(nil), state.Trace...),
			Duration:  time.Since(start),
			CreatedAt: start,
		}
		if err := e.traces.Record(ctx, rec); err != nil {
			e.logger.Printf("trace record failed for thread %s: %v", threadID, err)
		}
	}

	return state.LastMessage(), state, nil
}

// Traces lists the recorded route traces for a thread.
func (e *Engine) Traces(ctx context.Context, threadID string) ([]trace.Record, error) {
	if e.traces == nil {
		return nil, nil
	}
	return e.traces.List(ctx, threadID)
}
