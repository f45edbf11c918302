package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fintelligent/auditor/internal/trace"
)

func newTestEngine(st InvoiceStore, ret Retriever, traces trace.Store) *Engine {
	return NewEngine(newTestWorkflow(st, ret), traces, quietLogger())
}

func TestEngineAnswersPendingCount(t *testing.T) {
	st := &fakeStore{pendingCount: 3, pendingTotal: 450}
	traces := trace.NewMemoryStore(time.Minute)
	e := newTestEngine(st, &fakeRetriever{}, traces)

	answer, state, err := e.Ask(context.Background(), "How many pending invoices are there?", "thread-1")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if state.Routing != RouteStructured {
		t.Fatalf("routing = %s, want STRUCTURED", state.Routing)
	}
	if !strings.Contains(answer, "3 pending invoices") || !strings.Contains(answer, "$450.00") {
		t.Fatalf("unexpected answer: %q", answer)
	}

	recs, err := traces.List(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 trace record, got %d", len(recs))
	}
	if recs[0].Decision != string(RouteStructured) {
		t.Fatalf("recorded decision = %s, want STRUCTURED", recs[0].Decision)
	}
	if len(recs[0].Stages) == 0 || recs[0].Stages[0] != "route" {
		t.Fatalf("recorded stages = %v", recs[0].Stages)
	}
}

func TestEngineRejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakeRetriever{}, nil)

	if _, _, err := e.Ask(context.Background(), "   ", "thread-1"); err != ErrEmptyQuery {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestEngineGeneratesThreadID(t *testing.T) {
	traces := trace.NewMemoryStore(time.Minute)
	e := newTestEngine(&fakeStore{}, &fakeRetriever{}, traces)

	_, state, err := e.Ask(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if state.ThreadID == "" {
		t.Fatalf("generated thread id must be returned on the state")
	}
	// The generated ID must be the key the trace was recorded under.
	recs, err := traces.List(context.Background(), state.ThreadID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record under %s, got %d", state.ThreadID, len(recs))
	}
}

func TestEngineKeepsCallerThreadID(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakeRetriever{}, nil)

	_, state, err := e.Ask(context.Background(), "hello", "thread-7")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if state.ThreadID != "thread-7" {
		t.Fatalf("state.ThreadID = %q, want thread-7", state.ThreadID)
	}
}

func TestEngineWithoutTraceStore(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakeRetriever{}, nil)

	if _, _, err := e.Ask(context.Background(), "hello", "t"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	recs, err := e.Traces(context.Background(), "t")
	if err != nil || recs != nil {
		t.Fatalf("expected no traces and no error, got %v, %v", recs, err)
	}
}
