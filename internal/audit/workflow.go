package audit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fintelligent/auditor/internal/index"
)

// Stage names the states of the workflow machine. Each stage appends its
// own name to the route trace as it executes, so the trace exactly mirrors
// the states visited.
type Stage string

const (
	StageRoute     Stage = "route"
	StageQuerySQL  Stage = "query_sql"
	StageQueryRAG  Stage = "query_rag"
	StageQueryBoth Stage = "query_both"
	StageGenerate  Stage = "generate"
)

// Retriever is the slice of the document index the workflow depends on.
type Retriever interface {
	HybridRetrieve(ctx context.Context, query string, k int) ([]index.Result, error)
}

// ErrInvalidState reports a contract violation by the caller: the workflow
// requires an initialized state with at least one user message. This is a
// defect to fix, not a condition to recover from.
var ErrInvalidState = errors.New("workflow: state must carry at least one user message")

// Workflow is the five-stage linear state machine: route, then one or both
// query stages, then generate. Stages run strictly sequentially; under the
// BOTH branch the structured stage always runs before the document stage so
// the trace stays deterministic.
type Workflow struct {
	resolver    *Resolver
	retriever   Retriever
	synthesizer *Synthesizer
	topK        int
	logger      *log.Logger
}

func NewWorkflow(resolver *Resolver, retriever Retriever, synthesizer *Synthesizer, topK int, logger *log.Logger) *Workflow {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[WORKFLOW] ", log.LstdFlags)
	}
	return &Workflow{
		resolver:    resolver,
		retriever:   retriever,
		synthesizer: synthesizer,
		topK:        topK,
		logger:      logger,
	}
}

// Run executes one invocation: it routes the latest user message, runs the
// selected query stage(s), and appends exactly one assistant turn. The
// returned error is reserved for contract violations; resolver and
// retriever failures surface as in-band text in the answer.
func (w *Workflow) Run(ctx context.Context, state *State) error {
	if state == nil || len(state.Messages) == 0 || state.LastUserMessage() == "" {
		return ErrInvalidState
	}

	query := state.LastUserMessage()

	state.Trace = append(state.Trace, string(StageRoute))
	decision, sqlScore, ragScore := RouteQuery(query)
	state.Routing = decision
	queriesTotal.WithLabelValues(string(decision)).Inc()
	w.logger.Printf("routed %q: sql=%d rag=%d -> %s", query, sqlScore, ragScore, decision)

	switch decision {
	case RouteStructured:
		w.runStructured(ctx, state, query)
	case RouteDocument:
		w.runDocument(ctx, state, query)
	case RouteBoth:
		state.Trace = append(state.Trace, string(StageQueryBoth))
		w.runStructured(ctx, state, query)
		w.runDocument(ctx, state, query)
	default:
		return fmt.Errorf("workflow: unknown routing decision %q", decision)
	}

	state.Trace = append(state.Trace, string(StageGenerate))
	answer := w.synthesizer.Synthesize(ctx, state)
	state.Messages = append(state.Messages, Message{Role: RoleAssistant, Content: answer})
	return nil
}

func (w *Workflow) runStructured(ctx context.Context, state *State, query string) {
	state.Trace = append(state.Trace, string(StageQuerySQL))
	state.StructuredResult = w.resolver.Resolve(ctx, query)
}

func (w *Workflow) runDocument(ctx context.Context, state *State, query string) {
	state.Trace = append(state.Trace, string(StageQueryRAG))
	results, err := w.retriever.HybridRetrieve(ctx, query, w.topK)
	if err != nil {
		// Degrade to no documents; the synthesizer still answers.
		w.logger.Printf("hybrid retrieval failed: %v", err)
		return
	}
	retrievedChunks.Observe(float64(len(results)))
	if len(results) == 0 {
		return
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Chunk.Content)
	}
	state.DocumentContext = strings.Join(parts, "\n\n")
}
