package audit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/fintelligent/auditor/provider"
)

// systemInstruction is the fixed prompt for the answer step. Structured
// results are primary evidence; retrieved documents are supplementary.
const systemInstruction = "You are an accounting audit assistant. Answer the user's question using the " +
	"provided context. Treat the structured results section as the primary evidence and the retrieved " +
	"documents section as supplementary background. If the context does not contain the answer, say so " +
	"and give a brief, professional response."

// insufficientInfo is the deterministic last-resort answer when neither a
// model nor any gathered context is available.
const insufficientInfo = "I don't have enough information in the current records to answer that question."

// documentFallbackLimit caps how much raw document context the degraded
// mode echoes back.
const documentFallbackLimit = 500

// Synthesizer merges whatever context the workflow gathered into a single
// prompt and produces the final response text. With no LLM configured it
// falls back to a deterministic answer.
type Synthesizer struct {
	llm    provider.Provider // nil in degraded mode
	logger *log.Logger
}

func NewSynthesizer(llm provider.Provider, logger *log.Logger) *Synthesizer {
	if logger == nil {
		logger = log.New(log.Writer(), "[SYNTH] ", log.LstdFlags)
	}
	return &Synthesizer{llm: llm, logger: logger}
}

// Synthesize renders the final assistant turn for the state: the route
// banner followed by the model answer, or by the deterministic fallback
// when no model is configured or the call fails.
func (s *Synthesizer) Synthesize(ctx context.Context, state *State) string {
	banner := routeBanner(state)
	body := s.body(ctx, state)
	return banner + "\n" + body
}

func (s *Synthesizer) body(ctx context.Context, state *State) string {
	if s.llm == nil {
		return s.fallback(state)
	}

	answer, err := s.llm.Complete(ctx, systemInstruction, buildPrompt(state))
	if err != nil {
		s.logger.Printf("llm completion failed, using fallback: %v", err)
		return s.fallback(state)
	}
	return answer
}

// buildPrompt assembles the labeled context block, structured section
// first, followed by the original question.
func buildPrompt(state *State) string {
	var b strings.Builder
	if state.StructuredResult != "" {
		b.WriteString("--- Structured results ---\n")
		b.WriteString(state.StructuredResult)
		b.WriteString("\n\n")
	}
	if state.DocumentContext != "" {
		b.WriteString("--- Retrieved documents ---\n")
		b.WriteString(state.DocumentContext)
		b.WriteString("\n\n")
	}
	if b.Len() == 0 {
		b.WriteString("No relevant context was found.\n\n")
	}
	fmt.Fprintf(&b, "Question: %s", state.LastUserMessage())
	return b.String()
}

// fallback answers deterministically: the structured result verbatim, then
// a bounded slice of the document context, then the fixed last resort.
func (s *Synthesizer) fallback(state *State) string {
	if state.StructuredResult != "" {
		return state.StructuredResult
	}
	if state.DocumentContext != "" {
		doc := state.DocumentContext
		if utf8.RuneCountInString(doc) > documentFallbackLimit {
			runes := []rune(doc)
			doc = string(runes[:documentFallbackLimit])
		}
		return doc
	}
	return insufficientInfo
}

// routeBanner renders the stages visited joined by an arrow plus a
// one-line characterization of which retrieval paths ran.
func routeBanner(state *State) string {
	mode := "document search"
	sawSQL := false
	sawRAG := false
	for _, stage := range state.Trace {
		switch stage {
		case string(StageQuerySQL):
			sawSQL = true
		case string(StageQueryRAG):
			sawRAG = true
		}
	}
	switch {
	case sawSQL && sawRAG:
		mode = "hybrid"
	case sawSQL:
		mode = "direct database"
	}
	return fmt.Sprintf("[%s | %s]", strings.Join(state.Trace, " -> "), mode)
}
