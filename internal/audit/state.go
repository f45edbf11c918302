package audit

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RoutingDecision selects which resolver(s) a query needs.
type RoutingDecision string

const (
	RouteStructured RoutingDecision = "STRUCTURED"
	RouteDocument   RoutingDecision = "DOCUMENT"
	RouteBoth       RoutingDecision = "BOTH"
)

// State is the unit threaded through one workflow invocation. Messages and
// Trace are append-only within an invocation; Routing is set exactly once.
type State struct {
	ThreadID         string          `json:"thread_id,omitempty"`
	Messages         []Message       `json:"messages"`
	Routing          RoutingDecision `json:"routing_decision,omitempty"`
	StructuredResult string          `json:"structured_result,omitempty"`
	DocumentContext  string          `json:"document_context,omitempty"`
	Trace            []string        `json:"route_trace"`
}

// NewState builds a fresh conversation state with the user's query as the
// sole message and empty trace and results.
func NewState(query string) *State {
	return &State{
		Messages: []Message{{Role: RoleUser, Content: query}},
	}
}

// LastUserMessage returns the content of the most recent user turn.
func (s *State) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastMessage returns the content of the final turn, empty when none exist.
func (s *State) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}
