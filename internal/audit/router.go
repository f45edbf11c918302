package audit

import "strings"

// sqlLexicon holds terms signaling aggregation or filtering over the
// structured invoice set.
var sqlLexicon = []string{
	"invoice", "vendor", "amount", "total", "sum", "count", "average",
	"how many", "list all", "show me", "paid", "pending", "status",
}

// ragLexicon holds terms signaling narrative or report content.
var ragLexicon = []string{
	"report", "audit", "analysis", "summary", "growth", "compliance",
	"revenue", "expense", "gaap", "quarter", "q1", "q2", "q3", "q4",
}

// RouteQuery scores the query text against both lexicons and returns the
// decision plus the raw scores. A tie, including zero-zero, routes BOTH:
// when the signals do not disambiguate, gather maximal context rather
// than guess.
func RouteQuery(query string) (RoutingDecision, int, int) {
	q := strings.ToLower(query)
	sqlScore := lexiconScore(q, sqlLexicon)
	ragScore := lexiconScore(q, ragLexicon)

	switch {
	case sqlScore > ragScore:
		return RouteStructured, sqlScore, ragScore
	case ragScore > sqlScore:
		return RouteDocument, sqlScore, ragScore
	default:
		return RouteBoth, sqlScore, ragScore
	}
}

func lexiconScore(q string, lexicon []string) int {
	score := 0
	for _, term := range lexicon {
		if strings.Contains(q, term) {
			score++
		}
	}
	return score
}
