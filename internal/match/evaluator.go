package match

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/pders01/newsagent/internal/feed"
	"github.com/pders01/newsagent/internal/query"
)

// Word runes are letters, digits and underscore; anything else, or the edge
// of the text, bounds an exact term.
const (
	boundaryBefore = `(?:^|[^\p{L}\p{N}_])`
	boundaryAfter  = `(?:$|[^\p{L}\p{N}_])`
)

// Evaluator decides whether an item satisfies a query. It holds only a cache
// of compiled exact-term patterns and is safe for concurrent use.
type Evaluator struct {
	fields   Fields
	patterns sync.Map // folded term -> *regexp.Regexp
}

func NewEvaluator(fields Fields) *Evaluator {
	if fields == 0 {
		fields = DefaultFields
	}
	return &Evaluator{fields: fields}
}

// Fields returns the haystack selection.
func (e *Evaluator) Fields() Fields { return e.fields }

// Evaluate matches the item's selected fields against q and returns a
// human-readable reason for the outcome.
func (e *Evaluator) Evaluate(item feed.Item, q query.Query) (bool, string) {
	return e.EvaluateText(e.fields.Haystack(item), q)
}

// EvaluateText applies q to an arbitrary text.
func (e *Evaluator) EvaluateText(text string, q query.Query) (bool, string) {
	haystack := fold(text)
	var reasons []string

	if q.Parent != nil {
		if !e.termMatches(haystack, *q.Parent) {
			return false, "parent not matched: " + q.Parent.String()
		}
		reasons = append(reasons, "parent matched: "+q.Parent.String())
	} else {
		reasons = append(reasons, "no parent term")
	}

	ok, childReason := e.childrenMatch(haystack, q.Children, q.Mode)
	if !ok {
		return false, childReason
	}
	reasons = append(reasons, childReason)

	if text := strings.TrimSpace(q.Text); text != "" {
		if !strings.Contains(haystack, fold(text)) {
			return false, "text not matched: " + text
		}
		reasons = append(reasons, "text matched: "+text)
	}

	return true, strings.Join(reasons, " | ")
}

func (e *Evaluator) childrenMatch(haystack string, children []query.Term, mode query.Mode) (bool, string) {
	if len(children) == 0 {
		return true, "no child terms provided"
	}

	var hits []query.Term
	for _, c := range children {
		if e.termMatches(haystack, c) {
			hits = append(hits, c)
		}
	}

	if mode == query.ModeAll {
		names := make([]string, len(children))
		for i, c := range children {
			names[i] = c.String()
		}
		if len(hits) == len(children) {
			return true, "children " + strings.Join(names, " & ") + " all matched"
		}
		return false, "children " + strings.Join(names, " & ") + " not all matched"
	}

	if len(hits) == 0 {
		return false, "no child matched"
	}
	return true, "child matched: " + hits[0].String()
}

// termMatches expects an already folded haystack.
func (e *Evaluator) termMatches(haystack string, t query.Term) bool {
	needle := fold(t.Text)
	if needle == "" {
		return false
	}
	if !t.Exact {
		return strings.Contains(haystack, needle)
	}
	return e.pattern(needle).MatchString(haystack)
}

func (e *Evaluator) pattern(needle string) *regexp.Regexp {
	if re, ok := e.patterns.Load(needle); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)` + boundaryBefore + regexp.QuoteMeta(needle) + boundaryAfter)
	actual, _ := e.patterns.LoadOrStore(needle, re)
	return actual.(*regexp.Regexp)
}

// fold case-folds s and collapses whitespace runs so phrases match across
// line breaks.
func fold(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
