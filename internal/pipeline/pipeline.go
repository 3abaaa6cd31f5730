package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/newsagent/internal/debuglog"
	"github.com/pders01/newsagent/internal/feed"
	"github.com/pders01/newsagent/internal/match"
	"github.com/pders01/newsagent/internal/query"
)

// Collector produces raw entries for a set of sources. Failed sources are
// reported as warnings, never as errors.
type Collector interface {
	Collect(ctx context.Context, sources []feed.Source) ([]feed.RawItem, []feed.Warning)
}

// Request is one search.
type Request struct {
	Sources []feed.Source
	Window  query.Window
	Query   query.Query
	Limit   int
	// Fields defaults to title and summary when zero.
	Fields match.Fields
}

// Match is a result item with the reason it was kept.
type Match struct {
	feed.Item
	Reason string `json:"reason"`
}

// Stats counts what survived each stage.
type Stats struct {
	Sources   int           `json:"sources"`
	Failed    int           `json:"failed"`
	Fetched   int           `json:"fetched"`
	InWindow  int           `json:"in_window"`
	Matched   int           `json:"matched"`
	Unique    int           `json:"unique"`
	Returned  int           `json:"returned"`
	Elapsed   time.Duration `json:"elapsed"`
	Limit     int           `json:"limit"`
	Policy    string        `json:"on_missing_timestamp"`
	FieldsSet string        `json:"fields"`
}

// Result is the ordered result set plus per-source warnings.
type Result struct {
	ID       string         `json:"id"`
	Items    []Match        `json:"items"`
	Warnings []feed.Warning `json:"warnings"`
	Stats    Stats          `json:"stats"`
}

// FeedItems returns the plain items in result order.
func (r *Result) FeedItems() []feed.Item {
	out := make([]feed.Item, len(r.Items))
	for i, m := range r.Items {
		out[i] = m.Item
	}
	return out
}

// Pipeline runs collect, normalize, time filter, keyword filter, dedupe,
// sort and truncate, in that order.
type Pipeline struct {
	collector  Collector
	policy     MissingPolicy
	evaluators sync.Map // match.Fields -> *match.Evaluator
}

func New(collector Collector, policy MissingPolicy) *Pipeline {
	return &Pipeline{collector: collector, policy: policy}
}

// Policy returns the configured missing-timestamp policy.
func (p *Pipeline) Policy() MissingPolicy { return p.policy }

// Search executes req. The only error is an invalid window, returned before
// any source is contacted.
func (p *Pipeline) Search(ctx context.Context, req Request) (*Result, error) {
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	limit := ClampLimit(req.Limit)
	evaluator := p.evaluator(req.Fields)

	res := &Result{
		ID:    uuid.NewString(),
		Items: []Match{},
		Stats: Stats{
			Sources:   len(req.Sources),
			Limit:     limit,
			Policy:    p.policy.String(),
			FieldsSet: evaluator.Fields().String(),
		},
	}
	log := debuglog.WithFields(map[string]interface{}{"request": res.ID})

	var raw []feed.RawItem
	if len(req.Sources) > 0 {
		raw, res.Warnings = p.collector.Collect(ctx, req.Sources)
	}
	res.Stats.Failed = len(res.Warnings)
	res.Stats.Fetched = len(raw)

	var kept []Match
	for _, r := range raw {
		item := feed.Normalize(r)
		if !p.inWindow(item, req.Window) {
			continue
		}
		res.Stats.InWindow++

		ok, reason := evaluator.Evaluate(item, req.Query)
		if !ok {
			continue
		}
		kept = append(kept, Match{Item: item, Reason: reason})
	}
	res.Stats.Matched = len(kept)

	kept = dedupe(kept)
	res.Stats.Unique = len(kept)

	sortByPublished(kept)

	if len(kept) > limit {
		kept = kept[:limit]
	}
	if kept != nil {
		res.Items = kept
	}
	res.Stats.Returned = len(res.Items)
	res.Stats.Elapsed = time.Since(start)

	log.Infof("search done: sources=%d failed=%d fetched=%d in_window=%d matched=%d unique=%d returned=%d in %s",
		res.Stats.Sources, res.Stats.Failed, res.Stats.Fetched, res.Stats.InWindow,
		res.Stats.Matched, res.Stats.Unique, res.Stats.Returned, res.Stats.Elapsed)

	return res, nil
}

func (p *Pipeline) evaluator(fields match.Fields) *match.Evaluator {
	if fields == 0 {
		fields = match.DefaultFields
	}
	if e, ok := p.evaluators.Load(fields); ok {
		return e.(*match.Evaluator)
	}
	e, _ := p.evaluators.LoadOrStore(fields, match.NewEvaluator(fields))
	return e.(*match.Evaluator)
}

// inWindow never drops an unknown-timestamp item because of the upper bound
// alone.
func (p *Pipeline) inWindow(item feed.Item, w query.Window) bool {
	if item.Published == nil {
		return !(w.HasLowerBound() && p.policy == MissingDrop)
	}
	return w.Contains(*item.Published)
}

type dedupeKey struct {
	title string
	link  string
}

// dedupe keeps the first occurrence of each (title, link) pair.
func dedupe(items []Match) []Match {
	seen := make(map[dedupeKey]struct{}, len(items))
	out := items[:0]
	for _, m := range items {
		k := dedupeKey{m.Title, m.Link}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

// sortByPublished orders newest first with unknown timestamps last. Ties
// keep their input order.
func sortByPublished(items []Match) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Published, items[j].Published
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
