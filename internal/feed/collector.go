package feed

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/debuglog"
)

// Cache stores raw feed documents between searches. Implementations decide
// expiry; Get reports ok=false for missing or stale entries.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte) error
}

// Getter retrieves the raw bytes of a source.
type Getter interface {
	Fetch(ctx context.Context, src Source) ([]byte, error)
}

// Collector fetches every source concurrently and merges the entries in
// source order. A failing source becomes a Warning and contributes nothing.
type Collector struct {
	getter         Getter
	parser         *Parser
	cache          Cache
	workers        int
	sourceTimeout  time.Duration
	requestTimeout time.Duration
	forceRefresh   bool
}

func NewCollector(cfg *config.Config, cache Cache) *Collector {
	workers := cfg.Feed.Workers
	if workers <= 0 {
		workers = 5
	}
	return &Collector{
		getter:         NewFetcher(cfg),
		parser:         NewParser(),
		cache:          cache,
		workers:        workers,
		sourceTimeout:  cfg.Feed.SourceTimeout,
		requestTimeout: cfg.Feed.RequestTimeout,
	}
}

// SetGetter replaces the network fetcher.
func (c *Collector) SetGetter(g Getter) {
	c.getter = g
}

// SetForceRefresh makes the collector skip cache reads. Fresh documents are
// still written back.
func (c *Collector) SetForceRefresh(force bool) {
	c.forceRefresh = force
}

// Collect returns the raw entries of all sources plus one warning per
// source that could not be used.
func (c *Collector) Collect(ctx context.Context, sources []Source) ([]RawItem, []Warning) {
	if len(sources) == 0 {
		return nil, nil
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	slots := make([][]RawItem, len(sources))
	failures := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, src := range sources {
		g.Go(func() error {
			items, err := c.collectOne(ctx, src)
			if err != nil {
				failures[i] = &FetchError{Source: src, Err: err}
				return nil
			}
			slots[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var items []RawItem
	var warnings []Warning
	for i := range sources {
		if failures[i] != nil {
			var fe *FetchError
			if errors.As(failures[i], &fe) {
				warnings = append(warnings, fe.Warning())
			}
			debuglog.Warnf("source skipped: %v", failures[i])
			continue
		}
		items = append(items, slots[i]...)
	}
	return items, warnings
}

func (c *Collector) collectOne(ctx context.Context, src Source) ([]RawItem, error) {
	if c.cache != nil && !c.forceRefresh {
		data, ok, err := c.cache.Get(src.URL)
		if err != nil {
			debuglog.Warnf("cache read for %s: %v", src.URL, err)
		}
		if ok {
			if doc, perr := c.parser.Parse(data, src.Label()); perr == nil {
				debuglog.Debugf("cache hit for %s (%d items)", src.URL, len(doc.Items))
				return c.label(doc, src), nil
			}
		}
	}

	if c.sourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sourceTimeout)
		defer cancel()
	}

	data, err := c.getter.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	doc, err := c.parser.Parse(data, src.Label())
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(src.URL, data); err != nil {
			debuglog.Warnf("cache write for %s: %v", src.URL, err)
		}
	}

	return c.label(doc, src), nil
}

// label prefers the configured source name over the document title.
func (c *Collector) label(doc *Document, src Source) []RawItem {
	if src.Name == "" {
		return doc.Items
	}
	for i := range doc.Items {
		doc.Items[i].Source = src.Name
	}
	return doc.Items
}
