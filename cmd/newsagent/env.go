package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/debuglog"
	"github.com/pders01/newsagent/internal/feed"
	"github.com/pders01/newsagent/internal/groups"
	"github.com/pders01/newsagent/internal/match"
	"github.com/pders01/newsagent/internal/pipeline"
	"github.com/pders01/newsagent/internal/plugins"
	"github.com/pders01/newsagent/internal/plugins/sites"
	"github.com/pders01/newsagent/internal/query"
	"github.com/pders01/newsagent/internal/storage"
	"github.com/pders01/newsagent/internal/tui"
	"github.com/pders01/newsagent/internal/validation"
)

// env is everything a command needs, built from the loaded config.
type env struct {
	cfg       *config.Config
	store     *storage.Store
	registry  *groups.Registry
	validator *validation.SourceValidator
	resolver  *plugins.Registry
	collector *feed.Collector
	pipeline  *pipeline.Pipeline
	parser    *query.Parser
	fields    match.Fields
}

type envOptions struct {
	noCache bool
	refresh bool
}

func newEnv(opts envOptions) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	tui.ApplyColors(cfg.UI.Colors)

	policy, err := pipeline.ParseMissingPolicy(cfg.Search.OnMissingTimestamp)
	if err != nil {
		return nil, fmt.Errorf("search.on_missing_timestamp: %w", err)
	}
	syntax, err := query.ParseSyntax(cfg.Search.ExactMarkers)
	if err != nil {
		return nil, fmt.Errorf("search.exact_markers: %w", err)
	}
	fields, err := match.ParseFields(cfg.Search.Fields)
	if err != nil {
		return nil, fmt.Errorf("search.fields: %w", err)
	}
	registry, err := groups.LoadRegistry(cfg.Groups.File)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:       cfg,
		registry:  registry,
		validator: validation.NewSourceValidator(cfg.Feed.AllowPrivate),
		resolver:  sites.NewRegistry(),
		parser:    query.NewParser(syntax),
		fields:    fields,
	}

	var cache feed.Cache
	if cfg.Cache.Enabled && !opts.noCache {
		store, err := storage.NewStore(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			debuglog.Warnf("cache disabled: %v", err)
		} else {
			e.store = store
			cache = store
		}
	}

	e.collector = feed.NewCollector(cfg, cache)
	e.collector.SetForceRefresh(opts.refresh)
	e.pipeline = pipeline.New(e.collector, policy)

	debuglog.Debugf("env ready: groups=%d cache=%t policy=%s fields=%s",
		len(registry.Groups()), e.store != nil, policy, fields)
	return e, nil
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			debuglog.Warnf("closing cache: %v", err)
		}
	}
	_ = debuglog.Close()
}

// sources resolves groups and ad hoc feed URLs into one validated list.
// With neither given, the configured default groups are used, or every
// known feed when no default is configured. Ad hoc URLs pointing at a known
// site page are rewritten to that site's feed.
func (e *env) sources(groupNames, feedURLs []string) ([]feed.Source, error) {
	var picked []feed.Source

	if len(groupNames) > 0 || len(feedURLs) == 0 {
		if len(groupNames) == 0 {
			groupNames = e.cfg.Groups.Default
		}
		fromGroups, err := e.registry.Resolve(groupNames)
		if err != nil {
			return nil, err
		}
		picked = append(picked, fromGroups...)
	}

	var errs []error
	for _, u := range feedURLs {
		if strings.TrimSpace(u) == "" {
			continue
		}
		normalized, err := e.validator.Normalize(u)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		info, err := e.resolver.Resolve(context.Background(), normalized)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.FeedURL != normalized {
			debuglog.Infof("resolved %s to %s", normalized, info.FeedURL)
		}
		picked = append(picked, info.Source())
	}

	sources, err := e.validator.Sources(picked)
	return sources, errors.Join(append(errs, err)...)
}
