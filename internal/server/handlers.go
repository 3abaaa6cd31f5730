package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/debuglog"
	"github.com/pders01/newsagent/internal/export"
	"github.com/pders01/newsagent/internal/feed"
	"github.com/pders01/newsagent/internal/groups"
	"github.com/pders01/newsagent/internal/match"
	"github.com/pders01/newsagent/internal/pipeline"
	"github.com/pders01/newsagent/internal/query"
	"github.com/pders01/newsagent/internal/storage"
)

// Searcher runs one search. *pipeline.Pipeline satisfies it.
type Searcher interface {
	Search(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// CacheStats reports on the fetch cache. *storage.Store satisfies it.
type CacheStats interface {
	Stats() (storage.Stats, error)
}

// Handler handles HTTP requests for the search API.
type Handler struct {
	cfg      *config.Config
	searcher Searcher
	registry *groups.Registry
	parser   *query.Parser
	cache    CacheStats
	version  string
	started  time.Time
	now      func() time.Time
}

// NewHandler creates a new API handler. cache may be nil.
func NewHandler(cfg *config.Config, searcher Searcher, registry *groups.Registry, cache CacheStats, version string) (*Handler, error) {
	syntax, err := query.ParseSyntax(cfg.Search.ExactMarkers)
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:      cfg,
		searcher: searcher,
		registry: registry,
		parser:   query.NewParser(syntax),
		cache:    cache,
		version:  version,
		started:  time.Now(),
		now:      time.Now,
	}, nil
}

// requestError is a client mistake reported as 400.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{err: fmt.Errorf(format, args...)}
}

// buildRequest reads the web-form parameters. Absent since, limit and group
// fall back to the configured defaults; an explicitly empty since means no
// bound. With no default group either, every known feed is searched.
func (h *Handler) buildRequest(c *gin.Context) (pipeline.Request, error) {
	parent := strings.TrimSpace(c.Query("parent"))
	if parent == "" {
		return pipeline.Request{}, badRequest("parent keyword is required")
	}

	mode, err := query.ParseMode(c.DefaultQuery("mode", h.cfg.Search.Mode))
	if err != nil {
		return pipeline.Request{}, &requestError{err: err}
	}

	q := h.parser.Build(parent, c.QueryArray("child"), mode)
	if q.Parent == nil {
		return pipeline.Request{}, badRequest("parent keyword is required")
	}
	q.Text = strings.TrimSpace(c.Query("text"))

	since, ok := c.GetQuery("since")
	if !ok {
		since = h.cfg.Search.DefaultSince
	}
	window, err := query.ParseWindow(since, c.Query("until"), h.now())
	if err != nil {
		return pipeline.Request{}, &requestError{err: err}
	}

	limit := h.cfg.Search.DefaultLimit
	if raw, ok := c.GetQuery("limit"); ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return pipeline.Request{}, badRequest("invalid limit %q", raw)
		}
		limit = n
	}

	fields, err := match.ParseFields(h.cfg.Search.Fields)
	if err != nil {
		return pipeline.Request{}, err
	}
	switch strings.TrimSpace(c.DefaultQuery("source", "1")) {
	case "0", "false", "no", "off":
		fields &^= match.FieldSource
	default:
		fields |= match.FieldSource
	}

	names := c.QueryArray("group")
	if len(names) == 0 {
		names = h.cfg.Groups.Default
	}
	sources, err := h.registry.Resolve(names)
	if err != nil {
		return pipeline.Request{}, &requestError{err: err}
	}

	return pipeline.Request{
		Sources: sources,
		Window:  window,
		Query:   q,
		Limit:   limit,
		Fields:  fields,
	}, nil
}

func (h *Handler) run(c *gin.Context) (*pipeline.Result, bool) {
	req, err := h.buildRequest(c)
	if err == nil {
		var res *pipeline.Result
		res, err = h.searcher.Search(c.Request.Context(), req)
		if err == nil {
			return res, true
		}
	}

	status := http.StatusInternalServerError
	var reqErr *requestError
	if errors.As(err, &reqErr) || errors.Is(err, query.ErrInvalidRange) {
		status = http.StatusBadRequest
	}
	debuglog.Warnf("search rejected (%d): %v", status, err)
	c.JSON(status, gin.H{"error": err.Error()})
	return nil, false
}

// Search handles GET /api/search.
func (h *Handler) Search(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}

	records := make([]export.Record, len(res.Items))
	for i, m := range res.Items {
		records[i] = export.NewRecord(m)
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []feed.Warning{}
	}

	c.Header("X-Request-Id", res.ID)
	c.JSON(http.StatusOK, gin.H{
		"id":       res.ID,
		"results":  records,
		"warnings": warnings,
		"stats":    res.Stats,
	})
}

// SearchCSV handles GET /api/search.csv.
func (h *Handler) SearchCSV(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=newsagent-%s.csv", res.ID))
	c.Header("X-Request-Id", res.ID)
	c.Header("X-Warnings", strconv.Itoa(len(res.Warnings)))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, res.FeedItems()); err != nil {
		debuglog.Errorf("csv export for %s: %v", res.ID, err)
	}
}

// ListGroups handles GET /api/groups.
func (h *Handler) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": h.registry.Groups()})
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// GetStats handles GET /stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"groups":    len(h.registry.Groups()),
		"feeds":     len(h.registry.All()),
	}

	if h.cache != nil {
		if cacheStats, err := h.cache.Stats(); err == nil {
			stats["cache"] = cacheStats
		} else {
			debuglog.Warnf("cache stats: %v", err)
		}
	}

	c.JSON(http.StatusOK, stats)
}
