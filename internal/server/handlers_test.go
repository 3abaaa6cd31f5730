package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/feed"
	"github.com/pders01/newsagent/internal/groups"
	"github.com/pders01/newsagent/internal/match"
	"github.com/pders01/newsagent/internal/pipeline"
	"github.com/pders01/newsagent/internal/query"
	"github.com/pders01/newsagent/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeSearcher struct {
	requests []pipeline.Request
	result   *pipeline.Result
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCache struct{}

func (fakeCache) Stats() (storage.Stats, error) {
	return storage.Stats{Entries: 3, Bytes: 1024}, nil
}

func testRegistry() *groups.Registry {
	return groups.NewRegistry(
		groups.Group{Name: "Tech", Feeds: []feed.Source{{Name: "Verge", URL: "https://verge.example/rss"}}},
		groups.Group{Name: "Business", Feeds: []feed.Source{{Name: "Reuters", URL: "https://reuters.example/rss"}}},
	)
}

func testResult() *pipeline.Result {
	pub := time.Date(2025, 10, 14, 9, 30, 0, 0, time.UTC)
	return &pipeline.Result{
		ID: "req-1",
		Items: []pipeline.Match{{
			Item: feed.Item{
				Title:     "AI chips export",
				Summary:   "Rules tighten",
				Link:      "https://verge.example/a",
				Source:    "Verge",
				Published: &pub,
			},
			Reason: "parent matched: AI | child matched: chips",
		}},
		Warnings: []feed.Warning{{Source: "Reuters", Message: "HTTP error: 502"}},
	}
}

func newTestServer(t *testing.T, searcher *fakeSearcher) *gin.Engine {
	t.Helper()
	return newTestServerWith(t, config.TestConfig(), searcher)
}

func newTestServerWith(t *testing.T, cfg *config.Config, searcher *fakeSearcher) *gin.Engine {
	t.Helper()
	h, err := NewHandler(cfg, searcher, testRegistry(), fakeCache{}, "1.2.3")
	require.NoError(t, err)
	h.now = func() time.Time { return fixedNow }
	return NewServer(h)
}

func get(t *testing.T, engine http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearch_Success(t *testing.T) {
	searcher := &fakeSearcher{result: testResult()}
	engine := newTestServer(t, searcher)

	rec := get(t, engine, `/api/search?parent=AI&child=chips&child=%22export%22&mode=all&limit=10&group=tech&text=rules`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	var body struct {
		ID       string           `json:"id"`
		Results  []map[string]any `json:"results"`
		Warnings []feed.Warning   `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-1", body.ID)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "2025-10-14 09:30:00", body.Results[0]["published_utc"])
	assert.Equal(t, "parent matched: AI | child matched: chips", body.Results[0]["reason"])
	assert.Len(t, body.Warnings, 1)

	require.Len(t, searcher.requests, 1)
	req := searcher.requests[0]
	assert.Equal(t, "AI", req.Query.Parent.Text)
	require.Len(t, req.Query.Children, 2)
	assert.False(t, req.Query.Children[0].Exact)
	assert.True(t, req.Query.Children[1].Exact)
	assert.Equal(t, "export", req.Query.Children[1].Text)
	assert.Equal(t, query.ModeAll, req.Query.Mode)
	assert.Equal(t, "rules", req.Query.Text)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, []feed.Source{{Name: "Verge", URL: "https://verge.example/rss"}}, req.Sources)
	assert.NotZero(t, req.Fields&match.FieldSource)
}

func TestSearch_Defaults(t *testing.T) {
	searcher := &fakeSearcher{result: &pipeline.Result{ID: "x"}}
	engine := newTestServer(t, searcher)

	rec := get(t, engine, "/api/search?parent=AI")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"warnings":[]`)

	req := searcher.requests[0]
	require.NotNil(t, req.Window.Since)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), *req.Window.Since)
	assert.Nil(t, req.Window.Until)
	assert.Equal(t, 20, req.Limit)
	assert.Equal(t, query.ModeAny, req.Query.Mode)
	assert.Len(t, req.Sources, 2)

	get(t, engine, "/api/search?parent=AI&since=&source=0")
	req = searcher.requests[1]
	assert.Nil(t, req.Window.Since)
	assert.Equal(t, match.DefaultFields, req.Fields)
}

func TestSearch_DefaultGroups(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Groups.Default = []string{"Business"}
	searcher := &fakeSearcher{result: &pipeline.Result{ID: "x"}}
	engine := newTestServerWith(t, cfg, searcher)

	rec := get(t, engine, "/api/search?parent=AI")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, []feed.Source{{Name: "Reuters", URL: "https://reuters.example/rss"}}, searcher.requests[0].Sources)

	get(t, engine, "/api/search?parent=AI&group=Tech")
	require.Len(t, searcher.requests, 2)
	assert.Equal(t, []feed.Source{{Name: "Verge", URL: "https://verge.example/rss"}}, searcher.requests[1].Sources)
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"missing parent", "/api/search?child=chips", "parent keyword is required"},
		{"blank parent", "/api/search?parent=%20%20", "parent keyword is required"},
		{"inverted window", "/api/search?parent=AI&since=2025-10-10&until=2025-10-01", "invalid range"},
		{"bad bound", "/api/search?parent=AI&since=yesterday", "invalid duration format"},
		{"bad mode", "/api/search?parent=AI&mode=most", "unknown match mode"},
		{"bad limit", "/api/search?parent=AI&limit=ten", "invalid limit"},
		{"unknown group", "/api/search?parent=AI&group=Sports", "unknown feed group"},
		{"csv inverted window", "/api/search.csv?parent=AI&since=2025-10-10&until=2025-10-01", "invalid range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{result: testResult()}
			rec := get(t, newTestServer(t, searcher), tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Empty(t, searcher.requests, "no search may run for a rejected request")
		})
	}
}

func TestSearch_SearcherErrors(t *testing.T) {
	searcher := &fakeSearcher{err: query.ErrInvalidRange}
	rec := get(t, newTestServer(t, searcher), "/api/search?parent=AI")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	searcher = &fakeSearcher{err: errors.New("boom")}
	rec = get(t, newTestServer(t, searcher), "/api/search?parent=AI")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearchCSV(t *testing.T) {
	engine := newTestServer(t, &fakeSearcher{result: testResult()})

	rec := get(t, engine, "/api/search.csv?parent=AI")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "newsagent-req-1.csv")
	assert.Equal(t, "1", rec.Header().Get("X-Warnings"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "title,source,published_utc,link,summary", lines[0])
	assert.Contains(t, lines[1], "AI chips export")
}

func TestListGroups(t *testing.T) {
	rec := get(t, newTestServer(t, &fakeSearcher{}), "/api/groups")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Groups []groups.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Groups, 2)
	assert.Equal(t, "Tech", body.Groups[0].Name)
}

func TestHealthAndStats(t *testing.T) {
	engine := newTestServer(t, &fakeSearcher{})

	rec := get(t, engine, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)

	rec = get(t, engine, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"feeds":2`)
	assert.Contains(t, rec.Body.String(), `"Entries":3`)
}

func TestCORSPreflight(t *testing.T) {
	engine := newTestServer(t, &fakeSearcher{})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/search", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
