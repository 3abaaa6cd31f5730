// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pders01/newsagent/internal/debuglog"
)

// NewServer creates a gin engine with all routes configured.
func NewServer(handler *Handler) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output: logWriter{},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s \"%s %s %s\" %d %s \"%s\" %s\n",
				param.ClientIP,
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)
	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/healthz", handler.HealthCheck)
	r.GET("/stats", handler.GetStats)

	api := r.Group("/api")
	{
		api.GET("/search", handler.Search)
		api.GET("/search.csv", handler.SearchCSV)
		api.GET("/groups", handler.ListGroups)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "newsagent",
			"version":     handler.version,
			"description": "News feed aggregator with keyword and time-window filtering",
			"endpoints": map[string]string{
				"search": "/api/search?parent=<term>&child=<term>&mode=any|all&since=7d&until=2025-10-14&limit=20&group=<name>&text=<free text>&source=1",
				"csv":    "/api/search.csv (same parameters)",
				"groups": "/api/groups",
				"health": "/healthz",
				"stats":  "/stats",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// logWriter forwards gin's access log into debuglog.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	debuglog.Infof("http: %s", strings.TrimSpace(string(p)))
	return len(p), nil
}

// ListenAndServe serves h on addr until ctx is canceled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	debuglog.Infof("server listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		debuglog.Infof("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
