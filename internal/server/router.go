// Package server exposes the extractor, charts and exports over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Setup creates the Gin engine with middleware and all route definitions.
func Setup(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestID(), Logger())

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/chat", h.Chat)
	v1.POST("/extract", h.Extract)
	v1.POST("/charts/:kind", h.Chart)
	v1.POST("/export", h.Export)

	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
