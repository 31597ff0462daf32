// Package httpserver exposes the administrative trigger endpoints. Every
// pipeline endpoint sits behind the shared-secret bearer credential; a
// missing or wrong credential is rejected before any side effect.
package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/digest"
	"jobflow/aggregator-service/internal/scrape"
)

const version = "1.0.0"

// Server holds the router and the cycle runners it triggers.
type Server struct {
	scrapeCycle *scrape.Cycle
	digestCycle *digest.Cycle
	secret      string
	log         *zap.Logger

	mu      sync.Mutex
	httpSrv *http.Server
}

// New wires the trigger server.
func New(scrapeCycle *scrape.Cycle, digestCycle *digest.Cycle, secret string, log *zap.Logger) *Server {
	return &Server{
		scrapeCycle: scrapeCycle,
		digestCycle: digestCycle,
		secret:      secret,
		log:         log,
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requireBearer(s.secret))
		r.Post("/internal/scrape", s.handleScrape)
		r.Post("/internal/digest", s.handleDigest)
		r.Post("/internal/cycle", s.handleFullCycle)
	})

	return r
}

// Listen runs the HTTP server on addr until it fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // cycles run inline in the request
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	return srv.ListenAndServe()
}

// Shutdown stops accepting new requests and waits for in-flight ones —
// including inline cycle runs — to finish, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
