package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/digest"
	"jobflow/aggregator-service/internal/scrape"
)

// cycleResponse is the trigger endpoint response body. A cycle invocation
// never fails as a whole because of a single work item or user — item-level
// errors come back as strings inside the summaries.
type cycleResponse struct {
	Scrape *scrape.Summary `json:"scrape,omitempty"`
	Digest *digest.Summary `json:"digest,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "aggregator-service",
		"version": version,
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	summary, err := s.scrapeCycle.Run(r.Context())
	if err != nil {
		s.writeCycleError(w, err, scrape.ErrCycleBusy)
		return
	}
	writeJSON(w, http.StatusOK, cycleResponse{Scrape: summary})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	summary, err := s.digestCycle.Run(r.Context())
	if err != nil {
		s.writeCycleError(w, err, digest.ErrCycleBusy)
		return
	}
	writeJSON(w, http.StatusOK, cycleResponse{Digest: summary})
}

// handleFullCycle runs a scrape pass and then a digest pass, mirroring the
// daily schedule in a single trigger.
func (s *Server) handleFullCycle(w http.ResponseWriter, r *http.Request) {
	scrapeSummary, err := s.scrapeCycle.Run(r.Context())
	if err != nil {
		s.writeCycleError(w, err, scrape.ErrCycleBusy)
		return
	}

	digestSummary, err := s.digestCycle.Run(r.Context())
	if err != nil {
		s.writeCycleError(w, err, digest.ErrCycleBusy)
		return
	}

	writeJSON(w, http.StatusOK, cycleResponse{Scrape: scrapeSummary, Digest: digestSummary})
}

func (s *Server) writeCycleError(w http.ResponseWriter, err, busy error) {
	if errors.Is(err, busy) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	s.log.Error("cycle failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
