package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/aristath/ratecast/internal/domain"
	"github.com/aristath/ratecast/internal/modules/prediction"
)

// handleHealth reports whether the database answers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if s.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.cfg.DB.QuickCheck(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Health check failed")
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "ratecast",
	})
}

// handlePredictions handles GET /api/predictions?limit=
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := prediction.MaxListed
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	rows, err := s.cfg.Predictions.List(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list predictions")
		http.Error(w, "Failed to list predictions", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []prediction.StoredPrediction{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"predictions": rows,
			"count":       len(rows),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// handleParams handles GET /api/params
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	params, err := s.sortedParams(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load params")
		http.Error(w, "Failed to load params", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"params": params,
			"count":  len(params),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (s *Server) sortedParams(ctx context.Context) ([]domain.SelectedParams, error) {
	byCurrency, err := s.cfg.Params.LoadParams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SelectedParams, 0, len(byCurrency))
	for _, p := range byCurrency {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
