package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/aristath/ratecast/internal/domain"
	"github.com/aristath/ratecast/internal/modules/prediction"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	index  *template.Template
	failed *template.Template
}

type indexView struct {
	Base        domain.Currency
	Params      []domain.SelectedParams
	Predictions []prediction.StoredPrediction
}

func mustParsePages() *pages {
	funcs := template.FuncMap{
		// MAPE is stored as a ratio
		"percent": func(ratio float64) string {
			return fmt.Sprintf("%.3f%%", ratio*100)
		},
	}
	return &pages{
		index:  template.Must(template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html")),
		failed: template.Must(template.New("error.html").ParseFS(templateFS, "templates/error.html")),
	}
}

// handleIndex renders up to 100 predictions and the selected models
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := indexView{Base: s.cfg.BaseCurrency}

	var err error
	view.Predictions, err = s.cfg.Predictions.List(r.Context(), prediction.MaxListed)
	if err == nil {
		view.Params, err = s.sortedParams(r.Context())
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Not able to display predictions, error page returned")
		s.renderError(w)
		return
	}

	var buf bytes.Buffer
	if err := s.pages.index.Execute(&buf, view); err != nil {
		s.log.Error().Err(err).Msg("Failed to render index")
		s.renderError(w)
		return
	}

	s.log.Debug().Int("predictions", len(view.Predictions)).Msg("Index page accessed")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if err := s.pages.failed.Execute(w, nil); err != nil {
		s.log.Error().Err(err).Msg("Failed to render error page")
	}
}
