package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
)

type monthKey struct{}

// monthParam parses the {month} URL parameter once for every month route.
func monthParam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := core.ParseMonth(chi.URLParam(r, "month"))
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "invalid month", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), monthKey{}, m)))
	})
}

func monthFromContext(ctx context.Context) core.Month {
	m, _ := ctx.Value(monthKey{}).(core.Month)
	return m
}

type (
	monthsResponse struct {
		Months []core.Entry `json:"months"`
	}

	selectRequest struct {
		Month string `json:"month"`
	}

	selectResponse struct {
		Month core.Month `json:"month"`
		Token string     `json:"token"`
	}

	readyResponse struct {
		Status  string `json:"status"`
		Backend string `json:"backend"`
		Error   string `json:"error,omitempty"`
	}
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).Warn("Readiness check failed", log.FieldBackend, s.backend, log.FieldError, err)
			RespondJSON(w, r, http.StatusServiceUnavailable, readyResponse{Status: "unavailable", Backend: s.backend, Error: err.Error()})
			return
		}
	}
	RespondJSON(w, r, http.StatusOK, readyResponse{Status: "ready", Backend: s.backend})
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	entries, err := s.months.Months(r.Context())
	if err != nil {
		respondSourceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	RespondJSON(w, r, http.StatusOK, monthsResponse{Months: entries})
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	view, err := s.months.Load(r.Context(), monthFromContext(r.Context()))
	if err != nil {
		respondSourceError(w, r, err)
		return
	}
	RespondJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	f, err := s.forecasts.Forecast(r.Context(), monthFromContext(r.Context()))
	if err != nil {
		respondSourceError(w, r, err)
		return
	}
	RespondJSON(w, r, http.StatusOK, f)
}

// handleSelect starts a background load of the requested month.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if s.selector == nil {
		RespondError(w, r, http.StatusNotImplemented, "selection is disabled", nil)
		return
	}
	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	m, err := core.ParseMonth(req.Month)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "invalid month", err.Error())
		return
	}
	token := s.selector.Select(m)
	log.FromContext(r.Context()).Info("Month selected",
		log.FieldOperation, log.OpSelect, log.FieldMonth, m.String(), log.FieldLoadToken, token)
	RespondJSON(w, r, http.StatusAccepted, selectResponse{Month: m, Token: token})
}

// handleSelection returns the current selection, 202 while it is loading.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if s.selector == nil {
		RespondError(w, r, http.StatusNotImplemented, "selection is disabled", nil)
		return
	}
	sel, ok := s.selector.Current()
	switch {
	case !ok:
		RespondError(w, r, http.StatusNotFound, "no month selected", nil)
	case !sel.Ready:
		RespondJSON(w, r, http.StatusAccepted, sel)
	case sel.Err != nil:
		respondSourceError(w, r, sel.Err)
	default:
		RespondJSON(w, r, http.StatusOK, sel)
	}
}
