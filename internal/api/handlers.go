package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/export"
	"github.com/pbaille/contentforge/internal/generator"
	"github.com/pbaille/contentforge/internal/metrics"
	"github.com/pbaille/contentforge/internal/planner"
	"github.com/pbaille/contentforge/internal/scorer"
	"github.com/pbaille/contentforge/internal/session"
	"github.com/pbaille/contentforge/internal/tier"
	"github.com/pbaille/contentforge/internal/workflow"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateRequest is the request body for generating a batch
type GenerateRequest struct {
	Brand        string          `json:"brand" validate:"required,max=120"`
	Niche        string          `json:"niche" validate:"max=200"`
	Tone         string          `json:"tone" validate:"omitempty,oneof=profissional premium emocional casual"`
	Platform     domain.Platform `json:"platform" validate:"required,oneof=instagram tiktok"`
	CopyMode     domain.CopyMode `json:"copy_mode" validate:"required,oneof=Venda Storytelling Educacional"`
	Goal         string          `json:"goal" validate:"max=200"`
	Extra        string          `json:"extra" validate:"max=2000"`
	ReferenceURL string          `json:"reference_url" validate:"omitempty,url"`
}

// GenerateResponse is the response for a generated batch
type GenerateResponse struct {
	Variants    []domain.Variant `json:"variants"`
	Recommended string           `json:"recommended,omitempty"`
	Session     session.Session  `json:"session"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	brief := generator.Brief{
		Brand:    req.Brand,
		Niche:    req.Niche,
		Tone:     req.Tone,
		Platform: req.Platform,
		CopyMode: req.CopyMode,
		Goal:     req.Goal,
		Extra:    req.Extra,
	}
	if err := workflow.AttachReference(r.Context(), s.deps.Fetcher, &brief, req.ReferenceURL); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var variants []domain.Variant
	err := s.commit(r.Context(), func() (err error) {
		variants, err = workflow.Run(r.Context(), s.deps, s.sess, s.tier, brief)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := GenerateResponse{Variants: variants, Session: *s.sess}
	for _, v := range variants {
		if v.Recommended {
			resp.Recommended = v.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ScoreRequest is the request body for scoring a single caption
type ScoreRequest struct {
	Caption   string          `json:"caption"`
	Objective string          `json:"objective"`
	CopyMode  domain.CopyMode `json:"copy_mode" validate:"omitempty,oneof=Venda Storytelling Educacional"`
	Platform  domain.Platform `json:"platform" validate:"omitempty,oneof=instagram tiktok"`
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	if !s.tier.AnalysisEnabled {
		writeErr(w, fmt.Errorf("caption analysis: %w", errForbidden))
		return
	}

	var req ScoreRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	result := scorer.Score(req.Caption, scorer.Context{
		Objective: req.Objective,
		CopyMode:  req.CopyMode,
		Platform:  req.Platform,
	})
	metrics.VariantsScored.Inc()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) week(w http.ResponseWriter, r *http.Request) {
	anchor := planner.Date(s.now())
	if a := r.URL.Query().Get("anchor"); a != "" {
		d, err := planner.ParseDate(a)
		if err != nil {
			writeError(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
			return
		}
		anchor = d
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil {
			writeError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		anchor = planner.ShiftWeek(anchor, n)
	}

	writeJSON(w, http.StatusOK, s.planner.EventsInWeek(anchor))
}

// ScheduleRequest is the request body for putting a variant on the planner
type ScheduleRequest struct {
	Variant  domain.Variant  `json:"variant"`
	Platform domain.Platform `json:"platform"`
	Day      string          `json:"day"`
	Time     string          `json:"time"`
}

func (s *Server) schedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in := planner.FromVariant(req.Variant, req.Platform, req.Day, req.Time)
	var e domain.PlannerEvent
	err := s.commit(r.Context(), func() (err error) {
		e, err = workflow.ScheduleAt(s.now(), s.planner, s.sess, s.tier, in)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e domain.PlannerEvent
	err := s.commit(r.Context(), func() (err error) {
		e, err = s.planner.Complete(r.PathValue("id"))
		return err
	})
	metrics.PlannerActions.WithLabelValues("complete", metrics.StatusOf(err)).Inc()
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.commit(r.Context(), func() error {
		return s.planner.Remove(r.PathValue("id"))
	})
	metrics.PlannerActions.WithLabelValues("remove", metrics.StatusOf(err)).Inc()
	if err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if !s.tier.PerformanceEnabled {
		writeErr(w, fmt.Errorf("performance history: %w", errForbidden))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": s.planner.History(),
	})
}

func (s *Server) exportText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.TextFilename))
	if err := export.WriteText(w, s.planner.Events()); err != nil {
		s.log.WithError(err).Error("text export")
	}
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	if !s.tier.CSVExport {
		writeErr(w, fmt.Errorf("csv export: %w", errForbidden))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename))
	if err := export.WriteCSV(w, s.planner.Events()); err != nil {
		s.log.WithError(err).Error("csv export")
	}
}

// SessionResponse reports the daily counters against the active plan
type SessionResponse struct {
	Session session.Session `json:"session"`
	Tier    tier.Tier       `json:"tier"`
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sess.Roll(s.now())
	resp := SessionResponse{Session: *s.sess, Tier: s.tier}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}
