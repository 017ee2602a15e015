// Package session tracks per-user daily counters and the planner week anchor.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/tier"
)

// ErrQuotaExceeded is returned when a daily tier limit has been reached
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// Session is the explicit per-user state passed into each operation
type Session struct {
	Date                 string `json:"date"`
	GenerationCountToday int    `json:"generation_count_today"`
	PlannerAddCountToday int    `json:"planner_add_count_today"`
	Anchor               string `json:"anchor,omitempty"`
}

// New starts a session for the given day
func New(now time.Time) *Session {
	today := now.Format(domain.DateLayout)
	return &Session{Date: today, Anchor: today}
}

// Roll resets the counters when the day has changed. It reports whether a
// reset happened.
func (s *Session) Roll(now time.Time) bool {
	today := now.Format(domain.DateLayout)
	if s.Anchor == "" {
		s.Anchor = today
	}
	if s.Date == today {
		return false
	}
	s.Date = today
	s.GenerationCountToday = 0
	s.PlannerAddCountToday = 0
	return true
}

// CanGenerate checks the daily generation quota
func (s *Session) CanGenerate(t tier.Tier) error {
	if s.GenerationCountToday >= t.DailyGenerations {
		return fmt.Errorf("generations %d/%d on %s plan: %w",
			s.GenerationCountToday, t.DailyGenerations, t.Name, ErrQuotaExceeded)
	}
	return nil
}

// CanAddToPlanner checks the daily planner quota
func (s *Session) CanAddToPlanner(t tier.Tier) error {
	if s.PlannerAddCountToday >= t.DailyPlannerAdds {
		return fmt.Errorf("planner adds %d/%d on %s plan: %w",
			s.PlannerAddCountToday, t.DailyPlannerAdds, t.Name, ErrQuotaExceeded)
	}
	return nil
}

func (s *Session) RecordGeneration() { s.GenerationCountToday++ }

func (s *Session) RecordPlannerAdd() { s.PlannerAddCountToday++ }

// AnchorDate returns the week anchor, falling back to the session date
func (s *Session) AnchorDate() (time.Time, error) {
	a := s.Anchor
	if a == "" {
		a = s.Date
	}
	d, err := time.Parse(domain.DateLayout, a)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse anchor: %w", err)
	}
	return d, nil
}

// SetAnchor stores a new week anchor
func (s *Session) SetAnchor(t time.Time) {
	s.Anchor = t.Format(domain.DateLayout)
}
