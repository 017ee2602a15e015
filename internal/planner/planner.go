// Package planner holds scheduled posts and answers weekly board queries.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pbaille/contentforge/internal/domain"
)

// ErrNotFound is returned when an id is absent from the live collection
var ErrNotFound = errors.New("planner event not found")

// ErrAmbiguousID is returned when an id prefix matches more than one event
var ErrAmbiguousID = errors.New("ambiguous planner event id")

// Store owns the live planner collection and the completed history
type Store struct {
	mu      sync.RWMutex
	events  []domain.PlannerEvent
	history []domain.PlannerEvent
	now     func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for created_at and completed_at
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore creates a Store from previously saved collections
func Restore(live, history []domain.PlannerEvent, opts ...Option) *Store {
	s := New(opts...)
	s.events = cloneEvents(live)
	s.history = cloneEvents(history)
	return s
}

// Reset replaces both collections with copies of live and history
func (s *Store) Reset(live, history []domain.PlannerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = cloneEvents(live)
	s.history = cloneEvents(history)
}

// Snapshot returns copies of the live and history collections
func (s *Store) Snapshot() (live, history []domain.PlannerEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.events), cloneEvents(s.history)
}

// Add validates the input and appends a new planned event
func (s *Store) Add(in EventInput) (domain.PlannerEvent, error) {
	if err := in.Validate(); err != nil {
		return domain.PlannerEvent{}, err
	}
	// "9:05" parses but would sort after "18:00"
	clock, err := time.Parse(domain.TimeLayout, in.Time)
	if err != nil {
		return domain.PlannerEvent{}, fmt.Errorf("parse time: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evt := domain.PlannerEvent{
		ID:        uuid.New().String(),
		Day:       in.Day,
		Time:      clock.Format(domain.TimeLayout),
		Platform:  in.Platform,
		Title:     in.Title,
		Caption:   in.Caption,
		Hashtags:  append([]string{}, in.Hashtags...),
		Score:     copyScore(in.Score),
		Status:    domain.StatusPlanned,
		CreatedAt: s.now().UTC(),
	}

	s.events = append(s.events, evt)
	return cloneEvent(evt), nil
}

// Get returns a live event by id
func (s *Store) Get(id string) (domain.PlannerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.PlannerEvent{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return cloneEvent(s.events[i]), nil
}

// Resolve expands a unique id prefix to a full live event id
func (s *Store) Resolve(prefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found string
	for _, e := range s.events {
		if e.ID == prefix {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			if found != "" {
				return "", fmt.Errorf("resolve %s: %w", prefix, ErrAmbiguousID)
			}
			found = e.ID
		}
	}
	if found == "" {
		return "", fmt.Errorf("resolve %s: %w", prefix, ErrNotFound)
	}
	return found, nil
}

// Events returns every live event sorted by (day, time)
func (s *Store) Events() []domain.PlannerEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := cloneEvents(s.events)
	sortAscending(out)
	return out
}

// EventsInWeek returns the Monday to Sunday board containing anchor.
// The result always has seven days; each day is sorted by time.
func (s *Store) EventsInWeek(anchor time.Time) Week {
	w := emptyWeek(anchor)

	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string]int, DaysPerWeek)
	for i, d := range w.Days {
		index[d.Date] = i
	}

	for _, e := range s.events {
		if e.Day < w.Start || e.Day > w.End {
			continue
		}
		if i, ok := index[e.Day]; ok {
			w.Days[i].Events = append(w.Days[i].Events, cloneEvent(e))
		}
	}

	for i := range w.Days {
		sortAscending(w.Days[i].Events)
	}
	return w
}

// Complete marks a live event as done and moves it to history.
// Completing the same id twice fails with ErrNotFound.
func (s *Store) Complete(id string) (domain.PlannerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.PlannerEvent{}, fmt.Errorf("complete %s: %w", id, ErrNotFound)
	}

	evt := s.events[i]
	completedAt := s.now().UTC()
	evt.Status = domain.StatusDone
	evt.CompletedAt = &completedAt

	s.events = append(s.events[:i], s.events[i+1:]...)
	s.history = append(s.history, evt)
	return cloneEvent(evt), nil
}

// Remove deletes a live event without recording it in history
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}

	s.events = append(s.events[:i], s.events[i+1:]...)
	return nil
}

// History returns completed events, most recent schedule first
func (s *Store) History() []domain.PlannerEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := cloneEvents(s.history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduleKey() > out[j].ScheduleKey()
	})
	return out
}

// Len returns the number of live events
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func sortAscending(events []domain.PlannerEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ScheduleKey() < events[j].ScheduleKey()
	})
}

func copyScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}

func cloneEvent(e domain.PlannerEvent) domain.PlannerEvent {
	e.Hashtags = append([]string{}, e.Hashtags...)
	e.Score = copyScore(e.Score)
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		e.CompletedAt = &t
	}
	return e
}

func cloneEvents(events []domain.PlannerEvent) []domain.PlannerEvent {
	out := make([]domain.PlannerEvent, len(events))
	for i, e := range events {
		out[i] = cloneEvent(e)
	}
	return out
}
