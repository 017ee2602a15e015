package planner

import (
	"time"

	"github.com/pbaille/contentforge/internal/domain"
)

// DaysPerWeek is the number of buckets in a Week
const DaysPerWeek = 7

// Day is one column of the weekly board
type Day struct {
	Date   string                `json:"date"`
	Label  string                `json:"label"`
	Events []domain.PlannerEvent `json:"events"`
}

// Week is a Monday to Sunday window with its events grouped by day
type Week struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  []Day  `json:"days"`
}

// ByDay indexes the week by date
func (w Week) ByDay() map[string][]domain.PlannerEvent {
	m := make(map[string][]domain.PlannerEvent, len(w.Days))
	for _, d := range w.Days {
		m[d.Date] = d.Events
	}
	return m
}

var dayLabels = [DaysPerWeek]string{"Seg", "Ter", "Qua", "Qui", "Sex", "Sáb", "Dom"}

// Date truncates t to a calendar date in its own location, returned as UTC midnight
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO 8601 calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}

// weekdayIndex maps Monday to 0 and Sunday to 6
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekBounds returns the Monday and Sunday of the week containing anchor
func WeekBounds(anchor time.Time) (start, end time.Time) {
	a := Date(anchor)
	start = a.AddDate(0, 0, -weekdayIndex(a))
	end = start.AddDate(0, 0, DaysPerWeek-1)
	return start, end
}

// ShiftWeek moves an anchor by n weeks
func ShiftWeek(anchor time.Time, n int) time.Time {
	return Date(anchor).AddDate(0, 0, 7*n)
}

func emptyWeek(anchor time.Time) Week {
	start, end := WeekBounds(anchor)
	w := Week{
		Start: start.Format(domain.DateLayout),
		End:   end.Format(domain.DateLayout),
		Days:  make([]Day, DaysPerWeek),
	}
	for i := range w.Days {
		w.Days[i] = Day{
			Date:   start.AddDate(0, 0, i).Format(domain.DateLayout),
			Label:  dayLabels[i],
			Events: []domain.PlannerEvent{},
		}
	}
	return w
}
