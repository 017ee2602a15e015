// Package export renders the planner as plain text or CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pbaille/contentforge/internal/domain"
)

const separator = "----------------------------------------"

// TextFilename and CSVFilename are the suggested download names
const (
	TextFilename = "contentforge_planner.txt"
	CSVFilename  = "contentforge_planner.csv"
)

func sorted(events []domain.PlannerEvent) []domain.PlannerEvent {
	out := append([]domain.PlannerEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduleKey() < out[j].ScheduleKey()
	})
	return out
}

// WriteText writes one block per event, in schedule order
func WriteText(w io.Writer, events []domain.PlannerEvent) error {
	var sb strings.Builder
	for _, e := range sorted(events) {
		fmt.Fprintf(&sb, "%s %s · %s · %s\n%s\n", e.Day, e.Time, e.Platform, e.Title, e.Caption)
		if len(e.Hashtags) > 0 {
			tags := make([]string, len(e.Hashtags))
			for i, t := range e.Hashtags {
				tags[i] = "#" + strings.TrimLeft(t, "#")
			}
			sb.WriteString(strings.Join(tags, " "))
			sb.WriteString("\n")
		}
		sb.WriteString(separator)
		sb.WriteString("\n\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write text export: %w", err)
	}
	return nil
}

// WriteCSV writes a header row and one row per event, in schedule order
func WriteCSV(w io.Writer, events []domain.PlannerEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "time", "platform", "title", "score", "status"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range sorted(events) {
		score := ""
		if e.Score != nil {
			score = strconv.FormatFloat(*e.Score, 'f', 1, 64)
		}
		status := e.Status
		if status == "" {
			status = domain.StatusPlanned
		}
		row := []string{e.Day, e.Time, string(e.Platform), e.Title, score, string(status)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
