// Package tier defines the plan tiers and the limits they grant.
package tier

import (
	"fmt"
	"strings"
)

// Tier is a named bundle of quotas and capabilities
type Tier struct {
	Name               string `json:"name"`
	DailyGenerations   int    `json:"daily_generations"`
	DailyPlannerAdds   int    `json:"daily_planner_adds"`
	AnalysisEnabled    bool   `json:"analysis_enabled"`
	PerformanceEnabled bool   `json:"performance_enabled"`
	CSVExport          bool   `json:"csv_export"`
}

var (
	Starter = Tier{
		Name:             "Starter",
		DailyGenerations: 5,
		DailyPlannerAdds: 5,
	}

	Pro = Tier{
		Name:               "Pro",
		DailyGenerations:   100,
		DailyPlannerAdds:   999,
		AnalysisEnabled:    true,
		PerformanceEnabled: true,
		CSVExport:          true,
	}
)

// All returns every tier, cheapest first
func All() []Tier {
	return []Tier{Starter, Pro}
}

// Lookup finds a tier by name, case-insensitively
func Lookup(name string) (Tier, error) {
	names := make([]string, 0, 2)
	for _, t := range All() {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, nil
		}
		names = append(names, t.Name)
	}
	return Tier{}, fmt.Errorf("unknown plan %q (valid: %s)", name, strings.Join(names, ", "))
}
