package domain

import "fmt"

// NoValue is displayed for an undefined average.
const NoValue = "—"

// Summary is the KPI bundle and grouped counts for a filtered table. Group
// maps omit zero counts.
type Summary struct {
	Total              int      `json:"total"`
	WithinSLA          int      `json:"within_sla"`
	SLAPercent         float64  `json:"sla_pct"`
	AvgResolutionHours *float64 `json:"avg_resolution_hours"`
	BugCount           int      `json:"bug_count"`
	P4Count            int      `json:"p4_count"`

	ByResolutionStatus map[string]int            `json:"by_resolution_status"`
	ByTypeAndShift     map[string]map[string]int `json:"by_type_and_shift"`
	ByPriority         map[string]int            `json:"by_priority"`
	ByTicketType       map[string]int            `json:"by_ticket_type"`
	ByCreatedMonth     map[string]int            `json:"by_created_month"`
}

// SLALabel renders the Within SLA tile, e.g. "42 (87.5%)".
func (s Summary) SLALabel() string {
	return fmt.Sprintf("%d (%s%%)", s.WithinSLA, trimFloat(s.SLAPercent))
}

// AvgResolutionLabel renders the average resolution tile or NoValue.
func (s Summary) AvgResolutionLabel() string {
	if s.AvgResolutionHours == nil {
		return NoValue
	}
	return formatHours(*s.AvgResolutionHours)
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", Round2(v))
}
