package dataprocessing

import (
	"strings"

	"ticketdash/pkg/contracts/domain"
)

// Summarize computes the KPI bundle and grouped counts for table. Percentages
// and averages are rounded to two decimals; groups with no rows are absent.
func Summarize(table *domain.TicketTable) domain.Summary {
	s := domain.Summary{
		Total:              table.Len(),
		ByResolutionStatus: make(map[string]int),
		ByTypeAndShift:     make(map[string]map[string]int),
		ByPriority:         make(map[string]int),
		ByTicketType:       make(map[string]int),
		ByCreatedMonth:     make(map[string]int),
	}
	if s.Total == 0 {
		return s
	}

	var hoursSum float64
	var hoursCount int

	for i := range table.Rows {
		t := &table.Rows[i]

		if strings.Contains(strings.ToLower(t.ResolutionStatus), "within") {
			s.WithinSLA++
		}
		if strings.Contains(strings.ToLower(t.TicketType), "bug") {
			s.BugCount++
		}
		if t.Priority == "P4" {
			s.P4Count++
		}
		if t.ResolutionHours != nil {
			hoursSum += *t.ResolutionHours
			hoursCount++
		}

		s.ByResolutionStatus[t.ResolutionStatus]++
		s.ByPriority[t.Priority]++
		s.ByTicketType[t.TicketTypeShort]++

		shifts := s.ByTypeAndShift[t.TicketTypeShort]
		if shifts == nil {
			shifts = make(map[string]int)
			s.ByTypeAndShift[t.TicketTypeShort] = shifts
		}
		shifts[t.ShiftTiming]++

		if t.CreatedMonth != "" {
			s.ByCreatedMonth[t.CreatedMonth]++
		}
	}

	s.SLAPercent = domain.Round2(float64(s.WithinSLA) / float64(s.Total) * 100)
	if hoursCount > 0 {
		avg := domain.Round2(hoursSum / float64(hoursCount))
		s.AvgResolutionHours = &avg
	}

	return s
}
