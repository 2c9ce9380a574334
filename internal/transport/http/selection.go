package http

import (
	"net/url"

	"ticketdash/pkg/contracts/domain"
)

// Query parameters carrying a selection. Each may repeat.
const (
	ParamPriority = "priority"
	ParamType     = "type"
	ParamSLA      = "sla"
	ParamStatus   = "status"
	ParamShift    = "shift"
	ParamDate     = "date"
)

// SelectionFromQuery reads a selection from repeated query parameters.
// Absent parameters leave that filter open.
func SelectionFromQuery(q url.Values) domain.Selection {
	return domain.Selection{
		Priorities:         q[ParamPriority],
		TicketTypes:        q[ParamType],
		ResolutionStatuses: q[ParamSLA],
		Statuses:           q[ParamStatus],
		ShiftTimings:       q[ParamShift],
		DateRange:          q[ParamDate],
	}
}

// SelectionQuery is the inverse of SelectionFromQuery.
func SelectionQuery(sel domain.Selection) url.Values {
	q := url.Values{}
	add := func(key string, values []string) {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	add(ParamPriority, sel.Priorities)
	add(ParamType, sel.TicketTypes)
	add(ParamSLA, sel.ResolutionStatuses)
	add(ParamStatus, sel.Statuses)
	add(ParamShift, sel.ShiftTimings)
	add(ParamDate, sel.DateRange)
	return q
}
