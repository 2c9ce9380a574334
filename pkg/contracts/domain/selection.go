package domain

// Selection is the operator's current filter choice. An empty or nil slice
// places no restriction on that field.
type Selection struct {
	Priorities         []string `json:"priorities,omitempty" validate:"max=200,dive,max=256,printable"`
	TicketTypes        []string `json:"ticket_types,omitempty" validate:"max=200,dive,max=256,printable"`
	ResolutionStatuses []string `json:"resolution_statuses,omitempty" validate:"max=200,dive,max=256,printable"`
	Statuses           []string `json:"statuses,omitempty" validate:"max=200,dive,max=256,printable"`
	ShiftTimings       []string `json:"shift_timings,omitempty" validate:"max=200,dive,max=256,printable"`

	// DateRange holds zero, one or two YYYY-MM-DD values. Anything else is
	// reported as a date filter warning rather than rejected.
	DateRange []string `json:"date_range,omitempty" validate:"max=64"`
}

// IsEmpty reports whether the selection restricts nothing.
func (s Selection) IsEmpty() bool {
	return len(s.Priorities) == 0 &&
		len(s.TicketTypes) == 0 &&
		len(s.ResolutionStatuses) == 0 &&
		len(s.Statuses) == 0 &&
		len(s.ShiftTimings) == 0 &&
		len(s.DateRange) == 0
}

// FilterOptions enumerates the values offered for each filter, computed from
// the unfiltered table.
type FilterOptions struct {
	Priorities         []string `json:"priorities"`
	TicketTypes        []string `json:"ticket_types"`
	ResolutionStatuses []string `json:"resolution_statuses"`
	Statuses           []string `json:"statuses"`
	ShiftTimings       []string `json:"shift_timings"`

	// DateFilter is false when no row has a Created Time.
	DateFilter bool   `json:"date_filter"`
	DateMin    string `json:"date_min,omitempty"`
	DateMax    string `json:"date_max,omitempty"`
}

// Warning is a non-fatal problem reported alongside a result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WarningDateFilterSkipped marks a run whose date predicate was not applied.
const WarningDateFilterSkipped = "DATE_FILTER_SKIPPED"
