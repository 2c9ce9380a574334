package dataprocessing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ticketdash/pkg/contracts/domain"
)

// DateFilterError reports date range input that cannot be applied.
type DateFilterError struct {
	Values []string
	Reason string
}

func (e *DateFilterError) Error() string {
	return fmt.Sprintf("date filter %q: %s", strings.Join(e.Values, ", "), e.Reason)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on a day within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(r.Start) && !day.After(r.End)
}

// ParseDateRange normalizes zero, one or two YYYY-MM-DD values. ok is false
// when no range is requested. Blank values are ignored, so one real value
// collapses to a single-day range.
func ParseDateRange(values []string) (DateRange, bool, error) {
	var trimmed []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			trimmed = append(trimmed, v)
		}
	}

	switch len(trimmed) {
	case 0:
		return DateRange{}, false, nil
	case 1:
		trimmed = append(trimmed, trimmed[0])
	case 2:
	default:
		return DateRange{}, false, &DateFilterError{Values: values, Reason: "expected at most two dates"}
	}

	start, err := time.Parse(domain.DateLayout, trimmed[0])
	if err != nil {
		return DateRange{}, false, &DateFilterError{Values: values, Reason: "start is not a YYYY-MM-DD date"}
	}
	end, err := time.Parse(domain.DateLayout, trimmed[1])
	if err != nil {
		return DateRange{}, false, &DateFilterError{Values: values, Reason: "end is not a YYYY-MM-DD date"}
	}
	if start.After(end) {
		return DateRange{}, false, &DateFilterError{Values: values, Reason: "start is after end"}
	}

	return DateRange{Start: start, End: end}, true, nil
}

// Options enumerates the filter values offered for table: distinct non-empty
// values per field, sorted. It must be computed from the unfiltered table.
func Options(table *domain.TicketTable) domain.FilterOptions {
	collect := func(field func(*domain.Ticket) string) []string {
		seen := make(map[string]struct{})
		for i := range table.Rows {
			if v := field(&table.Rows[i]); v != "" {
				seen[v] = struct{}{}
			}
		}
		out := make([]string, 0, len(seen))
		for v := range seen {
			out = append(out, v)
		}
		sort.Strings(out)
		return out
	}

	opts := domain.FilterOptions{
		Priorities:         collect(func(t *domain.Ticket) string { return t.Priority }),
		TicketTypes:        collect(func(t *domain.Ticket) string { return t.TicketTypeShort }),
		ResolutionStatuses: collect(func(t *domain.Ticket) string { return t.ResolutionStatus }),
		Statuses:           collect(func(t *domain.Ticket) string { return t.Status }),
		ShiftTimings:       collect(func(t *domain.Ticket) string { return t.ShiftTiming }),
	}

	if min, max, ok := table.DateBounds(); ok {
		opts.DateFilter = true
		opts.DateMin = min.Format(domain.DateLayout)
		opts.DateMax = max.Format(domain.DateLayout)
	}

	return opts
}

type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	if len(values) == 0 {
		return nil
	}
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// admits treats a nil set as no restriction.
func (s stringSet) admits(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// Apply returns the rows of table that pass every active predicate of sel, in
// their original order. A date range that cannot be parsed is skipped and
// reported as a warning; the remaining predicates still apply. Apply never
// fails and never modifies table.
func Apply(table *domain.TicketTable, sel domain.Selection) (*domain.TicketTable, []domain.Warning) {
	var warnings []domain.Warning

	priorities := newStringSet(sel.Priorities)
	types := newStringSet(sel.TicketTypes)
	resolutions := newStringSet(sel.ResolutionStatuses)
	statuses := newStringSet(sel.Statuses)
	shifts := newStringSet(sel.ShiftTimings)

	dates, dateActive, err := ParseDateRange(sel.DateRange)
	if err != nil {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningDateFilterSkipped,
			Message: err.Error(),
		})
	}
	// Without any Created Time the date filter is not offered.
	if dateActive {
		if _, _, ok := table.DateBounds(); !ok {
			dateActive = false
		}
	}

	rows := make([]domain.Ticket, 0, len(table.Rows))
	for i := range table.Rows {
		t := &table.Rows[i]
		if !priorities.admits(t.Priority) ||
			!types.admits(t.TicketTypeShort) ||
			!resolutions.admits(t.ResolutionStatus) ||
			!statuses.admits(t.Status) ||
			!shifts.admits(t.ShiftTiming) {
			continue
		}
		if dateActive && (t.CreatedTime == nil || !dates.Contains(*t.CreatedTime)) {
			continue
		}
		rows = append(rows, *t)
	}

	return table.WithRows(rows), warnings
}
