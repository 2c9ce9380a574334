// Package domain holds the ticket dashboard's shared data model: the derived
// ticket table, filter selections and the KPI summary.
package domain

import (
	"time"
)

// Source and derived column names.
const (
	ColPriority         = "Priority"
	ColTicketType       = "TicketType"
	ColResolutionStatus = "Resolution Status"
	ColShiftTiming      = "Shift Timing"
	ColStatus           = "Status"
	ColCreatedTime      = "Created Time"
	ColClosedTime       = "Closed Time"

	ColCreatedDate     = "Created Date"
	ColCreatedMonth    = "Created Month"
	ColResolutionHours = "Resolution (hrs)"
	ColTicketTypeShort = "TicketTypeShort"
)

// CategoricalColumns are guaranteed present as text after derivation.
var CategoricalColumns = []string{
	ColPriority,
	ColTicketType,
	ColResolutionStatus,
	ColShiftTiming,
	ColStatus,
}

// DateLayout is the calendar-date format used by filters and option bounds.
const DateLayout = "2006-01-02"

// MonthLayout formats Created Month.
const MonthLayout = "2006-01"

// Ticket is one derived spreadsheet row. Absent timestamps and durations are nil.
type Ticket struct {
	Priority         string `json:"priority"`
	TicketType       string `json:"ticket_type"`
	TicketTypeShort  string `json:"ticket_type_short"`
	ResolutionStatus string `json:"resolution_status"`
	ShiftTiming      string `json:"shift_timing"`
	Status           string `json:"status"`

	CreatedTime *time.Time `json:"created_time,omitempty"`
	ClosedTime  *time.Time `json:"closed_time,omitempty"`

	// CreatedDate is CreatedTime truncated to midnight in its own location.
	CreatedDate     *time.Time `json:"created_date,omitempty"`
	CreatedMonth    string     `json:"created_month,omitempty"`
	ResolutionHours *float64   `json:"resolution_hours,omitempty"`

	// Extra holds every other source column by trimmed header.
	Extra map[string]string `json:"extra,omitempty"`
}

// Cell returns the value of column for export: nil when absent, time.Time for
// timestamps, float64 for Resolution (hrs) and string otherwise.
func (t *Ticket) Cell(column string) any {
	switch column {
	case ColPriority:
		return t.Priority
	case ColTicketType:
		return t.TicketType
	case ColTicketTypeShort:
		return t.TicketTypeShort
	case ColResolutionStatus:
		return t.ResolutionStatus
	case ColShiftTiming:
		return t.ShiftTiming
	case ColStatus:
		return t.Status
	case ColCreatedTime:
		return timeCell(t.CreatedTime)
	case ColClosedTime:
		return timeCell(t.ClosedTime)
	case ColCreatedDate:
		if t.CreatedDate == nil {
			return t.extra(column)
		}
		return *t.CreatedDate
	case ColCreatedMonth:
		if t.CreatedMonth == "" {
			return t.extra(column)
		}
		return t.CreatedMonth
	case ColResolutionHours:
		if t.ResolutionHours == nil {
			return nil
		}
		return *t.ResolutionHours
	default:
		return t.extra(column)
	}
}

// extra returns a source-only cell, nil when blank.
func (t *Ticket) extra(column string) any {
	if v, ok := t.Extra[column]; ok && v != "" {
		return v
	}
	return nil
}

// Text renders column as display text; absent values render empty.
func (t *Ticket) Text(column string) string {
	switch v := t.Cell(column).(type) {
	case nil:
		return ""
	case time.Time:
		switch column {
		case ColCreatedDate:
			return v.Format(DateLayout)
		default:
			return v.Format("2006-01-02 15:04:05")
		}
	case float64:
		return formatHours(v)
	case string:
		return v
	default:
		return ""
	}
}

func timeCell(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// TicketTable is an ordered, immutable set of derived tickets plus the column
// order used for display and export.
type TicketTable struct {
	Columns []string `json:"columns"`
	Rows    []Ticket `json:"rows"`

	// HasCreatedTime and HasClosedTime record whether the source carried the column.
	HasCreatedTime bool `json:"has_created_time"`
	HasClosedTime  bool `json:"has_closed_time"`

	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of rows.
func (t *TicketTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// WithRows returns a table sharing t's column metadata but holding rows.
func (t *TicketTable) WithRows(rows []Ticket) *TicketTable {
	out := *t
	out.Rows = rows
	return &out
}

// DateBounds returns the earliest and latest Created Date. ok is false when no
// row has a Created Time, in which case the date filter is not offered.
func (t *TicketTable) DateBounds() (min, max time.Time, ok bool) {
	for i := range t.Rows {
		d := t.Rows[i].CreatedDate
		if d == nil {
			continue
		}
		if !ok || d.Before(min) {
			min = *d
		}
		if !ok || d.After(max) {
			max = *d
		}
		ok = true
	}
	return min, max, ok
}
