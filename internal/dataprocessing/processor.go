package dataprocessing

import (
	"time"

	"ticketdash/pkg/contracts/domain"
)

// ShortTicketType abbreviates a TicketType for labels and filtering. Values
// outside the fixed table pass through unchanged.
func ShortTicketType(ticketType string) string {
	switch ticketType {
	case "Configuration & Master Update (Non-Tech)":
		return "Config & Master"
	case "Data Correction (Tech)":
		return "Data Correction"
	case "Not a Task (Info Only)":
		return "Info Only"
	default:
		// "Bug (Tech)" maps to itself.
		return ticketType
	}
}

// Derive builds the ticket table from raw. It parses the two timestamp
// columns, computes Created Date, Created Month and Resolution (hrs),
// guarantees the five categorical columns and abbreviates TicketType.
func Derive(raw *RawTable, loadedAt time.Time) *domain.TicketTable {
	index := make(map[string]int, len(raw.Headers))
	for i, h := range raw.Headers {
		index[h] = i
	}

	createdAt, hasCreated := index[domain.ColCreatedTime]
	closedAt, hasClosed := index[domain.ColClosedTime]

	table := &domain.TicketTable{
		Columns:        exportColumns(raw.Headers, hasCreated),
		HasCreatedTime: hasCreated,
		HasClosedTime:  hasClosed,
		Source:         raw.Source,
		LoadedAt:       loadedAt,
		Rows:           make([]domain.Ticket, 0, len(raw.Rows)),
	}

	for _, row := range raw.Rows {
		t := domain.Ticket{
			Priority:         cellAt(row, index, domain.ColPriority),
			TicketType:       cellAt(row, index, domain.ColTicketType),
			ResolutionStatus: cellAt(row, index, domain.ColResolutionStatus),
			ShiftTiming:      cellAt(row, index, domain.ColShiftTiming),
			Status:           cellAt(row, index, domain.ColStatus),
		}
		t.TicketTypeShort = ShortTicketType(t.TicketType)

		if hasCreated {
			if ts, ok := raw.parseTimestamp(row[createdAt]); ok {
				date := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
				t.CreatedTime = &ts
				t.CreatedDate = &date
				t.CreatedMonth = ts.Format(domain.MonthLayout)
			}
		}
		if hasClosed {
			if ts, ok := raw.parseTimestamp(row[closedAt]); ok {
				t.ClosedTime = &ts
			}
		}
		if t.CreatedTime != nil && t.ClosedTime != nil {
			hours := t.ClosedTime.Sub(*t.CreatedTime).Hours()
			t.ResolutionHours = &hours
		}

		t.Extra = extraCells(raw.Headers, row, hasCreated)
		table.Rows = append(table.Rows, t)
	}

	return table
}

func cellAt(row []string, index map[string]int, column string) string {
	if i, ok := index[column]; ok {
		return row[i]
	}
	return ""
}

// isDerivedColumn reports whether the deriver owns name, replacing any source values.
func isDerivedColumn(name string, hasCreated bool) bool {
	switch name {
	case domain.ColResolutionHours, domain.ColTicketTypeShort:
		return true
	case domain.ColCreatedDate, domain.ColCreatedMonth:
		return hasCreated
	}
	return false
}

func isModelColumn(name string) bool {
	switch name {
	case domain.ColPriority, domain.ColTicketType, domain.ColResolutionStatus,
		domain.ColShiftTiming, domain.ColStatus, domain.ColCreatedTime, domain.ColClosedTime:
		return true
	}
	return false
}

// extraCells keeps the non-empty source cells that have no Ticket field.
func extraCells(headers, row []string, hasCreated bool) map[string]string {
	var extra map[string]string
	for i, h := range headers {
		if isModelColumn(h) || isDerivedColumn(h, hasCreated) || row[i] == "" {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[h] = row[i]
	}
	return extra
}

// exportColumns orders the table's columns: source headers first, then the
// derived columns the source did not already carry, then the categorical
// columns that had to be created, then TicketTypeShort.
func exportColumns(headers []string, hasCreated bool) []string {
	present := make(map[string]bool, len(headers))
	columns := make([]string, 0, len(headers)+8)
	for _, h := range headers {
		present[h] = true
		columns = append(columns, h)
	}

	appendMissing := func(name string) {
		if !present[name] {
			present[name] = true
			columns = append(columns, name)
		}
	}

	if hasCreated {
		appendMissing(domain.ColCreatedDate)
		appendMissing(domain.ColCreatedMonth)
	}
	appendMissing(domain.ColResolutionHours)
	for _, c := range domain.CategoricalColumns {
		appendMissing(c)
	}
	appendMissing(domain.ColTicketTypeShort)

	return columns
}
