package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdash/pkg/contracts/domain"
)

func sampleTable() *domain.TicketTable {
	return derived(fullHeaders,
		[]string{"P1", "Bug (Tech)", "Within SLA", "Within Shift", "Closed", "2024-01-01T10:00", "2024-01-01T12:00"},
		[]string{"P4", "Configuration & Master Update (Non-Tech)", "SLA Violated", "After Shift", "Open", "2024-01-02T08:00", ""},
		[]string{"P2", "", "Within SLA", "", "Closed", "2024-01-03T23:59", "2024-01-04T01:00"},
		[]string{"P4", "Bug (Tech)", "Within SLA", "Within Shift", "Closed", "", "2024-01-05T10:00"},
		[]string{"P3", "Data Correction (Tech)", "SLA Violated", "After Shift", "", "2024-02-10T09:00", "2024-02-10T10:00"},
	)
}

func priorities(table *domain.TicketTable) []string {
	out := make([]string, 0, table.Len())
	for _, r := range table.Rows {
		out = append(out, r.Priority)
	}
	return out
}

func TestOptions(t *testing.T) {
	opts := Options(sampleTable())

	assert.Equal(t, []string{"P1", "P2", "P3", "P4"}, opts.Priorities)
	assert.Equal(t, []string{"Bug (Tech)", "Config & Master", "Data Correction"}, opts.TicketTypes)
	assert.Equal(t, []string{"SLA Violated", "Within SLA"}, opts.ResolutionStatuses)
	assert.Equal(t, []string{"Closed", "Open"}, opts.Statuses, "empty placeholder is never offered")
	assert.Equal(t, []string{"After Shift", "Within Shift"}, opts.ShiftTimings)
	assert.True(t, opts.DateFilter)
	assert.Equal(t, "2024-01-01", opts.DateMin)
	assert.Equal(t, "2024-02-10", opts.DateMax)
}

func TestOptions_NoCreatedTime(t *testing.T) {
	opts := Options(derived([]string{"Priority"}, []string{"P1"}))
	assert.False(t, opts.DateFilter)
	assert.Empty(t, opts.DateMin)
	assert.Empty(t, opts.TicketTypes)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		sel      domain.Selection
		want     []string
		warnings int
	}{
		{"empty selection passes everything", domain.Selection{}, []string{"P1", "P4", "P2", "P4", "P3"}, 0},
		{"priority", domain.Selection{Priorities: []string{"P4"}}, []string{"P4", "P4"}, 0},
		{"ticket type uses the short form", domain.Selection{TicketTypes: []string{"Config & Master"}}, []string{"P4"}, 0},
		{"long ticket type does not match", domain.Selection{TicketTypes: []string{"Configuration & Master Update (Non-Tech)"}}, []string{}, 0},
		{"conjunction", domain.Selection{ResolutionStatuses: []string{"Within SLA"}, ShiftTimings: []string{"Within Shift"}}, []string{"P1", "P4"}, 0},
		{"status", domain.Selection{Statuses: []string{"Open"}}, []string{"P4"}, 0},
		{"single day", domain.Selection{DateRange: []string{"2024-01-02"}}, []string{"P4"}, 0},
		{"range is inclusive", domain.Selection{DateRange: []string{"2024-01-01", "2024-01-03"}}, []string{"P1", "P4", "P2"}, 0},
		{"blank endpoint collapses", domain.Selection{DateRange: []string{"", "2024-02-10"}}, []string{"P3"}, 0},
		{"inverted range is skipped", domain.Selection{Priorities: []string{"P4"}, DateRange: []string{"2024-02-01", "2024-01-01"}}, []string{"P4", "P4"}, 1},
		{"malformed date is skipped", domain.Selection{DateRange: []string{"01/02/2024"}}, []string{"P1", "P4", "P2", "P4", "P3"}, 1},
		{"too many dates", domain.Selection{DateRange: []string{"2024-01-01", "2024-01-02", "2024-01-03"}}, []string{"P1", "P4", "P2", "P4", "P3"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := Apply(sampleTable(), tt.sel)
			assert.Equal(t, tt.want, priorities(got))
			require.Len(t, warnings, tt.warnings)
			for _, w := range warnings {
				assert.Equal(t, domain.WarningDateFilterSkipped, w.Code)
			}
		})
	}
}

func TestApply_DateFilterScenario(t *testing.T) {
	table := derived(fullHeaders,
		[]string{"P1", "Bug (Tech)", "Within SLA", "Within Shift", "Closed", "2024-01-01T10:00", "2024-01-01T12:00"},
	)

	got, warnings := Apply(table, domain.Selection{DateRange: []string{"2024-01-02", "2024-01-02"}})
	assert.Empty(t, warnings)
	assert.Equal(t, 0, got.Len())
}

func TestApply_DateFilterNotOffered(t *testing.T) {
	table := derived([]string{"Priority"}, []string{"P1"}, []string{"P2"})

	got, warnings := Apply(table, domain.Selection{DateRange: []string{"2024-01-01"}})
	assert.Empty(t, warnings)
	assert.Equal(t, 2, got.Len(), "date filter is a no-op without Created Time")
}

func TestApply_Properties(t *testing.T) {
	table := sampleTable()
	opts := Options(table)

	selections := []domain.Selection{
		{},
		{Priorities: []string{"P4", "P1"}},
		{TicketTypes: []string{"Bug (Tech)"}, Statuses: []string{"Closed"}},
		{DateRange: []string{"2024-01-01", "2024-01-31"}},
		{ShiftTimings: []string{"nope"}},
	}

	for _, sel := range selections {
		got, _ := Apply(table, sel)

		// Order-preserving subsequence.
		j := 0
		for _, row := range got.Rows {
			for j < table.Len() && !assert.ObjectsAreEqual(table.Rows[j], row) {
				j++
			}
			require.Less(t, j, table.Len(), "row %+v is not in order", row)
			j++
		}

		again, _ := Apply(got, sel)
		assert.Equal(t, got.Rows, again.Rows, "apply is idempotent")

		assert.Equal(t, got.Len(), Summarize(got).Total)
		assert.Equal(t, table.Columns, got.Columns)
	}

	// A full option set equals no selection for rows with a non-empty value.
	full, _ := Apply(table, domain.Selection{Priorities: opts.Priorities})
	none, _ := Apply(table, domain.Selection{})
	assert.Equal(t, none.Rows, full.Rows)
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	table := sampleTable()
	before := table.Len()

	_, _ = Apply(table, domain.Selection{Priorities: []string{"P1"}})
	assert.Equal(t, before, table.Len())
}

func TestParseDateRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		values  []string
		want    DateRange
		active  bool
		wantErr bool
	}{
		{"none", nil, DateRange{}, false, false},
		{"blank only", []string{" ", ""}, DateRange{}, false, false},
		{"one", []string{"2024-01-05"}, DateRange{day(5), day(5)}, true, false},
		{"two", []string{"2024-01-05", "2024-01-09"}, DateRange{day(5), day(9)}, true, false},
		{"equal", []string{"2024-01-05", "2024-01-05"}, DateRange{day(5), day(5)}, true, false},
		{"reversed", []string{"2024-01-09", "2024-01-05"}, DateRange{}, false, true},
		{"bad start", []string{"Jan 5", "2024-01-05"}, DateRange{}, false, true},
		{"bad end", []string{"2024-01-05", "2024-13-01"}, DateRange{}, false, true},
		{"three", []string{"2024-01-01", "2024-01-02", "2024-01-03"}, DateRange{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, active, err := ParseDateRange(tt.values)
			if tt.wantErr {
				var dfe *DateFilterError
				require.ErrorAs(t, err, &dfe)
				assert.False(t, active)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.active, active)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRange_Contains(t *testing.T) {
	r := DateRange{
		Start: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, r.Contains(time.Date(2024, 1, 2, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
}
