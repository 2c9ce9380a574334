package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrFloat(f float64) *float64    { return &f }

func TestTicket_CellAndText(t *testing.T) {
	created := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	ticket := Ticket{
		Priority:        "P1",
		TicketType:      "Bug (Tech)",
		TicketTypeShort: "Bug (Tech)",
		CreatedTime:     ptrTime(created),
		CreatedDate:     ptrTime(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
		CreatedMonth:    "2024-03",
		ResolutionHours: ptrFloat(2.499),
		Extra:           map[string]string{"Ticket ID": "T-1", "Notes": ""},
	}

	tests := []struct {
		column   string
		wantCell any
		wantText string
	}{
		{ColPriority, "P1", "P1"},
		{ColCreatedTime, created, "2024-03-05 09:30:00"},
		{ColClosedTime, nil, ""},
		{ColCreatedDate, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "2024-03-05"},
		{ColCreatedMonth, "2024-03", "2024-03"},
		{ColResolutionHours, 2.499, "2.50"},
		{"Ticket ID", "T-1", "T-1"},
		{"Notes", nil, ""},
		{"Unknown", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.wantCell, ticket.Cell(tt.column))
			assert.Equal(t, tt.wantText, ticket.Text(tt.column))
		})
	}
}

func TestTicketTable_DateBounds(t *testing.T) {
	d := func(day int) *time.Time { return ptrTime(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)) }

	table := &TicketTable{Rows: []Ticket{{CreatedDate: d(9)}, {}, {CreatedDate: d(2)}, {CreatedDate: d(5)}}}
	min, max, ok := table.DateBounds()
	assert.True(t, ok)
	assert.Equal(t, *d(2), min)
	assert.Equal(t, *d(9), max)

	_, _, ok = (&TicketTable{Rows: []Ticket{{}, {}}}).DateBounds()
	assert.False(t, ok)
}

func TestTicketTable_WithRowsSharesColumns(t *testing.T) {
	table := &TicketTable{Columns: []string{ColPriority}, Rows: []Ticket{{Priority: "P1"}, {Priority: "P2"}}, Source: "a.xlsx"}
	sub := table.WithRows(table.Rows[:1])

	assert.Equal(t, 1, sub.Len())
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, table.Columns, sub.Columns)
	assert.Equal(t, "a.xlsx", sub.Source)
	assert.Equal(t, 0, (*TicketTable)(nil).Len())
}

func TestSummaryLabels(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		wantSLA string
		wantAvg string
	}{
		{name: "empty", summary: Summary{}, wantSLA: "0 (0%)", wantAvg: NoValue},
		{name: "fractional", summary: Summary{WithinSLA: 2, SLAPercent: 66.67, AvgResolutionHours: ptrFloat(3)}, wantSLA: "2 (66.67%)", wantAvg: "3.00"},
		{name: "whole", summary: Summary{WithinSLA: 4, SLAPercent: 100}, wantSLA: "4 (100%)", wantAvg: NoValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSLA, tt.summary.SLALabel())
			assert.Equal(t, tt.wantAvg, tt.summary.AvgResolutionLabel())
		})
	}
}

func TestSelection_IsEmpty(t *testing.T) {
	assert.True(t, Selection{}.IsEmpty())
	assert.True(t, Selection{Priorities: []string{}}.IsEmpty())
	assert.False(t, Selection{DateRange: []string{"2024-01-01"}}.IsEmpty())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.5, Round2(2.499))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 66.67, Round2(200.0/3))
}
