package dataprocessing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ticketdash/internal/shared/testutil"
	"ticketdash/pkg/contracts/domain"
)

var fullHeaders = []string{
	"Priority", "TicketType", "Resolution Status", "Shift Timing", "Status", "Created Time", "Closed Time",
}

// workbook builds an xlsx file in memory from rows, first row the header.
func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// derived runs Derive over an in-memory grid of text cells.
func derived(headers []string, rows ...[]string) *domain.TicketTable {
	raw := &RawTable{Source: "test.csv", Headers: headers}
	for _, row := range rows {
		aligned := make([]string, len(headers))
		copy(aligned, row)
		raw.Rows = append(raw.Rows, aligned)
	}
	return Derive(raw, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
}

func TestLoader_Load_Workbook(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	closed := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)

	data := workbook(t, [][]any{
		{" Priority ", "TicketType", "Resolution Status", "Shift Timing", "Status", "Created Time", "Closed Time", "Ticket ID"},
		{"P1", "Bug (Tech)", "Within SLA", "Within Shift", "Closed", created, closed, "T-1"},
		{},
		{"P4", "Configuration & Master Update (Non-Tech)", "SLA Violated", "After Shift", "Open", "2024-01-03 09:15", nil, "T-2"},
	})

	logger, logs := testutil.NewTestLogger(t)
	table, err := NewLoader(logger).Load(context.Background(), "tickets.xlsx", bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "tickets.xlsx", table.Source)
	assert.True(t, table.HasCreatedTime)
	assert.True(t, table.HasClosedTime)

	first := table.Rows[0]
	assert.Equal(t, "P1", first.Priority, "header whitespace is trimmed")
	require.NotNil(t, first.CreatedTime)
	assert.True(t, created.Equal(*first.CreatedTime))
	require.NotNil(t, first.ResolutionHours)
	assert.InDelta(t, 2.5, *first.ResolutionHours, 1e-9)
	assert.Equal(t, "2024-01", first.CreatedMonth)
	assert.Equal(t, "T-1", first.Extra["Ticket ID"])

	second := table.Rows[1]
	assert.Equal(t, "Config & Master", second.TicketTypeShort)
	require.NotNil(t, second.CreatedDate)
	assert.Equal(t, "2024-01-03", second.CreatedDate.Format(domain.DateLayout))
	assert.Nil(t, second.ClosedTime)
	assert.Nil(t, second.ResolutionHours)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "spreadsheet loaded")
}

func TestLoader_Load_CSV(t *testing.T) {
	csv := "\xef\xbb\xbfPriority,Status,Created Time\r\n" +
		"P2,Open,01/15/2024 08:00\r\n" +
		",,\r\n" +
		"P3,,not a date\r\n"

	table, err := NewLoader(nil).Load(context.Background(), "export.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "P2", table.Rows[0].Priority)
	require.NotNil(t, table.Rows[0].CreatedTime)
	assert.Equal(t, "2024-01-15", table.Rows[0].CreatedDate.Format(domain.DateLayout))

	assert.Nil(t, table.Rows[1].CreatedTime, "unparseable timestamps are absent")
	assert.Equal(t, "", table.Rows[1].Status)
	assert.Equal(t, "", table.Rows[1].TicketType, "missing categorical columns are filled")
	assert.False(t, table.HasClosedTime)
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(path, workbook(t, [][]any{
		{"Priority"},
		{"P1"},
	}), 0o600))

	table, err := NewLoader(nil).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "data.xlsx", table.Source)
	assert.Equal(t, 1, table.Len())

	_, err = NewLoader(nil).LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "missing.xlsx", le.Source)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr error
	}{
		{
			name:    "legacy xls",
			file:    "old.xls",
			data:    []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "plain text with unknown extension",
			file:    "notes.pdf",
			data:    []byte("hello"),
			wantErr: ErrUnsupportedFormat,
		},
		{
			name: "corrupt zip",
			file: "broken.xlsx",
			data: []byte("PK\x03\x04garbage"),
		},
		{
			name:    "binary csv",
			file:    "bad.csv",
			data:    []byte{0xff, 0xfe, 0xfd},
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(nil).Load(context.Background(), tt.file, bytes.NewReader(tt.data))
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.file, le.Source)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReadRaw_Headers(t *testing.T) {
	csv := "\n" +
		"Priority,,Priority,Status\n" +
		"P1,x,P9,Open\n" +
		"P2\n"

	raw, err := ReadRaw(context.Background(), "dup.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"Priority", "Unnamed: 1", "Status"}, raw.Headers)
	assert.Equal(t, [][]string{
		{"P1", "x", "Open"},
		{"P2", "", ""},
	}, raw.Rows, "duplicate headers keep the first column and short rows are padded")
}

func TestReadRaw_Empty(t *testing.T) {
	raw, err := ReadRaw(context.Background(), "empty.csv", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, raw.Headers)

	table := Derive(raw, time.Now())
	assert.Equal(t, 0, table.Len())
	assert.Contains(t, table.Columns, domain.ColTicketTypeShort)
}

func TestReadRaw_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadRaw(ctx, "data.csv", strings.NewReader("Priority\nP1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		serial bool
		input  string
		want   time.Time
		ok     bool
	}{
		{"iso minutes", false, "2024-01-01T10:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), true},
		{"iso seconds", false, "2024-01-01 10:00:05", time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC), true},
		{"date only", false, "2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"us slashes", false, "03/04/2024 17:45", time.Date(2024, 3, 4, 17, 45, 0, 0, time.UTC), true},
		{"surrounding space", false, "  2024/05/06  ", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), true},
		{"excel serial", true, "45292.5", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"serial in csv is not a date", false, "45292.5", time.Time{}, false},
		{"blank", false, "   ", time.Time{}, false},
		{"garbage", false, "yesterday", time.Time{}, false},
		{"non-positive serial", true, "0", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &RawTable{serialDates: tt.serial}
			got, ok := raw.parseTimestamp(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}

	t.Run("offset is preserved", func(t *testing.T) {
		got, ok := (&RawTable{}).parseTimestamp("2024-01-01T23:30:00+03:00")
		require.True(t, ok)
		assert.Equal(t, 23, got.Hour())
	})
}
