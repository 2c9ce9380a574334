package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ticketdash/pkg/contracts/domain"
)

func testTable() *domain.TicketTable {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	closed := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hours := 2.5

	return &domain.TicketTable{
		Columns: []string{
			"Ticket ID", domain.ColPriority, domain.ColCreatedTime, domain.ColClosedTime,
			domain.ColCreatedDate, domain.ColResolutionHours, domain.ColTicketTypeShort,
		},
		Rows: []domain.Ticket{
			{
				Priority:        "P1",
				TicketTypeShort: "Config & Master",
				CreatedTime:     &created,
				ClosedTime:      &closed,
				CreatedDate:     &date,
				CreatedMonth:    "2024-01",
				ResolutionHours: &hours,
				Extra:           map[string]string{"Ticket ID": "T-1"},
			},
			{
				Priority: "P4",
				Extra:    map[string]string{"Ticket ID": "T-2, urgent"},
			},
		},
		Source: "data.xlsx",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"xlsx", FormatXLSX, false},
		{" CSV ", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "filtered_tickets.xlsx", FormatXLSX.FileName())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX.ContentType())
	assert.Equal(t, "filtered_tickets.csv", FormatCSV.FileName())

	f, err := FormatForPath("/tmp/out.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testTable(), WriteOptions{BOMPrefix: true}))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, testTable().Columns, records[0])
	assert.Equal(t, []string{
		"T-1", "P1", "2024-01-01 10:00:00", "2024-01-01 12:30:00", "2024-01-01", "2.50", "Config & Master",
	}, records[1])
	assert.Equal(t, []string{"T-2, urgent", "P4", "", "", "", "", ""}, records[2])
}

func TestWriteCSV_NoBOM(t *testing.T) {
	var buf bytes.Buffer
	table := &domain.TicketTable{Columns: []string{domain.ColPriority}}
	require.NoError(t, WriteCSV(&buf, table, WriteOptions{}))
	assert.Equal(t, "Priority\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, testTable().Columns, rows[0])

	first := rows[1]
	assert.Equal(t, "T-1", first[0])
	assert.Equal(t, "P1", first[1])

	serial, err := strconv.ParseFloat(first[2], 64)
	require.NoError(t, err, "timestamps are stored as numbers")
	created, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), created.Round(time.Second))

	hours, err := strconv.ParseFloat(first[5], 64)
	require.NoError(t, err)
	assert.Equal(t, 2.5, hours)
	assert.Equal(t, "Config & Master", first[6])

	assert.Equal(t, "P4", rows[2][1])
}

func TestExporter_ExportFile(t *testing.T) {
	exp := New(nil)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out", "tickets.csv")
	require.NoError(t, exp.ExportFile(context.Background(), csvPath, testTable()))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	xlsxPath := filepath.Join(dir, "tickets.xlsx")
	require.NoError(t, exp.ExportFile(context.Background(), xlsxPath, testTable()))
	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	f.Close()

	assert.Error(t, exp.ExportFile(context.Background(), filepath.Join(dir, "tickets.pdf"), testTable()))
}

func TestExporter_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, New(nil).Export(context.Background(), &buf, testTable(), Format("ods")))
}
