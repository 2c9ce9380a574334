package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"ticketdash/pkg/contracts/domain"
)

var (
	// ErrUnsupportedFormat is wrapped by LoadError for inputs that are neither
	// an Office Open XML workbook nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrNoSheets is wrapped by LoadError for workbooks without a worksheet.
	ErrNoSheets = errors.New("workbook has no worksheets")
)

// LoadError reports a file that could not be read as a spreadsheet.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RawTable is a parsed but underived grid. Rows are aligned to Headers and
// padded with empty strings.
type RawTable struct {
	Source  string
	Headers []string
	Rows    [][]string

	// serialDates marks workbook input whose numeric timestamp cells are
	// Excel serial day numbers.
	serialDates bool
	date1904    bool
}

var zipMagic = []byte("PK\x03\x04")

// Loader reads ticket spreadsheets.
type Loader struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "loader")),
		now:    time.Now,
	}
}

// LoadFile opens path and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string) (*domain.TicketTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: filepath.Base(path), Err: err}
	}
	defer f.Close()
	return l.Load(ctx, filepath.Base(path), f)
}

// Load parses r as the spreadsheet called name and derives the ticket table.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) (*domain.TicketTable, error) {
	start := l.now()

	raw, err := ReadRaw(ctx, name, r)
	if err != nil {
		l.logger.WarnContext(ctx, "spreadsheet load failed",
			slog.String("source", name),
			slog.String("error", err.Error()))
		return nil, err
	}

	table := Derive(raw, start)

	l.logger.InfoContext(ctx, "spreadsheet loaded",
		slog.String("source", name),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Bool("has_created_time", table.HasCreatedTime),
		slog.Bool("has_closed_time", table.HasClosedTime),
		slog.Duration("duration", l.now().Sub(start)))

	return table, nil
}

// ReadRaw parses r into a RawTable. Workbooks are read from their first sheet.
// The first non-empty row is the header; fully empty rows are skipped.
func ReadRaw(ctx context.Context, name string, r io.Reader) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}

	var raw *RawTable
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case bytes.HasPrefix(data, zipMagic):
		raw, err = readWorkbook(ctx, data)
	case ext == ".csv" || ext == ".txt":
		raw, err = readCSV(ctx, data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}

	raw.Source = name
	return raw, nil
}

func readWorkbook(ctx context.Context, data []byte) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	// Raw values keep date cells as serial numbers regardless of number format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	raw, err := buildRaw(ctx, rows)
	if err != nil {
		return nil, err
	}
	raw.serialDates = true
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		raw.date1904 = *props.Date1904
	}
	return raw, nil
}

func readCSV(ctx context.Context, data []byte) (*RawTable, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: csv is not valid UTF-8", ErrUnsupportedFormat)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return buildRaw(ctx, rows)
}

// buildRaw locates the header row and aligns the remaining rows to it.
// Blank header cells are named "Unnamed: <index>"; of duplicate trimmed
// headers only the first column is kept.
func buildRaw(ctx context.Context, rows [][]string) (*RawTable, error) {
	raw := &RawTable{}

	headerAt := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return raw, nil
	}

	header := rows[headerAt]
	keep := make([]int, 0, len(header))
	seen := make(map[string]bool, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		keep = append(keep, i)
		raw.Headers = append(raw.Headers, name)
	}

	for i, row := range rows[headerAt+1:] {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlankRow(row) {
			continue
		}
		aligned := make([]string, len(keep))
		for j, src := range keep {
			if src < len(row) {
				aligned[j] = row[src]
			}
		}
		raw.Rows = append(raw.Rows, aligned)
	}

	return raw, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// timestampLayouts are tried in order for text timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 3:04:05 PM",
	"01/02/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
}

// parseTimestamp leniently parses a cell. ok is false for blank or
// unparseable input. Naive timestamps are interpreted as UTC wall-clock time.
func (raw *RawTable) parseTimestamp(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}

	if raw.serialDates {
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			if serial <= 0 {
				return time.Time{}, false
			}
			t, err := excelize.ExcelDateToTime(serial, raw.date1904)
			if err != nil {
				return time.Time{}, false
			}
			// Serials carry sub-second float noise; resolution is the second.
			return t.Round(time.Second), true
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
