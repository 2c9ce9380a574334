package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"ticketdash/pkg/contracts/domain"
)

const (
	dateTimeNumFmt = "yyyy-mm-dd hh:mm:ss"
	dateNumFmt     = "yyyy-mm-dd"
	hoursNumFmt    = 2 // built-in "0.00"
)

type sheetStyles struct {
	header   int
	dateTime int
	date     int
	hours    int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	dt, d := dateTimeNumFmt, dateNumFmt
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.dateTime, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dt}); err != nil {
		return s, err
	}
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &d}); err != nil {
		return s, err
	}
	if s.hours, err = f.NewStyle(&excelize.Style{NumFmt: hoursNumFmt}); err != nil {
		return s, err
	}
	return s, nil
}

// WriteXLSX writes table as a workbook with one "Filtered" sheet.
func WriteXLSX(w io.Writer, table *domain.TicketTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	if n := len(table.Columns); n > 0 {
		if err := sw.SetColWidth(1, n, 20); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = excelize.Cell{StyleID: styles.header, Value: column}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	values := make([]interface{}, len(table.Columns))
	for i := range table.Rows {
		row := &table.Rows[i]
		for j, column := range table.Columns {
			values[j] = styles.cell(column, row.Cell(column))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cell attaches the number format matching value's type.
func (s sheetStyles) cell(column string, value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		style := s.dateTime
		if column == domain.ColCreatedDate {
			style = s.date
		}
		return excelize.Cell{StyleID: style, Value: v}
	case float64:
		return excelize.Cell{StyleID: s.hours, Value: v}
	default:
		return v
	}
}
