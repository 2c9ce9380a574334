package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ticketdash/pkg/contracts/domain"
)

// Exporter writes ticket tables in a chosen Format.
type Exporter struct {
	logger *slog.Logger
}

// New creates an Exporter. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger.With(slog.String("component", "exporter"))}
}

// Export writes table to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer, table *domain.TicketTable, format Format) error {
	var err error
	switch format {
	case FormatCSV:
		err = WriteCSV(w, table, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		err = WriteXLSX(w, table)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return err
	}

	e.logger.InfoContext(ctx, "table exported",
		slog.String("format", string(format)),
		slog.String("source", table.Source),
		slog.Int("rows", table.Len()))
	return nil
}

// ExportFile writes table to path, choosing the format from its extension.
func (e *Exporter) ExportFile(ctx context.Context, path string, table *domain.TicketTable) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := e.Export(ctx, file, table, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
