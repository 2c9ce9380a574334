// Package exporter writes a filtered ticket table as a downloadable file.
//
// Two formats are supported:
//
// XLSX: a single worksheet named "Filtered" with typed cells. Timestamps are
// written as Excel date-times and Resolution (hrs) as a number.
//
// CSV: UTF-8 with a byte order mark so spreadsheet applications detect the
// encoding. Every cell is written as display text.
//
// Both formats emit the table's columns in order, header row first.
//
// Example usage:
//
//	exp := exporter.New(logger)
//	w.Header().Set("Content-Type", exporter.FormatXLSX.ContentType())
//	err := exp.Export(ctx, w, filtered, exporter.FormatXLSX)
package exporter
