package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdash/internal/config"
)

func newValidator() *FileValidator {
	return NewFileValidator(config.UploadConfig{
		MaxBytes:          1024,
		AllowedExtensions: []string{".xlsx", "csv", " .XLSM "},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFileValidator_ValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr error
	}{
		{"xlsx", "tickets.xlsx", 100, nil},
		{"upper case extension", "TICKETS.XLSX", 100, nil},
		{"macro workbook", "tickets.xlsm", 100, nil},
		{"csv without dot in config", "tickets.csv", 100, nil},
		{"legacy xls", "tickets.xls", 100, ErrUnsupportedExtension},
		{"no extension", "tickets", 100, ErrUnsupportedExtension},
		{"office lock file", "~$tickets.xlsx", 100, ErrTemporaryFile},
		{"empty", "tickets.xlsx", 0, ErrEmptyFile},
		{"too large", "tickets.xlsx", 2048, ErrFileTooLarge},
		{"path components are ignored", "../../etc/tickets.csv", 10, nil},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.file, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileValidator_UnknownSizeIsAllowed(t *testing.T) {
	// Multipart parts may report -1 when the size is unknown.
	assert.NoError(t, newValidator().ValidateUpload("tickets.xlsx", -1))
}

func TestFileValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "data.xlsx")
	require.NoError(t, os.WriteFile(good, []byte("PK"), 0o644))
	wrong := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(wrong, []byte("x"), 0o644))

	v := newValidator()
	assert.NoError(t, v.ValidateFile(good))
	assert.ErrorIs(t, v.ValidateFile(wrong), ErrUnsupportedExtension)
	assert.ErrorIs(t, v.ValidateFile(dir), ErrNotAFile)
	assert.ErrorIs(t, v.ValidateFile(filepath.Join(dir, "missing.xlsx")), os.ErrNotExist)
}

func TestFileValidator_AllowedExtensions(t *testing.T) {
	assert.ElementsMatch(t, []string{".xlsx", ".csv", ".xlsm"}, newValidator().AllowedExtensions())
}
