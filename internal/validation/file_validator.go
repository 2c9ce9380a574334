package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ticketdash/internal/config"
)

var (
	ErrEmptyFile            = errors.New("file is empty")
	ErrFileTooLarge         = errors.New("file exceeds the upload limit")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrTemporaryFile        = errors.New("file is a temporary office lock file")
	ErrNotAFile             = errors.New("path is not a regular file")
)

// FileValidator checks spreadsheet uploads and local data files
type FileValidator struct {
	logger     *slog.Logger
	allowedExt map[string]bool
	maxBytes   int64
}

// NewFileValidator creates a new file validator
func NewFileValidator(cfg config.UploadConfig, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return &FileValidator{
		logger:     logger,
		allowedExt: allowed,
		maxBytes:   cfg.MaxBytes,
	}
}

// AllowedExtensions returns the accepted extensions for display.
func (v *FileValidator) AllowedExtensions() []string {
	exts := make([]string, 0, len(v.allowedExt))
	for ext := range v.allowedExt {
		exts = append(exts, ext)
	}
	return exts
}

// ValidateName checks the file name of an upload or local file.
func (v *FileValidator) ValidateName(name string) error {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", base))
		return fmt.Errorf("%s: %w", base, ErrTemporaryFile)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !v.allowedExt[ext] {
		v.logger.Warn("File extension not allowed",
			slog.String("file", base),
			slog.String("extension", ext))
		return fmt.Errorf("%s (extension %q): %w", base, ext, ErrUnsupportedExtension)
	}
	return nil
}

// ValidateUpload checks an uploaded file's name and size.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	if err := v.ValidateName(name); err != nil {
		return err
	}
	if size == 0 {
		return fmt.Errorf("%s: %w", filepath.Base(name), ErrEmptyFile)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("Upload too large",
			slog.String("file", filepath.Base(name)),
			slog.Int64("size", size),
			slog.Int64("max_bytes", v.maxBytes))
		return fmt.Errorf("%s is %d bytes: %w", filepath.Base(name), size, ErrFileTooLarge)
	}
	return nil
}

// ValidateFile checks if a local spreadsheet exists, is readable and has an
// accepted name.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Debug("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotAFile)
	}

	if err := v.ValidateName(path); err != nil {
		return err
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
