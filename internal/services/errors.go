package services

import (
	"errors"
	"net/http"

	"ticketdash/internal/charts"
	"ticketdash/internal/dataprocessing"
	apierrors "ticketdash/internal/errors"
	"ticketdash/internal/store"
	"ticketdash/internal/validation"
)

// Dashboard service errors
var (
	ErrInvalidFormat = errors.New("invalid export format")
	ErrNoDefaultData = errors.New("default data file not available")
)

// ToAPIError maps service and pipeline errors to API errors. Errors it does
// not recognize are returned unchanged.
func ToAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	var loadErr *dataprocessing.LoadError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apierrors.ErrDatasetNotFound
	case errors.Is(err, validation.ErrFileTooLarge):
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, apierrors.CodePayloadTooLarge,
			apierrors.ErrPayloadTooLarge.Message, err.Error())
	case errors.Is(err, validation.ErrUnsupportedExtension),
		errors.Is(err, validation.ErrTemporaryFile),
		errors.Is(err, validation.ErrEmptyFile),
		errors.Is(err, dataprocessing.ErrUnsupportedFormat):
		return apierrors.UnsupportedFile(err.Error())
	case errors.As(err, &loadErr):
		return apierrors.LoadFailed(loadErr.Source, loadErr.Err)
	case errors.Is(err, charts.ErrUnknownKind):
		return apierrors.NewWithDetails(http.StatusNotFound, apierrors.CodeChartNotFound, "Unknown chart", err.Error())
	case errors.Is(err, ErrInvalidFormat):
		return apierrors.InvalidRequestWithError(err)
	}
	return err
}
