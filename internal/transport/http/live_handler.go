package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "ticketdash/internal/errors"
	"ticketdash/internal/services"
	api "ticketdash/pkg/contracts/api/v1"
)

// DatasetLookup resolves a dataset id.
type DatasetLookup interface {
	Dataset(ctx context.Context, id string) (*api.DatasetResponse, error)
}

// LiveHandler upgrades GET /ws/datasets/{id} to a live filtering session.
type LiveHandler struct {
	datasets     DatasetLookup
	live         LiveServer
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewLiveHandler creates a live handler.
func NewLiveHandler(datasets DatasetLookup, live LiveServer, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		datasets:     datasets,
		live:         live,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "live_handler")),
	}
}

// ServeHTTP checks the dataset exists, then hands the connection over.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validDatasetID(id) {
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
		return
	}
	if _, err := h.datasets.Dataset(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, services.ToAPIError(err))
		return
	}

	if err := h.live.ServeDataset(w, r, id); err != nil {
		h.logger.WarnContext(r.Context(), "live session not started",
			slog.String("dataset_id", id),
			slog.String("error", err.Error()))
	}
}
