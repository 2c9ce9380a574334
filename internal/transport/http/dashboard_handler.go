package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"ticketdash/internal/charts"
	apierrors "ticketdash/internal/errors"
	"ticketdash/internal/exporter"
	"ticketdash/internal/middleware"
	"ticketdash/internal/services"
	api "ticketdash/pkg/contracts/api/v1"
)

// multipartOverhead is added to the upload limit for the form envelope.
const multipartOverhead = 1 << 20

// maxDatasetIDLength bounds the {id} path parameter.
const maxDatasetIDLength = 64

// DashboardHandler serves the dataset JSON API, downloads and chart images.
type DashboardHandler struct {
	service        DashboardServiceInterface
	validator      *middleware.Validator
	errorHandler   *apierrors.ErrorHandler
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewDashboardHandler creates a dashboard handler. maxUploadBytes caps the
// uploaded file; the request body may exceed it by the multipart envelope.
func NewDashboardHandler(service DashboardServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger, maxUploadBytes int64) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		validator:      validator,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the dataset routes, mounted under /api/datasets.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.GetDataset)
		r.Delete("/", h.DeleteDataset)
		r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).Post("/report", h.Report)
		r.Get("/export", h.Export)
		r.Get("/charts/{kind}.png", h.Chart)
	})

	return r
}

// DatasetCtx rejects malformed dataset ids before they reach the store.
func (h *DashboardHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validDatasetID(chi.URLParam(r, "id")) {
			h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors([]apierrors.ValidationError{
				{Field: "id", Message: "id must be 1-64 letters, digits or dashes"},
			}))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validDatasetID(id string) bool {
	if id == "" || len(id) > maxDatasetIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// Upload handles POST /api/datasets with a multipart "file" field.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, formFileError(err))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size))

	resp, err := h.service.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// formFileError maps multipart parsing failures to API errors.
func formFileError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return err
	case strings.Contains(err.Error(), "request body too large"):
		return apierrors.ErrPayloadTooLarge
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return apierrors.ErrMissingFile
	default:
		return apierrors.InvalidRequestWithError(err)
	}
}

// GetDataset handles GET /api/datasets/{id}.
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Dataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// DeleteDataset handles DELETE /api/datasets/{id}.
func (h *DashboardHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report handles POST /api/datasets/{id}/report. An empty body selects
// every row.
func (h *DashboardHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req api.ReportRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Report(r.Context(), chi.URLParam(r, "id"), req.Selection, "api")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// Export handles GET /api/datasets/{id}/export. The selection comes from the
// query string; format=csv switches from the default xlsx.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	sel := SelectionFromQuery(r.URL.Query())
	if err := h.validator.Struct(sel); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", services.ErrInvalidFormat, err))
		return
	}

	// buffered so a failure still gets a problem response
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, chi.URLParam(r, "id"), sel, string(format)); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Chart handles GET /api/datasets/{id}/charts/{kind}.png. An empty group
// answers 204 so the page can show "No data".
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	sel := SelectionFromQuery(r.URL.Query())
	if err := h.validator.Struct(sel); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err := h.service.Chart(r.Context(), &buf, chi.URLParam(r, "id"), sel, chi.URLParam(r, "kind"))
	switch {
	case errors.Is(err, charts.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errorHandler.HandleError(w, r, services.ToAPIError(err))
}
