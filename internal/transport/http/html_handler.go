package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/go-chi/chi/v5"

	"ticketdash/internal/charts"
	apierrors "ticketdash/internal/errors"
	"ticketdash/internal/services"
	"ticketdash/internal/store"
	api "ticketdash/pkg/contracts/api/v1"
	"ticketdash/pkg/contracts/domain"
)

// PageHandler renders the dashboard HTML.
type PageHandler struct {
	service        DashboardServiceInterface
	templates      *template.Template
	errorHandler   *apierrors.ErrorHandler
	logger         *slog.Logger
	maxUploadBytes int64
}

type indexPage struct {
	Title          string
	Default        *api.DatasetInfo
	Error          string
	MaxUploadBytes int64
}

type chartPanel struct {
	Kind  string
	Title string
	URL   string
	Empty bool
}

type dashboardPage struct {
	Title     string
	Dataset   api.DatasetInfo
	Options   domain.FilterOptions
	Selection domain.Selection
	Report    *api.ReportResponse
	Charts    []chartPanel
	ExportURL string
	CSVURL    string
	LiveURL   string
	Query     string
}

var pageFuncs = template.FuncMap{
	"contains": func(values []string, v string) bool { return slices.Contains(values, v) },
	"dateAt": func(values []string, i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	},
	"blank": func(s string) string {
		if s == "" {
			return "(blank)"
		}
		return s
	},
}

// NewPageHandler parses templates/*.html from files.
func NewPageHandler(service DashboardServiceInterface, files fs.FS, errorHandler *apierrors.ErrorHandler, logger *slog.Logger, maxUploadBytes int64) (*PageHandler, error) {
	tmpl, err := template.New("pages").Funcs(pageFuncs).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &PageHandler{
		service:        service,
		templates:      tmpl,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("component", "page_handler")),
		maxUploadBytes: maxUploadBytes,
	}, nil
}

// Index handles GET /: the upload form and a link to the default dataset.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, "")
}

func (h *PageHandler) renderIndex(w http.ResponseWriter, r *http.Request, status int, message string) {
	page := indexPage{
		Title:          "Ticket Dashboard",
		Error:          message,
		MaxUploadBytes: h.maxUploadBytes,
	}
	if d, err := h.service.Dataset(r.Context(), services.DefaultDatasetID); err == nil {
		page.Default = &d.Dataset
	}
	h.render(w, r, status, "index.html", page)
}

// Upload handles the form POST /upload and redirects to the new dashboard.
func (h *PageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderIndex(w, r, http.StatusBadRequest, problemMessage(formFileError(err)))
		return
	}
	defer file.Close()

	resp, err := h.service.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		apiErr := services.ToAPIError(err)
		status := http.StatusInternalServerError
		var e *apierrors.APIError
		if errors.As(apiErr, &e) {
			status = e.StatusCode
		}
		h.logger.WarnContext(r.Context(), "form upload rejected",
			slog.String("file", header.Filename),
			slog.String("error", err.Error()))
		h.renderIndex(w, r, status, problemMessage(apiErr))
		return
	}

	http.Redirect(w, r, "/dashboard/"+url.PathEscape(resp.Dataset.ID), http.StatusSeeOther)
}

func problemMessage(err error) string {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return "The file could not be loaded."
	}
	if detail, ok := apiErr.Details.(string); ok && detail != "" {
		return apiErr.Message + ": " + detail
	}
	return apiErr.Message
}

// Dashboard handles GET /dashboard/{id}. The query string is the selection.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validDatasetID(id) {
		h.errorHandler.NotFound(w, r)
		return
	}
	sel := SelectionFromQuery(r.URL.Query())

	dataset, err := h.service.Dataset(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderIndex(w, r, http.StatusNotFound, "That dataset has expired or never existed. Upload the file again.")
			return
		}
		h.errorHandler.HandleError(w, r, services.ToAPIError(err))
		return
	}

	report, err := h.service.Report(r.Context(), id, sel, "page")
	if err != nil {
		h.errorHandler.HandleError(w, r, services.ToAPIError(err))
		return
	}

	query := SelectionQuery(sel)
	base := "/api/datasets/" + url.PathEscape(id)
	page := dashboardPage{
		Title:     "Ticket Dashboard · " + dataset.Dataset.Source,
		Dataset:   dataset.Dataset,
		Options:   dataset.Options,
		Selection: sel,
		Report:    report,
		ExportURL: withQuery(base+"/export", query),
		CSVURL:    withQuery(base+"/export", withFormat(query, "csv")),
		LiveURL:   "/ws/datasets/" + url.PathEscape(id),
		Query:     query.Encode(),
	}
	for _, kind := range charts.Kinds() {
		page.Charts = append(page.Charts, chartPanel{
			Kind:  string(kind),
			Title: kind.Title(),
			URL:   withQuery(base+"/charts/"+string(kind)+".png", query),
			Empty: !charts.HasData(kind, report.Summary),
		})
	}

	h.render(w, r, http.StatusOK, "dashboard.html", page)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func withFormat(q url.Values, format string) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	out.Set("format", format)
	return out
}

// render executes into a buffer so template errors still produce a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "template render failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
