package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"ticketdash/internal/charts"
	"ticketdash/internal/dataprocessing"
	"ticketdash/internal/exporter"
	"ticketdash/internal/infrastructure"
	"ticketdash/internal/store"
	"ticketdash/internal/validation"
	api "ticketdash/pkg/contracts/api/v1"
	"ticketdash/pkg/contracts/domain"
)

// DefaultDatasetID identifies the dataset preloaded from the default data file.
const DefaultDatasetID = "default"

// DashboardService runs the reporting pipeline against stored datasets.
type DashboardService struct {
	store     store.Store
	loader    *dataprocessing.Loader
	exporter  *exporter.Exporter
	charts    *charts.Renderer
	validator *validation.FileValidator
	metrics   *infrastructure.DashboardMetrics
	tracer    trace.Tracer
	logger    *slog.Logger

	previewRows int
	now         func() time.Time
	newID       func() string
}

// DashboardDeps holds the collaborators of a DashboardService. Metrics and
// Tracer are optional.
type DashboardDeps struct {
	Store       store.Store
	Validator   *validation.FileValidator
	Charts      *charts.Renderer
	Metrics     *infrastructure.DashboardMetrics
	Tracer      trace.Tracer
	Logger      *slog.Logger
	PreviewRows int
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(deps DashboardDeps) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	renderer := deps.Charts
	if renderer == nil {
		renderer = charts.NewRenderer(charts.Options{}, logger)
	}

	return &DashboardService{
		store:       deps.Store,
		loader:      dataprocessing.NewLoader(logger),
		exporter:    exporter.New(logger),
		charts:      renderer,
		validator:   deps.Validator,
		metrics:     deps.Metrics,
		tracer:      tracer,
		logger:      logger.With(slog.String("service", "dashboard")),
		previewRows: deps.PreviewRows,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Upload validates, loads and stores a spreadsheet. size may be -1 when unknown.
func (s *DashboardService) Upload(ctx context.Context, name string, size int64, r io.Reader) (*api.DatasetResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.upload",
		trace.WithAttributes(attribute.String("file.name", name), attribute.Int64("file.size", size)))
	defer span.End()

	if s.validator != nil {
		if err := s.validator.ValidateUpload(name, size); err != nil {
			s.recordLoadFailure(ctx, "upload")
			infrastructure.RecordError(ctx, err)
			return nil, err
		}
	}

	return s.load(ctx, s.newID(), "upload", false, func() (*domain.TicketTable, error) {
		return s.loader.Load(ctx, name, r)
	})
}

// LoadDefault loads path into the DefaultDatasetID slot. The default dataset
// is pinned so it outlives the upload TTL. A missing file returns
// ErrNoDefaultData.
func (s *DashboardService) LoadDefault(ctx context.Context, path string) (*api.DatasetResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.load_default", trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDefaultData, err)
	}
	if s.validator != nil {
		if err := s.validator.ValidateFile(path); err != nil {
			return nil, err
		}
	}

	return s.load(ctx, DefaultDatasetID, "default", true, func() (*domain.TicketTable, error) {
		return s.loader.LoadFile(ctx, path)
	})
}

func (s *DashboardService) load(ctx context.Context, id, origin string, pinned bool, load func() (*domain.TicketTable, error)) (*api.DatasetResponse, error) {
	table, err := load()
	if err != nil {
		s.recordLoadFailure(ctx, origin)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	dataset := &store.Dataset{
		ID:        id,
		Table:     table,
		Options:   dataprocessing.Options(table),
		CreatedAt: s.now().UTC(),
		Pinned:    pinned,
	}
	created, err := s.store.Put(ctx, dataset)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("store dataset: %w", err)
	}

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("origin", origin))
		s.metrics.UploadsTotal.Add(ctx, 1, attrs)
		s.metrics.RowsLoaded.Add(ctx, int64(table.Len()), attrs)
		if created {
			s.metrics.ActiveDatasets.Add(ctx, 1)
		}
	}

	s.logger.InfoContext(ctx, "dataset stored",
		slog.String("dataset_id", id),
		slog.String("source", table.Source),
		slog.Int("rows", table.Len()),
		slog.String("origin", origin),
		slog.Bool("replaced", !created))

	return s.describe(dataset), nil
}

func (s *DashboardService) recordLoadFailure(ctx context.Context, origin string) {
	if s.metrics != nil {
		s.metrics.LoadFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("origin", origin)))
	}
}

func (s *DashboardService) describe(d *store.Dataset) *api.DatasetResponse {
	base := "/api/datasets/" + d.ID
	return &api.DatasetResponse{
		Dataset: d.Info(),
		Options: d.Options,
		Links: map[string]string{
			"self":      base,
			"report":    base + "/report",
			"export":    base + "/export",
			"dashboard": "/dashboard/" + d.ID,
			"live":      "/ws/datasets/" + d.ID,
		},
	}
}

// Dataset returns the stored dataset's description and filter options.
func (s *DashboardService) Dataset(ctx context.Context, id string) (*api.DatasetResponse, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.describe(d), nil
}

// Delete removes a dataset.
func (s *DashboardService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ActiveDatasets.Add(ctx, -1)
	}
	s.logger.InfoContext(ctx, "dataset deleted", slog.String("dataset_id", id))
	return nil
}

// run filters a stored dataset by sel.
func (s *DashboardService) run(ctx context.Context, id string, sel domain.Selection, source string) (*domain.TicketTable, []domain.Warning, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	start := s.now()
	filtered, warnings := dataprocessing.Apply(d.Table, sel)
	for _, w := range warnings {
		s.logger.WarnContext(ctx, "date filter skipped",
			slog.String("dataset_id", id),
			slog.String("reason", w.Message))
	}
	infrastructure.RecordReport(ctx, s.metrics, source, filtered.Len(), s.now().Sub(start), len(warnings) > 0)

	return filtered, warnings, nil
}

// Report filters and summarizes a dataset. source labels the caller for
// metrics, e.g. "api" or "live".
func (s *DashboardService) Report(ctx context.Context, id string, sel domain.Selection, source string) (*api.ReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.report", trace.WithAttributes(attribute.String("dataset.id", id)))
	defer span.End()

	filtered, warnings, err := s.run(ctx, id, sel, source)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	summary := dataprocessing.Summarize(filtered)

	preview := filtered.Rows
	if s.previewRows > 0 && len(preview) > s.previewRows {
		preview = preview[:s.previewRows]
	}
	rows := make([][]string, len(preview))
	for i := range preview {
		row := make([]string, len(filtered.Columns))
		for j, column := range filtered.Columns {
			row[j] = preview[i].Text(column)
		}
		rows[i] = row
	}

	s.logger.DebugContext(ctx, "report computed",
		slog.String("dataset_id", id),
		slog.Int("rows", summary.Total),
		slog.Int("warnings", len(warnings)))

	return &api.ReportResponse{
		DatasetID:          id,
		Selection:          sel,
		Summary:            summary,
		SLALabel:           summary.SLALabel(),
		AvgResolutionLabel: summary.AvgResolutionLabel(),
		Columns:            filtered.Columns,
		Rows:               rows,
		TotalRows:          filtered.Len(),
		Truncated:          len(preview) < filtered.Len(),
		Warnings:           warnings,
	}, nil
}

// Export writes the filtered rows of a dataset to w in the given format.
func (s *DashboardService) Export(ctx context.Context, w io.Writer, id string, sel domain.Selection, format string) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.export", trace.WithAttributes(attribute.String("dataset.id", id)))
	defer span.End()

	f, err := exporter.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	filtered, _, err := s.run(ctx, id, sel, "export")
	if err != nil {
		return err
	}

	if err := s.exporter.Export(ctx, w, filtered, f); err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	if s.metrics != nil {
		s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", string(f))))
	}
	return nil
}

// Chart renders one chart of the filtered dataset as PNG. It returns
// charts.ErrNoData when the selection leaves nothing to plot.
func (s *DashboardService) Chart(ctx context.Context, w io.Writer, id string, sel domain.Selection, kind string) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.chart", trace.WithAttributes(
		attribute.String("dataset.id", id),
		attribute.String("chart.kind", kind)))
	defer span.End()

	k, err := charts.ParseKind(kind)
	if err != nil {
		return err
	}

	filtered, _, err := s.run(ctx, id, sel, "chart")
	if err != nil {
		return err
	}

	if err := s.charts.Render(w, k, dataprocessing.Summarize(filtered)); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ChartsRendered.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(k))))
	}
	return nil
}
