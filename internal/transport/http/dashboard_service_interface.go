package http

import (
	"context"
	"io"
	"net/http"

	api "ticketdash/pkg/contracts/api/v1"
	"ticketdash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dataset and report operations the
// handlers depend on.
type DashboardServiceInterface interface {
	Upload(ctx context.Context, name string, size int64, r io.Reader) (*api.DatasetResponse, error)
	Dataset(ctx context.Context, id string) (*api.DatasetResponse, error)
	Delete(ctx context.Context, id string) error
	Report(ctx context.Context, id string, sel domain.Selection, source string) (*api.ReportResponse, error)
	Export(ctx context.Context, w io.Writer, id string, sel domain.Selection, format string) error
	Chart(ctx context.Context, w io.Writer, id string, sel domain.Selection, kind string) error
}

// LiveServer starts a live filtering session on an HTTP request.
type LiveServer interface {
	ServeDataset(w http.ResponseWriter, r *http.Request, datasetID string) error
}
