// Package api contains the HTTP contract of the ticket dashboard.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"ticketdash/pkg/contracts/domain"
)

// ReportRequest is the body of a report run. An empty body selects everything.
type ReportRequest struct {
	domain.Selection
}

// DatasetInfo describes a stored dataset without its rows.
type DatasetInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is nil for datasets that never expire.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// DatasetResponse is returned by upload and dataset lookup.
type DatasetResponse struct {
	Dataset DatasetInfo          `json:"dataset"`
	Options domain.FilterOptions `json:"options"`
	Links   map[string]string    `json:"links,omitempty"`
}

// ReportResponse is one filter-and-summarize result.
type ReportResponse struct {
	DatasetID string           `json:"dataset_id"`
	Selection domain.Selection `json:"selection"`
	Summary   domain.Summary   `json:"summary"`

	// Display labels for the KPI tiles.
	SLALabel           string `json:"sla_label"`
	AvgResolutionLabel string `json:"avg_resolution_label"`

	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	// TotalRows counts every filtered row; Rows may be a capped preview.
	TotalRows int  `json:"total_rows"`
	Truncated bool `json:"truncated"`

	Warnings []domain.Warning `json:"warnings,omitempty"`
}
