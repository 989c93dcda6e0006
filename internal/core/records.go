package core

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrReportNotFound is returned by a ReportStore for an unknown ID.
	ErrReportNotFound = errors.New("report not found")

	// ErrStoreDisabled is returned when reports are requested but no store
	// is configured.
	ErrStoreDisabled = errors.New("report store is not configured")
)

// ReportRecord is a report as kept by a ReportStore.
type ReportRecord struct {
	ID        string    `json:"id"`
	Report    *Report   `json:"report"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportFilter narrows ListReports. Zero fields match everything.
type ReportFilter struct {
	Dataset string
	Outcome Outcome
	Limit   int
	Offset  int
}

// DefaultReportLimit caps ListReports when the filter sets no limit.
const DefaultReportLimit = 50

// ReportStats counts stored reports by outcome.
type ReportStats struct {
	Total      int64 `json:"total"`
	Accepted   int64 `json:"accepted"`
	Rejected   int64 `json:"rejected"`
	Unresolved int64 `json:"unresolved"`
}

// ReportStore persists validation reports.
type ReportStore interface {
	SaveReport(ctx context.Context, rec ReportRecord) error
	GetReport(ctx context.Context, id string) (ReportRecord, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]ReportRecord, error)
	ReportStats(ctx context.Context) (ReportStats, error)
}
