package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

// ValidateTimeout is the maximum duration of one validation, including the
// wait for a slot.
var ValidateTimeout = 30 * time.Second

// Service validates candidates against the currently published catalog.
// It is safe for concurrent use.
type Service struct {
	catalogs *catalog.Holder
	limiter  *Limiter
	store    ReportStore
	options  []Option
}

// ServiceConfig configures NewService. Holder is required.
type ServiceConfig struct {
	Holder  *catalog.Holder
	Limiter *Limiter

	// Store keeps submitted reports. Nil disables Submit persistence and
	// report lookups.
	Store ReportStore

	// Options apply to every validation the service runs.
	Options []Option
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Holder == nil {
		return nil, fmt.Errorf("new service: catalog holder is required")
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewLimiter(0, 0)
	}
	return &Service{
		catalogs: cfg.Holder,
		limiter:  limiter,
		store:    cfg.Store,
		options:  cfg.Options,
	}, nil
}

// Catalog returns the published catalog snapshot.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalogs.Current()
}

// Holder returns the catalog holder the service reads from.
func (s *Service) Holder() *catalog.Holder {
	return s.catalogs
}

// Limiter returns the service's concurrency limiter.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// HasStore reports whether reports are persisted.
func (s *Service) HasStore() bool {
	return s.store != nil
}

// Validate checks candidate against one catalog snapshot. extra options are
// applied after the service's own.
func (s *Service) Validate(ctx context.Context, candidate *CandidateFile, extra ...Option) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, ValidateTimeout)
	defer cancel()

	start := time.Now()
	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyValidations) {
			validationRejectedBusy.Inc()
		}
		return nil, fmt.Errorf("validate %s: %w", candidate.Source, err)
	}
	defer s.limiter.Release()

	opts := append(append([]Option(nil), s.options...), extra...)
	report := Validate(candidate, s.catalogs.Current(), opts...)

	validationDuration.Observe(time.Since(start).Seconds())
	observeReport(report)

	slog.Debug("validated candidate",
		"source", candidate.Source,
		"identity", candidate.Identity.String(),
		"outcome", report.Outcome(),
		"violations", len(report.violations),
		"notices", len(report.notices),
	)
	return report, nil
}

// Submit validates candidate and keeps the report when a store is configured.
// The returned record has an empty ID when nothing was stored.
func (s *Service) Submit(ctx context.Context, candidate *CandidateFile, extra ...Option) (ReportRecord, error) {
	report, err := s.Validate(ctx, candidate, extra...)
	if err != nil {
		return ReportRecord{}, err
	}

	rec := ReportRecord{
		Report:    report,
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
	if s.store == nil {
		return rec, nil
	}

	rec.ID = uuid.New().String()
	if err := s.store.SaveReport(ctx, rec); err != nil {
		// The verdict stands even if it could not be kept.
		slog.Error("failed to store report", "source", candidate.Source, "error", err)
		rec.ID = ""
		return rec, nil
	}
	return rec, nil
}

// Report returns a stored report.
func (s *Service) Report(ctx context.Context, id string) (ReportRecord, error) {
	if s.store == nil {
		return ReportRecord{}, ErrStoreDisabled
	}
	if _, err := uuid.Parse(id); err != nil {
		return ReportRecord{}, fmt.Errorf("%w: %q", ErrReportNotFound, id)
	}
	return s.store.GetReport(ctx, id)
}

// Reports lists stored reports, newest first.
func (s *Service) Reports(ctx context.Context, filter ReportFilter) ([]ReportRecord, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultReportLimit
	}
	return s.store.ListReports(ctx, filter)
}

// Stats counts stored reports by outcome.
func (s *Service) Stats(ctx context.Context) (ReportStats, error) {
	if s.store == nil {
		return ReportStats{}, ErrStoreDisabled
	}
	return s.store.ReportStats(ctx)
}

// ReloadCatalog re-reads the catalog source. A failed reload keeps the
// current catalog.
func (s *Service) ReloadCatalog(ctx context.Context) (bool, error) {
	return s.catalogs.Reload(ctx)
}
