package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/woudc-registry/internal/core"
)

const reportColumns = `id, report, ip_address, user_agent, created_at`

// SaveReport inserts rec. rec.ID must be a UUID.
func (s *Store) SaveReport(ctx context.Context, rec core.ReportRecord) error {
	id := toPgUUID(rec.ID)
	if !id.Valid {
		return fmt.Errorf("save report: invalid id %q", rec.ID)
	}
	body, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	r := rec.Report
	declared := r.Declared()
	_, err = s.pool.Exec(ctx, `INSERT INTO validation_reports
		(id, source, dataset, version, outcome, violations, notices,
		 catalog_fingerprint, report, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id,
		toPgText(r.Source()),
		declared.Dataset,
		declared.Version,
		string(r.Outcome()),
		len(r.Violations()),
		len(r.Notices()),
		toPgText(r.CatalogFingerprint()),
		body,
		toInet(rec.IPAddress),
		toPgText(rec.UserAgent),
		toPgTimestamp(rec.CreatedAt, time.Now),
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetReport returns the report with id, or core.ErrReportNotFound.
func (s *Store) GetReport(ctx context.Context, id string) (core.ReportRecord, error) {
	pgID := toPgUUID(id)
	if !pgID.Valid {
		return core.ReportRecord{}, fmt.Errorf("%w: %q", core.ErrReportNotFound, id)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM validation_reports WHERE id = $1`, pgID)
	if err != nil {
		return core.ReportRecord{}, fmt.Errorf("get report: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanReport)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ReportRecord{}, fmt.Errorf("%w: %q", core.ErrReportNotFound, id)
	}
	if err != nil {
		return core.ReportRecord{}, fmt.Errorf("get report: %w", err)
	}
	return rec, nil
}

// ListReports returns reports matching f, newest first.
func (s *Store) ListReports(ctx context.Context, f core.ReportFilter) ([]core.ReportRecord, error) {
	if f.Limit <= 0 {
		f.Limit = core.DefaultReportLimit
	}

	wb := newWhereBuilder()
	wb.Add("dataset", f.Dataset)
	wb.Add("outcome", string(f.Outcome))
	where, args := wb.Build()

	query := fmt.Sprintf(`SELECT %s FROM validation_reports%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reportColumns, where, wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	recs, err := pgx.CollectRows(rows, scanReport)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return recs, nil
}

// ReportStats counts stored reports by outcome.
func (s *Store) ReportStats(ctx context.Context) (core.ReportStats, error) {
	var st core.ReportStats
	err := s.pool.QueryRow(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE outcome = 'accepted'),
		COUNT(*) FILTER (WHERE outcome = 'rejected'),
		COUNT(*) FILTER (WHERE outcome = 'unresolved')
		FROM validation_reports`).Scan(&st.Total, &st.Accepted, &st.Rejected, &st.Unresolved)
	if err != nil {
		return core.ReportStats{}, fmt.Errorf("report stats: %w", err)
	}
	return st, nil
}

func scanReport(row pgx.CollectableRow) (core.ReportRecord, error) {
	var (
		id        pgtype.UUID
		body      []byte
		ipAddress *netip.Addr
		userAgent pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &body, &ipAddress, &userAgent, &createdAt); err != nil {
		return core.ReportRecord{}, err
	}

	rec := core.ReportRecord{
		ID:        pgUUIDToString(id),
		Report:    &core.Report{},
		CreatedAt: createdAt.Time,
	}
	if err := json.Unmarshal(body, rec.Report); err != nil {
		return core.ReportRecord{}, fmt.Errorf("decode report %s: %w", rec.ID, err)
	}
	if ipAddress != nil {
		rec.IPAddress = ipAddress.String()
	}
	if userAgent.Valid {
		rec.UserAgent = userAgent.String
	}
	return rec, nil
}

// toPgUUID converts a string to pgtype.UUID. Invalid input is not Valid.
func toPgUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// pgUUIDToString returns "" for an invalid UUID.
func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// toPgText maps "" to NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgTimestamp converts t, using now() for the zero time since created_at
// is NOT NULL.
func toPgTimestamp(t time.Time, now func() time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		t = now()
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// toInet returns nil, stored as NULL, for anything that is not an IP address.
func toInet(s string) *netip.Addr {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil
	}
	return &addr
}
