package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
	"github.com/JonMunkholm/woudc-registry/internal/core"
)

func TestWhereBuilder(t *testing.T) {
	wb := newWhereBuilder()
	where, args := wb.Build()
	assert.Equal(t, "", where)
	assert.Nil(t, args)
	assert.Equal(t, 1, wb.NextArgIndex())

	wb.Add("dataset", "OzoneSonde")
	wb.Add("outcome", "")
	wb.Add("version", "1.0")
	where, args = wb.Build()
	assert.Equal(t, " WHERE dataset = $1 AND version = $2", where)
	assert.Equal(t, []any{"OzoneSonde", "1.0"}, args)
	assert.Equal(t, 3, wb.NextArgIndex())
}

func TestConversions(t *testing.T) {
	id := uuid.New()
	pg := toPgUUID(id.String())
	assert.True(t, pg.Valid)
	assert.Equal(t, id.String(), pgUUIDToString(pg))

	assert.False(t, toPgUUID("nope").Valid)
	assert.Equal(t, "", pgUUIDToString(toPgUUID("")))

	assert.False(t, toPgText("").Valid)
	assert.Equal(t, "x", toPgText("x").String)

	fixed := time.Date(2024, 3, 2, 23, 15, 0, 0, time.UTC)
	now := func() time.Time { return fixed }
	assert.Equal(t, pgtype.Timestamptz{Time: fixed, Valid: true}, toPgTimestamp(time.Time{}, now))
	given := fixed.Add(-time.Hour)
	assert.Equal(t, pgtype.Timestamptz{Time: given, Valid: true}, toPgTimestamp(given, now))

	assert.Nil(t, toInet("not an ip"))
	if addr := toInet("2001:db8::1"); assert.NotNil(t, addr) {
		assert.Equal(t, "2001:db8::1", addr.String())
	}
}

// openTestStore connects to WOUDC_TEST_DATABASE_URL, skipping the test when
// it is not set.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("WOUDC_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WOUDC_TEST_DATABASE_URL not set")
	}
	s, err := Open(context.Background(), Config{URL: dsn, Migrate: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cat, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("Embedded() error = %v", err)
	}
	cand := core.NewCandidate(catalog.Identity{Dataset: "OzoneSonde", Version: "1.0"}).
		AddTable("FLIGHT_SUMMARY", "IntegratedO3")
	cand.Source = "store_test.csv"

	rec := core.ReportRecord{
		ID:        uuid.New().String(),
		Report:    core.Validate(cand, cat),
		IPAddress: "192.0.2.10",
		UserAgent: "store-test",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if !assert.NoError(t, s.SaveReport(ctx, rec)) {
		return
	}

	got, err := s.GetReport(ctx, rec.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, "192.0.2.10", got.IPAddress)
		assert.Equal(t, core.Rejected, got.Report.Outcome())
		assert.Equal(t, rec.Report.Violations(), got.Report.Violations())
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	}

	list, err := s.ListReports(ctx, core.ReportFilter{Dataset: "OzoneSonde", Outcome: core.Rejected, Limit: 500})
	if assert.NoError(t, err) {
		found := false
		for _, r := range list {
			found = found || r.ID == rec.ID
		}
		assert.True(t, found, "ListReports() should include the saved report")
	}

	stats, err := s.ReportStats(ctx)
	if assert.NoError(t, err) {
		assert.GreaterOrEqual(t, stats.Rejected, int64(1))
		assert.Equal(t, stats.Total, stats.Accepted+stats.Rejected+stats.Unresolved)
	}

	_, err = s.GetReport(ctx, uuid.New().String())
	assert.True(t, errors.Is(err, core.ErrReportNotFound))

	// A record without a creation time is stamped on insert.
	undated := core.ReportRecord{ID: uuid.New().String(), Report: rec.Report}
	if assert.NoError(t, s.SaveReport(ctx, undated)) {
		got, err := s.GetReport(ctx, undated.ID)
		if assert.NoError(t, err) {
			assert.False(t, got.CreatedAt.IsZero())
		}
	}
}
