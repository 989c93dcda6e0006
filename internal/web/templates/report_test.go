package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
	"github.com/JonMunkholm/woudc-registry/internal/core"
)

func TestReportPage_RendersEntriesEscaped(t *testing.T) {
	cat, err := catalog.Build([]byte("X:\n  1.0:\n    required: {T: [a, b]}\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	cand := core.NewCandidate(catalog.Identity{Dataset: "X", Version: "1.0"}).
		AddTable("T", "a").
		AddTable("<script>", "x")
	cand.Source = "upload.csv"
	report := core.Validate(cand, cat)

	var buf bytes.Buffer
	view := ReportView{ID: "abc", CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Report: report}
	if err := ReportPage(view).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{"upload.csv", "rejected", "COL001", "Add the column to the table header", "2024-05-01T12:00:00Z", "&lt;script&gt;"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("table names must be escaped")
	}
}

func TestReportPage_Unresolved(t *testing.T) {
	cat, err := catalog.Build([]byte("X:\n  1.0:\n    required: {T: [a]}\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	report := core.Validate(core.NewCandidate(catalog.Identity{Dataset: "Y", Version: "1.0"}), cat)

	var buf bytes.Buffer
	if err := ReportPage(ReportView{ID: "r1", Report: report}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "DS001") {
		t.Errorf("unresolved page should show the resolution code: %s", buf.String())
	}
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorPage("Report not found", "Check the link", "DB008").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "DB008") || !strings.Contains(buf.String(), `role="alert"`) {
		t.Errorf("unexpected page: %s", buf.String())
	}
}
