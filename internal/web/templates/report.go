// Package templates renders the registry's HTML pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/woudc-registry/internal/core"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:64rem;color:#1f2937}` +
	`table{border-collapse:collapse;width:100%;margin-bottom:1.5rem}` +
	`th,td{text-align:left;padding:.35rem .6rem;border-bottom:1px solid #e5e7eb}` +
	`.accepted{color:#047857}.rejected{color:#b91c1c}.unresolved{color:#b45309}` +
	`.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.375rem}` +
	`code{background:#f3f4f6;padding:0 .25rem}`

// ReportView is what the report page shows.
type ReportView struct {
	ID        string
	CreatedAt time.Time
	Report    *core.Report
}

// ReportPage renders a stored validation report.
func ReportPage(v ReportView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		r := v.Report
		title := r.Source()
		if title == "" {
			title = v.ID
		}

		b := &builder{}
		b.open(title)
		b.printf(`<h1>%s</h1>`, esc(title))
		b.printf(`<p class="%s"><strong>%s</strong></p>`, esc(string(r.Outcome())), esc(r.Summary()))

		b.raw(`<table>`)
		b.row("Report", v.ID)
		b.row("Received", v.CreatedAt.UTC().Format(time.RFC3339))
		b.row("Declared", r.Declared().String())
		if id, ok := r.Resolved(); ok {
			b.row("Checked against", id.String())
		}
		b.row("Catalog", r.CatalogFingerprint())
		b.raw(`</table>`)

		if err := r.ResolutionError(); err != nil {
			msg := core.MapError(err)
			b.alert(msg.Message, err.Error(), msg.Code)
		}

		b.entries("Violations", r.Violations())
		b.entries("Notices", r.Notices())
		b.close()

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorPage renders a full page around an error message.
func ErrorPage(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := &builder{}
		b.open("Error")
		b.alert(message, action, code)
		b.close()
		_, err := io.WriteString(w, b.String())
		return err
	})
}

type builder struct {
	strings.Builder
}

func (b *builder) raw(s string) { b.WriteString(s) }

func (b *builder) printf(format string, args ...any) { fmt.Fprintf(b, format, args...) }

func (b *builder) open(title string) {
	b.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head><body>`,
		esc(title), pageStyle)
}

func (b *builder) close() { b.raw(`</body></html>`) }

func (b *builder) row(label, value string) {
	b.printf(`<tr><th>%s</th><td>%s</td></tr>`, esc(label), esc(value))
}

func (b *builder) alert(message, detail, code string) {
	b.printf(`<div class="alert" role="alert"><p><strong>%s</strong>`, esc(message))
	if code != "" {
		b.printf(` <code>%s</code>`, esc(code))
	}
	b.raw(`</p>`)
	if detail != "" {
		b.printf(`<p>%s</p>`, esc(detail))
	}
	b.raw(`</div>`)
}

func (b *builder) entries(heading string, entries []core.Violation) {
	b.printf(`<h2>%s (%d)</h2>`, esc(heading), len(entries))
	if len(entries) == 0 {
		return
	}
	b.raw(`<table><thead><tr><th>Code</th><th>Table</th><th>Column</th><th>Message</th><th>Action</th></tr></thead><tbody>`)
	for _, e := range entries {
		b.printf(`<tr><td><code>%s</code></td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			esc(e.Code), esc(e.Table), esc(e.Column), esc(e.Message), esc(core.MessageFor(e.Kind).Action))
	}
	b.raw(`</tbody></table>`)
}

func esc(s string) string { return templ.EscapeString(s) }
