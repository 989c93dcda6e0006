// Package ingest verifies batches of extended CSV files.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/extcsv"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 4

// Options configures a Runner.
type Options struct {
	Concurrency int

	// Record stores every report through the service's report store.
	Record bool

	// Extensions selects files when walking directories. Files named
	// explicitly are always read. Defaults to ".csv".
	Extensions []string

	// Validation options applied on top of the service's own.
	Validation []core.Option
}

// Result is the outcome for one file.
type Result struct {
	Path     string
	Report   *core.Report
	ReportID string

	// Err is set when the file could not be read, parsed or validated.
	Err error
}

// Passed reports whether the file was read and accepted.
func (r Result) Passed() bool {
	return r.Err == nil && r.Report != nil && r.Report.Accepted()
}

// Summary collects the results of a run in input order.
type Summary struct {
	Results []Result
	Passed  int
	Failed  int
	Errored int
}

// OK reports whether every file passed.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Errored == 0
}

// Runner verifies files with bounded parallelism.
type Runner struct {
	svc  *core.Service
	opts Options
}

// New creates a Runner that validates through svc.
func New(svc *core.Service, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".csv"}
	}
	return &Runner{svc: svc, opts: opts}
}

// Run verifies every file named by paths, descending into directories.
// Per-file problems are recorded in the summary; the returned error is only
// set when paths cannot be listed or ctx ends.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, err := Collect(paths, r.opts.Extensions)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.verify(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	s := &Summary{Results: results}
	for _, res := range results {
		switch {
		case res.Err != nil:
			s.Errored++
		case res.Passed():
			s.Passed++
		default:
			s.Failed++
		}
	}
	slog.Info("batch verification complete",
		"files", len(results),
		"passed", s.Passed,
		"failed", s.Failed,
		"errors", s.Errored,
	)
	return s, nil
}

func (r *Runner) verify(ctx context.Context, path string) Result {
	res := Result{Path: path}

	f, err := extcsv.ParseFile(path)
	if err != nil {
		res.Err = err
		slog.Warn("file not readable", "path", path, "error", err)
		return res
	}
	cand, err := f.Candidate()
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", filepath.Base(path), err)
		return res
	}

	if r.opts.Record {
		rec, err := r.svc.Submit(ctx, cand, r.opts.Validation...)
		if err != nil {
			res.Err = err
			return res
		}
		res.Report, res.ReportID = rec.Report, rec.ID
	} else {
		report, err := r.svc.Validate(ctx, cand, r.opts.Validation...)
		if err != nil {
			res.Err = err
			return res
		}
		res.Report = report
	}

	slog.Debug("file verified", "path", path, "outcome", res.Report.Outcome())
	return res
}

// Collect expands paths into a list of files. Directories are walked
// recursively and contribute files whose extension is in exts, compared
// case-insensitively. Files under a directory are sorted; explicit paths keep
// their order. A path listed twice is read once.
func Collect(paths []string, exts []string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		slices.Sort(found)
		for _, f := range found {
			add(f)
		}
	}
	return out, nil
}
