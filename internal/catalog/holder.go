package catalog

// holder.go publishes catalogs to concurrent readers.
//
// A Holder owns the current *Catalog behind an atomic pointer. Readers call
// Current once per unit of work and keep using that snapshot; a reload builds
// a complete new catalog and swaps the pointer, so a reader never observes a
// partially built tree. A failed reload leaves the previous catalog in place.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Source supplies the raw definitions document.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	Read() ([]byte, error)
}

// FileSource reads definitions from a file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Read() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.Path, err)
	}
	return data, nil
}

// EmbeddedSource serves the definitions compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded:tables.yaml" }

func (EmbeddedSource) Read() ([]byte, error) { return embeddedTables, nil }

// BytesSource serves a fixed document. Mostly useful in tests.
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string { return s.Label }

func (s BytesSource) Read() ([]byte, error) { return s.Data, nil }

// Holder is the publication point for the active catalog.
type Holder struct {
	source  Source
	current atomic.Pointer[Catalog]

	// reloadMu serializes rebuilds; readers never take it.
	reloadMu   sync.Mutex
	lastReload time.Time
}

// NewHolder builds the initial catalog from source. An error here means the
// definitions cannot be trusted and the caller should not start serving.
func NewHolder(source Source) (*Holder, error) {
	cat, err := buildFrom(source)
	if err != nil {
		return nil, err
	}
	h := &Holder{source: source, lastReload: time.Now()}
	h.current.Store(cat)
	catalogLeaves.Set(float64(len(cat.Leaves())))
	return h, nil
}

// NewStaticHolder wraps an already built catalog. Reload re-reads nothing and
// always reports no change.
func NewStaticHolder(cat *Catalog) *Holder {
	h := &Holder{lastReload: time.Now()}
	h.current.Store(cat)
	return h
}

func buildFrom(source Source) (*Catalog, error) {
	data, err := source.Read()
	if err != nil {
		return nil, err
	}
	return build(data, source.Name())
}

// Current returns the published catalog.
func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

// SourceName returns the name of the source, or "static".
func (h *Holder) SourceName() string {
	if h.source == nil {
		return "static"
	}
	return h.source.Name()
}

// LastReload returns when the published catalog was swapped in.
func (h *Holder) LastReload() time.Time {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	return h.lastReload
}

// Reload rebuilds the catalog from the source and publishes it if the source
// bytes changed. It reports whether a new catalog was published.
func (h *Holder) Reload(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if h.source == nil {
		return false, nil
	}

	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	cat, err := buildFrom(h.source)
	if err != nil {
		catalogReloadTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("reload catalog: %w", err)
	}
	if cat.Fingerprint() == h.Current().Fingerprint() {
		catalogReloadTotal.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	h.current.Store(cat)
	h.lastReload = time.Now()
	catalogReloadTotal.WithLabelValues("reloaded").Inc()
	catalogLeaves.Set(float64(len(cat.Leaves())))
	return true, nil
}

// Watch polls the source every interval and reloads when it changes. It
// returns when ctx is cancelled. Reload failures are logged and the previous
// catalog stays published.
func (h *Holder) Watch(ctx context.Context, interval time.Duration) {
	slog.Info("catalog watcher started",
		"source", h.SourceName(),
		"interval", interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog watcher stopped")
			return
		case <-ticker.C:
			changed, err := h.Reload(ctx)
			if err != nil {
				slog.Error("catalog reload failed, keeping previous catalog",
					"source", h.SourceName(),
					"error", err,
				)
				continue
			}
			if changed {
				slog.Info("catalog reloaded",
					"source", h.SourceName(),
					"fingerprint", shortFingerprint(h.Current().Fingerprint()),
					"datasets", len(h.Current().Datasets()),
				)
			}
		}
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
