package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const (
	holderV1 = "X:\n  1.0:\n    required: {A: [a]}\n"
	holderV2 = "X:\n  1.0:\n    required: {A: [a]}\n  2.0:\n    required: {B: [b]}\n"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewHolder_MalformedIsFatal(t *testing.T) {
	_, err := NewHolder(BytesSource{Label: "bad", Data: []byte("X: {}\n")})
	if !errors.Is(err, ErrMalformedSchema) {
		t.Fatalf("NewHolder() error = %v, want ErrMalformedSchema", err)
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) && schemaErr.Source != "bad" {
		t.Errorf("Source = %q, want %q", schemaErr.Source, "bad")
	}
}

func TestNewHolder_MissingFile(t *testing.T) {
	_, err := NewHolder(FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("NewHolder() error = %v, want os.ErrNotExist", err)
	}
}

func TestHolder_ReloadSwapsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	writeFile(t, path, holderV1)

	h, err := NewHolder(FileSource{Path: path})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	before := h.Current()

	changed, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if changed {
		t.Error("Reload() of unchanged source should report no change")
	}
	if h.Current() != before {
		t.Error("unchanged reload should keep the same catalog")
	}

	writeFile(t, path, holderV2)
	changed, err = h.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !changed {
		t.Fatal("Reload() should report change")
	}

	ds, _ := h.Current().Dataset("X")
	if _, ok := ds.Version("2.0"); !ok {
		t.Error("new catalog should have version 2.0")
	}

	// Snapshots taken before the swap keep working unchanged.
	oldDS, _ := before.Dataset("X")
	if _, ok := oldDS.Version("2.0"); ok {
		t.Error("old snapshot must not see version 2.0")
	}
}

func TestHolder_FailedReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	writeFile(t, path, holderV1)

	h, err := NewHolder(FileSource{Path: path})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	before := h.Current()

	writeFile(t, path, "X:\n  1.0:\n    required: {A: []}\n")
	changed, err := h.Reload(context.Background())
	if !errors.Is(err, ErrMalformedSchema) {
		t.Fatalf("Reload() error = %v, want ErrMalformedSchema", err)
	}
	if changed {
		t.Error("failed reload must not report change")
	}
	if h.Current() != before {
		t.Error("failed reload must keep the previous catalog")
	}
}

func TestHolder_ReloadCancelled(t *testing.T) {
	h, err := NewHolder(EmbeddedSource{})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Reload(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Reload() error = %v, want context.Canceled", err)
	}
}

func TestHolder_StaticNeverReloads(t *testing.T) {
	cat := mustEmbedded(t)
	h := NewStaticHolder(cat)

	changed, err := h.Reload(context.Background())
	if err != nil || changed {
		t.Errorf("Reload() = %v, %v; want false, nil", changed, err)
	}
	if h.Current() != cat {
		t.Error("static holder should publish the given catalog")
	}
	if h.SourceName() != "static" {
		t.Errorf("SourceName() = %q", h.SourceName())
	}
}

func TestHolder_ReadersSeeCompleteCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	writeFile(t, path, holderV1)

	h, err := NewHolder(FileSource{Path: path})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				cat := h.Current()
				if _, err := cat.Resolve(Identity{Dataset: "X", Version: "1.0"}); err != nil {
					t.Errorf("Resolve() on published catalog error = %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			writeFile(t, path, holderV2)
		} else {
			writeFile(t, path, holderV1)
		}
		if _, err := h.Reload(context.Background()); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
	}
	cancel()
	wg.Wait()
}

func TestHolder_WatchPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	writeFile(t, path, holderV1)

	h, err := NewHolder(FileSource{Path: path})
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Watch(ctx, 10*time.Millisecond)
		close(done)
	}()

	writeFile(t, path, holderV2)

	deadline := time.After(2 * time.Second)
	for {
		ds, _ := h.Current().Dataset("X")
		if _, ok := ds.Version("2.0"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watcher did not publish the new catalog")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
