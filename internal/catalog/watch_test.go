package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tsfile/internal/tsfile"
)

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "closed.tsf")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := &Resource{Path: path, Closed: true, ChunkMetas: map[string][]*tsfile.ChunkMetaData{
		"root.sg.d1.s1": {{MeasurementUID: "root.sg.d1.s1"}},
	}}
	cat := NewStaticCatalogue([]*Resource{r})

	w, err := NewWatcher(cat, dir, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(path, []byte("v2, longer now"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		metas, err := cat.ChunkMetas(path, "root.sg.d1.s1")
		if err != nil {
			t.Fatalf("ChunkMetas: %v", err)
		}
		if metas == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected cached chunk metadata to be invalidated after rewrite")
}

func TestWatcherRemovesOnDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.tsf")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := &Resource{Path: path, Closed: true}
	cat := NewStaticCatalogue([]*Resource{r})

	w, err := NewWatcher(cat, dir, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go w.Run(ctx)

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cat.Resource(path) == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected resource to be removed from the catalogue after deletion")
}
