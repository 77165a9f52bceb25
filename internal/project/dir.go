package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"astra-msgdb/internal/archive"
	"astra-msgdb/internal/filewalker"
	"astra-msgdb/internal/worker"

	"github.com/rs/zerolog/log"
)

// DirBackend stores each archive as one file under Root. The file extension
// picks the encoding, and the relative path without extension is the archive
// name.
type DirBackend struct {
	Root string
	// Order lists archive names to load first, in this order. Remaining
	// archives follow in lexical order.
	Order   []string
	Workers int

	mu    sync.Mutex
	files map[string]filewalker.FileEntry
}

// NewDirBackend creates a directory backend.
func NewDirBackend(root string, order []string, workers int) *DirBackend {
	return &DirBackend{Root: root, Order: order, Workers: workers}
}

func (b *DirBackend) Load(ctx context.Context) ([]*archive.Archive, error) {
	w := filewalker.NewWalker()
	entries, err := w.Walk(b.Root)
	if err != nil {
		return nil, err
	}
	entries = orderEntries(entries, b.Order)

	pool := worker.NewPool[filewalker.FileEntry, map[string]string](b.Workers, func(ctx context.Context, entry filewalker.FileEntry) (map[string]string, error) {
		return w.ReadFile(entry)
	})
	results := pool.Execute(ctx, entries)
	if err := worker.FirstError(results); err != nil {
		return nil, err
	}

	files := make(map[string]filewalker.FileEntry, len(entries))
	archives := make([]*archive.Archive, len(results))
	for i, r := range results {
		files[r.Input.Name] = r.Input
		archives[i] = archive.New(r.Input.Name, r.Result)
		log.Debug().Str("archive", r.Input.Name).Str("format", r.Input.Format.Name()).Int("keys", len(r.Result)).Msg("Archive loaded")
	}

	b.mu.Lock()
	b.files = files
	b.mu.Unlock()
	return archives, nil
}

func (b *DirBackend) Save(ctx context.Context, a *archive.Archive) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	entry, ok := b.files[a.Name()]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("archive %s was not loaded from %s", a.Name(), b.Root)
	}

	data, err := entry.Format.Encode(a.Snapshot())
	if err != nil {
		return fmt.Errorf("encode %s: %w", entry.Path, err)
	}
	return writeFileAtomic(entry.Path, data)
}

// orderEntries moves the names listed in order to the front, keeping the
// remaining entries in their existing order.
func orderEntries(entries []filewalker.FileEntry, order []string) []filewalker.FileEntry {
	if len(order) == 0 {
		return entries
	}

	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		byName[e.Name] = i
	}

	out := make([]filewalker.FileEntry, 0, len(entries))
	placed := make(map[string]bool, len(order))
	for _, name := range order {
		i, ok := byName[name]
		if !ok {
			log.Warn().Str("archive", name).Msg("Ordered archive not found")
			continue
		}
		if placed[name] {
			continue
		}
		placed[name] = true
		out = append(out, entries[i])
	}
	for _, e := range entries {
		if !placed[e.Name] {
			out = append(out, e)
		}
	}
	return out
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
