package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"astra-msgdb/internal/archive"

	"github.com/rs/zerolog/log"
)

// Walker traverses directories and dispatches message files to the archive
// format registered for their extension.
type Walker struct{}

// NewWalker creates a Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// FileEntry represents a discovered archive file.
type FileEntry struct {
	Path   string
	Name   string // slash-separated path relative to the root, without extension
	Ext    string
	Format archive.Format
}

// Walk discovers all archive files under root, sorted by archive name.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry
	seen := make(map[string]string)

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		format, ok := archive.FormatFor(ext)
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("archive %q defined by both %s and %s", name, prev, path)
		}
		seen[name] = path

		entries = append(entries, FileEntry{
			Path:   path,
			Name:   name,
			Ext:    ext,
			Format: format,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	slices.SortFunc(entries, func(a, b FileEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered archives")
	return entries, nil
}

// ReadFile decodes a single archive file.
func (w *Walker) ReadFile(entry FileEntry) (map[string]string, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Path, err)
	}
	messages, err := entry.Format.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.Path, err)
	}
	return messages, nil
}
