// Package msgdb aggregates named message archives into one key space.
//
// Archives are merged in the order given: when two archives define the same
// key, the later one wins. The aggregate is built once; edits made through
// Update are mirrored into both the owning archive and the index, but changes
// made to an archive by any other path are not seen until the index is rebuilt.
package msgdb

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// Archive is the capability the index needs from a message archive.
type Archive interface {
	Name() string
	// Read calls fn with a consistent view of the archive's contents.
	Read(fn func(data map[string]string))
	// Write calls fn with a mutable copy and commits it when fn returns true.
	Write(fn func(data map[string]string) bool) bool
}

// Source enumerates the archives of an open project.
type Source interface {
	ListArchives() []string
	GetArchive(name string) (Archive, bool)
	OverrideArchiveName() (string, bool)
}

// KeyRecord is the aggregate view of one key: its value and the position of
// the archive that owns it.
type KeyRecord struct {
	Value   string
	Archive int
}

// DB is the aggregate message index plus its write path.
//
// A DB is not safe for concurrent use. Hold it from one owner and route every
// message edit through Update.
type DB struct {
	messages       map[string]KeyRecord
	archives       []Archive
	archivesByName map[string]int
	override       string
}

// Build aggregates archives in order. override, when non-empty, names the
// archive new keys are created in ahead of any per-call fallback. Archive
// names must be unique: an archive whose name was already seen is skipped
// with a warning and contributes no keys.
func Build(archives []Archive, override string) *DB {
	db := &DB{
		messages:       make(map[string]KeyRecord),
		archives:       make([]Archive, 0, len(archives)),
		archivesByName: make(map[string]int, len(archives)),
		override:       override,
	}

	for _, a := range archives {
		if first, dup := db.archivesByName[a.Name()]; dup {
			log.Warn().Str("archive", a.Name()).Int("kept_position", first).Msg("Duplicate archive name, skipping")
			continue
		}
		pos := len(db.archives)
		a.Read(func(data map[string]string) {
			for key, value := range data {
				db.messages[key] = KeyRecord{Value: value, Archive: pos}
			}
		})
		db.archivesByName[a.Name()] = pos
		db.archives = append(db.archives, a)
	}

	log.Debug().Int("archives", len(db.archives)).Int("keys", len(db.messages)).Msg("Message index built")
	return db
}

// FromSource builds the index from every archive the source can open, in
// the source's listing order. Archives that fail to open are skipped.
func FromSource(src Source) *DB {
	var archives []Archive
	for _, name := range src.ListArchives() {
		a, ok := src.GetArchive(name)
		if !ok {
			log.Warn().Str("archive", name).Msg("Archive could not be opened, skipping")
			continue
		}
		archives = append(archives, a)
	}
	override, _ := src.OverrideArchiveName()
	return Build(archives, override)
}

// Message returns the aggregate value for key.
func (db *DB) Message(key string) (string, bool) {
	rec, ok := db.messages[key]
	return rec.Value, ok
}

// Record returns the full aggregate record for key.
func (db *DB) Record(key string) (KeyRecord, bool) {
	rec, ok := db.messages[key]
	return rec, ok
}

// Len returns the number of distinct keys.
func (db *DB) Len() int { return len(db.messages) }

// Archives returns archive names in aggregation order.
func (db *DB) Archives() []string {
	names := make([]string, len(db.archives))
	for i, a := range db.archives {
		names[i] = a.Name()
	}
	return names
}

// ArchiveIndex returns the aggregation position of the named archive.
func (db *DB) ArchiveIndex(name string) (int, bool) {
	pos, ok := db.archivesByName[name]
	return pos, ok
}

// ArchiveName returns the name of the archive at position pos. It panics if
// pos is out of range.
func (db *DB) ArchiveName(pos int) string {
	return db.archives[pos].Name()
}

// Entry is one key of the aggregate, as listed by Entries.
type Entry struct {
	Key     string
	Value   string
	Archive string
}

// Entries lists every key sorted by key.
func (db *DB) Entries() []Entry {
	entries := make([]Entry, 0, len(db.messages))
	for key, rec := range db.messages {
		entries = append(entries, Entry{
			Key:     key,
			Value:   rec.Value,
			Archive: db.archives[rec.Archive].Name(),
		})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})
	return entries
}
