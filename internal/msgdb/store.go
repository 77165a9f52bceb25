package msgdb

import (
	"github.com/rs/zerolog/log"
)

// Update lets mutate edit the message stored under key.
//
// mutate receives a pointer to a staged copy of the value, or nil when there
// is nothing to edit: key is empty, or key is new and neither the override
// archive nor fallbackArchive is registered. A new key starts as "" in the
// override archive if one is registered, else in fallbackArchive.
//
// When mutate returns true the staged value is written to the owning archive
// and mirrored into the index inside the archive's exclusive write. When it
// returns false nothing is persisted, not even a newly staged key.
func (db *DB) Update(key, fallbackArchive string, mutate func(value *string) bool) {
	if key == "" {
		mutate(nil)
		return
	}

	rec, ok := db.stage(key, fallbackArchive)
	if !ok {
		log.Debug().Str("key", key).Str("fallback", fallbackArchive).Msg("No archive for new message, edit dropped")
		mutate(nil)
		return
	}

	if !mutate(&rec.Value) {
		return
	}

	prev, existed := db.messages[key]
	committed := db.archives[rec.Archive].Write(func(data map[string]string) bool {
		data[key] = rec.Value
		db.messages[key] = rec
		return true
	})
	if committed {
		return
	}

	// The archive refused the write; keep the index in step with it.
	if existed {
		db.messages[key] = prev
	} else {
		delete(db.messages, key)
	}
	log.Warn().Str("key", key).Str("archive", db.archives[rec.Archive].Name()).Msg("Archive rejected message write")
}

// stage returns a copy of the record for key, or a fresh empty record in the
// archive new keys are created in.
func (db *DB) stage(key, fallbackArchive string) (KeyRecord, bool) {
	if rec, ok := db.messages[key]; ok {
		return rec, true
	}
	pos, ok := db.newKeyArchive(fallbackArchive)
	if !ok {
		return KeyRecord{}, false
	}
	return KeyRecord{Archive: pos}, true
}

func (db *DB) newKeyArchive(fallbackArchive string) (int, bool) {
	if db.override != "" {
		if pos, ok := db.archivesByName[db.override]; ok {
			return pos, true
		}
	}
	pos, ok := db.archivesByName[fallbackArchive]
	return pos, ok
}
