// Package engine is the single-owner handle an editor session holds over the
// message index and the script translator.
package engine

import (
	"astra-msgdb/internal/entity"
	"astra-msgdb/internal/msgdb"
	"astra-msgdb/internal/translate"

	"github.com/rs/zerolog/log"
)

// Engine wraps a message index. It is not safe for concurrent use; exactly one
// owner holds it and passes it by pointer to whatever needs to read or edit.
type Engine struct {
	db         *msgdb.DB
	translator *translate.Translator
}

// New creates an engine over db.
func New(db *msgdb.DB) *Engine {
	return &Engine{db: db, translator: translate.NewTranslator(db)}
}

// FromSource builds the index from every archive src can open.
func FromSource(src msgdb.Source) *Engine {
	return New(msgdb.FromSource(src))
}

// DB exposes the underlying index for read-only reporting.
func (e *Engine) DB() *msgdb.DB { return e.db }

// Message returns the current text for key.
func (e *Engine) Message(key string) (string, bool) {
	return e.db.Message(key)
}

// WithMessageMut hands mutate the value slot for key. mutate receives nil when
// there is nothing to edit and reports whether it changed the value.
func (e *Engine) WithMessageMut(key, defaultArchive string, mutate func(value *string) bool) {
	e.db.Update(key, defaultArchive, mutate)
}

// TranslateScript renders script with entity ids replaced by their display
// names. It reports false when the script cannot be translated.
func (e *Engine) TranslateScript(script string, tables entity.Tables) (string, bool) {
	out, err := e.translator.Translate(script, tables)
	if err != nil {
		log.Debug().Err(err).Msg("Script not translated")
		return "", false
	}
	return out, true
}

// TranslateScriptErr is TranslateScript with the failure cause kept.
func (e *Engine) TranslateScriptErr(script string, tables entity.Tables) (string, error) {
	return e.translator.Translate(script, tables)
}
