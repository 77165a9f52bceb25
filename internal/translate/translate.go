package translate

import (
	"errors"
	"fmt"
	"strings"

	"astra-msgdb/internal/entity"
	"astra-msgdb/internal/script"

	"github.com/rs/zerolog/log"
)

var (
	// ErrParse wraps a script that could not be parsed.
	ErrParse = errors.New("parse script")
	// ErrRepack wraps a translated script whose packed form did not parse again.
	ErrRepack = errors.New("repack translated script")
)

// Lookup resolves a message key to its localized text.
type Lookup interface {
	Message(key string) (string, bool)
}

// Record is one entity as seen by the dictionary builder.
type Record struct {
	ID         string
	MessageKey string
}

// Kind is one entity table with the identifier prefix its scripts omit.
type Kind struct {
	Name    string
	Prefix  string
	Records []Record
}

const (
	personPrefix = "PID_"
	godPrefix    = "GID_"
)

// Kinds lists the entity kinds scripts refer to, in merge order: persons
// first, then gods. A god's entry replaces a person's with the same bare id.
func Kinds(t entity.Tables) []Kind {
	persons := Kind{Name: "person", Prefix: personPrefix, Records: make([]Record, 0, len(t.Persons))}
	for _, p := range t.Persons {
		persons.Records = append(persons.Records, Record{ID: p.PID, MessageKey: p.Name})
	}
	gods := Kind{Name: "god", Prefix: godPrefix, Records: make([]Record, 0, len(t.Gods))}
	for _, g := range t.Gods {
		gods.Records = append(gods.Records, Record{ID: g.GID, MessageKey: g.MID})
	}
	return []Kind{persons, gods}
}

// Dictionary maps bare entity ids to display text.
type Dictionary map[string]string

// Resolve returns the display text for a script identifier. Identifiers are
// matched as written first, then with their entity prefix removed.
func (d Dictionary) Resolve(id string) (string, bool) {
	if text, ok := d[id]; ok {
		return text, true
	}
	for _, prefix := range []string{personPrefix, godPrefix} {
		if bare, ok := strings.CutPrefix(id, prefix); ok && bare != "" {
			if text, ok := d[bare]; ok {
				return text, true
			}
		}
	}
	return "", false
}

// BuildDictionary maps each record's id, minus its kind's prefix, to the
// message its key resolves to. Records without the prefix, with nothing after
// it, or whose message is missing are skipped.
func BuildDictionary(kinds []Kind, lookup Lookup) Dictionary {
	dict := make(Dictionary)
	owner := make(map[string]string)
	for _, k := range kinds {
		for _, r := range k.Records {
			bare, ok := strings.CutPrefix(r.ID, k.Prefix)
			if !ok || bare == "" {
				continue
			}
			message, ok := lookup.Message(r.MessageKey)
			if !ok {
				continue
			}
			if prev, clash := owner[bare]; clash && prev != k.Name {
				log.Debug().Str("id", bare).Str("kept", k.Name).Str("replaced", prev).Msg("Entity id collision")
			}
			dict[bare] = message
			owner[bare] = k.Name
		}
	}
	return dict
}

// Substitute replaces Window speakers, Animation targets and Alias actual
// names found in dict, leaving every other field untouched. It returns the
// number of fields replaced.
func Substitute(s *script.Script, dict Dictionary) int {
	replaced := 0
	swap := func(field *string) {
		if text, ok := dict.Resolve(*field); ok {
			*field = text
			replaced++
		}
	}

	for i := range s.Entries {
		tokens := s.Entries[i].Tokens
		for j, tok := range tokens {
			switch t := tok.(type) {
			case script.Window:
				swap(&t.Speaker)
				tokens[j] = t
			case script.Animation:
				swap(&t.Target)
				tokens[j] = t
			case script.Alias:
				swap(&t.Actual)
				tokens[j] = t
			}
		}
	}
	return replaced
}

// Translator renders scripts with entity ids replaced by display names.
type Translator struct {
	lookup Lookup
}

// NewTranslator creates a translator reading messages from lookup.
func NewTranslator(lookup Lookup) *Translator {
	return &Translator{lookup: lookup}
}

// Translate builds a fresh dictionary from tables, substitutes it into src
// and returns the canonical text of the result. The substituted script is
// packed and parsed again so callers always receive re-tokenized output.
func (tr *Translator) Translate(src string, tables entity.Tables) (string, error) {
	dict := BuildDictionary(Kinds(tables), tr.lookup)

	s, err := script.Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}

	replaced := Substitute(s, dict)

	reparsed, err := script.Parse(script.Pack(s))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRepack, err)
	}

	log.Debug().Int("entries", len(reparsed.Entries)).Int("dictionary", len(dict)).Int("replaced", replaced).Msg("Script translated")
	return script.Pack(reparsed), nil
}
