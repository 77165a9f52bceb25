package archive

import (
	"slices"
	"strings"
)

// Format is the interface for all archive file encodings.
type Format interface {
	// Name is the short format identifier (json, yaml, toml, ini, tsv).
	Name() string
	// CanParse returns true if this format handles the given file extension.
	CanParse(ext string) bool
	// Decode reads a flat key/value table.
	Decode(data []byte) (map[string]string, error)
	// Encode writes a flat key/value table with keys in sorted order.
	Encode(messages map[string]string) ([]byte, error)
}

var formats = []Format{
	NewJSONFormat(),
	NewYAMLFormat(),
	NewTOMLFormat(),
	NewINIFormat(),
	NewTSVFormat(),
}

// Formats returns every supported archive format.
func Formats() []Format {
	return slices.Clone(formats)
}

// FormatFor returns the format handling ext (case-insensitive, with dot).
func FormatFor(ext string) (Format, bool) {
	ext = strings.ToLower(ext)
	for _, f := range formats {
		if f.CanParse(ext) {
			return f, true
		}
	}
	return nil, false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
