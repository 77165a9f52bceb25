package archive

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// TOMLFormat reads and writes archives stored as a flat TOML table.
type TOMLFormat struct{}

func NewTOMLFormat() *TOMLFormat { return &TOMLFormat{} }

func (f *TOMLFormat) Name() string { return "toml" }

func (f *TOMLFormat) CanParse(ext string) bool {
	return ext == ".toml"
}

func (f *TOMLFormat) Decode(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal toml: %w", err)
	}
	messages := make(map[string]string, len(raw))
	for key, value := range raw {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("key %q: expected string, got %T", key, value)
		}
		messages[key] = s
	}
	return messages, nil
}

func (f *TOMLFormat) Encode(messages map[string]string) ([]byte, error) {
	out, err := toml.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal toml: %w", err)
	}
	return out, nil
}
