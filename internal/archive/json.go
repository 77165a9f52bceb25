package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JSONFormat reads and writes archives stored as a flat JSON object.
type JSONFormat struct{}

func NewJSONFormat() *JSONFormat { return &JSONFormat{} }

func (f *JSONFormat) Name() string { return "json" }

func (f *JSONFormat) CanParse(ext string) bool {
	return ext == ".json"
}

func (f *JSONFormat) Decode(data []byte) (map[string]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("expected object at top level, got %s", root.Type)
	}

	messages := make(map[string]string)
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("key %q: expected string, got %s", key.String(), value.Type)
			return false
		}
		messages[key.String()] = value.String()
		return true
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (f *JSONFormat) Encode(messages map[string]string) ([]byte, error) {
	out := []byte("{}")
	for _, key := range sortedKeys(messages) {
		if key == "" {
			return nil, errors.New("empty key cannot be encoded")
		}
		var err error
		out, err = sjson.SetBytes(out, jsonPath(key), messages[key])
		if err != nil {
			return nil, fmt.Errorf("set %q: %w", key, err)
		}
	}
	return pretty.Pretty(out), nil
}

// jsonPath escapes the characters gjson/sjson treat as path syntax so the key
// addresses a single top-level member.
func jsonPath(key string) string {
	if !strings.ContainsAny(key, `\.*?|#@`) {
		return key
	}
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
