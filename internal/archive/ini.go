package archive

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// INIFormat reads and writes archives stored as the default section of an INI
// file. Named sections are rejected: an archive is a flat table.
type INIFormat struct{}

func NewINIFormat() *INIFormat { return &INIFormat{} }

func (f *INIFormat) Name() string { return "ini" }

func (f *INIFormat) CanParse(ext string) bool {
	return ext == ".ini"
}

var iniOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	KeyValueDelimiters:  "=",
}

func (f *INIFormat) Decode(data []byte) (map[string]string, error) {
	cfg, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, fmt.Errorf("load ini: %w", err)
	}

	messages := make(map[string]string)
	for _, sec := range cfg.Sections() {
		if sec.Name() != ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return nil, fmt.Errorf("section [%s]: archives must not use sections", sec.Name())
			}
			continue
		}
		for _, key := range sec.Keys() {
			messages[key.Name()] = key.Value()
		}
	}
	return messages, nil
}

func (f *INIFormat) Encode(messages map[string]string) ([]byte, error) {
	cfg := ini.Empty(iniOptions)
	sec := cfg.Section("")
	for _, key := range sortedKeys(messages) {
		value, err := iniValue(messages[key])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		if _, err := sec.NewKey(key, value); err != nil {
			return nil, fmt.Errorf("add key %q: %w", key, err)
		}
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write ini: %w", err)
	}
	return buf.Bytes(), nil
}

// iniValue wraps v in triple quotes when the reader would not return it
// unchanged as a bare value: surrounding quotes are stripped, padding is
// trimmed and a trailing backslash continues the line. Values holding a
// newline or backtick are triple-quoted by the writer itself.
func iniValue(v string) (string, error) {
	if strings.ContainsAny(v, "\n`") {
		if strings.Contains(v, "\n") && strings.Contains(v, `"""`) {
			return "", fmt.Errorf(`multi-line value containing """ cannot be stored in ini`)
		}
		return v, nil
	}
	if v == "" || iniBareSafe(v) {
		return v, nil
	}
	return `"""` + v + `"""`, nil
}

func iniBareSafe(v string) bool {
	if strings.TrimSpace(v) != v {
		return false
	}
	first, last := v[0], v[len(v)-1]
	return first != '"' && first != '\'' && last != '"' && last != '\'' && last != '\\'
}
