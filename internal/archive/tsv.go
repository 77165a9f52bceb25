package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"astra-msgdb/internal/textutil"
)

// TSVFormat handles tab-separated message tables: one "key<TAB>value" pair
// per line, with tabs, newlines and backslashes escaped.
type TSVFormat struct{}

func NewTSVFormat() *TSVFormat { return &TSVFormat{} }

func (f *TSVFormat) Name() string { return "tsv" }

func (f *TSVFormat) CanParse(ext string) bool {
	return ext == ".tsv"
}

func (f *TSVFormat) Decode(data []byte) (map[string]string, error) {
	messages := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		rawKey, rawValue, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab separator", lineNum)
		}
		key, err := textutil.UnescapeTSV(rawKey)
		if err != nil {
			return nil, fmt.Errorf("line %d: key: %w", lineNum, err)
		}
		value, err := textutil.UnescapeTSV(rawValue)
		if err != nil {
			return nil, fmt.Errorf("line %d: value: %w", lineNum, err)
		}
		messages[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan tsv: %w", err)
	}

	return messages, nil
}

func (f *TSVFormat) Encode(messages map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	for _, key := range sortedKeys(messages) {
		if key == "" {
			return nil, fmt.Errorf("empty key cannot be encoded")
		}
		fmt.Fprintf(&buf, "%s\t%s\n", textutil.EscapeTSV(key), textutil.EscapeTSV(messages[key]))
	}
	return buf.Bytes(), nil
}
