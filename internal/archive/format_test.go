package archive

import (
	"maps"
	"strings"
	"testing"
)

func TestFormatFor(t *testing.T) {
	tests := map[string]string{
		".json": "json",
		".JSON": "json",
		".yaml": "yaml",
		".yml":  "yaml",
		".toml": "toml",
		".ini":  "ini",
		".tsv":  "tsv",
	}
	for ext, want := range tests {
		f, ok := FormatFor(ext)
		if !ok {
			t.Errorf("FormatFor(%q) not found", ext)
			continue
		}
		if f.Name() != want {
			t.Errorf("FormatFor(%q) = %s, want %s", ext, f.Name(), want)
		}
	}
	if _, ok := FormatFor(".bin"); ok {
		t.Error("FormatFor(.bin) should not match")
	}
}

func TestFormatsRoundTrip(t *testing.T) {
	messages := map[string]string{
		"MID_GODNAME_Marth":   "Marth",
		"MID_H_Sigurd":        "Holy knight of Chalphy",
		"PID_001.alt":         "Dotted key",
		"MID_SPACES":          "  padded  ",
		"MID_UNICODE":         "リュール",
		"MID_Punctuation":     "Hey, you! (yes) 100%",
		"MID_EMPTY_VALUE":     "",
		"MID_Quote":           `He said "go"`,
		"MID_Wrapped":         `"quoted"`,
		"MID_Ring_Help_Alear": "Ring of the Divine Dragon",
	}

	for _, f := range Formats() {
		t.Run(f.Name(), func(t *testing.T) {
			data, err := f.Encode(messages)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := f.Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v\n%s", err, data)
			}
			if !maps.Equal(got, messages) {
				t.Errorf("round trip mismatch\n got: %v\nwant: %v\nraw:\n%s", got, messages, data)
			}

			again, err := f.Encode(got)
			if err != nil {
				t.Fatalf("second Encode: %v", err)
			}
			if string(again) != string(data) {
				t.Errorf("Encode is not deterministic:\n%s\n---\n%s", data, again)
			}
		})
	}
}

func TestMultilineValues(t *testing.T) {
	messages := map[string]string{"MID_DIALOGUE": "first line\nsecond\tline"}
	for _, f := range []Format{NewJSONFormat(), NewYAMLFormat(), NewTOMLFormat(), NewTSVFormat()} {
		data, err := f.Encode(messages)
		if err != nil {
			t.Fatalf("%s Encode: %v", f.Name(), err)
		}
		got, err := f.Decode(data)
		if err != nil {
			t.Fatalf("%s Decode: %v", f.Name(), err)
		}
		if got["MID_DIALOGUE"] != messages["MID_DIALOGUE"] {
			t.Errorf("%s: got %q", f.Name(), got["MID_DIALOGUE"])
		}
	}
}

func TestDecodeRejectsNestedValues(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{NewJSONFormat(), `{"MID_A": {"nested": "x"}}`},
		{NewJSONFormat(), `{"MID_A": 12}`},
		{NewJSONFormat(), `["MID_A"]`},
		{NewJSONFormat(), `{"MID_A": `},
		{NewYAMLFormat(), "MID_A:\n  nested: x\n"},
		{NewYAMLFormat(), "- a\n- b\n"},
		{NewTOMLFormat(), "MID_A = 3\n"},
		{NewTOMLFormat(), "[section]\nMID_A = \"x\"\n"},
		{NewINIFormat(), "[section]\nMID_A = x\n"},
		{NewTSVFormat(), "MID_A without tab\n"},
		{NewTSVFormat(), "MID_A\tbad\\q\n"},
	}
	for _, tt := range tests {
		if _, err := tt.format.Decode([]byte(tt.input)); err == nil {
			t.Errorf("%s Decode(%q) should fail", tt.format.Name(), tt.input)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, f := range []Format{NewYAMLFormat(), NewTOMLFormat(), NewINIFormat(), NewTSVFormat()} {
		got, err := f.Decode(nil)
		if err != nil {
			t.Errorf("%s Decode(empty): %v", f.Name(), err)
			continue
		}
		if len(got) != 0 {
			t.Errorf("%s Decode(empty) = %v", f.Name(), got)
		}
	}
}

func TestJSONPathEscaping(t *testing.T) {
	if got := jsonPath("MID_A"); got != "MID_A" {
		t.Errorf("jsonPath(MID_A) = %q", got)
	}
	if got := jsonPath("a.b*c"); got != `a\.b\*c` {
		t.Errorf("jsonPath(a.b*c) = %q", got)
	}
}

func TestTSVEncodeLayout(t *testing.T) {
	data, err := NewTSVFormat().Encode(map[string]string{"B": "two", "A": "one\ttab"})
	if err != nil {
		t.Fatal(err)
	}
	want := "A\tone\\ttab\nB\ttwo\n"
	if string(data) != want {
		t.Errorf("Encode = %q, want %q", data, want)
	}
	if !strings.HasPrefix(string(data), "A\t") {
		t.Error("keys should be sorted")
	}
}

func TestINIQuotedValues(t *testing.T) {
	messages := map[string]string{
		"MID_Farewell": `"Farewell"`,
		"MID_Said":     `"Hi," she said`,
		"MID_Single":   `'single'`,
		"MID_Apos":     `'`,
		"MID_Slash":    `ends with \`,
		"MID_Padded":   `  "pad"  `,
		"MID_Triple":   `"""already"""`,
		"MID_Tick":     "`tick` \"end\"",
		"MID_Lines":    "\"first\nsecond\"",
	}
	f := NewINIFormat()
	data, err := f.Encode(messages)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := f.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, data)
	}
	for key, want := range messages {
		if got[key] != want {
			t.Errorf("%s = %q, want %q\nraw:\n%s", key, got[key], want, data)
		}
	}

	if _, err := f.Encode(map[string]string{"K": "a\n\"\"\"b"}); err == nil {
		t.Error(`multi-line value with """ should be rejected`)
	}
}
