package entity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Person is a dialogue-capable character record.
type Person struct {
	PID  string `yaml:"pid" toml:"pid" json:"pid"`
	Name string `yaml:"name" toml:"name" json:"name"` // message key of the display name
}

// God is an emblem/deity record.
type God struct {
	GID       string `yaml:"gid" toml:"gid" json:"gid"`
	MID       string `yaml:"mid" toml:"mid" json:"mid"` // message key of the display name
	Nickname  string `yaml:"nickname,omitempty" toml:"nickname,omitempty" json:"nickname,omitempty"`
	AsciiName string `yaml:"ascii_name,omitempty" toml:"ascii_name,omitempty" json:"ascii_name,omitempty"`
}

// Tables is a read-only snapshot of the entity tables a translation reads.
type Tables struct {
	Persons []Person `yaml:"persons" toml:"persons" json:"persons"`
	Gods    []God    `yaml:"gods" toml:"gods" json:"gods"`
}

// Load reads entity tables from a YAML, TOML or JSON file.
func Load(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read entity file: %w", err)
	}

	var t Tables
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &t); err != nil {
			return Tables{}, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &t); err != nil {
			return Tables{}, fmt.Errorf("unmarshal toml: %w", err)
		}
	case ".json":
		t, err = decodeJSON(data)
		if err != nil {
			return Tables{}, err
		}
	default:
		return Tables{}, fmt.Errorf("unsupported entity file type %q", ext)
	}
	return t, nil
}

func decodeJSON(data []byte) (Tables, error) {
	if !gjson.ValidBytes(data) {
		return Tables{}, fmt.Errorf("invalid json")
	}
	root := gjson.ParseBytes(data)

	var t Tables
	root.Get("persons").ForEach(func(_, v gjson.Result) bool {
		t.Persons = append(t.Persons, Person{
			PID:  v.Get("pid").String(),
			Name: v.Get("name").String(),
		})
		return true
	})
	root.Get("gods").ForEach(func(_, v gjson.Result) bool {
		t.Gods = append(t.Gods, God{
			GID:       v.Get("gid").String(),
			MID:       v.Get("mid").String(),
			Nickname:  v.Get("nickname").String(),
			AsciiName: v.Get("ascii_name").String(),
		})
		return true
	})
	return t, nil
}
