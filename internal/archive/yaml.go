package archive

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormat reads and writes archives stored as a flat YAML mapping.
type YAMLFormat struct{}

func NewYAMLFormat() *YAMLFormat { return &YAMLFormat{} }

func (f *YAMLFormat) Name() string { return "yaml" }

func (f *YAMLFormat) CanParse(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

func (f *YAMLFormat) Decode(data []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	messages := make(map[string]string)
	if len(doc.Content) == 0 {
		return messages, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping at top level, line %d", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("key %q: expected scalar value, line %d", k.Value, v.Line)
		}
		messages[k.Value] = v.Value
	}
	return messages, nil
}

func (f *YAMLFormat) Encode(messages map[string]string) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range sortedKeys(messages) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: messages[key]},
		)
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return out, nil
}
