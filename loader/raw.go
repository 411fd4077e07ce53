package loader

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type yamlPos struct {
	line   int
	column int
}

func posOf(value *yaml.Node) yamlPos {
	return yamlPos{
		line:   value.Line,
		column: value.Column,
	}
}

// Nested values are decoded through yaml.Node.Decode, which does not inherit
// the top level decoder's KnownFields setting.
func checkKnownFields(value *yaml.Node, typeName string, known ...string) error {
	if value.Kind != yaml.MappingNode {
		return nil
	}

	for idx := 0; idx+1 < len(value.Content); idx += 2 {
		key := value.Content[idx]
		if !slices.Contains(known, key.Value) {
			return fmt.Errorf(
				"yaml: line %d: field %s not found in %s",
				key.Line,
				key.Value,
				typeName)
		}
	}
	return nil
}

type rawGraph struct {
	Nodes   []*rawNode   `yaml:"nodes"`
	Symbols []*rawSymbol `yaml:"symbols"`
}

type rawNode struct {
	pos yamlPos

	Name        string        `yaml:"name"`
	Kind        string        `yaml:"kind"`
	Section     string        `yaml:"section"`
	SectionName string        `yaml:"section_name"`
	Comdat      string        `yaml:"comdat"`
	Alignment   *int          `yaml:"alignment"`
	Anonymous   bool          `yaml:"anonymous"`
	Skip        bool          `yaml:"skip"`
	Contents    []*rawContent `yaml:"contents"`
}

func (node *rawNode) UnmarshalYAML(value *yaml.Node) error {
	err := checkKnownFields(
		value,
		"node",
		"name",
		"kind",
		"section",
		"section_name",
		"comdat",
		"alignment",
		"anonymous",
		"skip",
		"contents")
	if err != nil {
		return err
	}

	type plain rawNode
	err = value.Decode((*plain)(node))
	if err != nil {
		return err
	}
	node.pos = posOf(value)
	return nil
}

type rawInteger struct {
	Value int64 `yaml:"value"`
	Size  int   `yaml:"size"`
}

func (integer *rawInteger) UnmarshalYAML(value *yaml.Node) error {
	err := checkKnownFields(value, "int", "value", "size")
	if err != nil {
		return err
	}

	type plain rawInteger
	return value.Decode((*plain)(integer))
}

type rawReference struct {
	Target string `yaml:"target"`
	Kind   string `yaml:"kind"`
	Delta  int64  `yaml:"delta"`
}

func (ref *rawReference) UnmarshalYAML(value *yaml.Node) error {
	err := checkKnownFields(value, "ref", "target", "kind", "delta")
	if err != nil {
		return err
	}

	type plain rawReference
	return value.Decode((*plain)(ref))
}

// Exactly one field must be set.
type rawContent struct {
	pos yamlPos

	Bytes *string       `yaml:"bytes"`
	Int   *rawInteger   `yaml:"int"`
	Ref   *rawReference `yaml:"ref"`
	Label *string       `yaml:"label"`
	Align *int          `yaml:"align"`
}

func (content *rawContent) UnmarshalYAML(value *yaml.Node) error {
	err := checkKnownFields(
		value,
		"content",
		"bytes",
		"int",
		"ref",
		"label",
		"align")
	if err != nil {
		return err
	}

	type plain rawContent
	err = value.Decode((*plain)(content))
	if err != nil {
		return err
	}
	content.pos = posOf(value)
	return nil
}

func (content *rawContent) numSet() int {
	count := 0
	if content.Bytes != nil {
		count++
	}
	if content.Int != nil {
		count++
	}
	if content.Ref != nil {
		count++
	}
	if content.Label != nil {
		count++
	}
	if content.Align != nil {
		count++
	}
	return count
}

// An offset symbol when Target is set, an embedded symbol when Container is
// set.
type rawSymbol struct {
	pos yamlPos

	Name      string `yaml:"name"`
	Target    string `yaml:"target"`
	Container string `yaml:"container"`
	Offset    int64  `yaml:"offset"`
	Indirect  bool   `yaml:"indirect"`
}

func (symbol *rawSymbol) UnmarshalYAML(value *yaml.Node) error {
	err := checkKnownFields(
		value,
		"symbol",
		"name",
		"target",
		"container",
		"offset",
		"indirect")
	if err != nil {
		return err
	}

	type plain rawSymbol
	err = value.Decode((*plain)(symbol))
	if err != nil {
		return err
	}
	symbol.pos = posOf(value)
	return nil
}
