package object

import (
	"fmt"

	"github.com/pattyshack/gt/parseutil"
)

type SectionKind string

const (
	TextSection         = SectionKind("text")
	ReadOnlyDataSection = SectionKind("rodata")
	DataSection         = SectionKind("data")
)

var defaultSectionNames = map[SectionKind]string{
	TextSection:         ".text",
	ReadOnlyDataSection: ".rodata",
	DataSection:         ".data",
}

// Describes where a node's bytes go.  Section is comparable; two nodes with
// equal descriptors share an output section.
type Section struct {
	Name string
	Kind SectionKind

	// When non-empty, the section is merge-foldable: identically keyed
	// contents from multiple compilation units may be deduplicated by the
	// linker.
	ComdatKey string
}

func NewSection(kind SectionKind) Section {
	return Section{
		Name: defaultSectionNames[kind],
		Kind: kind,
	}
}

func IsKnownSectionKind(kind SectionKind) bool {
	_, ok := defaultSectionNames[kind]
	return ok
}

func (section Section) IsComdat() bool {
	return section.ComdatKey != ""
}

// Returns the section with its comdat key cleared.
func (section Section) Plain() Section {
	section.ComdatKey = ""
	return section
}

func (section Section) String() string {
	if section.ComdatKey != "" {
		return fmt.Sprintf("%s(%s,comdat=%s)", section.Name, section.Kind, section.ComdatKey)
	}
	return fmt.Sprintf("%s(%s)", section.Name, section.Kind)
}

func (section Section) validate(node *Node, emitter *parseutil.Emitter) {
	if section.Name == "" {
		emitter.Emit(node.Loc(), "node (%s) has empty section name", node.Name)
	}

	if !IsKnownSectionKind(section.Kind) {
		emitter.Emit(
			node.Loc(),
			"node (%s) has unknown section kind (%s)",
			node.Name,
			section.Kind)
	}
}
