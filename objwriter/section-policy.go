package objwriter

import (
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
)

// Decides whether a node's storage may be placed into a merge-foldable
// (comdat) section.
type SectionPolicy struct {
	platform platform.Platform

	multiUnit bool

	// Mangled names whose cross-unit duplicates are reconciled by linker
	// directives rather than folded.
	exemptions map[string]struct{}
}

func NewSectionPolicy(
	targetPlatform platform.Platform,
	multiUnit bool,
	exemptNames []string,
) SectionPolicy {
	exemptions := make(map[string]struct{}, len(exemptNames))
	for _, name := range exemptNames {
		exemptions[targetPlatform.MangledName(name)] = struct{}{}
	}

	return SectionPolicy{
		platform:   targetPlatform,
		multiUnit:  multiUnit,
		exemptions: exemptions,
	}
}

func (policy SectionPolicy) isExcluded(node *object.Node) bool {
	if node.Kind == object.ModuleTableNode {
		return true
	}

	if node.Symbol == nil {
		return false
	}

	_, ok := policy.exemptions[policy.platform.MangledName(node.Symbol.Name)]
	return ok
}

// Excluded nodes always get their plain section, regardless of build mode.
// Otherwise, in a multi-unit build, a directly nameable node is keyed by its
// mangled name.
func (policy SectionPolicy) SectionFor(node *object.Node) object.Section {
	if policy.isExcluded(node) {
		return node.Section.Plain()
	}

	if !policy.multiUnit || node.Symbol == nil {
		return node.Section
	}

	section := node.Section
	section.ComdatKey = policy.platform.MangledName(node.Symbol.Name)
	return section
}
