package objwriter

import (
	"github.com/pattyshack/nuthatch/object"
)

// Debug-only symbol name uniqueness check.  A session only creates a checker
// when Options.CheckSymbolUniqueness is set; release sessions carry a nil
// checker and pay nothing.
type IntegrityChecker struct {
	owners map[string]*object.Node
}

func NewIntegrityChecker() *IntegrityChecker {
	return &IntegrityChecker{
		owners: map[string]*object.Node{},
	}
}

// Records that node defines name.  Fails if a different node previously
// defined the same name.  A node may define the same name more than once
// (e.g., aliases at different offsets).
func (checker *IntegrityChecker) Observe(name string, node *object.Node) error {
	prev, ok := checker.Owner(name)
	if !ok {
		checker.owners[name] = node
		return nil
	}

	if prev == node {
		return nil
	}

	return invalidProgram(
		node.Loc(),
		"symbol (%s) defined by node (%s) was previously defined by node (%s) at (%s)",
		name,
		node.Name,
		prev.Name,
		prev.Loc().ShortString())
}

func (checker *IntegrityChecker) Owner(name string) (*object.Node, bool) {
	node, ok := checker.owners[name]
	return node, ok
}
