package objwriter_test

import (
	"errors"
	"testing"

	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/objwriter"
	"github.com/pattyshack/nuthatch/platform"
	"github.com/pattyshack/nuthatch/platform/amd64"
)

func TestSectionFor(t *testing.T) {
	darwin := amd64.NewPlatform(platform.Darwin)

	keyed := object.Section{
		Name:      ".rodata",
		Kind:      object.ReadOnlyDataSection,
		ComdatKey: "stale",
	}

	tests := []struct {
		name       string
		node       *object.Node
		multiUnit  bool
		exemptions []string
		expected   object.Section
	}{
		{
			"SingleUnit",
			object.NewNode("f", object.FunctionNode, textSection()),
			false,
			nil,
			textSection(),
		},
		{
			"MultiUnit",
			object.NewNode("f", object.FunctionNode, textSection()),
			true,
			nil,
			object.Section{
				Name:      ".text",
				Kind:      object.TextSection,
				ComdatKey: "_f",
			},
		},
		{
			"MultiUnitAnonymous",
			object.NewAnonymousNode("lit", object.DataNode, dataSection()),
			true,
			nil,
			dataSection(),
		},
		{
			"ModuleTable",
			object.NewNode("modules", object.ModuleTableNode, keyed),
			true,
			nil,
			object.Section{Name: ".rodata", Kind: object.ReadOnlyDataSection},
		},
		{
			"ModuleTableSingleUnit",
			object.NewNode("modules", object.ModuleTableNode, keyed),
			false,
			nil,
			object.Section{Name: ".rodata", Kind: object.ReadOnlyDataSection},
		},
		{
			"Exempted",
			object.NewNode("init_array", object.DataNode, dataSection()),
			true,
			[]string{"init_array"},
			dataSection(),
		},
		{
			"NotExempted",
			object.NewNode("init_list", object.DataNode, dataSection()),
			true,
			[]string{"init_array"},
			object.Section{
				Name:      ".data",
				Kind:      object.DataSection,
				ComdatKey: "_init_list",
			},
		},
	}

	for _, tc := range tests {
		policy := objwriter.NewSectionPolicy(darwin, tc.multiUnit, tc.exemptions)
		section := policy.SectionFor(tc.node)
		if section != tc.expected {
			t.Errorf("[%s] expected %s, got %s", tc.name, tc.expected, section)
		}
	}
}

func TestIntegrityChecker(t *testing.T) {
	checker := objwriter.NewIntegrityChecker()

	a := object.NewNode("A", object.DataNode, dataSection())
	b := object.NewNode("B", object.DataNode, dataSection())

	err := checker.Observe("foo", a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Aliases within the same node are fine.
	err = checker.Observe("foo", a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = checker.Observe("bar", b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = checker.Observe("foo", b)
	if !errors.Is(err, objwriter.ErrInvalidProgram) {
		t.Fatalf("expected invalid program error, got %v", err)
	}

	owner, ok := checker.Owner("foo")
	if !ok || owner != a {
		t.Errorf("expected foo to stay owned by A, got %v", owner)
	}

	_, ok = checker.Owner("baz")
	if ok {
		t.Errorf("unexpected owner for baz")
	}
}
