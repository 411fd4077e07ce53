package object

import (
	"fmt"

	"github.com/pattyshack/gt/parseutil"
)

// A named, addressable location.  The set of symbol variants is closed:
// RootSymbol, OffsetSymbol and EmbeddedSymbol.
type Symbol interface {
	parseutil.Locatable
	isSymbol()

	SymbolName() string
	String() string
}

type symbolMarker struct{}

func (symbolMarker) isSymbol() {}

// A directly addressable node.  Its offset relative to itself is always 0.
type RootSymbol struct {
	symbolMarker
	parseutil.StartEndPos

	Name string
	Node *Node
}

var _ Symbol = &RootSymbol{}

func (sym *RootSymbol) SymbolName() string {
	return sym.Name
}

func (sym *RootSymbol) String() string {
	return sym.Name
}

// A named alias into Target at a fixed byte offset.  Chains when Target is
// itself an OffsetSymbol or EmbeddedSymbol.
type OffsetSymbol struct {
	symbolMarker
	parseutil.StartEndPos

	Name   string
	Target Symbol
	Offset int64

	// When true, the alias is reached through a pointer cell.  This only
	// affects diagnostic naming, never address arithmetic.
	Indirect bool
}

var _ Symbol = &OffsetSymbol{}

func NewOffsetSymbol(name string, target Symbol, offset int64) *OffsetSymbol {
	return &OffsetSymbol{
		Name:   name,
		Target: target,
		Offset: offset,
	}
}

func (sym *OffsetSymbol) SymbolName() string {
	return sym.Name
}

func (sym *OffsetSymbol) String() string {
	target := "<nil>"
	if sym.Target != nil {
		target = sym.Target.SymbolName()
	}
	return fmt.Sprintf("%s(%s%+d)", sym.Name, target, sym.Offset)
}

// A member of an array-like container node, addressed by the container's root
// symbol plus Offset.
type EmbeddedSymbol struct {
	symbolMarker
	parseutil.StartEndPos

	Name      string
	Container *Node
	Offset    int64
}

var _ Symbol = &EmbeddedSymbol{}

func NewEmbeddedSymbol(
	name string,
	container *Node,
	offset int64,
) *EmbeddedSymbol {
	return &EmbeddedSymbol{
		Name:      name,
		Container: container,
		Offset:    offset,
	}
}

func (sym *EmbeddedSymbol) SymbolName() string {
	return sym.Name
}

func (sym *EmbeddedSymbol) String() string {
	container := "<nil>"
	if sym.Container != nil {
		container = sym.Container.Name
	}
	return fmt.Sprintf("%s(%s[%d])", sym.Name, container, sym.Offset)
}
