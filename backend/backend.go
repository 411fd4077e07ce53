package backend

import (
	"fmt"
	"io"

	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
)

// A resolved symbolic reference handed to the backend.  The final
// displacement from the base symbol is Offset + Delta.
type SymbolicReference struct {
	// Mangled base symbol name.
	Name string

	// Byte offset of the referenced symbol from the base symbol.
	Offset int64

	// The delta embedded in the placeholder bytes (after any kind rewrite).
	Delta int64

	Kind platform.RelocationKind

	// Number of pointer indirections along the symbol chain.  Diagnostic only.
	Indirections int
}

func (ref SymbolicReference) Displacement() int64 {
	return ref.Offset + ref.Delta
}

func (ref SymbolicReference) String() string {
	result := ref.Name
	if disp := ref.Displacement(); disp != 0 {
		result = fmt.Sprintf("%s%+d", ref.Name, disp)
	}
	return result
}

// The emission backend owns the binary container format.  The emission core
// only issues this primitive call sequence: sections are started before any
// data, and within a section all calls are made in increasing offset order.
type Backend interface {
	StartSection(section object.Section) error

	// data is the containing node's full buffer; offset is relative to it.
	DefineSymbol(name string, data []byte, offset int) error

	EmitBytes(data []byte) error

	// Returns the number of placeholder bytes consumed by the reference.
	// Backends may defer relative (rel32) references to a later link phase,
	// but must still report the full placeholder width.
	EmitSymbolicReference(ref SymbolicReference) (int, error)

	FinalizeImage() error
}

// Creates a backend writing its image to output.
type Factory func(output io.Writer, targetPlatform platform.Platform) Backend
