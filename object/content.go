package object

import (
	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/platform"
)

// A node's data is described as a sequence of contents, evaluated in order
// by the object data builder.  The set of content variants is closed: Bytes,
// Integer, Reference, Label and Padding.
type Content interface {
	Visitable
	isContent()
}

type contentMarker struct{}

func (contentMarker) isContent() {}

// Raw bytes copied verbatim.
type Bytes struct {
	contentMarker
	parseutil.StartEndPos

	Data []byte
}

var _ Content = &Bytes{}

func (content *Bytes) Walk(visitor Visitor) {
	visitor.Enter(content)
	visitor.Exit(content)
}

// An integer written in the target's byte order.
type Integer struct {
	contentMarker
	parseutil.StartEndPos

	Value int64
	Size  int // 1, 2, 4, or 8
}

var _ Content = &Integer{}
var _ Validator = &Integer{}

func (content *Integer) Walk(visitor Visitor) {
	visitor.Enter(content)
	visitor.Exit(content)
}

func (content *Integer) Validate(emitter *parseutil.Emitter) {
	switch content.Size {
	case 1, 2, 4, 8:
	default:
		emitter.Emit(
			content.Loc(),
			"invalid integer size (%d). expecting 1, 2, 4, or 8",
			content.Size)
	}
}

// A symbolic reference.  The builder reserves a placeholder slot (sized by
// Kind) holding Delta.
type Reference struct {
	contentMarker
	parseutil.StartEndPos

	Target Symbol
	Kind   platform.RelocationKind
	Delta  int64
}

var _ Content = &Reference{}
var _ Validator = &Reference{}

func (content *Reference) Walk(visitor Visitor) {
	visitor.Enter(content)
	visitor.Exit(content)
}

func (content *Reference) Validate(emitter *parseutil.Emitter) {
	if content.Target == nil {
		emitter.Emit(content.Loc(), "reference has no target symbol")
	}

	if !platform.IsKnownRelocationKind(content.Kind) {
		emitter.Emit(content.Loc(), "unknown relocation kind (%s)", content.Kind)
	}
}

// Defines Symbol at the current offset.
type Label struct {
	contentMarker
	parseutil.StartEndPos

	Symbol Symbol
}

var _ Content = &Label{}
var _ Validator = &Label{}

func (content *Label) Walk(visitor Visitor) {
	visitor.Enter(content)
	visitor.Exit(content)
}

func (content *Label) Validate(emitter *parseutil.Emitter) {
	if content.Symbol == nil {
		emitter.Emit(content.Loc(), "label has no symbol")
	}
}

// Zero pads to the alignment boundary.
type Padding struct {
	contentMarker
	parseutil.StartEndPos

	Alignment int
}

var _ Content = &Padding{}
var _ Validator = &Padding{}

func (content *Padding) Walk(visitor Visitor) {
	visitor.Enter(content)
	visitor.Exit(content)
}

func (content *Padding) Validate(emitter *parseutil.Emitter) {
	if !IsPowerOfTwo(content.Alignment) {
		emitter.Emit(
			content.Loc(),
			"padding alignment (%d) is not a positive power of two",
			content.Alignment)
	}
}
