package objdata

import (
	"fmt"

	"github.com/pattyshack/gt/parseutil"
	"golang.org/x/exp/slices"

	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
)

// A name made available at Offset inside the node's data.
type Definition struct {
	Symbol object.Symbol
	Offset int
}

// A placeholder slot at Offset.  The slot holds the embedded delta, encoded
// in the platform's byte order with the kind's byte size.
type Relocation struct {
	parseutil.StartEndPos

	Offset int
	Target object.Symbol
	Kind   platform.RelocationKind
}

// A node's finished data.  Data must be treated as immutable.
type ObjectData struct {
	Data      []byte
	Alignment int

	// In definition order.  Offsets are non-decreasing.
	Definitions []Definition

	// In strictly increasing offset order.
	Relocations []Relocation
}

func (data *ObjectData) RelocationAt(offset int) (Relocation, bool) {
	idx, ok := slices.BinarySearchFunc(
		data.Relocations,
		offset,
		func(reloc Relocation, offset int) int {
			return reloc.Offset - offset
		})
	if !ok {
		return Relocation{}, false
	}
	return data.Relocations[idx], true
}

// Accumulates one node's bytes.  A builder is never reused across nodes.
type Builder struct {
	platform platform.Platform

	data        []byte
	alignment   int
	definitions []Definition
	relocations []Relocation

	finished bool
}

func NewBuilder(targetPlatform platform.Platform) *Builder {
	return &Builder{
		platform:  targetPlatform,
		alignment: 1,
	}
}

func (builder *Builder) Offset() int {
	return len(builder.data)
}

func (builder *Builder) RequireAlignment(alignment int) error {
	if !object.IsPowerOfTwo(alignment) {
		return fmt.Errorf(
			"alignment (%d) is not a positive power of two",
			alignment)
	}

	if alignment > builder.alignment {
		builder.alignment = alignment
	}
	return nil
}

func (builder *Builder) EmitBytes(data []byte) {
	builder.data = append(builder.data, data...)
}

func (builder *Builder) EmitZeros(count int) {
	builder.data = append(builder.data, make([]byte, count)...)
}

func (builder *Builder) EmitInt(value int64, size int) error {
	switch size {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("invalid integer size (%d)", size)
	}

	offset := len(builder.data)
	builder.EmitZeros(size)
	if !platform.WriteSigned(
		builder.platform.ByteOrder(),
		builder.data[offset:],
		value) {

		return fmt.Errorf("integer (%d) does not fit in %d bytes", value, size)
	}
	return nil
}

// Reserves a placeholder slot for a reference to target.  delta is embedded
// in the slot.
func (builder *Builder) EmitReloc(
	pos parseutil.StartEndPos,
	target object.Symbol,
	kind platform.RelocationKind,
	delta int64,
) error {
	if target == nil {
		return fmt.Errorf("relocation has no target symbol")
	}

	size := platform.RelocationByteSize(builder.platform, kind)
	if size == 0 {
		return fmt.Errorf("unknown relocation kind (%s)", kind)
	}

	offset := len(builder.data)
	builder.EmitZeros(size)

	slot := builder.data[offset:]
	order := builder.platform.ByteOrder()
	if !platform.WriteSigned(order, slot, delta) ||
		platform.ReadSigned(order, slot) != delta {

		return fmt.Errorf(
			"relocation delta (%d) does not fit in %d bytes",
			delta,
			size)
	}

	builder.relocations = append(
		builder.relocations,
		Relocation{
			StartEndPos: pos,
			Offset:      offset,
			Target:      target,
			Kind:        kind,
		})
	return nil
}

func (builder *Builder) DefineSymbol(symbol object.Symbol) error {
	if symbol == nil {
		return fmt.Errorf("label has no symbol")
	}

	builder.definitions = append(
		builder.definitions,
		Definition{
			Symbol: symbol,
			Offset: len(builder.data),
		})
	return nil
}

// Zero pads the data to the alignment boundary.  The node's base must be at
// least as aligned for the padding to be meaningful, so this also raises the
// required alignment.
func (builder *Builder) PadAlignment(alignment int) error {
	err := builder.RequireAlignment(alignment)
	if err != nil {
		return err
	}

	offset := int64(len(builder.data))
	builder.EmitZeros(int(object.AlignUp(offset, alignment) - offset))
	return nil
}

func (builder *Builder) Finish() *ObjectData {
	if builder.finished {
		panic("builder already finished")
	}
	builder.finished = true

	return &ObjectData{
		Data:        builder.data,
		Alignment:   builder.alignment,
		Definitions: builder.definitions,
		Relocations: builder.relocations,
	}
}

// Evaluates the node's contents into a fresh builder.
func Build(
	node *object.Node,
	targetPlatform platform.Platform,
) (
	*ObjectData,
	error,
) {
	builder := NewBuilder(targetPlatform)

	err := builder.RequireAlignment(node.Alignment)
	if err != nil {
		return nil, parseutil.NewLocationError(
			node.Loc(),
			"node (%s): %s",
			node.Name,
			err)
	}

	for _, c := range node.Contents {
		switch content := c.(type) {
		case *object.Bytes:
			builder.EmitBytes(content.Data)
		case *object.Integer:
			err = builder.EmitInt(content.Value, content.Size)
		case *object.Reference:
			err = builder.EmitReloc(
				content.StartEndPos,
				content.Target,
				content.Kind,
				content.Delta)
		case *object.Label:
			err = builder.DefineSymbol(content.Symbol)
		case *object.Padding:
			err = builder.PadAlignment(content.Alignment)
		default:
			err = fmt.Errorf("unexpected content (%T)", c)
		}

		if err != nil {
			loc := node.Loc()
			if c != nil {
				loc = c.Loc()
			}
			return nil, parseutil.NewLocationError(
				loc,
				"node (%s): %s",
				node.Name,
				err)
		}
	}

	return builder.Finish(), nil
}
