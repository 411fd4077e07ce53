package objwriter

import (
	"golang.org/x/exp/slices"

	"github.com/pattyshack/nuthatch/backend"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/objdata"
	"github.com/pattyshack/nuthatch/platform"
)

// Streams one node's data into the backend in a single forward pass.  At
// each offset, symbol definitions come first, then either a relocation slot
// or a run of plain bytes up to the next byte interruption offset.
type nodeEmitter struct {
	*Session

	node *object.Node
	data *objdata.ObjectData

	definitions []objdata.Definition

	// Sorted, de-duplicated union of relocation and definition offsets.
	interruptions []int
}

func newNodeEmitter(
	session *Session,
	node *object.Node,
	data *objdata.ObjectData,
) *nodeEmitter {
	definitions := slices.Clone(data.Definitions)
	slices.SortStableFunc(
		definitions,
		func(a objdata.Definition, b objdata.Definition) int {
			return a.Offset - b.Offset
		})

	return &nodeEmitter{
		Session:       session,
		node:          node,
		data:          data,
		definitions:   definitions,
		interruptions: ByteInterruptionOffsets(data),
	}
}

func ByteInterruptionOffsets(data *objdata.ObjectData) []int {
	offsets := make([]int, 0, len(data.Relocations)+len(data.Definitions))
	for _, reloc := range data.Relocations {
		offsets = append(offsets, reloc.Offset)
	}
	for _, def := range data.Definitions {
		offsets = append(offsets, def.Offset)
	}

	slices.Sort(offsets)
	return slices.Compact(offsets)
}

// Returns the nearest interruption offset after cursor, capped at end.
func (emitter *nodeEmitter) nextInterruption(cursor int, end int) int {
	idx, _ := slices.BinarySearch(emitter.interruptions, cursor+1)
	if idx < len(emitter.interruptions) && emitter.interruptions[idx] < end {
		return emitter.interruptions[idx]
	}
	return end
}

func (emitter *nodeEmitter) emit() error {
	data := emitter.data.Data
	relocs := emitter.data.Relocations
	length := len(data)

	cursor := 0
	defIdx := 0
	relocIdx := 0
	for cursor < length {
		for defIdx < len(emitter.definitions) &&
			emitter.definitions[defIdx].Offset <= cursor {

			err := emitter.define(emitter.definitions[defIdx], cursor)
			if err != nil {
				return err
			}
			defIdx++
		}

		if relocIdx < len(relocs) && relocs[relocIdx].Offset < cursor {
			return invalidProgram(
				relocs[relocIdx].Loc(),
				"node (%s): relocation at offset %d overlaps previous slot (cursor %d)",
				emitter.node.Name,
				relocs[relocIdx].Offset,
				cursor)
		}

		if relocIdx < len(relocs) && relocs[relocIdx].Offset == cursor {
			size, err := emitter.emitRelocation(relocs[relocIdx])
			if err != nil {
				return err
			}
			cursor += size
			relocIdx++
			continue
		}

		next := emitter.nextInterruption(cursor, length)
		err := emitter.backendFailure(emitter.backend.EmitBytes(data[cursor:next]))
		if err != nil {
			return err
		}
		cursor = next
	}

	if cursor != length {
		panic("should never happen")
	}

	// Symbols marking one past the end.
	for ; defIdx < len(emitter.definitions); defIdx++ {
		err := emitter.define(emitter.definitions[defIdx], length)
		if err != nil {
			return err
		}
	}

	if relocIdx < len(relocs) {
		return invalidProgram(
			relocs[relocIdx].Loc(),
			"node (%s): relocation at offset %d is outside of data (length %d)",
			emitter.node.Name,
			relocs[relocIdx].Offset,
			length)
	}

	return nil
}

func (emitter *nodeEmitter) define(def objdata.Definition, cursor int) error {
	if def.Offset != cursor {
		return invalidProgram(
			emitter.node.Loc(),
			"node (%s): symbol (%s) at offset %d is anchored inside a relocation slot or outside of data (length %d)",
			emitter.node.Name,
			def.Symbol.SymbolName(),
			def.Offset,
			len(emitter.data.Data))
	}

	return emitter.defineSymbol(emitter.node, def.Symbol, emitter.data.Data, def.Offset)
}

func (emitter *nodeEmitter) emitRelocation(reloc objdata.Relocation) (int, error) {
	data := emitter.data.Data

	size := platform.RelocationByteSize(emitter.Platform, reloc.Kind)
	if size == 0 {
		return 0, invalidProgram(
			reloc.Loc(),
			"node (%s): unknown relocation kind (%s) at offset %d",
			emitter.node.Name,
			reloc.Kind,
			reloc.Offset)
	}

	if reloc.Offset+size > len(data) {
		return 0, invalidProgram(
			reloc.Loc(),
			"node (%s): %d-byte relocation slot at offset %d overruns data (length %d)",
			emitter.node.Name,
			size,
			reloc.Offset,
			len(data))
	}

	delta := platform.ReadSigned(
		emitter.ByteOrder(),
		data[reloc.Offset:reloc.Offset+size])

	kind, delta := platform.RewriteRelocation(reloc.Kind, delta)

	res, err := ResolveSymbol(reloc.Target)
	if err != nil {
		return 0, err
	}

	consumed, err := emitter.backend.EmitSymbolicReference(
		backend.SymbolicReference{
			Name:         emitter.MangledName(res.BaseName),
			Offset:       res.Offset,
			Delta:        delta,
			Kind:         kind,
			Indirections: res.Indirections,
		})
	if err != nil {
		return 0, emitter.backendFailure(err)
	}

	if consumed != size {
		return 0, invalidProgram(
			reloc.Loc(),
			"node (%s): backend consumed %d bytes for %d-byte %s slot referencing %s",
			emitter.node.Name,
			consumed,
			size,
			kind,
			res.DiagnosticName())
	}

	return size, nil
}
