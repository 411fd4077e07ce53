package platform

import (
	"encoding/binary"
)

type RelocationKind string

const (
	// Labelled entry's absolute pointer-width location.
	//
	// NOTE: This is equivalent to SystemV ABI's R_X86_64_64 with A = 0 on
	// 64-bit platforms.
	AbsPtrRelocation = RelocationKind("absptr")

	// x64-style 32-bit relative offset where the offset is relative to the
	// end of the offset bytes / next instruction (EIP).  i.e.,
	//
	// Rel32Relocation = int32(
	//   LabelledEntryLocation - (CurrentEntryLocation + LocationOffset + 4))
	//
	// NOTE: This is equivalent to SystemV ABI's R_X86_64_PC32 with A = 4.
	Rel32Relocation = RelocationKind("rel32")

	// Legacy 32-bit relative pointer, anchored at the start of the offset bytes
	// rather than at the end.  It is never handed to a backend; it's always
	// rewritten into Rel32Relocation first (see RewriteRelocation).
	RelPtr32Relocation = RelocationKind("relptr32")
)

const int32ByteSize = 4

func IsKnownRelocationKind(kind RelocationKind) bool {
	switch kind {
	case AbsPtrRelocation, Rel32Relocation, RelPtr32Relocation:
		return true
	default:
		return false
	}
}

// Returns the placeholder byte size reserved for the relocation kind, or 0
// for unknown kinds.
func RelocationByteSize(p Platform, kind RelocationKind) int {
	switch kind {
	case AbsPtrRelocation:
		return p.PointerByteSize()
	case Rel32Relocation, RelPtr32Relocation:
		return int32ByteSize
	default:
		return 0
	}
}

// Rewrites the legacy relative pointer shape into the generic 32-bit relative
// shape.  The legacy shape is anchored 4 bytes earlier, hence the delta
// adjustment.  All other kinds are returned as is.
func RewriteRelocation(
	kind RelocationKind,
	delta int64,
) (
	RelocationKind,
	int64,
) {
	if kind == RelPtr32Relocation {
		return Rel32Relocation, delta + int32ByteSize
	}
	return kind, delta
}

// Decodes a signed integer of width 1, 2, 4 or 8.
func ReadSigned(order binary.ByteOrder, data []byte) int64 {
	switch len(data) {
	case 1:
		return int64(int8(data[0]))
	case 2:
		return int64(int16(order.Uint16(data)))
	case 4:
		return int64(int32(order.Uint32(data)))
	case 8:
		return int64(order.Uint64(data))
	default:
		panic("should never happen")
	}
}

// Encodes value into data (width 1, 2, 4 or 8).  Returns false if value
// doesn't fit in the given width.
func WriteSigned(order binary.ByteOrder, data []byte, value int64) bool {
	switch len(data) {
	case 1:
		if value < -1<<7 || value >= 1<<8 {
			return false
		}
		data[0] = byte(value)
	case 2:
		if value < -1<<15 || value >= 1<<16 {
			return false
		}
		order.PutUint16(data, uint16(value))
	case 4:
		if value < -1<<31 || value >= 1<<32 {
			return false
		}
		order.PutUint32(data, uint32(value))
	case 8:
		order.PutUint64(data, uint64(value))
	default:
		return false
	}
	return true
}
