// Package listing renders the emission primitive sequence as GNU assembler
// source.
package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/pattyshack/nuthatch/backend"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
)

const bytesPerLine = 16

var sectionFlags = map[object.SectionKind]string{
	object.TextSection:         "ax",
	object.ReadOnlyDataSection: "a",
	object.DataSection:         "aw",
}

type deferredRelocation struct {
	label    string
	typeName string
	target   string
}

type Backend struct {
	platform platform.Platform
	writer   io.Writer
	err      error

	inSection bool
	deferred  []deferredRelocation
}

var _ backend.Backend = &Backend{}

func NewBackend(
	output io.Writer,
	targetPlatform platform.Platform,
) backend.Backend {
	return &Backend{
		platform: targetPlatform,
		writer:   output,
	}
}

func (b *Backend) write(format string, args ...interface{}) {
	if b.err != nil {
		return
	}

	if len(args) == 0 {
		_, b.err = b.writer.Write([]byte(format))
	} else {
		_, b.err = fmt.Fprintf(b.writer, format, args...)
	}
}

func (b *Backend) StartSection(section object.Section) error {
	flags, ok := sectionFlags[section.Kind]
	if !ok {
		return fmt.Errorf("listing: unsupported section kind (%s)", section.Kind)
	}

	if b.inSection {
		b.write("\n")
	}
	b.inSection = true

	if section.IsComdat() {
		b.write(
			"\t.section %s.%s,\"%sG\",@progbits,%s,comdat\n",
			section.Name,
			section.ComdatKey,
			flags,
			section.ComdatKey)
	} else {
		b.write("\t.section %s,\"%s\",@progbits\n", section.Name, flags)
	}
	return b.err
}

func (b *Backend) DefineSymbol(name string, data []byte, offset int) error {
	if !b.inSection {
		return fmt.Errorf("listing: symbol (%s) defined outside of a section", name)
	}

	b.write("\t.globl %s\n%s:\n", name, name)
	return b.err
}

func (b *Backend) EmitBytes(data []byte) error {
	if !b.inSection {
		return fmt.Errorf("listing: bytes emitted outside of a section")
	}

	for len(data) > 0 {
		chunk := data
		if len(chunk) > bytesPerLine {
			chunk = chunk[:bytesPerLine]
		}
		data = data[len(chunk):]

		values := make([]string, 0, len(chunk))
		for _, value := range chunk {
			values = append(values, fmt.Sprintf("0x%02x", value))
		}
		b.write("\t.byte %s\n", strings.Join(values, ","))
	}
	return b.err
}

func (b *Backend) EmitSymbolicReference(
	ref backend.SymbolicReference,
) (
	int,
	error,
) {
	if !b.inSection {
		return 0, fmt.Errorf("listing: reference (%s) emitted outside of a section", ref)
	}

	switch ref.Kind {
	case platform.AbsPtrRelocation:
		size := b.platform.PointerByteSize()
		directive := ".quad"
		if size == 4 {
			directive = ".long"
		}
		b.write("\t%s %s\n", directive, ref)
		return size, b.err

	case platform.Rel32Relocation:
		// The displacement is resolved by the link phase.  Only a zero
		// placeholder is emitted here.
		typeName := b.platform.RelocationTypeName(ref.Kind)
		if typeName == "" {
			return 0, fmt.Errorf(
				"listing: %s has no %s relocation type",
				b.platform.ArchitectureName(),
				ref.Kind)
		}

		label := fmt.Sprintf(".Lreloc%d", len(b.deferred))
		b.deferred = append(
			b.deferred,
			deferredRelocation{
				label:    label,
				typeName: typeName,
				target:   ref.String(),
			})
		b.write("%s:\n\t.long 0\n", label)
		return 4, b.err

	default:
		return 0, fmt.Errorf("listing: unsupported relocation kind (%s)", ref.Kind)
	}
}

func (b *Backend) FinalizeImage() error {
	if len(b.deferred) > 0 {
		b.write("\n\t# link-time relocations\n")
		for _, reloc := range b.deferred {
			b.write("\t.reloc %s, %s, %s\n", reloc.label, reloc.typeName, reloc.target)
		}
	}
	return b.err
}
