package backend

import (
	"fmt"
	"io"

	"github.com/pattyshack/nuthatch/object"
)

type tracer struct {
	Backend

	output io.Writer

	section object.Section
	offsets map[object.Section]int64 // relative to the start of each section
}

// Wraps backend so that every primitive call is logged to output.  Write
// errors on output are ignored; tracing never fails emission.
func NewTracer(backend Backend, output io.Writer) Backend {
	return &tracer{
		Backend: backend,
		output:  output,
		offsets: map[object.Section]int64{},
	}
}

func (t *tracer) printf(template string, args ...interface{}) {
	_, _ = fmt.Fprintf(t.output, template, args...)
}

func (t *tracer) StartSection(section object.Section) error {
	t.section = section
	t.printf("section %s\n", section)
	return t.Backend.StartSection(section)
}

func (t *tracer) DefineSymbol(name string, data []byte, offset int) error {
	t.printf(
		"  %08x  define %s (node offset %d)\n",
		t.offsets[t.section],
		name,
		offset)
	return t.Backend.DefineSymbol(name, data, offset)
}

func (t *tracer) EmitBytes(data []byte) error {
	t.printf("  %08x  bytes %d\n", t.offsets[t.section], len(data))
	t.offsets[t.section] += int64(len(data))
	return t.Backend.EmitBytes(data)
}

func (t *tracer) EmitSymbolicReference(ref SymbolicReference) (int, error) {
	size, err := t.Backend.EmitSymbolicReference(ref)
	indirect := ""
	if ref.Indirections > 0 {
		indirect = fmt.Sprintf(" (indirections=%d)", ref.Indirections)
	}
	t.printf(
		"  %08x  reference %s %s -> %d bytes%s\n",
		t.offsets[t.section],
		ref.Kind,
		ref,
		size,
		indirect)
	t.offsets[t.section] += int64(size)
	return size, err
}

func (t *tracer) FinalizeImage() error {
	t.printf("finalize\n")
	return t.Backend.FinalizeImage()
}
