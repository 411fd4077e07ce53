package backend_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pattyshack/nuthatch/backend"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
	"github.com/pattyshack/nuthatch/platform/amd64"
)

func TestTracerForwardsAndLogs(t *testing.T) {
	recorder := backend.NewRecorder(amd64.NewPlatform(platform.Linux))
	output := &bytes.Buffer{}
	traced := backend.NewTracer(recorder, output)

	if err := traced.StartSection(object.NewSection(object.TextSection)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := traced.DefineSymbol("main", nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := traced.EmitBytes([]byte{0x90, 0x90}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	size, err := traced.EmitSymbolicReference(backend.SymbolicReference{
		Name:         "callee",
		Offset:       8,
		Delta:        -4,
		Kind:         platform.Rel32Relocation,
		Indirections: 1,
	})
	if err != nil || size != 4 {
		t.Fatalf("unexpected result: %d %v", size, err)
	}
	if err := traced.FinalizeImage(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recorder.Calls) != 5 {
		t.Fatalf("expected 5 forwarded calls, got %d", len(recorder.Calls))
	}

	expected := []string{
		"section .text(text)",
		"  00000000  define main (node offset 0)",
		"  00000000  bytes 2",
		"  00000002  reference rel32 callee+4 -> 4 bytes (indirections=1)",
		"finalize",
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got:\n%s", len(expected), output.String())
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d: expected %q, got %q", i, expected[i], lines[i])
		}
	}
}

func TestRecorderFailure(t *testing.T) {
	recorder := backend.NewRecorder(amd64.NewPlatform(platform.Linux))
	recorder.FailOn = backend.EmitBytesCall

	if err := recorder.DefineSymbol("a", nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := recorder.EmitBytes([]byte{1}); err == nil {
		t.Fatalf("expected injected failure")
	}
	if len(recorder.CallsOf(backend.EmitBytesCall)) != 1 {
		t.Errorf("expected the failed call to be recorded")
	}
}

func TestTracerResumesSectionOffsets(t *testing.T) {
	recorder := backend.NewRecorder(amd64.NewPlatform(platform.Linux))
	output := &bytes.Buffer{}
	traced := backend.NewTracer(recorder, output)

	data := object.NewSection(object.DataSection)
	text := object.NewSection(object.TextSection)

	_ = traced.StartSection(data)
	_ = traced.EmitBytes([]byte{1, 2, 3})
	_ = traced.StartSection(text)
	_ = traced.EmitBytes([]byte{0xc3})
	_ = traced.StartSection(data)
	_ = traced.DefineSymbol("tail", nil, 0)
	_ = traced.EmitBytes([]byte{4})

	expected := []string{
		"section .data(data)",
		"  00000000  bytes 3",
		"section .text(text)",
		"  00000000  bytes 1",
		"section .data(data)",
		"  00000003  define tail (node offset 0)",
		"  00000003  bytes 1",
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got:\n%s", len(expected), output.String())
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d: expected %q, got %q", i, expected[i], lines[i])
		}
	}
}
