package objwriter_test

import (
	"errors"
	"testing"

	"github.com/pattyshack/nuthatch/backend"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/objdata"
	"github.com/pattyshack/nuthatch/objwriter"
	"github.com/pattyshack/nuthatch/platform"
	"github.com/pattyshack/nuthatch/platform/amd64"
	"github.com/pattyshack/nuthatch/platform/m68k"
)

func newTestSession(
	targetPlatform platform.Platform,
) (
	*objwriter.Session,
	*backend.Recorder,
) {
	recorder := backend.NewRecorder(targetPlatform)
	session := objwriter.NewSession(
		recorder,
		objwriter.Options{
			Platform:              targetPlatform,
			CheckSymbolUniqueness: true,
		})
	return session, recorder
}

func textSection() object.Section {
	return object.NewSection(object.TextSection)
}

func dataSection() object.Section {
	return object.NewSection(object.DataSection)
}

func TestRoundTripAddressing(t *testing.T) {
	session, recorder := newTestSession(amd64.NewPlatform(platform.Linux))

	callee := object.NewNode("callee", object.DataNode, dataSection())
	field := object.NewOffsetSymbol("callee_field", callee.Symbol, 16)

	caller := object.NewNode("caller", object.FunctionNode, textSection())
	caller.Append(
		&object.Bytes{Data: []byte{0x90}},
		&object.Reference{
			Target: field,
			Kind:   platform.AbsPtrRelocation,
			Delta:  8,
		},
		&object.Bytes{Data: []byte{0xc3}})

	err := session.EmitNode(caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs := recorder.CallsOf(backend.EmitSymbolicReferenceCall)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %v", recorder.Calls)
	}

	ref := refs[0].Reference
	if ref.Name != "callee" ||
		ref.Offset != 16 ||
		ref.Delta != 8 ||
		ref.Displacement() != 24 ||
		ref.Kind != platform.AbsPtrRelocation {

		t.Errorf("unexpected reference: %+v", ref)
	}

	expected := []backend.CallKind{
		backend.StartSectionCall,
		backend.EmitBytesCall,
		backend.EmitSymbolicReferenceCall,
		backend.EmitBytesCall,
	}
	assertCallKinds(t, recorder, expected)
}

func TestLegacyRelocationRewrite(t *testing.T) {
	session, recorder := newTestSession(amd64.NewPlatform(platform.Linux))

	target := object.NewNode("target", object.FunctionNode, textSection())
	node := object.NewNode("node", object.FunctionNode, textSection())
	node.Append(&object.Reference{
		Target: target.Symbol,
		Kind:   platform.RelPtr32Relocation,
		Delta:  -2,
	})

	err := session.EmitNode(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs := recorder.CallsOf(backend.EmitSymbolicReferenceCall)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %v", recorder.Calls)
	}
	ref := refs[0].Reference
	if ref.Kind != platform.Rel32Relocation || ref.Delta != 2 {
		t.Errorf("expected (rel32, 2), got (%s, %d)", ref.Kind, ref.Delta)
	}
}

func TestBigEndianDeltaDecode(t *testing.T) {
	session, recorder := newTestSession(m68k.NewPlatform(platform.Linux))

	target := object.NewNode("target", object.DataNode, dataSection())
	node := object.NewNode("node", object.DataNode, dataSection())
	node.Append(
		&object.Integer{Value: 0x4e75, Size: 2},
		&object.Reference{
			Target: target.Symbol,
			Kind:   platform.AbsPtrRelocation,
			Delta:  0x1234,
		})

	err := session.EmitNode(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs := recorder.CallsOf(backend.EmitSymbolicReferenceCall)
	if len(refs) != 1 || refs[0].Reference.Delta != 0x1234 {
		t.Fatalf("unexpected references: %v", refs)
	}

	byteCalls := recorder.CallsOf(backend.EmitBytesCall)
	if len(byteCalls) != 1 ||
		len(byteCalls[0].Bytes) != 2 ||
		byteCalls[0].Bytes[0] != 0x4e {

		t.Errorf("unexpected bytes: %v", byteCalls)
	}
}

func TestScanCompleteness(t *testing.T) {
	session, recorder := newTestSession(amd64.NewPlatform(platform.Linux))

	target := object.NewNode("target", object.DataNode, dataSection())
	node := object.NewNode("node", object.DataNode, dataSection())
	mid := object.NewOffsetSymbol("mid", node.Symbol, 7)
	end := object.NewOffsetSymbol("end", node.Symbol, 35)
	node.Append(
		&object.Label{Symbol: node.Symbol},
		&object.Bytes{Data: []byte{1, 2, 3}},
		&object.Reference{Target: target.Symbol, Kind: platform.Rel32Relocation},
		&object.Label{Symbol: mid},
		&object.Reference{Target: target.Symbol, Kind: platform.AbsPtrRelocation},
		&object.Reference{Target: target.Symbol, Kind: platform.RelPtr32Relocation},
		&object.Bytes{Data: make([]byte, 12)},
		&object.Integer{Value: 5, Size: 4},
		&object.Label{Symbol: end})

	data, err := objdata.Build(node, amd64.NewPlatform(platform.Linux))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = session.EmitNode(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	covered := 0
	for _, call := range recorder.Calls {
		switch call.Kind {
		case backend.EmitBytesCall:
			if len(call.Bytes) == 0 {
				t.Errorf("empty bytes run at %d", covered)
			}
			covered += len(call.Bytes)
		case backend.EmitSymbolicReferenceCall:
			covered += platform.RelocationByteSize(
				session.Platform,
				call.Reference.Kind)
		case backend.DefineSymbolCall:
			if call.Offset != covered {
				t.Errorf("symbol %s defined at %d while cursor is %d",
					call.Name, call.Offset, covered)
			}
		}
	}

	if covered != len(data.Data) {
		t.Errorf("expected %d covered bytes, got %d", len(data.Data), covered)
	}

	interruptions := objwriter.ByteInterruptionOffsets(data)
	expected := []int{0, 3, 7, 15, 35}
	if len(interruptions) != len(expected) {
		t.Fatalf("expected interruptions %v, got %v", expected, interruptions)
	}
	for i := range expected {
		if interruptions[i] != expected[i] {
			t.Errorf("expected interruptions %v, got %v", expected, interruptions)
			break
		}
	}

	// bytes[0,3) / rel32 / absptr / rel32 / bytes[19,35) / end
	assertCallKinds(t, recorder, []backend.CallKind{
		backend.StartSectionCall,
		backend.DefineSymbolCall,
		backend.EmitBytesCall,
		backend.EmitSymbolicReferenceCall,
		backend.DefineSymbolCall,
		backend.EmitSymbolicReferenceCall,
		backend.EmitSymbolicReferenceCall,
		backend.EmitBytesCall,
		backend.DefineSymbolCall,
	})
}

func TestAliasPreservation(t *testing.T) {
	session, recorder := newTestSession(amd64.NewPlatform(platform.Darwin))

	node := object.NewNode("node", object.DataNode, dataSection())
	first := object.NewOffsetSymbol("first", node.Symbol, 4)
	second := object.NewOffsetSymbol("second", node.Symbol, 4)
	node.Append(
		&object.Integer{Value: 1, Size: 4},
		&object.Label{Symbol: first},
		&object.Label{Symbol: second},
		&object.Integer{Value: 2, Size: 4})

	err := session.EmitNode(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs := recorder.CallsOf(backend.DefineSymbolCall)
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %v", defs)
	}
	if defs[0].Name != "_first" || defs[1].Name != "_second" {
		t.Errorf("expected [_first _second], got [%s %s]", defs[0].Name, defs[1].Name)
	}
	if defs[0].Offset != 4 || defs[1].Offset != 4 {
		t.Errorf("unexpected offsets: %v", defs)
	}
}

func TestEmptyNodeDefinitions(t *testing.T) {
	session, recorder := newTestSession(amd64.NewPlatform(platform.Linux))

	node := object.NewNode("marker", object.DataNode, dataSection())
	node.Append(&object.Label{Symbol: node.Symbol})

	err := session.EmitNode(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertCallKinds(t, recorder, []backend.CallKind{
		backend.StartSectionCall,
		backend.DefineSymbolCall,
	})
}

type shortBackend struct {
	*backend.Recorder
}

func (b shortBackend) EmitSymbolicReference(
	ref backend.SymbolicReference,
) (
	int,
	error,
) {
	_, err := b.Recorder.EmitSymbolicReference(ref)
	return 2, err
}

func TestBackendWidthMismatch(t *testing.T) {
	targetPlatform := amd64.NewPlatform(platform.Linux)
	session := objwriter.NewSession(
		shortBackend{backend.NewRecorder(targetPlatform)},
		objwriter.Options{Platform: targetPlatform})

	target := object.NewNode("target", object.DataNode, dataSection())
	node := object.NewNode("node", object.DataNode, dataSection())
	node.Append(&object.Reference{Target: target.Symbol, Kind: platform.Rel32Relocation})

	err := session.EmitNode(node)
	if !errors.Is(err, objwriter.ErrInvalidProgram) {
		t.Fatalf("expected invalid program error, got %v", err)
	}
}

func TestUnresolvableReference(t *testing.T) {
	session, _ := newTestSession(amd64.NewPlatform(platform.Linux))

	anonymous := object.NewAnonymousNode("anon", object.DataNode, dataSection())
	node := object.NewNode("node", object.DataNode, dataSection())
	node.Append(&object.Reference{
		Target: object.NewEmbeddedSymbol("elem", anonymous, 8),
		Kind:   platform.AbsPtrRelocation,
	})

	err := session.EmitNode(node)
	if !errors.Is(err, objwriter.ErrInvalidProgram) {
		t.Fatalf("expected invalid program error, got %v", err)
	}
}

func TestBackendFailureIsIOFailure(t *testing.T) {
	targetPlatform := amd64.NewPlatform(platform.Linux)
	recorder := backend.NewRecorder(targetPlatform)
	recorder.FailOn = backend.EmitBytesCall
	session := objwriter.NewSession(recorder, objwriter.Options{Platform: targetPlatform})

	node := object.NewNode("node", object.DataNode, dataSection())
	node.Append(&object.Bytes{Data: []byte{1}})

	err := session.EmitNode(node)
	if !errors.Is(err, objwriter.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
}

func TestSectionAlignmentPadding(t *testing.T) {
	session, recorder := newTestSession(amd64.NewPlatform(platform.Linux))

	first := object.NewNode("first", object.DataNode, dataSection())
	first.Append(&object.Bytes{Data: []byte{1, 2, 3}})

	second := object.NewNode("second", object.DataNode, dataSection())
	second.Alignment = 8
	second.Append(
		&object.Label{Symbol: second.Symbol},
		&object.Bytes{Data: []byte{4}})

	code := object.NewNode("code", object.FunctionNode, textSection())
	code.Append(&object.Bytes{Data: []byte{0xc3}})

	third := object.NewNode("third", object.DataNode, dataSection())
	third.Alignment = 4
	third.Append(&object.Bytes{Data: []byte{5}})

	err := session.EmitNodes([]*object.Node{first, second, code, third})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := []string{}
	for _, call := range recorder.Calls {
		calls = append(calls, call.String())
	}

	expected := []string{
		"StartSection(.data(data))",
		"EmitBytes(01 02 03)",
		"EmitBytes(00 00 00 00 00)",
		"DefineSymbol(second, 0)",
		"EmitBytes(04)",
		"StartSection(.text(text))",
		"EmitBytes(c3)",
		"StartSection(.data(data))",
		"EmitBytes(00 00 00)",
		"EmitBytes(05)",
	}
	if len(calls) != len(expected) {
		t.Fatalf("expected calls:\n%v\ngot:\n%v", expected, calls)
	}
	for i := range expected {
		if calls[i] != expected[i] {
			t.Errorf("call %d: expected %s, got %s", i, expected[i], calls[i])
		}
	}
}

func assertCallKinds(
	t *testing.T,
	recorder *backend.Recorder,
	expected []backend.CallKind,
) {
	t.Helper()

	if len(recorder.Calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v",
			len(expected), len(recorder.Calls), recorder.Calls)
	}
	for i, call := range recorder.Calls {
		if call.Kind != expected[i] {
			t.Errorf("call %d: expected %s, got %s", i, expected[i], call)
		}
	}
}
