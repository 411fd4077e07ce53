package backend

import (
	"fmt"

	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
)

type CallKind string

const (
	StartSectionCall          = CallKind("StartSection")
	DefineSymbolCall          = CallKind("DefineSymbol")
	EmitBytesCall             = CallKind("EmitBytes")
	EmitSymbolicReferenceCall = CallKind("EmitSymbolicReference")
	FinalizeImageCall         = CallKind("FinalizeImage")
)

type Call struct {
	Kind CallKind

	// Used by StartSection
	Section object.Section

	// Used by DefineSymbol
	Name   string
	Offset int

	// Used by EmitBytes
	Bytes []byte

	// Used by EmitSymbolicReference
	Reference SymbolicReference
}

func (call Call) String() string {
	switch call.Kind {
	case StartSectionCall:
		return fmt.Sprintf("%s(%s)", call.Kind, call.Section)
	case DefineSymbolCall:
		return fmt.Sprintf("%s(%s, %d)", call.Kind, call.Name, call.Offset)
	case EmitBytesCall:
		return fmt.Sprintf("%s(% x)", call.Kind, call.Bytes)
	case EmitSymbolicReferenceCall:
		return fmt.Sprintf(
			"%s(%s, %s)",
			call.Kind,
			call.Reference,
			call.Reference.Kind)
	default:
		return string(call.Kind)
	}
}

// Records every primitive call without producing an image.  Symbolic
// references consume their platform relocation size.
type Recorder struct {
	platform.Platform

	Calls []Call

	// When set, returned by the matching primitive.
	FailOn CallKind
	Err    error
}

var _ Backend = &Recorder{}

func NewRecorder(targetPlatform platform.Platform) *Recorder {
	return &Recorder{
		Platform: targetPlatform,
	}
}

func (recorder *Recorder) fail(kind CallKind) error {
	if recorder.FailOn == kind {
		if recorder.Err != nil {
			return recorder.Err
		}
		return fmt.Errorf("recorder: injected %s failure", kind)
	}
	return nil
}

func (recorder *Recorder) StartSection(section object.Section) error {
	recorder.Calls = append(
		recorder.Calls,
		Call{
			Kind:    StartSectionCall,
			Section: section,
		})
	return recorder.fail(StartSectionCall)
}

func (recorder *Recorder) DefineSymbol(
	name string,
	data []byte,
	offset int,
) error {
	recorder.Calls = append(
		recorder.Calls,
		Call{
			Kind:   DefineSymbolCall,
			Name:   name,
			Offset: offset,
		})
	return recorder.fail(DefineSymbolCall)
}

func (recorder *Recorder) EmitBytes(data []byte) error {
	recorder.Calls = append(
		recorder.Calls,
		Call{
			Kind:  EmitBytesCall,
			Bytes: append([]byte{}, data...),
		})
	return recorder.fail(EmitBytesCall)
}

func (recorder *Recorder) EmitSymbolicReference(
	ref SymbolicReference,
) (
	int,
	error,
) {
	recorder.Calls = append(
		recorder.Calls,
		Call{
			Kind:      EmitSymbolicReferenceCall,
			Reference: ref,
		})

	err := recorder.fail(EmitSymbolicReferenceCall)
	if err != nil {
		return 0, err
	}
	return platform.RelocationByteSize(recorder.Platform, ref.Kind), nil
}

func (recorder *Recorder) FinalizeImage() error {
	recorder.Calls = append(recorder.Calls, Call{Kind: FinalizeImageCall})
	return recorder.fail(FinalizeImageCall)
}

// Returns the recorded calls of the given kind.
func (recorder *Recorder) CallsOf(kind CallKind) []Call {
	result := []Call{}
	for _, call := range recorder.Calls {
		if call.Kind == kind {
			result = append(result, call)
		}
	}
	return result
}
