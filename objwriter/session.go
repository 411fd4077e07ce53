package objwriter

import (
	"errors"
	"io"

	"github.com/pattyshack/nuthatch/analyzer/util"
	"github.com/pattyshack/nuthatch/backend"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/objdata"
	"github.com/pattyshack/nuthatch/platform"
)

type Options struct {
	Platform platform.Platform

	// Only used by WriteImage.
	NewBackend backend.Factory

	// True when the build produces multiple compilation units whose outputs
	// are linked together.
	MultiUnit bool

	// Debug builds only.  Enables the symbol name uniqueness check.
	CheckSymbolUniqueness bool

	// Node names that are never placed into merge-foldable sections.
	FoldingExemptions []string

	// When non-nil, every backend primitive call is logged to Trace.
	Trace io.Writer
}

// Owns all mutable state of one emission pass: the backend handle, the
// integrity checker, and the per-section output cursors.  A session emits
// nodes one at a time in the given order.
type Session struct {
	platform.Platform

	backend backend.Backend
	policy  SectionPolicy

	// nil unless Options.CheckSymbolUniqueness is set.
	checker *IntegrityChecker

	hasSection     bool
	currentSection object.Section
	sectionOffsets map[object.Section]int64
}

func NewSession(output backend.Backend, options Options) *Session {
	if options.Platform == nil {
		panic("no target platform specified")
	}

	if options.Trace != nil {
		output = backend.NewTracer(output, options.Trace)
	}

	var checker *IntegrityChecker
	if options.CheckSymbolUniqueness {
		checker = NewIntegrityChecker()
	}

	return &Session{
		Platform: options.Platform,
		backend:  output,
		policy: NewSectionPolicy(
			options.Platform,
			options.MultiUnit,
			options.FoldingExemptions),
		checker:        checker,
		sectionOffsets: map[object.Section]int64{},
	}
}

type buildTask struct {
	node *object.Node
	data *objdata.ObjectData
	err  error
}

// Emits nodes strictly in the given order, skipping nodes marked as
// SkipEmission.  Node data is built in parallel since building is side
// effect free; emission itself is serialized.
func (session *Session) EmitNodes(nodes []*object.Node) error {
	tasks := make([]*buildTask, 0, len(nodes))
	for _, node := range nodes {
		if node.SkipEmission {
			continue
		}
		tasks = append(tasks, &buildTask{node: node})
	}

	util.ParallelProcess(
		tasks,
		func(task *buildTask) {
			task.data, task.err = objdata.Build(task.node, session.Platform)
		})

	for _, task := range tasks {
		if task.err != nil {
			return asInvalidProgram(task.err)
		}

		err := session.emitObjectData(task.node, task.data)
		if err != nil {
			return err
		}
	}

	return nil
}

// Builds and emits a single node.
func (session *Session) EmitNode(node *object.Node) error {
	if node.SkipEmission {
		return nil
	}

	data, err := objdata.Build(node, session.Platform)
	if err != nil {
		return asInvalidProgram(err)
	}

	return session.emitObjectData(node, data)
}

func (session *Session) Finalize() error {
	return session.backendFailure(session.backend.FinalizeImage())
}

func (session *Session) emitObjectData(
	node *object.Node,
	data *objdata.ObjectData,
) error {
	section := session.policy.SectionFor(node)
	if !session.hasSection || section != session.currentSection {
		err := session.backend.StartSection(section)
		if err != nil {
			return session.backendFailure(err)
		}
		session.hasSection = true
		session.currentSection = section
	}

	alignment := data.Alignment
	if node.Alignment > alignment {
		alignment = node.Alignment
	}

	offset := session.sectionOffsets[section]
	aligned := object.AlignUp(offset, alignment)
	if aligned > offset {
		err := session.backend.EmitBytes(make([]byte, aligned-offset))
		if err != nil {
			return session.backendFailure(err)
		}
	}

	emitter := newNodeEmitter(session, node, data)
	err := emitter.emit()
	if err != nil {
		return err
	}

	session.sectionOffsets[section] = aligned + int64(len(data.Data))
	return nil
}

func (session *Session) defineSymbol(
	node *object.Node,
	symbol object.Symbol,
	data []byte,
	offset int,
) error {
	name := session.MangledName(symbol.SymbolName())

	if session.checker != nil {
		err := session.checker.Observe(name, node)
		if err != nil {
			return err
		}
	}

	return session.backendFailure(
		session.backend.DefineSymbol(name, data, offset))
}

// Backend errors are output failures unless the backend itself classified
// them.
func (session *Session) backendFailure(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidProgram) {
		return err
	}
	return ioFailure(err)
}
