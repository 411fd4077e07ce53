package object

import (
	"github.com/pattyshack/gt/parseutil"
)

type Visitable interface {
	parseutil.Locatable
	Walk(Visitor)
}

type Visitor interface {
	Enter(Visitable)
	Exit(Visitable)
}

type Validator interface {
	Validate(*parseutil.Emitter)
}

type NodeKind string

const (
	FunctionNode = NodeKind("function")
	DataNode     = NodeKind("data")
	MetadataNode = NodeKind("metadata")

	// Per-unit module table.  Byte-identical copies across units are
	// reconciled by linker directives, never folded.
	ModuleTableNode = NodeKind("module-table")
)

func IsKnownNodeKind(kind NodeKind) bool {
	switch kind {
	case FunctionNode, DataNode, MetadataNode, ModuleTableNode:
		return true
	default:
		return false
	}
}

// A compiled unit of output.  Nodes are owned by the dependency graph; the
// emission core only reads them.
type Node struct {
	parseutil.StartEndPos

	Name string // diagnostic name
	Kind NodeKind

	// nil if the node is not directly nameable.
	Symbol *RootSymbol

	Section   Section
	Alignment int

	// Set by the dependency graph for folded duplicates etc.
	SkipEmission bool

	// Evaluated in order to produce the node's data.
	Contents []Content
}

var _ Visitable = &Node{}
var _ Validator = &Node{}

// Creates a directly nameable node whose root symbol shares the node's name.
func NewNode(name string, kind NodeKind, section Section) *Node {
	node := &Node{
		Name:      name,
		Kind:      kind,
		Section:   section,
		Alignment: 1,
	}
	node.Symbol = &RootSymbol{
		Name: name,
		Node: node,
	}
	return node
}

// Creates a node that is not directly nameable.
func NewAnonymousNode(name string, kind NodeKind, section Section) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Section:   section,
		Alignment: 1,
	}
}

func (node *Node) Append(contents ...Content) *Node {
	node.Contents = append(node.Contents, contents...)
	return node
}

func (node *Node) String() string {
	return node.Name
}

func (node *Node) Walk(visitor Visitor) {
	visitor.Enter(node)
	for _, content := range node.Contents {
		content.Walk(visitor)
	}
	visitor.Exit(node)
}

func (node *Node) Validate(emitter *parseutil.Emitter) {
	if node.Name == "" {
		emitter.Emit(node.Loc(), "empty node name")
	}

	if !IsKnownNodeKind(node.Kind) {
		emitter.Emit(node.Loc(), "node (%s) has unknown kind (%s)", node.Name, node.Kind)
	}

	if !IsPowerOfTwo(node.Alignment) {
		emitter.Emit(
			node.Loc(),
			"node (%s) alignment (%d) is not a positive power of two",
			node.Name,
			node.Alignment)
	}

	if node.Symbol != nil && node.Symbol.Node != node {
		emitter.Emit(
			node.Loc(),
			"node (%s) root symbol (%s) belongs to another node",
			node.Name,
			node.Symbol.Name)
	}

	node.Section.validate(node, emitter)
}

func IsPowerOfTwo(value int) bool {
	return value > 0 && value&(value-1) == 0
}

func AlignUp(offset int64, alignment int) int64 {
	mask := int64(alignment) - 1
	return (offset + mask) &^ mask
}
