// Package loader reads a dependency graph's emission nodes from yaml.
//
// A graph file has two top level lists.  "nodes" holds the nodes in emission
// order, each with a name, kind, optional section / alignment, and a list of
// contents (bytes, int, ref, label, align).  "symbols" declares the offset
// aliases (target + offset) and embedded symbols (container + offset) that
// contents may reference by name.  Directly nameable nodes are referenced by
// their own name.
package loader

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/pattyshack/gt/parseutil"
	"gopkg.in/yaml.v3"

	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
)

func Load(path string, emitter *parseutil.Emitter) ([]*object.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(path, content, emitter), nil
}

// Syntax and name resolution errors are reported to the emitter.  Semantic
// checks (sizes, kinds, offsets) are left to the analyzer.
func Parse(
	fileName string,
	content []byte,
	emitter *parseutil.Emitter,
) []*object.Node {
	locator := newLocator(fileName, content)

	graph := &rawGraph{}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	err := decoder.Decode(graph)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		emitter.Emit(locator.location(yamlPos{line: 1, column: 1}), "%s", err)
		return nil
	}

	builder := &graphBuilder{
		positionLocator: locator,
		emitter:         emitter,
		nodes:           map[string]*object.Node{},
		symbols:         map[string]object.Symbol{},
	}
	return builder.build(graph)
}

type graphBuilder struct {
	*positionLocator
	emitter *parseutil.Emitter

	// All nodes, including anonymous ones, by name.
	nodes map[string]*object.Node

	// Referenceable symbols by name.
	symbols map[string]object.Symbol
}

func (builder *graphBuilder) pos(pos yamlPos) parseutil.StartEndPos {
	loc := builder.location(pos)
	return parseutil.NewStartEndPos(loc, loc)
}

func (builder *graphBuilder) build(graph *rawGraph) []*object.Node {
	nodes := make([]*object.Node, 0, len(graph.Nodes))
	rawContents := map[*object.Node][]*rawContent{}
	for _, raw := range graph.Nodes {
		node := builder.buildNode(raw)
		if node == nil {
			continue
		}
		nodes = append(nodes, node)
		rawContents[node] = raw.Contents
	}

	builder.buildSymbols(graph.Symbols)

	for _, node := range nodes {
		for _, raw := range rawContents[node] {
			content := builder.buildContent(node, raw)
			if content != nil {
				node.Append(content)
			}
		}
	}

	return nodes
}

func defaultSectionKind(kind object.NodeKind) object.SectionKind {
	switch kind {
	case object.FunctionNode:
		return object.TextSection
	case object.MetadataNode, object.ModuleTableNode:
		return object.ReadOnlyDataSection
	default:
		return object.DataSection
	}
}

func (builder *graphBuilder) buildNode(raw *rawNode) *object.Node {
	pos := builder.pos(raw.pos)
	if raw.Name == "" {
		builder.emitter.Emit(pos.Loc(), "node has no name")
		return nil
	}

	prev, ok := builder.nodes[raw.Name]
	if ok {
		builder.emitter.Emit(
			pos.Loc(),
			"node (%s) previously declared at (%s)",
			raw.Name,
			prev.Loc().ShortString())
		return nil
	}

	kind := object.NodeKind(raw.Kind)

	sectionKind := object.SectionKind(raw.Section)
	if raw.Section == "" {
		sectionKind = defaultSectionKind(kind)
	}
	section := object.NewSection(sectionKind)
	if raw.SectionName != "" {
		section.Name = raw.SectionName
	}
	section.ComdatKey = raw.Comdat

	var node *object.Node
	if raw.Anonymous {
		node = object.NewAnonymousNode(raw.Name, kind, section)
	} else {
		node = object.NewNode(raw.Name, kind, section)
		node.Symbol.StartEndPos = pos
		builder.defineSymbol(node.Symbol)
	}

	node.StartEndPos = pos
	node.SkipEmission = raw.Skip
	if raw.Alignment != nil {
		node.Alignment = *raw.Alignment
	}

	builder.nodes[raw.Name] = node
	return node
}

func (builder *graphBuilder) defineSymbol(symbol object.Symbol) bool {
	prev, ok := builder.symbols[symbol.SymbolName()]
	if ok {
		builder.emitter.Emit(
			symbol.Loc(),
			"symbol (%s) previously declared at (%s)",
			symbol.SymbolName(),
			prev.Loc().ShortString())
		return false
	}

	builder.symbols[symbol.SymbolName()] = symbol
	return true
}

func (builder *graphBuilder) buildSymbols(raws []*rawSymbol) {
	// Offset symbols may target symbols declared later in the list.
	type pendingTarget struct {
		symbol *object.OffsetSymbol
		target string
	}
	pending := []pendingTarget{}

	for _, raw := range raws {
		pos := builder.pos(raw.pos)
		if raw.Name == "" {
			builder.emitter.Emit(pos.Loc(), "symbol has no name")
			continue
		}

		if (raw.Target == "") == (raw.Container == "") {
			builder.emitter.Emit(
				pos.Loc(),
				"symbol (%s) must specify exactly one of target or container",
				raw.Name)
			continue
		}

		if raw.Container != "" {
			container, ok := builder.nodes[raw.Container]
			if !ok {
				builder.emitter.Emit(
					pos.Loc(),
					"symbol (%s) has undeclared container node (%s)",
					raw.Name,
					raw.Container)
				continue
			}

			symbol := object.NewEmbeddedSymbol(raw.Name, container, raw.Offset)
			symbol.StartEndPos = pos
			builder.defineSymbol(symbol)
			continue
		}

		symbol := object.NewOffsetSymbol(raw.Name, nil, raw.Offset)
		symbol.StartEndPos = pos
		symbol.Indirect = raw.Indirect
		if builder.defineSymbol(symbol) {
			pending = append(pending, pendingTarget{symbol, raw.Target})
		}
	}

	for _, entry := range pending {
		target, ok := builder.symbols[entry.target]
		if !ok {
			builder.emitter.Emit(
				entry.symbol.Loc(),
				"symbol (%s) has undeclared target (%s)",
				entry.symbol.Name,
				entry.target)
			continue
		}
		entry.symbol.Target = target
	}
}

func (builder *graphBuilder) lookup(
	pos parseutil.StartEndPos,
	node *object.Node,
	name string,
) object.Symbol {
	symbol, ok := builder.symbols[name]
	if !ok {
		builder.emitter.Emit(
			pos.Loc(),
			"node (%s) references undeclared symbol (%s)",
			node.Name,
			name)
		return nil
	}
	return symbol
}

func (builder *graphBuilder) buildContent(
	node *object.Node,
	raw *rawContent,
) object.Content {
	pos := builder.pos(raw.pos)
	if raw.numSet() != 1 {
		builder.emitter.Emit(
			pos.Loc(),
			"node (%s) content must specify exactly one of "+
				"bytes, int, ref, label or align",
			node.Name)
		return nil
	}

	switch {
	case raw.Bytes != nil:
		data, err := hex.DecodeString(strings.Join(strings.Fields(*raw.Bytes), ""))
		if err != nil {
			builder.emitter.Emit(
				pos.Loc(),
				"node (%s) has malformed hex bytes: %s",
				node.Name,
				err)
			return nil
		}
		return &object.Bytes{
			StartEndPos: pos,
			Data:        data,
		}

	case raw.Int != nil:
		return &object.Integer{
			StartEndPos: pos,
			Value:       raw.Int.Value,
			Size:        raw.Int.Size,
		}

	case raw.Ref != nil:
		target := builder.lookup(pos, node, raw.Ref.Target)
		if target == nil {
			return nil
		}
		return &object.Reference{
			StartEndPos: pos,
			Target:      target,
			Kind:        platform.RelocationKind(raw.Ref.Kind),
			Delta:       raw.Ref.Delta,
		}

	case raw.Label != nil:
		symbol := builder.lookup(pos, node, *raw.Label)
		if symbol == nil {
			return nil
		}
		return &object.Label{
			StartEndPos: pos,
			Symbol:      symbol,
		}

	default:
		return &object.Padding{
			StartEndPos: pos,
			Alignment:   *raw.Align,
		}
	}
}

// Maps yaml line / column positions to source locations.
type positionLocator struct {
	fileName   string
	content    []byte
	lineStarts []int

	reader parseutil.BufferedByteLocationReader
	offset int
}

func newLocator(fileName string, content []byte) *positionLocator {
	lineStarts := []int{0}
	for idx, char := range content {
		if char == '\n' {
			lineStarts = append(lineStarts, idx+1)
		}
	}

	locator := &positionLocator{
		fileName:   fileName,
		content:    content,
		lineStarts: lineStarts,
	}
	locator.reset()
	return locator
}

func (locator *positionLocator) reset() {
	locator.reader = parseutil.NewBufferedByteLocationReaderFromSlice(
		locator.fileName,
		locator.content)
	locator.offset = 0
}

func (locator *positionLocator) byteOffset(pos yamlPos) int {
	if pos.line < 1 {
		return 0
	}

	if pos.line > len(locator.lineStarts) {
		return len(locator.content)
	}

	offset := locator.lineStarts[pos.line-1]
	if pos.column > 1 {
		offset += pos.column - 1
	}

	if offset > len(locator.content) {
		return len(locator.content)
	}
	return offset
}

func (locator *positionLocator) location(pos yamlPos) parseutil.Location {
	offset := locator.byteOffset(pos)
	if offset < locator.offset {
		locator.reset()
	}

	if offset > locator.offset {
		discarded, _ := locator.reader.Discard(offset - locator.offset)
		locator.offset += discarded
	}

	return locator.reader.Location
}
