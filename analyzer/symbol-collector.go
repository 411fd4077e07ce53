package analyzer

import (
	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/object"
)

type definition struct {
	symbol object.Symbol
	node   *object.Node
}

// Collects the symbols defined by each node's labels and reports names
// defined by more than one node.  A node may label the same name more than
// once.
type SymbolCollector struct {
	*parseutil.Emitter
	definitions map[string]definition
}

func NewSymbolCollector(emitter *parseutil.Emitter) *SymbolCollector {
	return &SymbolCollector{
		Emitter:     emitter,
		definitions: map[string]definition{},
	}
}

// Maps symbol name to its defining node.
func (collector *SymbolCollector) Definitions() map[string]*object.Node {
	result := make(map[string]*object.Node, len(collector.definitions))
	for name, def := range collector.definitions {
		result[name] = def.node
	}
	return result
}

func (collector *SymbolCollector) Process(nodes []*object.Node) {
	for _, node := range nodes {
		if node.SkipEmission {
			continue
		}

		for _, content := range node.Contents {
			label, ok := content.(*object.Label)
			if !ok || label.Symbol == nil {
				continue
			}

			name := label.Symbol.SymbolName()
			prev, ok := collector.definitions[name]
			if !ok {
				collector.definitions[name] = definition{
					symbol: label.Symbol,
					node:   node,
				}
				continue
			}

			if prev.node == node {
				continue
			}

			collector.Emit(
				label.Loc(),
				"symbol (%s) defined by node (%s) previously defined by node (%s) at (%s)",
				name,
				node.Name,
				prev.node.Name,
				prev.symbol.Loc().ShortString())
		}
	}
}
