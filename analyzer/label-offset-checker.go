package analyzer

import (
	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/analyzer/util"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/objdata"
	"github.com/pattyshack/nuthatch/objwriter"
	"github.com/pattyshack/nuthatch/platform"
)

// Checks that each label lands where its symbol says it is.  A label that
// defines a symbol based on its own node must sit at the symbol's resolved
// offset, and a label may not define a symbol based on another node.
type labelOffsetChecker struct {
	*parseutil.Emitter
	platform.Platform
}

func CheckLabelOffsets(
	emitter *parseutil.Emitter,
	targetPlatform platform.Platform,
) util.Pass[*object.Node] {
	return labelOffsetChecker{
		Emitter:  emitter,
		Platform: targetPlatform,
	}
}

func (checker labelOffsetChecker) Process(node *object.Node) {
	data, err := objdata.Build(node, checker.Platform)
	if err != nil {
		checker.EmitErrors(err)
		return
	}

	labels := []*object.Label{}
	for _, content := range node.Contents {
		label, ok := content.(*object.Label)
		if ok {
			labels = append(labels, label)
		}
	}

	// Definitions are produced one per label, in content order.
	for idx, def := range data.Definitions {
		label := labels[idx]

		res, err := objwriter.ResolveSymbol(def.Symbol)
		if err != nil {
			continue // reported by symbol resolution
		}

		if res.Base == nil { // self reference
			continue
		}

		if res.Base.Node != node {
			checker.Emit(
				label.Loc(),
				"node (%s) labels symbol (%s) which is based on node (%s)",
				node.Name,
				def.Symbol.SymbolName(),
				res.Base.Node.Name)
			continue
		}

		if res.Offset != int64(def.Offset) {
			checker.Emit(
				label.Loc(),
				"node (%s) labels symbol (%s) at offset %d, "+
					"but the symbol resolves to offset %d",
				node.Name,
				def.Symbol.SymbolName(),
				def.Offset,
				res.Offset)
		}
	}
}
