package analyzer

import (
	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/analyzer/util"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/objwriter"
)

// Checks that every referenced or labelled symbol resolves to a nameable
// base.
type symbolResolutionChecker struct {
	*parseutil.Emitter
}

func CheckSymbolResolution(emitter *parseutil.Emitter) util.Pass[*object.Node] {
	return symbolResolutionChecker{
		Emitter: emitter,
	}
}

func (checker symbolResolutionChecker) Process(node *object.Node) {
	for _, c := range node.Contents {
		var symbol object.Symbol
		switch content := c.(type) {
		case *object.Reference:
			symbol = content.Target
		case *object.Label:
			symbol = content.Symbol
		default:
			continue
		}

		if symbol == nil { // reported by syntax validation
			continue
		}

		_, err := objwriter.ResolveSymbol(symbol)
		if err != nil {
			checker.EmitErrors(err)
		}
	}
}
