package analyzer

import (
	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/analyzer/util"
	"github.com/pattyshack/nuthatch/object"
)

type nodeSyntaxValidator struct {
	*parseutil.Emitter
}

func ValidateNodeSyntax(emitter *parseutil.Emitter) util.Pass[*object.Node] {
	return nodeSyntaxValidator{
		Emitter: emitter,
	}
}

func (validator nodeSyntaxValidator) Process(node *object.Node) {
	node.Walk(validator)
}

func (validator nodeSyntaxValidator) Enter(n object.Visitable) {
	switch node := n.(type) {
	case object.Validator:
		node.Validate(validator.Emitter)
	}
}

func (validator nodeSyntaxValidator) Exit(node object.Visitable) {
}
