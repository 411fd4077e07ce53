package analyzer

import (
	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/analyzer/util"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
)

// Checks the node graph before emission.  Per-node checks run in parallel;
// a node with syntax errors skips the remaining checks.
func Analyze(
	nodes []*object.Node,
	targetPlatform platform.Platform,
	emitter *parseutil.Emitter,
) {
	nodeEmitters := make(map[*object.Node]*parseutil.Emitter, len(nodes))
	for _, node := range nodes {
		nodeEmitters[node] = &parseutil.Emitter{}
	}

	util.ParallelProcess(
		nodes,
		func(node *object.Node) {
			nodeEmitter := nodeEmitters[node]

			passes := [][]util.Pass[*object.Node]{
				{ValidateNodeSyntax(nodeEmitter)},
				{CheckSymbolResolution(nodeEmitter)},
				{CheckLabelOffsets(nodeEmitter, targetPlatform)},
			}

			util.Process(node, passes, nodeEmitter.HasErrors)
		})

	for _, node := range nodes {
		emitter.EmitErrors(nodeEmitters[node].Errors()...)
	}

	NewSymbolCollector(emitter).Process(nodes)
}
