package main

import (
	"fmt"
	"os"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/analyzer"
	"github.com/pattyshack/nuthatch/loader"
	"github.com/pattyshack/nuthatch/object"
	"github.com/pattyshack/nuthatch/platform"
	"github.com/pattyshack/nuthatch/platform/amd64"
)

func main() {
	targetPlatform := amd64.NewPlatform(platform.Linux)

	for _, fileName := range os.Args[1:] {
		fmt.Println("=====================")
		fmt.Println("File name:", fileName)
		fmt.Println("---------------------")

		emitter := &parseutil.Emitter{}
		nodes, err := loader.Load(fileName, emitter)
		if err != nil {
			fmt.Println("Load error:", err)
			continue
		}

		if !emitter.HasErrors() {
			analyzer.Analyze(nodes, targetPlatform, emitter)
		}

		for idx, node := range nodes {
			fmt.Printf("Node %d:\n", idx)
			fmt.Println(object.TreeString(node, "  "))
		}

		errs := emitter.Errors()
		if len(errs) > 0 {
			fmt.Println("---------------------------")
			fmt.Println("Found", len(errs), "errors:")
			fmt.Println("---------------------------")
			for idx, err := range errs {
				fmt.Printf("error %d: %s\n", idx, err)
			}
		}
	}
}
