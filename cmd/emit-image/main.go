package main

import (
	"fmt"
	"os"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/nuthatch/analyzer"
	"github.com/pattyshack/nuthatch/config"
	"github.com/pattyshack/nuthatch/loader"
	"github.com/pattyshack/nuthatch/objwriter"
)

func usage() {
	fmt.Fprintf(
		os.Stderr,
		"usage: %s [-config <config.yaml>] <graph.yaml> <output>\n",
		os.Args[0])
	os.Exit(2)
}

func main() {
	args := os.Args[1:]

	cfg := config.Default()
	if len(args) > 0 && args[0] == "-config" {
		if len(args) < 2 {
			usage()
		}

		var err error
		cfg, err = config.Load(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Config error:", err)
			os.Exit(1)
		}
		args = args[2:]
	}

	if len(args) != 2 {
		usage()
	}
	graphFile, outputFile := args[0], args[1]

	options, err := cfg.Options(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}

	emitter := &parseutil.Emitter{}
	nodes, err := loader.Load(graphFile, emitter)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Load error:", err)
		os.Exit(1)
	}

	if !emitter.HasErrors() {
		analyzer.Analyze(nodes, options.Platform, emitter)
	}

	errs := emitter.Errors()
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Found", len(errs), "errors:")
		for idx, err := range errs {
			fmt.Fprintf(os.Stderr, "error %d: %s\n", idx, err)
		}
		os.Exit(1)
	}

	err = objwriter.WriteImage(outputFile, nodes, options)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Emit error:", err)
		os.Exit(1)
	}
}
