package object

import (
	"bytes"
	"fmt"
	"io"
)

const (
	indent = "  "
)

func TreeString(node Visitable, indent string) string {
	buffer := &bytes.Buffer{}
	_ = PrintTree(buffer, node, indent)
	return buffer.String()
}

func PrintTree(output io.Writer, node Visitable, indent string) error {
	printer := &treePrinter{
		indent:     indent,
		labelStack: []string{},
		writer:     output,
	}
	node.Walk(printer)
	return printer.err
}

type treePrinter struct {
	indent     string
	labelStack []string
	writer     io.Writer
	err        error
}

func (printer *treePrinter) write(format string, args ...interface{}) {
	if printer.err != nil {
		return
	}

	if len(args) == 0 {
		_, printer.err = printer.writer.Write([]byte(format))
	} else {
		_, printer.err = fmt.Fprintf(printer.writer, format, args...)
	}
}

func (printer *treePrinter) writeLabel() {
	label := ""
	if len(printer.labelStack) > 0 {
		label = printer.labelStack[len(printer.labelStack)-1]
		printer.labelStack = printer.labelStack[:len(printer.labelStack)-1]
	}

	if len(label) > 0 {
		printer.write("\n")
		printer.write(printer.indent)
		printer.write(label)
	} else {
		printer.write(printer.indent)
	}
}

func (printer *treePrinter) endNode() {
	printer.indent = printer.indent[:len(printer.indent)-len(indent)]
	printer.write("\n")
	printer.write(printer.indent)
	printer.write("]")
}

func (printer *treePrinter) push(labels ...string) {
	printer.indent += indent

	for len(labels) > 0 {
		last := labels[len(labels)-1]
		labels = labels[:len(labels)-1]

		printer.labelStack = append(printer.labelStack, last)
	}
}

func (printer *treePrinter) Enter(n Visitable) {
	printer.writeLabel()

	switch node := n.(type) {
	case *Node:
		symbol := "(anonymous)"
		if node.Symbol != nil {
			symbol = node.Symbol.Name
		}
		printer.write(
			"[Node: Name=%s Kind=%s Symbol=%s Section=%s Alignment=%d Skip=%v",
			node.Name,
			node.Kind,
			symbol,
			node.Section,
			node.Alignment,
			node.SkipEmission)

		labels := []string{}
		for idx := range node.Contents {
			labels = append(labels, fmt.Sprintf("Content%d=", idx))
		}
		printer.push(labels...)

	case *Bytes:
		printer.write("[Bytes: Length=%d Data=% x]", len(node.Data), node.Data)
	case *Integer:
		printer.write("[Integer: Size=%d Value=%d]", node.Size, node.Value)
	case *Reference:
		printer.write(
			"[Reference: Kind=%s Target=%s Delta=%d]",
			node.Kind,
			node.Target,
			node.Delta)
	case *Label:
		printer.write("[Label: Symbol=%s]", node.Symbol)
	case *Padding:
		printer.write("[Padding: Alignment=%d]", node.Alignment)

	default:
		printer.write("unhandled node: %v", n)
	}
}

func (printer *treePrinter) Exit(n Visitable) {
	switch n.(type) {
	case *Node:
		printer.endNode()
	}
}
