// Package viz renders a finished schedule as a labeled DOT graph, an
// optional collaborator for inspecting scheduler output.
package viz

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"hmcos/internal/graph"
)

// renderPNG shells out to Graphviz's "dot" to rasterize dotFile into
// pngFile, checking for the binary up front so a missing install fails
// with a one-line hint instead of an exec.ErrNotFound.
func renderPNG(dotFile, pngFile string) error {
	if err := exec.Command("which", "dot").Run(); err != nil {
		return fmt.Errorf("graphviz 'dot' command not found; install it to render PNGs")
	}

	output, err := exec.Command("dot", "-Tpng", dotFile, "-o", pngFile).CombinedOutput()
	if err != nil {
		return fmt.Errorf("graphviz error: %w\noutput: %s", err, string(output))
	}
	if _, err := os.Stat(pngFile); os.IsNotExist(err) {
		return fmt.Errorf("PNG file was not created: %s", pngFile)
	}
	return nil
}

// PlotSchedule writes sched's DOT rendering to dotFile: one node per
// scheduled op, labeled "<position>:<op.type>", with edges following the
// original graph's op-to-op dependencies. If pngFile is non-empty it
// also shells out to Graphviz's "dot" to render a PNG; a missing "dot"
// binary is reported but does not fail the DOT write.
func PlotSchedule(sched []*graph.Op, dotFile, pngFile string) error {
	pos := make(map[*graph.Op]int, len(sched))
	for i, op := range sched {
		pos[op] = i
	}

	var sb strings.Builder
	sb.WriteString("digraph Schedule {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=lightyellow, fontname=\"Arial\"];\n\n")

	for i, op := range sched {
		label := fmt.Sprintf("%d:%s", i, op.Type)
		sb.WriteString(fmt.Sprintf("  Op%d [label=%q];\n", i, label))
	}
	sb.WriteString("\n")

	for _, op := range sched {
		for _, succ := range op.Succs {
			if j, ok := pos[succ]; ok {
				sb.WriteString(fmt.Sprintf("  Op%d -> Op%d;\n", pos[op], j))
			}
		}
	}
	sb.WriteString("}\n")

	if err := os.WriteFile(dotFile, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing DOT file: %w", err)
	}
	fmt.Printf("  wrote DOT file: %s\n", dotFile)

	if pngFile == "" {
		return nil
	}
	if err := renderPNG(dotFile, pngFile); err != nil {
		fmt.Printf("  could not render PNG: %v\n", err)
		return err
	}
	fmt.Printf("  wrote PNG file: %s\n", pngFile)
	return nil
}
