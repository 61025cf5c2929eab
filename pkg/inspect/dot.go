// Package inspect renders the structural outline of a score as a Graphviz
// diagram: score → instruments → staves → voices, with note and measure
// counts on each node. It is a debugging aid for score imports, not part of
// the engraving output.
package inspect

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/aylabs/musicore/pkg/score"
)

// Options configures score structure rendering.
type Options struct {
	// Detailed includes clef, key, and time signature info in staff labels.
	Detailed bool
}

// ToDOT converts a score's structure to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG].
func ToDOT(sc *score.Score, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph score {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	rootLabel := sc.Title
	if rootLabel == "" {
		rootLabel = "score"
	}
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightblue];\n", "score", rootLabel)

	for i := range sc.Instruments {
		inst := &sc.Instruments[i]
		instID := fmt.Sprintf("inst:%s", inst.ID)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", instID, instrumentLabel(inst))
		fmt.Fprintf(&buf, "  %q -> %q;\n", "score", instID)

		for j := range inst.Staves {
			staff := &inst.Staves[j]
			staffID := fmt.Sprintf("%s/staff%d", instID, j)
			fmt.Fprintf(&buf, "  %q [label=%q];\n", staffID, staffLabel(staff, j, opts.Detailed))
			fmt.Fprintf(&buf, "  %q -> %q;\n", instID, staffID)

			for k := range staff.Voices {
				voice := &staff.Voices[k]
				voiceID := fmt.Sprintf("%s/voice%d", staffID, k)
				label := fmt.Sprintf("voice %d\n%d notes", k, len(voice.Notes))
				fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n", voiceID, label)
				fmt.Fprintf(&buf, "  %q -> %q;\n", staffID, voiceID)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func instrumentLabel(inst *score.Instrument) string {
	name := inst.Name
	if name == "" {
		name = inst.ID
	}
	return fmt.Sprintf("%s\n%d staves", name, len(inst.Staves))
}

func staffLabel(staff *score.Staff, index int, detailed bool) string {
	label := fmt.Sprintf("staff %d", index)
	if !detailed {
		return label
	}
	ts := staff.ActiveTimeSignature(0)
	label += fmt.Sprintf("\nclef: %s", staff.Clef)
	label += fmt.Sprintf("\nkey: %+d", staff.KeySharps)
	label += fmt.Sprintf("\ntime: %d/%d", ts.Numerator, ts.Denominator)
	return label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root so the viewBox starts at the origin
// with explicit pixel dimensions; Graphviz emits point-based sizes that
// render inconsistently across viewers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
