// Package graph renders a generation's derivation tree as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of how sk was derived:
// START, one row per syntax layer, then one leaf per slot. Shapes:
// - START: ((Circle))
// - Intermediate tokens: [Rectangle]
// - Slots: [/Parallelogram/] labelled "category: surface"
// Slots whose surface the cohesion stage changed, deleted, or that no
// candidate chain could fill get their own classes.
func GenerateMermaid(sk domain.Skeleton) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if len(sk.Slots) == 0 {
		return sb.String()
	}

	depth := len(sk.Layers)
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", nodeID(0, 0), domain.StartSymbol))
	for level := 1; level < depth; level++ {
		for idx, tok := range sk.Layers[level-1] {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", nodeID(level, idx), escape(tok)))
		}
	}

	var rewritten, deleted, unknown []string
	for i, slot := range sk.Slots {
		id := nodeID(depth, i)
		sb.WriteString(fmt.Sprintf("    %s[/\"%s: %s\"/]\n", id, escape(slot.Category), escape(slot.Surface)))
		switch {
		case slot.Word == domain.DefaultUnknown:
			unknown = append(unknown, id)
		case slot.Surface == "" && slot.Word != "":
			deleted = append(deleted, id)
		case slot.Surface != slot.Word:
			rewritten = append(rewritten, id)
		}
	}

	// Edges are deduplicated: siblings share every ancestor edge.
	seen := make(map[string]bool)
	edge := func(from, to string) {
		e := from + " --> " + to
		if !seen[e] {
			seen[e] = true
			sb.WriteString("    " + e + "\n")
		}
	}
	for i, slot := range sk.Slots {
		for level := 0; level < depth; level++ {
			from := nodeID(level, origin(slot, level))
			to := nodeID(depth, i)
			if level+1 < depth {
				to = nodeID(level+1, origin(slot, level+1))
			}
			edge(from, to)
		}
	}

	if len(rewritten)+len(deleted)+len(unknown) > 0 {
		sb.WriteString("\n    %% Cohesion Styles\n")
		// Force black text (color:#000) for contrast regardless of theme
		sb.WriteString("    classDef rewritten fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef deleted fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef unknown fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, c := range []struct {
			name string
			ids  []string
		}{{"rewritten", rewritten}, {"deleted", deleted}, {"unknown", unknown}} {
			if len(c.ids) > 0 {
				sb.WriteString(fmt.Sprintf("    class %s %s;\n", strings.Join(c.ids, ","), c.name))
			}
		}
	}
	return sb.String()
}

func nodeID(level, idx int) string {
	return fmt.Sprintf("L%d_%d", level, idx)
}

func origin(slot domain.Slot, level int) int {
	if level < len(slot.Origin) {
		return slot.Origin[level]
	}
	return 0
}

// escape keeps labels inside their double quotes.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
