package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Lenny-the-burger/hlg"
	"github.com/Lenny-the-burger/hlg/internal/presentation/graph"
	"github.com/Lenny-the-burger/hlg/internal/presentation/tui"
	"github.com/Lenny-the-burger/hlg/internal/runtime"
)

// InspectOptions configures the inspect command.
type InspectOptions struct {
	// Prompts condition the sample generation.
	Prompts []string
	// Raw prints markdown without terminal rendering.
	Raw bool
	// Mermaid prints only the derivation flowchart.
	Mermaid bool
}

// RunInspect prints a summary of the loaded stages and a traced sample
// generation.
func RunInspect(ctx context.Context, opts RunOptions, in InspectOptions) error {
	logger := createLogger(opts.Debug)
	inst, _, err := createInstance(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer inst.Cleanup()

	conv, err := inst.NewConversation(0)
	if err != nil {
		return err
	}
	defer conv.Cleanup()
	for _, p := range in.Prompts {
		if err := conv.AddPrompt(ctx, p); err != nil {
			return fmt.Errorf("add prompt: %w", err)
		}
	}
	trace, err := inst.Trace(ctx, conv)
	if err != nil {
		return err
	}

	out := opts.stdout()
	if in.Mermaid {
		_, err := fmt.Fprint(out, graph.GenerateMermaid(trace.Cohesion))
		return err
	}

	md := InspectMarkdown(inst, trace)
	if !in.Raw && isTerminal(out) {
		if rendered, err := tui.NewRenderer(100)(md); err == nil {
			md = rendered
		} else {
			logger.Warn("Failed to render markdown", "err", err)
		}
	}
	_, err = fmt.Fprint(out, md)
	return err
}

// InspectMarkdown summarizes the instance and one traced generation.
func InspectMarkdown(inst *hlg.Instance, trace runtime.Result) string {
	var b strings.Builder
	opts := inst.Options()
	stats := inst.CacheStats()

	b.WriteString("# hlg model\n\n")
	fmt.Fprintf(&b, "| Source | Path |\n|---|---|\n")
	fmt.Fprintf(&b, "| syntax | `%s` |\n", opts.SyntacticModelPath)
	fmt.Fprintf(&b, "| semantic | `%s` |\n", opts.SemanticModelPath)
	fmt.Fprintf(&b, "| cohesion | `%s` |\n", opts.CohesionModelPath)
	fmt.Fprintf(&b, "| embeddings | `%s` |\n\n", opts.EmbeddingsPath)

	fmt.Fprintf(&b, "Embedding dimension **%d**, cache budget %d bytes, n-gram weight %.2f, history capacity %d.\n\n",
		inst.Dimension(), stats.BudgetBytes, opts.Ngram(), opts.HistoryCapacity)

	b.WriteString("## Syntax layers\n\n| # | Upstream | Downstream | Order | Parents | Vocabulary | Max span |\n|---|---|---|---|---|---|---|\n")
	for i, l := range inst.Syntax().Layers {
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %s | %d | %d |\n",
			i, orDash(l.Upstream), orDash(l.Downstream), l.Order, strings.Join(sortedKeys(l.Transitions), ", "), len(l.Vocabulary), l.MaxSpan)
	}

	b.WriteString("\n## Candidate chains\n\n| # | Domain | Order | Categories |\n|---|---|---|---|\n")
	for i, c := range inst.Semantic().Chains {
		fmt.Fprintf(&b, "| %d | %s | %d | %s |\n", i, orDash(c.Domain), c.Order, strings.Join(sortedKeys(c.Models), ", "))
	}

	b.WriteString("\n## Cohesion layers\n\n| # | Parent | Order | Surfaces |\n|---|---|---|---|\n")
	for i, l := range inst.Cohesion().Layers {
		fmt.Fprintf(&b, "| %d | %d | %d | %s |\n", i, l.Parent, l.Order, strings.Join(sortedKeys(l.Map), ", "))
	}

	b.WriteString("\n## Sample\n\n")
	fmt.Fprintf(&b, "> %s\n\n", trace.Text)
	b.WriteString("| Slot | Category | Origin | Word | Surface |\n|---|---|---|---|---|\n")
	for i, s := range trace.Cohesion.Slots {
		origin := make([]string, len(s.Origin))
		for j, o := range s.Origin {
			origin[j] = fmt.Sprint(o)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i, s.Category, strings.Join(origin, "."), orDash(s.Word), orDash(s.Surface))
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
