package graph_test

import (
	"strings"
	"testing"

	"github.com/Lenny-the-burger/hlg/internal/presentation/graph"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	sk := domain.Skeleton{
		Layers: [][]string{
			{"NP", "VP"},
			{"det", "noun", "verb"},
		},
		Slots: []domain.Slot{
			{Category: "det", Origin: []int{0, 0}, Word: "the", Surface: "The"},
			{Category: "noun", Origin: []int{0, 0}, Word: "cat", Surface: "cat"},
			{Category: "verb", Origin: []int{0, 1}, Word: domain.DefaultUnknown, Surface: domain.DefaultUnknown},
		},
	}
	out := graph.GenerateMermaid(sk)

	contains := []string{
		"graph TD\n",
		`L0_0(("START"))`,
		`L1_0["NP"]`,
		`L1_1["VP"]`,
		`L2_0[/"det: The"/]`,
		"L0_0 --> L1_0",
		"L0_0 --> L1_1",
		"L1_0 --> L2_0",
		"L1_0 --> L2_1",
		"L1_1 --> L2_2",
		"class L2_0 rewritten;",
		"class L2_2 unknown;",
	}
	for _, c := range contains {
		if !strings.Contains(out, c) {
			t.Errorf("expected output to contain %q, got:\n%s", c, out)
		}
	}
	if n := strings.Count(out, "L0_0 --> L1_0"); n != 1 {
		t.Errorf("expected shared edges once, got %d", n)
	}
	if strings.Contains(out, "deleted;") {
		t.Errorf("no slot was deleted:\n%s", out)
	}
}

func TestGenerateMermaid_Empty(t *testing.T) {
	if got := graph.GenerateMermaid(domain.Skeleton{}); got != "graph TD\n" {
		t.Errorf("unexpected output for empty skeleton: %q", got)
	}
}

func TestGenerateMermaid_EscapesQuotes(t *testing.T) {
	sk := domain.Skeleton{
		Layers: [][]string{{"q"}},
		Slots:  []domain.Slot{{Category: "q", Origin: []int{0}, Word: `"`, Surface: `"`}},
	}
	out := graph.GenerateMermaid(sk)
	if !strings.Contains(out, `L1_0[/"q: '"/]`) {
		t.Errorf("quotes not escaped:\n%s", out)
	}
}
