package stage

import (
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ngram"
)

// Syntax expands the start symbol through every syntax layer.
type Syntax struct {
	layers []domain.SyntaxLayer
}

// NewSyntax builds the stage. maxSpan bounds every expansion whose layer
// does not set its own limit.
func NewSyntax(cfg domain.SyntaxConfig, maxSpan int) *Syntax {
	layers := make([]domain.SyntaxLayer, len(cfg.Layers))
	copy(layers, cfg.Layers)
	for i := range layers {
		if layers[i].MaxSpan <= 0 {
			layers[i].MaxSpan = maxSpan
		}
		if layers[i].MaxSpan <= 0 {
			layers[i].MaxSpan = domain.DefaultMaxSpan
		}
	}
	return &Syntax{layers: layers}
}

// Run produces the skeleton. It is deterministic: each step takes the best
// successor under ngram.Less.
func (s *Syntax) Run() domain.Skeleton {
	seq := []string{domain.StartSymbol}
	origins := [][]int{{}}
	sk := domain.Skeleton{Layers: make([][]string, 0, len(s.layers))}

	for _, layer := range s.layers {
		var (
			next        []string
			nextOrigins [][]int
		)
		for i, parent := range seq {
			lineage := append(append(make([]int, 0, len(origins[i])+1), origins[i]...), i)
			for _, tok := range expand(layer, parent) {
				next = append(next, tok)
				nextOrigins = append(nextOrigins, lineage)
			}
		}
		seq, origins = next, nextOrigins
		sk.Layers = append(sk.Layers, append([]string(nil), seq...))
	}

	sk.Slots = make([]domain.Slot, len(seq))
	for i, tok := range seq {
		sk.Slots[i] = domain.Slot{Category: tok, Origin: origins[i]}
	}
	return sk
}

// expand emits the downstream run for one upstream token. The context is
// the previous order-1 tokens of this run, padded at its start. A parent
// the layer has no model for passes through unchanged.
func expand(layer domain.SyntaxLayer, parent string) []string {
	model, ok := layer.Transitions[parent]
	if !ok {
		return []string{parent}
	}
	history := ngram.Pad(domain.PadSymbol, layer.Order-1)
	var out []string
	for len(out) < layer.MaxSpan {
		c, ok := model.Best(history)
		if !ok || c.Token == domain.EndSymbol {
			break
		}
		out = append(out, c.Token)
		history = append(history, c.Token)
	}
	return out
}
