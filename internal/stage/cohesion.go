package stage

import (
	"strings"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ngram"
)

// Cohesion rewrites slot surfaces for agreement and fluency.
type Cohesion struct {
	layers []domain.CohesionLayer
}

// NewCohesion builds the stage.
func NewCohesion(cfg domain.CohesionConfig) *Cohesion {
	return &Cohesion{layers: append([]domain.CohesionLayer(nil), cfg.Layers...)}
}

// Run applies every layer in order and returns the refined skeleton
// together with the rendered text.
func (c *Cohesion) Run(sk domain.Skeleton) (domain.Skeleton, string) {
	out := sk.Clone()
	for _, layer := range c.layers {
		for _, span := range out.Spans(layer.Parent) {
			rewriteSpan(layer, out.Slots[span[0]:span[1]])
		}
	}
	return out, Render(out)
}

// rewriteSpan walks one span left to right. Context never crosses span
// boundaries, and a slot whose surface was deleted adds nothing to it.
func rewriteSpan(layer domain.CohesionLayer, slots []domain.Slot) {
	history := ngram.Pad(domain.PadSymbol, layer.Order-1)
	for i := range slots {
		cur := slots[i].Surface
		if model, ok := layer.Map[cur]; ok {
			if c, ok := model.Best(ngram.Tail(history, layer.Order-1)); ok {
				slots[i].Surface = c.Token
			}
		}
		if slots[i].Surface != "" {
			history = append(history, slots[i].Surface)
		}
	}
}

// Render joins surfaces in slot order. Closing punctuation attaches to the
// previous token and empty surfaces are skipped.
func Render(sk domain.Skeleton) string {
	var b strings.Builder
	for _, slot := range sk.Slots {
		s := slot.Surface
		if s == "" {
			continue
		}
		if b.Len() > 0 && !closing(s) {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	return b.String()
}

func closing(s string) bool {
	return strings.Trim(s, ".,;:!?)") == ""
}
