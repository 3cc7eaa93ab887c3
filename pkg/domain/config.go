package domain

import (
	"fmt"

	"github.com/Lenny-the-burger/hlg/pkg/ngram"
)

// Embedding is the shared, file-backed vector table.
// Returned vectors are read-only and always Dimension() long.
type Embedding interface {
	Dimension() int
	Lookup(id int) ([]float32, error)
	LookupWord(word string) ([]float32, bool, error)
}

// SyntaxLayer expands each upstream token into a run of downstream tokens.
type SyntaxLayer struct {
	Order      int
	Upstream   string
	Downstream string
	MaxSpan    int
	// Transitions holds one model per upstream (parent) token.
	Transitions map[string]*ngram.Model
	// Vocabulary is the downstream vocabulary, in declaration order.
	Vocabulary []string
}

// SyntaxConfig is the ordered list of syntax layers.
type SyntaxConfig struct {
	Layers []SyntaxLayer
}

// CandidateChain proposes lexical items per slot category.
type CandidateChain struct {
	Domain string
	Order  int
	// Models holds one model per slot category.
	Models map[string]*ngram.Model
}

// SemanticConfig is the ordered list of candidate chains and the shared table.
type SemanticConfig struct {
	Chains    []CandidateChain
	Unknown   string
	Embedding Embedding
}

// CohesionLayer rewrites surfaces within the spans of one syntax layer.
type CohesionLayer struct {
	Order  int
	Parent int
	// Map holds one model per current surface; successors are replacement surfaces.
	Map map[string]*ngram.Model
}

// CohesionConfig is the ordered list of cohesion layers.
type CohesionConfig struct {
	Layers []CohesionLayer
}

// Validate checks chain continuity between syntax layers.
func (c SyntaxConfig) Validate() error {
	if len(c.Layers) == 0 {
		return fmt.Errorf("%w: syntax model has no layers", ErrInvalidModel)
	}
	for i, l := range c.Layers {
		if l.Order < 1 {
			return fmt.Errorf("%w: syntax layer %d has order %d", ErrInvalidModel, i, l.Order)
		}
		if i > 0 && c.Layers[i-1].Downstream != l.Upstream {
			return fmt.Errorf("%w: syntax layer %d upstream %q does not continue layer %d downstream %q",
				ErrInvalidModel, i, l.Upstream, i-1, c.Layers[i-1].Downstream)
		}
	}
	return nil
}

// SlotVocabulary returns the downstream vocabulary of the last layer.
func (c SyntaxConfig) SlotVocabulary() []string {
	if len(c.Layers) == 0 {
		return nil
	}
	return c.Layers[len(c.Layers)-1].Vocabulary
}

// ValidateAgainst checks that every cohesion layer points at an existing syntax layer.
func (c CohesionConfig) ValidateAgainst(syntax SyntaxConfig) error {
	for i, l := range c.Layers {
		if l.Parent < 0 || l.Parent >= len(syntax.Layers) {
			return fmt.Errorf("%w: cohesion layer %d parent %d outside [0,%d)",
				ErrInvalidModel, i, l.Parent, len(syntax.Layers))
		}
		if l.Order < 1 {
			return fmt.Errorf("%w: cohesion layer %d has order %d", ErrInvalidModel, i, l.Order)
		}
	}
	return nil
}

// Validate checks chain orders.
func (c SemanticConfig) Validate() error {
	for i, ch := range c.Chains {
		if ch.Order < 1 {
			return fmt.Errorf("%w: candidate chain %d (%s) has order %d", ErrInvalidModel, i, ch.Domain, ch.Order)
		}
	}
	return nil
}

// Head returns the first n layers. Asking for more layers than the model
// defines is an error.
func (c SyntaxConfig) Head(n int) (SyntaxConfig, error) {
	if n > len(c.Layers) {
		return SyntaxConfig{}, fmt.Errorf("%w: %d syntax layers requested, model defines %d", ErrInvalidModel, n, len(c.Layers))
	}
	return SyntaxConfig{Layers: c.Layers[:n:n]}, nil
}

// Head returns the first n layers. Asking for more layers than the model
// defines is an error.
func (c CohesionConfig) Head(n int) (CohesionConfig, error) {
	if n > len(c.Layers) {
		return CohesionConfig{}, fmt.Errorf("%w: %d cohesion layers requested, model defines %d", ErrInvalidModel, n, len(c.Layers))
	}
	return CohesionConfig{Layers: c.Layers[:n:n]}, nil
}
