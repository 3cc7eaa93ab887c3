package dsl

import (
	"errors"
	"fmt"

	"github.com/Lenny-the-burger/hlg/pkg/adapters/memory"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ngram"
)

// Builder collects the three models of a generator.
type Builder struct {
	syntax   []*SyntaxBuilder
	chains   []*ChainBuilder
	cohesion []*CohesionBuilder
	unknown  string
	errs     []error
}

// New creates a new model builder.
func New() *Builder {
	return &Builder{unknown: domain.DefaultUnknown}
}

// Unknown sets the lexical item used for slots no chain can fill.
func (b *Builder) Unknown(word string) *Builder {
	b.unknown = word
	return b
}

// Syntax appends a syntax layer. Layers must be declared in order.
func (b *Builder) Syntax(upstream, downstream string, order int) *SyntaxBuilder {
	sb := &SyntaxBuilder{
		layer: domain.SyntaxLayer{
			Order:       order,
			Upstream:    upstream,
			Downstream:  downstream,
			Transitions: make(map[string]*ngram.Model),
		},
		seen:    make(map[string]struct{}),
		builder: b,
	}
	b.syntax = append(b.syntax, sb)
	return sb
}

// Chain appends a candidate chain. Later chains override earlier ones.
func (b *Builder) Chain(name string, order int) *ChainBuilder {
	cb := &ChainBuilder{
		chain: domain.CandidateChain{
			Domain: name,
			Order:  order,
			Models: make(map[string]*ngram.Model),
		},
		builder: b,
	}
	b.chains = append(b.chains, cb)
	return cb
}

// Cohesion appends a cohesion layer working on the spans of syntax layer parent.
func (b *Builder) Cohesion(parent, order int) *CohesionBuilder {
	cb := &CohesionBuilder{
		layer: domain.CohesionLayer{
			Order:  order,
			Parent: parent,
			Map:    make(map[string]*ngram.Model),
		},
		builder: b,
	}
	b.cohesion = append(b.cohesion, cb)
	return cb
}

// Build compiles the models into a memory.Loader serving them under
// memory.SyntaxPath, memory.SemanticPath and memory.CohesionPath.
func (b *Builder) Build() (*memory.Loader, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, fmt.Errorf("failed to build models: %w", err)
	}

	var syn domain.SyntaxConfig
	for _, sb := range b.syntax {
		syn.Layers = append(syn.Layers, sb.layer)
	}
	sem := domain.SemanticConfig{Unknown: b.unknown}
	for _, cb := range b.chains {
		sem.Chains = append(sem.Chains, cb.chain)
	}
	var coh domain.CohesionConfig
	for _, cb := range b.cohesion {
		coh.Layers = append(coh.Layers, cb.layer)
	}

	loader, err := memory.NewFromConfigs(syn, sem, coh)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

func (b *Builder) fail(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// SyntaxBuilder provides a fluent API for one syntax layer.
type SyntaxBuilder struct {
	layer   domain.SyntaxLayer
	seen    map[string]struct{}
	builder *Builder
}

// MaxSpan bounds every expansion of this layer.
func (s *SyntaxBuilder) MaxSpan(n int) *SyntaxBuilder {
	s.layer.MaxSpan = n
	return s
}

// Transition registers next after context when expanding parent.
func (s *SyntaxBuilder) Transition(parent string, context []string, next string, weight float64) *SyntaxBuilder {
	m, ok := s.layer.Transitions[parent]
	if !ok {
		m = ngram.New(s.layer.Order)
		s.layer.Transitions[parent] = m
	}
	s.builder.fail(m.Add(context, next, weight))
	if _, ok := s.seen[next]; !ok && next != domain.EndSymbol {
		s.seen[next] = struct{}{}
		s.layer.Vocabulary = append(s.layer.Vocabulary, next)
	}
	return s
}

// Sequence registers parent expanding to exactly tokens followed by END,
// each step conditioned on the padded run so far.
func (s *SyntaxBuilder) Sequence(parent string, tokens ...string) *SyntaxBuilder {
	history := ngram.Pad(domain.PadSymbol, s.layer.Order-1)
	for _, tok := range append(append([]string(nil), tokens...), domain.EndSymbol) {
		s.Transition(parent, append([]string(nil), history...), tok, 1)
		history = append(history, tok)
	}
	return s
}

// ChainBuilder provides a fluent API for one candidate chain.
type ChainBuilder struct {
	chain   domain.CandidateChain
	builder *Builder
}

// Candidate registers word for slots of category after the given previously
// filled words. A nil context registers a context-free candidate.
func (c *ChainBuilder) Candidate(category string, context []string, word string, weight float64) *ChainBuilder {
	m, ok := c.chain.Models[category]
	if !ok {
		m = ngram.New(c.chain.Order)
		c.chain.Models[category] = m
	}
	c.builder.fail(m.Add(context, word, weight))
	return c
}

// CohesionBuilder provides a fluent API for one cohesion layer.
type CohesionBuilder struct {
	layer   domain.CohesionLayer
	builder *Builder
}

// Rule rewrites surface to replacement when the preceding surfaces of the
// span end with context. An empty replacement deletes the token.
func (c *CohesionBuilder) Rule(surface string, context []string, replacement string, weight float64) *CohesionBuilder {
	m, ok := c.layer.Map[surface]
	if !ok {
		m = ngram.New(c.layer.Order)
		c.layer.Map[surface] = m
	}
	c.builder.fail(m.Add(context, replacement, weight))
	return c
}
