// Package file provides filesystem adapters: a YAML model loader and a JSON
// conversation store.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ngram"
	"gopkg.in/yaml.v3"
)

type syntaxFile struct {
	Vocabularies map[string][]string `yaml:"vocabularies"`
	Layers       []syntaxLayerFile   `yaml:"layers"`
}

type syntaxLayerFile struct {
	Order       int              `yaml:"order"`
	Upstream    string           `yaml:"upstream"`
	Downstream  string           `yaml:"downstream"`
	MaxSpan     int              `yaml:"max_span"`
	Transitions []transitionFile `yaml:"transitions"`
	Sequences   []sequenceFile   `yaml:"sequences"`
}

type transitionFile struct {
	Parent  string   `yaml:"parent"`
	Context []string `yaml:"context"`
	Next    string   `yaml:"next"`
	Weight  float64  `yaml:"weight"`
}

// sequenceFile is shorthand for a fixed expansion: each token follows the
// padded run before it, and END closes the run.
type sequenceFile struct {
	Parent string   `yaml:"parent"`
	Tokens []string `yaml:"tokens"`
	Weight float64  `yaml:"weight"`
}

type semanticFile struct {
	Unknown string      `yaml:"unknown"`
	Chains  []chainFile `yaml:"chains"`
}

type chainFile struct {
	Domain     string          `yaml:"domain"`
	Order      int             `yaml:"order"`
	Candidates []candidateFile `yaml:"candidates"`
}

type candidateFile struct {
	Category string   `yaml:"category"`
	Context  []string `yaml:"context"`
	Word     string   `yaml:"word"`
	Weight   float64  `yaml:"weight"`
}

type cohesionFile struct {
	Layers []cohesionLayerFile `yaml:"layers"`
}

type cohesionLayerFile struct {
	Parent int        `yaml:"parent"`
	Order  int        `yaml:"order"`
	Rules  []ruleFile `yaml:"rules"`
}

type ruleFile struct {
	Word    string   `yaml:"word"`
	Context []string `yaml:"context"`
	Surface string   `yaml:"surface"`
	Weight  float64  `yaml:"weight"`
}

// Loader implements ports.ModelLoader over YAML model files.
// Omitted weights count as 1.
type Loader struct{}

// NewLoader creates a YAML model loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadSyntax parses a syntax model and returns its first layers layers.
func (l *Loader) LoadSyntax(ctx context.Context, path string, layers int) (domain.SyntaxConfig, error) {
	var f syntaxFile
	if err := decode(ctx, path, &f); err != nil {
		return domain.SyntaxConfig{}, err
	}
	if layers > len(f.Layers) {
		return domain.SyntaxConfig{}, fmt.Errorf("%s: %w: %d syntax layers requested, file defines %d",
			path, domain.ErrInvalidModel, layers, len(f.Layers))
	}

	var cfg domain.SyntaxConfig
	for i, lf := range f.Layers[:layers] {
		layer, err := buildSyntaxLayer(f.Vocabularies, lf, i == 0)
		if err != nil {
			return domain.SyntaxConfig{}, fmt.Errorf("%s: syntax layer %d: %w", path, i, err)
		}
		cfg.Layers = append(cfg.Layers, layer)
	}
	if err := cfg.Validate(); err != nil {
		return domain.SyntaxConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func buildSyntaxLayer(vocabs map[string][]string, lf syntaxLayerFile, first bool) (domain.SyntaxLayer, error) {
	up, ok := vocabs[lf.Upstream]
	if !ok {
		return domain.SyntaxLayer{}, fmt.Errorf("%w: unknown upstream vocabulary %q", domain.ErrInvalidModel, lf.Upstream)
	}
	down, ok := vocabs[lf.Downstream]
	if !ok {
		return domain.SyntaxLayer{}, fmt.Errorf("%w: unknown downstream vocabulary %q", domain.ErrInvalidModel, lf.Downstream)
	}
	if lf.Order < 1 {
		return domain.SyntaxLayer{}, fmt.Errorf("%w: order %d", domain.ErrInvalidModel, lf.Order)
	}

	layer := domain.SyntaxLayer{
		Order:       lf.Order,
		Upstream:    lf.Upstream,
		Downstream:  lf.Downstream,
		MaxSpan:     lf.MaxSpan,
		Transitions: make(map[string]*ngram.Model),
		Vocabulary:  append([]string(nil), down...),
	}
	isParent := func(tok string) bool {
		return slices.Contains(up, tok) || (first && tok == domain.StartSymbol)
	}
	isNext := func(tok string) bool {
		return tok == domain.EndSymbol || slices.Contains(down, tok)
	}
	add := func(parent string, context []string, next string, weight float64) error {
		if !isParent(parent) {
			return fmt.Errorf("%w: parent %q not in vocabulary %q", domain.ErrInvalidModel, parent, lf.Upstream)
		}
		if !isNext(next) {
			return fmt.Errorf("%w: token %q not in vocabulary %q", domain.ErrInvalidModel, next, lf.Downstream)
		}
		m, ok := layer.Transitions[parent]
		if !ok {
			m = ngram.New(lf.Order)
			layer.Transitions[parent] = m
		}
		if err := m.Add(context, next, weightOr1(weight)); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidModel, err)
		}
		return nil
	}

	for _, t := range lf.Transitions {
		if err := add(t.Parent, t.Context, t.Next, t.Weight); err != nil {
			return domain.SyntaxLayer{}, err
		}
	}
	for _, s := range lf.Sequences {
		history := ngram.Pad(domain.PadSymbol, lf.Order-1)
		for _, tok := range append(slices.Clone(s.Tokens), domain.EndSymbol) {
			if err := add(s.Parent, slices.Clone(history), tok, s.Weight); err != nil {
				return domain.SyntaxLayer{}, err
			}
			history = append(history, tok)
		}
	}
	return layer, nil
}

// LoadSemantic parses a semantic model.
func (l *Loader) LoadSemantic(ctx context.Context, path string) (domain.SemanticConfig, error) {
	var f semanticFile
	if err := decode(ctx, path, &f); err != nil {
		return domain.SemanticConfig{}, err
	}
	if len(f.Chains) == 0 {
		return domain.SemanticConfig{}, fmt.Errorf("%s: %w: no candidate chains", path, domain.ErrInvalidModel)
	}

	cfg := domain.SemanticConfig{Unknown: f.Unknown}
	if cfg.Unknown == "" {
		cfg.Unknown = domain.DefaultUnknown
	}
	for i, cf := range f.Chains {
		if cf.Order < 1 {
			return domain.SemanticConfig{}, fmt.Errorf("%s: %w: chain %d (%s) has order %d",
				path, domain.ErrInvalidModel, i, cf.Domain, cf.Order)
		}
		chain := domain.CandidateChain{
			Domain: cf.Domain,
			Order:  cf.Order,
			Models: make(map[string]*ngram.Model),
		}
		for _, c := range cf.Candidates {
			m, ok := chain.Models[c.Category]
			if !ok {
				m = ngram.New(cf.Order)
				chain.Models[c.Category] = m
			}
			if err := m.Add(c.Context, c.Word, weightOr1(c.Weight)); err != nil {
				return domain.SemanticConfig{}, fmt.Errorf("%s: chain %s: %w: %w", path, cf.Domain, domain.ErrInvalidModel, err)
			}
		}
		cfg.Chains = append(cfg.Chains, chain)
	}
	return cfg, nil
}

// LoadCohesion parses a cohesion model and returns its first layers layers.
// Parent indices are checked against the syntax model by the Instance.
func (l *Loader) LoadCohesion(ctx context.Context, path string, layers int) (domain.CohesionConfig, error) {
	var f cohesionFile
	if err := decode(ctx, path, &f); err != nil {
		return domain.CohesionConfig{}, err
	}
	if layers > len(f.Layers) {
		return domain.CohesionConfig{}, fmt.Errorf("%s: %w: %d cohesion layers requested, file defines %d",
			path, domain.ErrInvalidModel, layers, len(f.Layers))
	}

	var cfg domain.CohesionConfig
	for i, lf := range f.Layers[:layers] {
		if lf.Order < 1 || lf.Parent < 0 {
			return domain.CohesionConfig{}, fmt.Errorf("%s: %w: cohesion layer %d has order %d parent %d",
				path, domain.ErrInvalidModel, i, lf.Order, lf.Parent)
		}
		layer := domain.CohesionLayer{
			Order:  lf.Order,
			Parent: lf.Parent,
			Map:    make(map[string]*ngram.Model),
		}
		for _, r := range lf.Rules {
			m, ok := layer.Map[r.Word]
			if !ok {
				m = ngram.New(lf.Order)
				layer.Map[r.Word] = m
			}
			if err := m.Add(r.Context, r.Surface, weightOr1(r.Weight)); err != nil {
				return domain.CohesionConfig{}, fmt.Errorf("%s: cohesion layer %d: %w: %w", path, i, domain.ErrInvalidModel, err)
			}
		}
		cfg.Layers = append(cfg.Layers, layer)
	}
	return cfg, nil
}

func decode(ctx context.Context, path string, v any) error {
	if path == "" {
		return fmt.Errorf("model path: %w", domain.ErrNullPointer)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model %s: %w: %w", path, domain.ErrFileOpen, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse model %s: %w: %v", path, domain.ErrInvalidModel, err)
	}
	return nil
}

func weightOr1(w float64) float64 {
	if w == 0 {
		return 1
	}
	return w
}
