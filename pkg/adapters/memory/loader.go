package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// Default paths under which the DSL builder registers its models.
const (
	SyntaxPath   = "memory://syntax"
	SemanticPath = "memory://semantic"
	CohesionPath = "memory://cohesion"
)

// Loader implements ports.ModelLoader over configurations held in memory.
// Safe for concurrent use.
type Loader struct {
	mu       sync.RWMutex
	syntax   map[string]domain.SyntaxConfig
	semantic map[string]domain.SemanticConfig
	cohesion map[string]domain.CohesionConfig
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{
		syntax:   make(map[string]domain.SyntaxConfig),
		semantic: make(map[string]domain.SemanticConfig),
		cohesion: make(map[string]domain.CohesionConfig),
	}
}

// NewFromConfigs creates a loader serving the three configurations under the
// default paths.
func NewFromConfigs(syn domain.SyntaxConfig, sem domain.SemanticConfig, coh domain.CohesionConfig) (*Loader, error) {
	if err := syn.Validate(); err != nil {
		return nil, fmt.Errorf("failed to register syntax model: %w", err)
	}
	if err := sem.Validate(); err != nil {
		return nil, fmt.Errorf("failed to register semantic model: %w", err)
	}
	if err := coh.ValidateAgainst(syn); err != nil {
		return nil, fmt.Errorf("failed to register cohesion model: %w", err)
	}
	l := NewLoader()
	l.PutSyntax(SyntaxPath, syn)
	l.PutSemantic(SemanticPath, sem)
	l.PutCohesion(CohesionPath, coh)
	return l, nil
}

// PutSyntax registers a syntax model under path.
func (l *Loader) PutSyntax(path string, cfg domain.SyntaxConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.syntax[path] = cfg
}

// PutSemantic registers a semantic model under path.
func (l *Loader) PutSemantic(path string, cfg domain.SemanticConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.semantic[path] = cfg
}

// PutCohesion registers a cohesion model under path.
func (l *Loader) PutCohesion(path string, cfg domain.CohesionConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cohesion[path] = cfg
}

// LoadSyntax returns the first layers layers registered under path.
func (l *Loader) LoadSyntax(ctx context.Context, path string, layers int) (domain.SyntaxConfig, error) {
	l.mu.RLock()
	cfg, ok := l.syntax[path]
	l.mu.RUnlock()
	if !ok {
		return domain.SyntaxConfig{}, fmt.Errorf("syntax model not found: %s: %w", path, domain.ErrFileOpen)
	}
	return cfg.Head(layers)
}

// LoadSemantic returns the chains registered under path.
func (l *Loader) LoadSemantic(ctx context.Context, path string) (domain.SemanticConfig, error) {
	l.mu.RLock()
	cfg, ok := l.semantic[path]
	l.mu.RUnlock()
	if !ok {
		return domain.SemanticConfig{}, fmt.Errorf("semantic model not found: %s: %w", path, domain.ErrFileOpen)
	}
	cfg.Chains = append([]domain.CandidateChain(nil), cfg.Chains...)
	cfg.Embedding = nil
	if cfg.Unknown == "" {
		cfg.Unknown = domain.DefaultUnknown
	}
	return cfg, nil
}

// LoadCohesion returns the first layers layers registered under path.
func (l *Loader) LoadCohesion(ctx context.Context, path string, layers int) (domain.CohesionConfig, error) {
	l.mu.RLock()
	cfg, ok := l.cohesion[path]
	l.mu.RUnlock()
	if !ok {
		return domain.CohesionConfig{}, fmt.Errorf("cohesion model not found: %s: %w", path, domain.ErrFileOpen)
	}
	return cfg.Head(layers)
}
