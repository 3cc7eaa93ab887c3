package domain

import (
	"fmt"
	"strings"
)

// Defaults applied by Options.WithDefaults.
const (
	DefaultSyntacticLayers = 2
	DefaultCohesionLayers  = 1
	DefaultNgramWeight     = 0.6
	DefaultHistoryCapacity = 8
	DefaultMaxSpan         = 16
)

// Options configures an Instance.
// Tags serve both YAML config files and mapstructure decoding.
type Options struct {
	SyntacticModelPath string `yaml:"syntactic_model_path" mapstructure:"syntactic_model_path"`
	SemanticModelPath  string `yaml:"semantic_model_path" mapstructure:"semantic_model_path"`
	CohesionModelPath  string `yaml:"cohesion_model_path" mapstructure:"cohesion_model_path"`
	EmbeddingsPath     string `yaml:"embeddings_path" mapstructure:"embeddings_path"`

	SyntacticLayers      int `yaml:"syntactic_layers" mapstructure:"syntactic_layers"`
	CohesionLayers       int `yaml:"cohesion_layers" mapstructure:"cohesion_layers"`
	EmbeddingCacheSizeMB int `yaml:"embedding_cache_size_mb" mapstructure:"embedding_cache_size_mb"`

	// NgramWeight is the share of the n-gram probability in the semantic
	// score; the rest goes to embedding similarity. Nil selects
	// DefaultNgramWeight, so an explicit 0 means similarity only.
	NgramWeight     *float64 `yaml:"ngram_weight" mapstructure:"ngram_weight"`
	HistoryCapacity int     `yaml:"history_capacity" mapstructure:"history_capacity"`
	MaxSpan         int     `yaml:"max_span" mapstructure:"max_span"`
}

// WithDefaults returns a copy with zero-valued tunables replaced by defaults.
// The cache size is left alone: zero is a valid setting (streaming mode).
func (o Options) WithDefaults() Options {
	if o.SyntacticLayers == 0 {
		o.SyntacticLayers = DefaultSyntacticLayers
	}
	if o.CohesionLayers == 0 {
		o.CohesionLayers = DefaultCohesionLayers
	}
	if o.NgramWeight == nil {
		o.NgramWeight = Float64(DefaultNgramWeight)
	}
	if o.HistoryCapacity == 0 {
		o.HistoryCapacity = DefaultHistoryCapacity
	}
	if o.MaxSpan == 0 {
		o.MaxSpan = DefaultMaxSpan
	}
	return o
}

// Ngram returns the n-gram weight, DefaultNgramWeight when unset.
func (o Options) Ngram() float64 {
	if o.NgramWeight == nil {
		return DefaultNgramWeight
	}
	return *o.NgramWeight
}

// Float64 returns a pointer to v, for optional settings such as NgramWeight.
func Float64(v float64) *float64 {
	return &v
}

// CacheBytes converts the configured cache size to bytes.
func (o Options) CacheBytes() int64 {
	return int64(o.EmbeddingCacheSizeMB) << 20
}

// Validate checks that every required path is set and tunables are in range.
func (o Options) Validate() error {
	var missing []string
	if o.SyntacticModelPath == "" {
		missing = append(missing, "syntactic_model_path")
	}
	if o.SemanticModelPath == "" {
		missing = append(missing, "semantic_model_path")
	}
	if o.CohesionModelPath == "" {
		missing = append(missing, "cohesion_model_path")
	}
	if o.EmbeddingsPath == "" {
		missing = append(missing, "embeddings_path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrNullPointer, strings.Join(missing, ", "))
	}
	if o.SyntacticLayers < 1 {
		return fmt.Errorf("%w: syntactic_layers must be >= 1, got %d", ErrInvalidModel, o.SyntacticLayers)
	}
	if o.CohesionLayers < 0 {
		return fmt.Errorf("%w: cohesion_layers must be >= 0, got %d", ErrInvalidModel, o.CohesionLayers)
	}
	if o.EmbeddingCacheSizeMB < 0 {
		return fmt.Errorf("%w: embedding_cache_size_mb must be >= 0, got %d", ErrAllocation, o.EmbeddingCacheSizeMB)
	}
	if w := o.Ngram(); w < 0 || w > 1 {
		return fmt.Errorf("%w: ngram_weight must be within [0,1], got %v", ErrInvalidModel, w)
	}
	if o.HistoryCapacity < 1 || o.MaxSpan < 1 {
		return fmt.Errorf("%w: history_capacity and max_span must be >= 1", ErrInvalidModel)
	}
	return nil
}
