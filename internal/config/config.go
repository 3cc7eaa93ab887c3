// Package config loads instance options from YAML files.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path, overlays it on base, resolves relative
// model paths against the file's directory and applies defaults.
func Load(path string, base domain.Options) (domain.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Options{}, fmt.Errorf("config: %w: %w", domain.ErrFileOpen, err)
	}

	raw := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return domain.Options{}, fmt.Errorf("config: %s: %w: %v", path, domain.ErrInvalidModel, err)
		}
	}

	opts, err := Decode(raw, base)
	if err != nil {
		return domain.Options{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return Resolve(opts, filepath.Dir(path)).WithDefaults(), nil
}

// Decode overlays raw on base. Values are weakly typed, so "2" decodes into
// an int field, and unknown keys are rejected.
func Decode(raw map[string]any, base domain.Options) (domain.Options, error) {
	opts := base
	if base.NgramWeight != nil {
		// mapstructure decodes through a set pointer; keep base untouched.
		opts.NgramWeight = domain.Float64(*base.NgramWeight)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &opts,
	})
	if err != nil {
		return domain.Options{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.Options{}, fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}
	return opts, nil
}

// Resolve makes relative model and embedding paths relative to dir.
// Absolute paths and scheme-qualified sources such as memory://syntax are
// left as they are.
func Resolve(opts domain.Options, dir string) domain.Options {
	for _, p := range []*string{
		&opts.SyntacticModelPath,
		&opts.SemanticModelPath,
		&opts.CohesionModelPath,
		&opts.EmbeddingsPath,
	} {
		if *p == "" || filepath.IsAbs(*p) || strings.Contains(*p, "://") {
			continue
		}
		*p = filepath.Join(dir, *p)
	}
	return opts
}
