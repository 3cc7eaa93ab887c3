package tests

import (
	"context"
	"testing"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ModelPaths names the three model sources a loader is exercised with.
type ModelPaths struct {
	Syntax, Semantic, Cohesion string
	SyntaxLayers, CohesionLayers int
}

// ModelLoaderContractTest is a reusable test suite that verifies an adapter
// complies with ports.ModelLoader and returns configurations satisfying the
// stage invariants.
func ModelLoaderContractTest(t *testing.T, loader ports.ModelLoader, paths ModelPaths) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadSyntax", func(t *testing.T) {
		cfg, err := loader.LoadSyntax(ctx, paths.Syntax, paths.SyntaxLayers)
		require.NoError(t, err)
		assert.Len(t, cfg.Layers, paths.SyntaxLayers)
		assert.NoError(t, cfg.Validate())
		_, ok := cfg.Layers[0].Transitions[domain.StartSymbol]
		assert.True(t, ok, "first layer must expand the start symbol")
	})

	t.Run("LoadSyntax_TooManyLayers", func(t *testing.T) {
		_, err := loader.LoadSyntax(ctx, paths.Syntax, 64)
		assert.ErrorIs(t, err, domain.ErrInvalidModel)
	})

	t.Run("LoadSemantic", func(t *testing.T) {
		cfg, err := loader.LoadSemantic(ctx, paths.Semantic)
		require.NoError(t, err)
		assert.NotEmpty(t, cfg.Chains)
		assert.NotEmpty(t, cfg.Unknown)
		assert.Nil(t, cfg.Embedding, "the instance attaches the shared embedding")
		assert.NoError(t, cfg.Validate())
	})

	t.Run("LoadCohesion", func(t *testing.T) {
		syn, err := loader.LoadSyntax(ctx, paths.Syntax, paths.SyntaxLayers)
		require.NoError(t, err)
		cfg, err := loader.LoadCohesion(ctx, paths.Cohesion, paths.CohesionLayers)
		require.NoError(t, err)
		assert.Len(t, cfg.Layers, paths.CohesionLayers)
		assert.NoError(t, cfg.ValidateAgainst(syn))
	})
}
