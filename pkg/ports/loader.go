package ports

import (
	"context"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// ModelLoader reads stage configurations from a model source.
// Implementations return domain.ErrFileOpen when a source cannot be opened
// and domain.ErrInvalidModel when its content is malformed.
type ModelLoader interface {
	// LoadSyntax returns the first layers syntax layers defined at path.
	LoadSyntax(ctx context.Context, path string, layers int) (domain.SyntaxConfig, error)

	// LoadSemantic returns the candidate chains defined at path.
	// The Embedding field is left nil; the Instance attaches the shared table.
	LoadSemantic(ctx context.Context, path string) (domain.SemanticConfig, error)

	// LoadCohesion returns the first layers cohesion layers defined at path.
	LoadCohesion(ctx context.Context, path string, layers int) (domain.CohesionConfig, error)
}
