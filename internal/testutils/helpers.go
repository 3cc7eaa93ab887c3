// Package testutils holds shared fixtures for the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Lenny-the-burger/hlg/examples/toy"
	"github.com/Lenny-the-burger/hlg/internal/embedding"
	"github.com/Lenny-the-burger/hlg/pkg/adapters/memory"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// ToyDim is the embedding dimension of the toy model.
const ToyDim = 4

// Expected toy outputs.
const (
	ToyText      = "The cat chases the little mouse."
	ToyHelloText = "The dog chases the little mouse."
)

// ToyDir extracts the toy model into a temp dir, converts its GloVe table
// to toy.bin and returns the directory.
func ToyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := toy.Extract(dir)
	require.NoError(t, err, "Failed to extract toy model")
	return dir
}

// ToyOptions returns options pointing at a fresh copy of the toy model files.
func ToyOptions(t *testing.T) domain.Options {
	t.Helper()
	dir := ToyDir(t)
	return domain.Options{
		SyntacticModelPath:   filepath.Join(dir, "syntax.yaml"),
		SemanticModelPath:    filepath.Join(dir, "semantic.yaml"),
		CohesionModelPath:    filepath.Join(dir, "cohesion.yaml"),
		EmbeddingsPath:       filepath.Join(dir, "toy.bin"),
		EmbeddingCacheSizeMB: 1,
	}.WithDefaults()
}

// MemoryOptions returns options for a loader built by ToyBuilder, backed
// by the toy embedding table.
func MemoryOptions(t *testing.T) domain.Options {
	t.Helper()
	opts := ToyOptions(t)
	opts.SyntacticModelPath = memory.SyntaxPath
	opts.SemanticModelPath = memory.SemanticPath
	opts.CohesionModelPath = memory.CohesionPath
	return opts
}

// ToyBuilder declares the toy model with the DSL.
func ToyBuilder() *dsl.Builder {
	b := dsl.New()
	b.Syntax("start", "clause", 3).
		MaxSpan(4).
		Sequence(domain.StartSymbol, "DECL")
	b.Syntax("clause", "role", 3).
		Sequence("DECL", "det", "nsubj", "ROOT", "det", "dobj", "punct")

	b.Chain("general", 2).
		Candidate("det", nil, "the", 3).
		Candidate("det", nil, "a", 1).
		Candidate("nsubj", nil, "cat", 2).
		Candidate("nsubj", nil, "dog", 2).
		Candidate("ROOT", nil, "chases", 1).
		Candidate("ROOT", nil, "sees", 1).
		Candidate("dobj", nil, "ball", 1).
		Candidate("dobj", nil, "mouse", 1).
		Candidate("punct", nil, ".", 1)
	b.Chain("pets", 3).
		Candidate("dobj", []string{"chases", "the"}, "mouse", 1)

	b.Cohesion(1, 2).
		Rule("the", []string{domain.PadSymbol}, "The", 1).
		Rule("mouse", []string{"the"}, "little mouse", 1)
	return b
}

// ToyLoader builds the DSL toy model.
func ToyLoader(t *testing.T) *memory.Loader {
	t.Helper()
	loader, err := ToyBuilder().Build()
	require.NoError(t, err, "Failed to build toy model")
	return loader
}

// WriteEmbeddings writes a binary table to a temp file and returns its path.
func WriteEmbeddings(t *testing.T, words []string, vectors [][]float32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emb.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, embedding.WriteTable(f, words, vectors))
	require.NoError(t, f.Close())
	return path
}
