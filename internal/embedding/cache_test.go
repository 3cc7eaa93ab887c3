package embedding_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Lenny-the-burger/hlg/internal/embedding"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testWords   = []string{"cat", "dog", "ball", "mouse"}
	testVectors = [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0.5, 0.5, 0, 0.25},
	}
)

// record size for dim 4
const vecBytes = 16

func writeTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emb.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, embedding.WriteTable(f, testWords, testVectors))
	require.NoError(t, f.Close())
	return path
}

func TestCache_LookupReturnsTableVectors(t *testing.T) {
	c, err := embedding.Open(writeTable(t), 1<<20)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 4, c.Dimension())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, testWords, c.Words())

	for i, want := range testVectors {
		got, err := c.Lookup(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	vec, ok, err := c.LookupWord("mouse")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testVectors[3], vec)

	_, ok, err = c.LookupWord("kitten")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Lookup(4)
	assert.ErrorIs(t, err, embedding.ErrOutOfRange)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := embedding.Open(writeTable(t), 2*vecBytes)
	require.NoError(t, err)
	defer c.Close()

	for _, id := range []int{0, 1} {
		_, err := c.Lookup(id)
		require.NoError(t, err)
	}
	// Touch 0 so that 1 becomes the LRU entry.
	_, err = c.Lookup(0)
	require.NoError(t, err)
	_, err = c.Lookup(2)
	require.NoError(t, err)

	assert.True(t, c.Resident(0))
	assert.False(t, c.Resident(1))
	assert.True(t, c.Resident(2))

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(3), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, int64(2*vecBytes), stats.ResidentBytes)
	assert.LessOrEqual(t, stats.ResidentBytes, stats.BudgetBytes)

	// Evicted entries are re-fetchable with identical contents.
	vec, err := c.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, testVectors[1], vec)
}

func TestCache_ZeroBudgetStreams(t *testing.T) {
	c, err := embedding.Open(writeTable(t), 0)
	require.NoError(t, err)
	defer c.Close()

	for round := 0; round < 3; round++ {
		for i, want := range testVectors {
			got, err := c.Lookup(i)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.False(t, c.Resident(i))
		}
	}

	stats := c.Stats()
	assert.Zero(t, stats.Hits)
	assert.Equal(t, uint64(12), stats.Misses)
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.ResidentBytes)
}

func TestCache_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := embedding.Open(filepath.Join(t.TempDir(), "nope.bin"), 0)
		assert.ErrorIs(t, err, domain.ErrFileOpen)
	})

	t.Run("budget below one entry", func(t *testing.T) {
		_, err := embedding.Open(writeTable(t), vecBytes-1)
		assert.ErrorIs(t, err, domain.ErrAllocation)
	})

	t.Run("not a table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.bin")
		require.NoError(t, os.WriteFile(path, []byte("this is not an embedding table"), 0o644))
		_, err := embedding.Open(path, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidModel)
	})

	t.Run("lookup after close", func(t *testing.T) {
		c, err := embedding.Open(writeTable(t), 1<<10)
		require.NoError(t, err)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close(), "close is idempotent")

		_, err = c.Lookup(0)
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})
}

func TestCache_ConcurrentLookups(t *testing.T) {
	c, err := embedding.Open(writeTable(t), 2*vecBytes)
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := (g + i) % len(testVectors)
				vec, err := c.Lookup(id)
				if assert.NoError(t, err) {
					assert.Equal(t, testVectors[id], vec)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().ResidentBytes, int64(2*vecBytes))
}

func TestConvertGloVe(t *testing.T) {
	src := strings.Join([]string{
		"cat 1 0 0",
		"dog 0 1 0",
		"don't 0 0 1",
		"x 0.5 0.5 0.5",
		"cat 9 9 9",
		"well-known 0 0 2",
	}, "\n")

	var out bytes.Buffer
	stats, err := embedding.ConvertGloVe(strings.NewReader(src), &out, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Lines)
	assert.Equal(t, 4, stats.Kept)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 3, stats.Dim)

	c, err := embedding.New(bytes.NewReader(out.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog", "x", "well-known"}, c.Words())

	vec, ok, err := c.LookupWord("cat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0}, vec, "first occurrence wins")
}

func TestConvertGloVe_DimensionMismatch(t *testing.T) {
	var out bytes.Buffer
	_, err := embedding.ConvertGloVe(strings.NewReader("a 1 2\nb 1 2 3\n"), &out, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidModel)
}

func rawHeader(dim, count uint32, vocabOffset uint64) []byte {
	b := make([]byte, 24)
	copy(b, "HLGE")
	binary.LittleEndian.PutUint32(b[4:], 1)
	binary.LittleEndian.PutUint32(b[8:], dim)
	binary.LittleEndian.PutUint32(b[12:], count)
	binary.LittleEndian.PutUint64(b[16:], vocabOffset)
	return b
}

func TestNew_RejectsHeadersLargerThanTheFile(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"count far beyond the file", append(rawHeader(1, math.MaxUint32, 24+4*math.MaxUint32), 0, 0, 0, 0)},
		{"records overflow", rawHeader(math.MaxUint32, math.MaxUint32, 0)},
		{"vocabulary missing", append(rawHeader(1, 2, 32), make([]byte, 8)...)},
		{"vocabulary truncated", append(rawHeader(1, 1, 28), 0, 0, 0, 0, 5, 0, 'c')},
		{"short header", []byte("HLGE\x01\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := embedding.New(bytes.NewReader(tt.raw), 0)
			assert.ErrorIs(t, err, domain.ErrInvalidModel)
		})
	}

	valid := append(rawHeader(1, 1, 28), 0, 0, 0x80, 0x3f, 1, 0, 'a')
	c, err := embedding.New(bytes.NewReader(valid), 0)
	require.NoError(t, err)
	vec, ok, err := c.LookupWord("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1}, vec)
}

func TestCache_BudgetRoundsDownToWholeVectors(t *testing.T) {
	c, err := embedding.Open(writeTable(t), 2*vecBytes+vecBytes/2)
	require.NoError(t, err)

	for id := range testVectors {
		_, err := c.Lookup(id)
		require.NoError(t, err)
	}
	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(2*vecBytes), stats.ResidentBytes)
	assert.Equal(t, uint64(2), stats.Evictions)
	assert.True(t, c.Resident(3))
	assert.False(t, c.Resident(0))

	require.NoError(t, c.Close())
	stats = c.Stats()
	assert.Zero(t, stats.Entries)
	assert.Equal(t, uint64(2), stats.Evictions, "close is not an eviction")
}

func TestConvertGloVe_MatchesWriteTable(t *testing.T) {
	var (
		src     strings.Builder
		words   []string
		vectors [][]float32
	)
	for i := 0; i < 5000; i++ {
		word := fmt.Sprintf("w%d", i)
		vec := []float32{float32(i), -float32(i) / 2, 0.25}
		fmt.Fprintf(&src, "%s %g %g %g\n", word, vec[0], vec[1], vec[2])
		words = append(words, word)
		vectors = append(vectors, vec)
	}

	var streamed, direct bytes.Buffer
	stats, err := embedding.ConvertGloVe(strings.NewReader(src.String()), &streamed, nil)
	require.NoError(t, err)
	assert.Equal(t, 5000, stats.Kept)
	require.NoError(t, embedding.WriteTable(&direct, words, vectors))
	assert.Equal(t, direct.Bytes(), streamed.Bytes())

	_, err = embedding.ConvertGloVe(strings.NewReader("don't 1 2\n"), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidModel, "nothing kept")
}
