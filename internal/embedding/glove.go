package embedding

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

var plainWord = regexp.MustCompile(`^[0-9a-zA-Z-]+$`)

// KeepWord is the default GloVe filter: alphanumerics and hyphens, or any
// single character.
func KeepWord(word string) bool {
	return plainWord.MatchString(word) || utf8.RuneCountInString(word) == 1
}

// ConvertStats summarizes a GloVe conversion.
type ConvertStats struct {
	Lines   int
	Kept    int
	Skipped int
	Dim     int
}

// ConvertGloVe reads GloVe text lines ("word f1 f2 ... fd") from r and writes
// the binary table to w. Words rejected by keep (KeepWord when nil) are
// skipped, as are repeated words. All kept lines must share one dimension.
//
// Vectors are encoded as they are read and spooled to a temporary file, so
// only the vocabulary is held in memory. The header, which needs the final
// count, is written once the input is exhausted.
func ConvertGloVe(r io.Reader, w io.Writer, keep func(string) bool) (ConvertStats, error) {
	if keep == nil {
		keep = KeepWord
	}
	spool, err := os.CreateTemp("", "hlg-glove-*.bin")
	if err != nil {
		return ConvertStats{}, fmt.Errorf("embedding: create spool: %w", err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	stats, words, err := spoolGloVe(r, spool, keep)
	if err != nil {
		return stats, err
	}
	if stats.Dim == 0 {
		return stats, fmt.Errorf("embedding: %w: empty table", domain.ErrInvalidModel)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return stats, fmt.Errorf("embedding: rewind spool: %w", err)
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, stats.Dim, len(words)); err != nil {
		return stats, err
	}
	if _, err := io.Copy(bw, spool); err != nil {
		return stats, fmt.Errorf("embedding: copy vectors: %w", err)
	}
	if err := writeVocab(bw, words); err != nil {
		return stats, err
	}
	return stats, bw.Flush()
}

func spoolGloVe(r io.Reader, spool io.Writer, keep func(string) bool) (ConvertStats, []string, error) {
	var (
		stats ConvertStats
		words []string
		vec   []float32
		buf   []byte
		seen  = make(map[string]struct{})
	)
	bw := bufio.NewWriter(spool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		stats.Lines++
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			stats.Skipped++
			continue
		}
		word := fields[0]
		if _, dup := seen[word]; dup || !keep(word) {
			stats.Skipped++
			continue
		}
		if len(word) > maxWordLen {
			return stats, nil, fmt.Errorf("embedding: %w: line %d: word of %d bytes",
				domain.ErrInvalidModel, stats.Lines, len(word))
		}
		dim := len(fields) - 1
		if stats.Dim == 0 {
			stats.Dim = dim
			vec = make([]float32, dim)
			buf = make([]byte, dim*4)
		} else if dim != stats.Dim {
			return stats, nil, fmt.Errorf("embedding: %w: line %d has %d values, want %d",
				domain.ErrInvalidModel, stats.Lines, dim, stats.Dim)
		}
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return stats, nil, fmt.Errorf("embedding: %w: line %d: %v", domain.ErrInvalidModel, stats.Lines, err)
			}
			vec[i] = float32(v)
		}
		encodeVector(buf, vec)
		if _, err := bw.Write(buf); err != nil {
			return stats, nil, fmt.Errorf("embedding: spool vector: %w", err)
		}
		seen[word] = struct{}{}
		words = append(words, word)
		stats.Kept++
	}
	if err := sc.Err(); err != nil {
		return stats, nil, fmt.Errorf("embedding: scan glove: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return stats, nil, fmt.Errorf("embedding: spool vector: %w", err)
	}
	return stats, words, nil
}
