// Package embedding implements the on-disk embedding table and the bounded
// streaming cache that serves vectors from it.
package embedding

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// Binary format version and magic bytes.
var magic = [4]byte{'H', 'L', 'G', 'E'}

const (
	version    uint32 = 1
	headerSize        = 24
	maxWordLen        = math.MaxUint16

	// vocabPrealloc caps the up-front vocabulary allocation; larger tables
	// grow as entries are read.
	vocabPrealloc = 1 << 16
)

// Header describes an embedding table.
//
// Format overview (little endian):
//
//	[4B magic "HLGE"] [4B version] [4B dim] [4B count] [8B vocabOffset]
//	count × dim × 4B float32 records, id order
//	count × ([2B len] [len bytes word]), id order
type Header struct {
	Version     uint32
	Dim         int
	Count       int
	VocabOffset int64
}

// RecordSize returns the byte size of one vector.
func (h Header) RecordSize() int {
	return h.Dim * 4
}

// Offset returns the file offset of vector id.
func (h Header) Offset(id int) int64 {
	return headerSize + int64(id)*int64(h.RecordSize())
}

// TableReader is random access to a complete table of known size.
// *os.File does not qualify directly; wrap it with io.NewSectionReader.
type TableReader interface {
	io.ReaderAt
	Size() int64
}

// WriteTable writes words and their vectors in the binary format.
// Every vector must have the same non-zero length.
func WriteTable(w io.Writer, words []string, vectors [][]float32) error {
	if len(words) != len(vectors) {
		return fmt.Errorf("embedding: %d words but %d vectors", len(words), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return fmt.Errorf("embedding: %w: empty table", domain.ErrInvalidModel)
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, dim, len(words)); err != nil {
		return err
	}
	buf := make([]byte, dim*4)
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("embedding: %w: vector %d (%q) has length %d, want %d",
				domain.ErrInvalidModel, i, words[i], len(vec), dim)
		}
		encodeVector(buf, vec)
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("embedding: write vector %d: %w", i, err)
		}
	}
	if err := writeVocab(bw, words); err != nil {
		return err
	}
	return bw.Flush()
}

func writeHeader(w io.Writer, dim, count int) error {
	if uint64(count) > math.MaxUint32 {
		return fmt.Errorf("embedding: %w: %d words exceed the format limit", domain.ErrInvalidModel, count)
	}
	var raw [headerSize]byte
	le := binary.LittleEndian
	copy(raw[:4], magic[:])
	le.PutUint32(raw[4:8], version)
	le.PutUint32(raw[8:12], uint32(dim))
	le.PutUint32(raw[12:16], uint32(count))
	le.PutUint64(raw[16:24], uint64(headerSize)+uint64(count)*uint64(dim)*4)
	if _, err := w.Write(raw[:]); err != nil {
		return fmt.Errorf("embedding: write header: %w", err)
	}
	return nil
}

func writeVocab(w io.Writer, words []string) error {
	var lenBuf [2]byte
	for _, word := range words {
		if len(word) > maxWordLen {
			return fmt.Errorf("embedding: %w: word of %d bytes", domain.ErrInvalidModel, len(word))
		}
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(word)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("embedding: write vocab: %w", err)
		}
		if _, err := io.WriteString(w, word); err != nil {
			return fmt.Errorf("embedding: write vocab: %w", err)
		}
	}
	return nil
}

// ReadHeader decodes the table header and checks it against the size of r:
// the vector records and the smallest possible vocabulary must both fit.
func ReadHeader(r TableReader) (Header, error) {
	size := r.Size()
	if size < headerSize {
		return Header{}, fmt.Errorf("embedding: %w: %d bytes is shorter than a header", domain.ErrInvalidModel, size)
	}
	var raw [headerSize]byte
	if _, err := r.ReadAt(raw[:], 0); err != nil {
		return Header{}, fmt.Errorf("embedding: %w: read header: %v", domain.ErrInvalidModel, err)
	}
	if [4]byte(raw[:4]) != magic {
		return Header{}, fmt.Errorf("embedding: %w: bad magic %q", domain.ErrInvalidModel, raw[:4])
	}
	le := binary.LittleEndian
	ver := le.Uint32(raw[4:8])
	dim := uint64(le.Uint32(raw[8:12]))
	count := uint64(le.Uint32(raw[12:16]))
	vocabOffset := le.Uint64(raw[16:24])

	if ver != version {
		return Header{}, fmt.Errorf("embedding: %w: unsupported version %d", domain.ErrInvalidModel, ver)
	}
	if dim == 0 {
		return Header{}, fmt.Errorf("embedding: %w: zero dimension", domain.ErrInvalidModel)
	}
	body := uint64(size) - headerSize
	if count > 0 && dim*4 > body/count {
		return Header{}, fmt.Errorf("embedding: %w: %d vectors of dimension %d do not fit in %d bytes",
			domain.ErrInvalidModel, count, dim, size)
	}
	records := uint64(headerSize) + count*dim*4
	if vocabOffset != records {
		return Header{}, fmt.Errorf("embedding: %w: vocab offset %d, want %d",
			domain.ErrInvalidModel, vocabOffset, records)
	}
	if 2*count > uint64(size)-records {
		return Header{}, fmt.Errorf("embedding: %w: vocabulary of %d words does not fit in %d bytes",
			domain.ErrInvalidModel, count, uint64(size)-records)
	}
	return Header{
		Version:     ver,
		Dim:         int(dim),
		Count:       int(count),
		VocabOffset: int64(vocabOffset),
	}, nil
}

// ReadVocab reads the word list that follows the vector records.
func ReadVocab(r TableReader, h Header) ([]string, error) {
	sr := bufio.NewReader(io.NewSectionReader(r, h.VocabOffset, r.Size()-h.VocabOffset))
	words := make([]string, 0, min(h.Count, vocabPrealloc))
	var lenBuf [2]byte
	for i := 0; i < h.Count; i++ {
		if _, err := io.ReadFull(sr, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("embedding: %w: vocab entry %d: %v", domain.ErrInvalidModel, i, unexpected(err))
		}
		word := make([]byte, binary.LittleEndian.Uint16(lenBuf[:]))
		if _, err := io.ReadFull(sr, word); err != nil {
			return nil, fmt.Errorf("embedding: %w: vocab entry %d: %v", domain.ErrInvalidModel, i, unexpected(err))
		}
		words = append(words, string(word))
	}
	return words, nil
}

func encodeVector(dst []byte, vec []float32) {
	for i, f := range vec {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

func decodeVector(src []byte, dim int) []float32 {
	out := make([]float32, dim)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return out
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
