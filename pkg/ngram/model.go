// Package ngram implements the weighted n-gram transition tables shared by
// every stage of the generator.
//
// A Model maps a context (the previous order-1 tokens) to a weighted set of
// successor tokens. Lookups back off to shorter contexts when the full one
// is unknown, and selection is fully deterministic: highest probability
// first, then earliest registration, then lexical order.
package ngram

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidWeight is returned by Add when a weight is not strictly positive.
var ErrInvalidWeight = errors.New("ngram: weight must be positive")

// sep joins context tokens into a bucket key. It never appears in vocabularies.
const sep = "\x1f"

// Candidate is a proposed successor with its weight and normalized probability.
type Candidate struct {
	Token  string
	Weight float64
	// Prob is Weight divided by the total weight of the matched context.
	Prob float64
	// Seq is the global registration order of the (context, token) pair.
	Seq int
}

type bucket struct {
	total float64
	cands []Candidate
	index map[string]int
}

// Model is an n-gram transition table. It is not safe for concurrent
// mutation; once built it is read-only and may be shared freely.
type Model struct {
	order   int
	buckets map[string]*bucket
	seq     int
}

// New creates an empty model of the given order. Orders below 1 are treated as 1.
func New(order int) *Model {
	if order < 1 {
		order = 1
	}
	return &Model{
		order:   order,
		buckets: make(map[string]*bucket),
	}
}

// Order returns the n-gram order (context length + 1).
func (m *Model) Order() int {
	return m.order
}

// Len returns the number of distinct contexts registered.
func (m *Model) Len() int {
	return len(m.buckets)
}

// Add registers weight for next following context. Only the last order-1
// tokens of context are kept; a shorter context registers a backoff entry.
// Adding the same pair twice accumulates weight and keeps the first
// registration position.
func (m *Model) Add(context []string, next string, weight float64) error {
	if weight <= 0 {
		return fmt.Errorf("%w: %q -> %q (%v)", ErrInvalidWeight, strings.Join(context, " "), next, weight)
	}
	key := m.key(context)
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{index: make(map[string]int)}
		m.buckets[key] = b
	}
	if i, ok := b.index[next]; ok {
		b.cands[i].Weight += weight
	} else {
		b.index[next] = len(b.cands)
		b.cands = append(b.cands, Candidate{Token: next, Weight: weight, Seq: m.seq})
		m.seq++
	}
	b.total += weight
	return nil
}

// Candidates returns the successors of context in rank order. When the full
// context is unknown the oldest token is dropped until a registered context
// (possibly the empty one) is found. It returns nil when nothing matches.
func (m *Model) Candidates(context []string) []Candidate {
	b := m.lookup(context)
	if b == nil {
		return nil
	}
	out := make([]Candidate, len(b.cands))
	for i, c := range b.cands {
		c.Prob = c.Weight / b.total
		out[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Best returns the top-ranked successor of context.
func (m *Model) Best(context []string) (Candidate, bool) {
	cands := m.Candidates(context)
	if len(cands) == 0 {
		return Candidate{}, false
	}
	return cands[0], true
}

// Prob returns P(token | context) under the same backoff as Candidates.
func (m *Model) Prob(context []string, token string) float64 {
	b := m.lookup(context)
	if b == nil {
		return 0
	}
	i, ok := b.index[token]
	if !ok {
		return 0
	}
	return b.cands[i].Weight / b.total
}

// Less reports whether a ranks before b: higher probability, then earlier
// registration, then lexically smaller token.
func Less(a, b Candidate) bool {
	if a.Prob != b.Prob {
		return a.Prob > b.Prob
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.Token < b.Token
}

func (m *Model) lookup(context []string) *bucket {
	ctx := Tail(context, m.order-1)
	for {
		if b, ok := m.buckets[strings.Join(ctx, sep)]; ok && len(b.cands) > 0 {
			return b
		}
		if len(ctx) == 0 {
			return nil
		}
		ctx = ctx[1:]
	}
}

func (m *Model) key(context []string) string {
	return strings.Join(Tail(context, m.order-1), sep)
}

// Tail returns the last n tokens of tokens (all of them when shorter).
func Tail(tokens []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(tokens) <= n {
		return tokens
	}
	return tokens[len(tokens)-n:]
}

// Pad returns n copies of token, the initial context of a fresh sequence.
func Pad(token string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = token
	}
	return out
}
