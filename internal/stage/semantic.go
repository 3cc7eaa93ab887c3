package stage

import (
	"fmt"
	"math"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ngram"
)

// Choice is the winning candidate for one slot.
type Choice struct {
	Word  string
	Chain int
	Prob  float64
	Sim   float64
	Score float64
}

// less orders choices: higher score, then earlier chain, then lexical.
func (c Choice) less(o Choice) bool {
	if c.Score != o.Score {
		return c.Score > o.Score
	}
	if c.Chain != o.Chain {
		return c.Chain < o.Chain
	}
	return c.Word < o.Word
}

// Semantic fills skeleton slots with lexical roots.
type Semantic struct {
	chains  []domain.CandidateChain
	emb     domain.Embedding
	weight  float64
	unknown string
}

// NewSemantic builds the stage. weight is the share of the n-gram
// probability in each candidate's score.
func NewSemantic(cfg domain.SemanticConfig, weight float64) *Semantic {
	unknown := cfg.Unknown
	if unknown == "" {
		unknown = domain.DefaultUnknown
	}
	return &Semantic{
		chains:  append([]domain.CandidateChain(nil), cfg.Chains...),
		emb:     cfg.Embedding,
		weight:  weight,
		unknown: unknown,
	}
}

// Run returns a copy of sk with every slot's Word set. contextVector may be
// nil or all zeros, in which case only n-gram probabilities count.
func (s *Semantic) Run(sk domain.Skeleton, contextVector []float32) (domain.Skeleton, error) {
	out := sk.Clone()
	ctxNorm := norm(contextVector)
	filled := make([]string, 0, len(out.Slots))

	for i := range out.Slots {
		choice, ok, err := s.choose(out.Slots[i].Category, filled, contextVector, ctxNorm)
		if err != nil {
			return domain.Skeleton{}, fmt.Errorf("slot %d (%s): %w", i, out.Slots[i].Category, err)
		}
		word := s.unknown
		if ok {
			word = choice.Word
		}
		out.Slots[i].Word = word
		out.Slots[i].Surface = word
		filled = append(filled, word)
	}
	return out, nil
}

// choose runs the chains in series. A later chain that proposes anything
// overrides what earlier chains picked.
func (s *Semantic) choose(category string, filled []string, ctxVec []float32, ctxNorm float64) (Choice, bool, error) {
	var (
		best  Choice
		found bool
	)
	for k, chain := range s.chains {
		model, ok := chain.Models[category]
		if !ok {
			continue
		}
		history := append(ngram.Pad(domain.PadSymbol, chain.Order-1), filled...)
		cands := model.Candidates(ngram.Tail(history, chain.Order-1))
		if len(cands) == 0 {
			continue
		}

		var top Choice
		for j, c := range cands {
			sim, err := s.similarity(c.Token, ctxVec, ctxNorm)
			if err != nil {
				return Choice{}, false, err
			}
			cur := Choice{
				Word:  c.Token,
				Chain: k,
				Prob:  c.Prob,
				Sim:   sim,
				Score: s.weight*c.Prob + (1-s.weight)*sim,
			}
			if j == 0 || cur.less(top) {
				top = cur
			}
		}
		best, found = top, true
	}
	return best, found, nil
}

func (s *Semantic) similarity(word string, ctxVec []float32, ctxNorm float64) (float64, error) {
	if ctxNorm == 0 || s.emb == nil || s.weight == 1 {
		return 0, nil
	}
	vec, ok, err := s.emb.LookupWord(word)
	if err != nil || !ok {
		return 0, err
	}
	return cosine(vec, ctxVec, ctxNorm), nil
}

// cosine compares a and b over their common prefix; bNorm is |b| over its
// full length, matching how the context vector was projected.
func cosine(a, b []float32, bNorm float64) float64 {
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	aNorm := norm(a[:n])
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	return dot / (aNorm * bNorm)
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}
