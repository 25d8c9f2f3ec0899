// Package lexical scores passages by normalised term overlap with the query.
// It needs no model and serves as the reranker when no cross-encoder is deployed.
package lexical

import (
	"context"
	"math"
	"strings"

	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/normalisers/query"
)

// Ensure Scorer implements the interface.
var _ driven.RelevanceScorer = (*Scorer)(nil)

// stopwords are Spanish function words ignored on both sides.
var stopwords = map[string]bool{
	"a": true, "al": true, "con": true, "de": true, "del": true, "el": true,
	"en": true, "es": true, "la": true, "las": true, "lo": true, "los": true,
	"o": true, "para": true, "por": true, "que": true, "se": true, "su": true,
	"un": true, "una": true, "y": true, "sobre": true, "dice": true,
}

// Scorer computes the Ochiai coefficient between the query and passage term
// sets: |Q ∩ P| / sqrt(|Q| · |P|), in [0, 1].
type Scorer struct{}

// NewScorer creates a lexical scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Name identifies the scorer.
func (s *Scorer) Name() string {
	return "lexical"
}

// Score returns one score per passage, in input order.
func (s *Scorer) Score(ctx context.Context, q string, passages []string) ([]float64, error) {
	qTerms := terms(q)
	scores := make([]float64, len(passages))
	if len(qTerms) == 0 {
		return scores, nil
	}

	for i, p := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pTerms := terms(p)
		if len(pTerms) == 0 {
			continue
		}
		shared := 0
		for t := range qTerms {
			if pTerms[t] {
				shared++
			}
		}
		scores[i] = float64(shared) / math.Sqrt(float64(len(qTerms)*len(pTerms)))
	}
	return scores, nil
}

func terms(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(query.Normalize(text)) {
		w = strings.Trim(w, ";:()\"'-")
		if w == "" || stopwords[w] {
			continue
		}
		set[w] = true
	}
	return set
}
