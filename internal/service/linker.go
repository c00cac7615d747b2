package service

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dotshell-org/ico-sub000/internal/database/repository"
)

// maxSuggestionDistance is the cutoff on normalized edit distance; above
// it an addition is not offered as a link candidate.
const maxSuggestionDistance = 0.4

// Suggestion is one stock addition offered as a link candidate for an
// invoice product, with its similarity to the product name in [0, 1].
type Suggestion struct {
	Addition   repository.StockMovement
	Similarity float64
}

// StockLinker proposes stock additions to link invoice products to.
type StockLinker struct {
	Stock *repository.StockRepo
}

// Suggest ranks recent additions by name similarity to the product name,
// best first, keeping at most limit candidates.
func (s *StockLinker) Suggest(ctx context.Context, productName string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 5
	}
	additions, err := s.Stock.RecentAdditions(ctx, 200)
	if err != nil {
		return nil, err
	}

	name := strings.ToUpper(strings.TrimSpace(productName))
	var out []Suggestion
	for _, a := range additions {
		d := normalizedDistance(name, strings.ToUpper(a.Object))
		if d >= maxSuggestionDistance {
			continue
		}
		out = append(out, Suggestion{Addition: a, Similarity: 1 - d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func normalizedDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	maxlen := len(a)
	if len(b) > maxlen {
		maxlen = len(b)
	}
	if maxlen == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(maxlen)
}
