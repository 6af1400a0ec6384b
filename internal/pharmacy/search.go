package pharmacy

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/medbook/internal/domain"
)

// Rank filters products to those fuzzily matching term and orders them best
// first. An empty term returns the products unchanged.
func Rank(products []domain.Product, term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}

	type ranked struct {
		product domain.Product
		score   int
	}

	results := make([]ranked, 0, len(products))
	for _, p := range products {
		name := strings.ToLower(p.Name)
		if !fuzzy.MatchFold(term, name) && !strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		results = append(results, ranked{product: p, score: matchScore(name, term)})
	}

	// Lower is better
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score < results[j].score
	})

	out := make([]domain.Product, len(results))
	for i, r := range results {
		out[i] = r.product
	}
	return out
}

func matchScore(name, term string) int {
	switch {
	case name == term:
		return 0
	case strings.HasPrefix(name, term):
		return 10
	case strings.Contains(name, term):
		return 50
	}
	return 100 + fuzzy.LevenshteinDistance(term, name)
}
