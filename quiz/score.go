package quiz

import (
	"sort"

	"PerfumeBot/model"
)

// MaxRecommendations bounds the number of items returned by Score.
const MaxRecommendations = 3

// MatchCount counts the questions for which item is tagged with the given
// answer. Answers beyond the item's tagged questions never match.
func MatchCount(item model.CatalogItem, answers []int) int {
	matches := 0
	for q, answer := range answers {
		if item.Matches(q, answer) {
			matches++
		}
	}
	return matches
}

// Score ranks catalog items by match count and returns at most
// MaxRecommendations items with at least one match. Items with equal counts
// keep their catalog order. An empty result means nothing matched.
func Score(catalog []model.CatalogItem, answers []int) []model.CatalogItem {
	type scored struct {
		item    model.CatalogItem
		matches int
	}

	ranked := make([]scored, 0, len(catalog))
	for _, item := range catalog {
		ranked = append(ranked, scored{item: item, matches: MatchCount(item, answers)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].matches > ranked[j].matches
	})

	var result []model.CatalogItem
	for _, s := range ranked {
		if len(result) == MaxRecommendations || s.matches == 0 {
			break
		}
		result = append(result, s.item)
	}
	return result
}
