package competitors

import (
	"regexp"
	"sort"
	"strings"

	"PriceWise/internal/domain/models"
)

const titleKeyWords = 5

var nonTitleChars = regexp.MustCompile(`[^a-z0-9\s]`)

// titleKey is the dedupe key: lowercase, punctuation stripped, first five words.
func titleKey(title string) string {
	words := strings.Fields(nonTitleChars.ReplaceAllString(strings.ToLower(title), ""))
	if len(words) > titleKeyWords {
		words = words[:titleKeyWords]
	}
	return strings.Join(words, " ")
}

// Dedupe keeps the first listing for each title key.
func Dedupe(listings []models.CompetitorObservation) []models.CompetitorObservation {
	seen := make(map[string]struct{}, len(listings))
	out := make([]models.CompetitorObservation, 0, len(listings))
	for _, l := range listings {
		k := titleKey(l.Title)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	return out
}

// SortByConfidence orders listings high, medium, low, keeping source order within a grade.
func SortByConfidence(listings []models.CompetitorObservation) {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Confidence.Rank() > listings[j].Confidence.Rank()
	})
}

// Merge dedupes and sorts the concatenation of sets.
func Merge(sets ...[]models.CompetitorObservation) []models.CompetitorObservation {
	var all []models.CompetitorObservation
	for _, s := range sets {
		all = append(all, s...)
	}
	out := Dedupe(all)
	SortByConfidence(out)
	return out
}
