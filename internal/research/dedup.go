package research

import (
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
)

// DedupCandidates keeps the first candidate for each canonical URL, in
// discovery order, and reports how many were dropped. The kept records are
// unchanged; canonical keys are only used for comparison.
func DedupCandidates(candidates []models.CandidateResult) ([]models.CandidateResult, int) {
	unique := make([]models.CandidateResult, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	duplicates := 0
	for _, c := range candidates {
		key := helpers.CanonicalKey(c.URL)
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	return unique, duplicates
}
