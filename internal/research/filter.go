package research

import "github.com/mohammad-safakhou/askcampus/models"

// FilterByThreshold keeps pages scoring at least threshold. When none do, it
// falls back to the single best page (the first one on ties) and reports
// fallback=true. Empty input yields empty output.
func FilterByThreshold(pages []models.GradedPage, threshold float64) (filtered []models.GradedPage, fallback bool) {
	filtered = make([]models.GradedPage, 0, len(pages))
	for _, p := range pages {
		if p.RelevanceScore >= threshold {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > 0 || len(pages) == 0 {
		return filtered, false
	}
	best := 0
	for i := 1; i < len(pages); i++ {
		if pages[i].RelevanceScore > pages[best].RelevanceScore {
			best = i
		}
	}
	return append(filtered, pages[best]), true
}
