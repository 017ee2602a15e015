package scorer

import "github.com/pbaille/contentforge/internal/domain"

// SelectRecommended returns the id of the variant with the highest final score.
// Ties go to the first variant. ok is false when the batch is empty or any
// variant is missing metrics.
func SelectRecommended(variants []domain.Variant) (id string, ok bool) {
	best := -1
	for i, v := range variants {
		if v.Metrics == nil {
			return "", false
		}
		if best < 0 || v.Metrics.Final > variants[best].Metrics.Final {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return variants[best].ID, true
}

// Recommend clears every recommended flag in the batch and sets it on the
// selected variant, if any.
func Recommend(variants []domain.Variant) (string, bool) {
	for i := range variants {
		variants[i].Recommended = false
	}

	id, ok := SelectRecommended(variants)
	if !ok {
		return "", false
	}
	for i := range variants {
		if variants[i].ID == id {
			variants[i].Recommended = true
			break
		}
	}
	return id, true
}

// ScoreAll attaches metrics to every variant in place
func ScoreAll(variants []domain.Variant, ctx Context) {
	for i := range variants {
		m := Score(variants[i].Caption, ctx)
		variants[i].Metrics = &m
	}
}
