package embedding

import (
	"context"
	"fmt"

	"github.com/pbaille/contentforge/internal/domain"
)

// DefaultThreshold is the cosine similarity above which a caption counts as a repeat
const DefaultThreshold = 0.92

// FindRepeats sets RepeatOf on every variant whose caption is too close to a
// past post. Variants are compared against past events only, not each other.
func FindRepeats(ctx context.Context, e Embedder, variants []domain.Variant, past []domain.PlannerEvent, threshold float64) error {
	if len(variants) == 0 || len(past) == 0 {
		return nil
	}

	texts := make([]string, 0, len(variants)+len(past))
	for _, v := range variants {
		texts = append(texts, v.Caption)
	}
	for _, p := range past {
		texts = append(texts, p.Caption)
	}

	vectors, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed captions: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}

	pastVectors := vectors[len(variants):]
	for i := range variants {
		best, bestIdx := 0.0, -1
		for j, pv := range pastVectors {
			if sim := CosineSimilarity(vectors[i], pv); sim > best {
				best, bestIdx = sim, j
			}
		}
		if bestIdx >= 0 && best >= threshold {
			variants[i].RepeatOf = past[bestIdx].ID
		}
	}
	return nil
}
