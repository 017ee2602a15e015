package scorer

import (
	"testing"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFinal(id string, final float64) domain.Variant {
	return domain.Variant{ID: id, Metrics: &domain.ScoreResult{Final: final}}
}

func TestSelectRecommended_PicksMax(t *testing.T) {
	id, ok := SelectRecommended([]domain.Variant{
		withFinal("A", 6.1),
		withFinal("B", 8.4),
		withFinal("C", 7.9),
	})
	require.True(t, ok)
	assert.Equal(t, "B", id)
}

func TestSelectRecommended_TieGoesToFirst(t *testing.T) {
	id, ok := SelectRecommended([]domain.Variant{
		withFinal("A", 7.0),
		withFinal("B", 8.0),
		withFinal("C", 8.0),
	})
	require.True(t, ok)
	assert.Equal(t, "B", id)
}

func TestSelectRecommended_NoMetrics(t *testing.T) {
	_, ok := SelectRecommended([]domain.Variant{{ID: "A"}, {ID: "B"}})
	assert.False(t, ok)

	_, ok = SelectRecommended(nil)
	assert.False(t, ok)
}

func TestRecommend_MarksExactlyOne(t *testing.T) {
	batch := []domain.Variant{
		{ID: "A", Caption: "Temos novidades."},
		{ID: "B", Caption: "Desconto de 10% hoje! Clica no link da bio."},
		{ID: "C", Caption: "Hoje é dia de café."},
	}
	batch[0].Recommended = true

	ScoreAll(batch, Context{CopyMode: domain.CopyModeSales})
	id, ok := Recommend(batch)
	require.True(t, ok)
	assert.Equal(t, "B", id)

	marked := 0
	for _, v := range batch {
		require.NotNil(t, v.Metrics)
		if v.Recommended {
			marked++
			assert.Equal(t, "B", v.ID)
		}
	}
	assert.Equal(t, 1, marked)
}

func TestRecommend_ScoringDisabled(t *testing.T) {
	batch := []domain.Variant{{ID: "A"}, {ID: "B", Recommended: true}}
	_, ok := Recommend(batch)
	assert.False(t, ok)
	for _, v := range batch {
		assert.False(t, v.Recommended)
	}
}
