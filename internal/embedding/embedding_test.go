package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps each caption to a fixed vector
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}

func TestFindRepeats(t *testing.T) {
	e := fakeEmbedder{vectors: map[string][]float64{
		"new coat":   {1, 0, 0},
		"fresh idea": {0, 1, 0},
		"old coat":   {0.99, 0.05, 0},
		"other":      {0, 0, 1},
	}}
	variants := []domain.Variant{{ID: "A", Caption: "new coat"}, {ID: "B", Caption: "fresh idea"}}
	past := []domain.PlannerEvent{{ID: "p1", Caption: "other"}, {ID: "p2", Caption: "old coat"}}

	require.NoError(t, FindRepeats(context.Background(), e, variants, past, DefaultThreshold))
	assert.Equal(t, "p2", variants[0].RepeatOf)
	assert.Empty(t, variants[1].RepeatOf)
}

func TestFindRepeats_NoPast(t *testing.T) {
	e := fakeEmbedder{err: errors.New("should not be called")}
	variants := []domain.Variant{{ID: "A", Caption: "x"}}
	assert.NoError(t, FindRepeats(context.Background(), e, variants, nil, DefaultThreshold))
}

func TestFindRepeats_EmbedError(t *testing.T) {
	e := fakeEmbedder{err: errors.New("boom")}
	err := FindRepeats(context.Background(), e,
		[]domain.Variant{{Caption: "x"}}, []domain.PlannerEvent{{Caption: "y"}}, DefaultThreshold)
	assert.ErrorContains(t, err, "boom")
}

func TestService_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req.Model)

		resp := embeddingResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
			}{Embedding: []float64{0.1, 0.2}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s, err := New("key")
	require.NoError(t, err)
	s.endpoint = srv.URL

	vectors, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
