package model

import (
	"hash/fnv"
	"math/rand"
)

// EmbedderInterface maps text to a fixed-length vector. Kept narrow so a real
// embedding model (Ollama, OpenAI) can replace the mock without touching the
// chunker or the vector index.
type EmbedderInterface interface {
	Embed(text string) ([]float32, error)
	Dimension() int
}

// EmbeddingDim is the vector width persisted in the chunks table.
const EmbeddingDim = 8

// MockEmbedder is a placeholder for a real embedding model. It seeds a
// pseudo-random generator from a hash of the text, so identical input yields
// an identical vector within one process run.
type MockEmbedder struct{}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (e *MockEmbedder) Embed(text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))

	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	vec := make([]float32, EmbeddingDim)
	for i := range vec {
		vec[i] = rng.Float32()
	}
	return vec, nil
}

func (e *MockEmbedder) Dimension() int {
	return EmbeddingDim
}
