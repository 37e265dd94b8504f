package vectorstore

import (
	"sync"
)

// Searcher retrieves chunk identifiers ranked against a query vector.
// The in-memory Index below is a placeholder implementation; a real
// approximate-nearest-neighbor structure can be substituted here without
// touching the pipelines.
type Searcher interface {
	Insert(chunkID int64, vector []float32)
	Search(query []float32, topK int) []int64
	Evict(chunkID int64)
}

var _ Searcher = (*Index)(nil)

// Index is an in-process map from chunk id to embedding vector. It is derived
// state: the relational store stays authoritative and the index is rebuilt
// from it on startup. Insertion order is preserved because the placeholder
// search policy returns the first topK identifiers.
type Index struct {
	mu      sync.RWMutex
	vectors map[int64][]float32
	order   []int64
}

func NewIndex() *Index {
	return &Index{
		vectors: make(map[int64][]float32),
	}
}

// Insert upserts the vector for chunkID. An existing entry is updated in
// place and keeps its original insertion position.
func (idx *Index) Insert(chunkID int64, vector []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.vectors[chunkID]; !ok {
		idx.order = append(idx.order, chunkID)
	}
	idx.vectors[chunkID] = vector
}

func (idx *Index) Get(chunkID int64) ([]float32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	vec, ok := idx.vectors[chunkID]
	return vec, ok
}

// Search returns up to topK chunk ids. The query vector is ignored: this is
// a nearest-neighbor stub that yields the first topK identifiers in insertion
// order. topK of zero or less yields an empty result.
func (idx *Index) Search(query []float32, topK int) []int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if topK <= 0 {
		return nil
	}
	if topK > len(idx.order) {
		topK = len(idx.order)
	}
	ids := make([]int64, topK)
	copy(ids, idx.order[:topK])
	return ids
}

// Evict removes the entry for chunkID, if present. Called when the backing
// chunk row is deleted so the index never outlives the store.
func (idx *Index) Evict(chunkID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.vectors[chunkID]; !ok {
		return
	}
	delete(idx.vectors, chunkID)
	for i, id := range idx.order {
		if id == chunkID {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.vectors)
}

func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = make(map[int64][]float32)
	idx.order = nil
}
