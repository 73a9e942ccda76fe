package search

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/pixelhoard/gallery/internal/embed"
	"github.com/pixelhoard/gallery/internal/store"
)

// HNSW parameters for caption embeddings.
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	hnswMaxNeighbors = 16
)

// SimilarIndex is an in-memory HNSW index over stored caption embeddings,
// keyed by photo path. It serves store-wide "photos like this one" queries;
// it is rebuilt from the store snapshot whenever the collection changes.
type SimilarIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[string]
	byPath map[string]*store.Photo
}

// NewSimilarIndex creates an empty index.
func NewSimilarIndex() *SimilarIndex {
	return &SimilarIndex{
		byPath: make(map[string]*store.Photo),
	}
}

// Build replaces the index contents with the embeddings found in the given
// records. Records without an embedding are skipped.
func (idx *SimilarIndex) Build(photos []store.Photo) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.byPath = make(map[string]*store.Photo, len(photos))

	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // standard HNSW formula
	g.Distance = hnsw.CosineDistance

	added := 0
	for i := range photos {
		photo := &photos[i]
		if len(photo.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(photo.Path, photo.Embedding))
		idx.byPath[photo.Path] = photo
		added++
	}

	if added == 0 {
		idx.graph = nil
		return
	}
	idx.graph = g
}

// Len returns the number of indexed photos.
func (idx *SimilarIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byPath)
}

// Match is one nearest-neighbor result.
type Match struct {
	Path       string
	Similarity float64
}

// Nearest returns up to k photos most similar to the query embedding,
// excluding excludePath (the probe photo itself).
func (idx *SimilarIndex) Nearest(query []float32, k int, excludePath string) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return nil, fmt.Errorf("index is empty")
	}

	// Ask for one extra neighbor since the probe photo indexes itself.
	neighbors := idx.graph.Search(query, k+1)

	matches := make([]Match, 0, k)
	for _, n := range neighbors {
		if n.Key == excludePath {
			continue
		}
		photo, ok := idx.byPath[n.Key]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Path:       n.Key,
			Similarity: embed.CosineSimilarity(query, photo.Embedding),
		})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

// Embedding returns the stored embedding for a path, or nil.
func (idx *SimilarIndex) Embedding(path string) []float32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if photo, ok := idx.byPath[path]; ok {
		return photo.Embedding
	}
	return nil
}
