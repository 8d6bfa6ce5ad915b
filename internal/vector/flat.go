// Package vector provides a flat in-memory index with exact inner-product search.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/kotae/pkg/utils"
)

// Hit is a single search result. Position is the insertion position of the
// vector, which callers use to look up the chunk it belongs to.
type Hit struct {
	Position int
	Score    float64
}

// FlatIndex stores unit-normalized vectors in insertion order and searches
// them by brute-force inner product. With normalized vectors the score is the
// cosine similarity. Exact and fast enough for corpora in the thousands.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Add appends vectors in order. Each vector is copied and L2-normalized, so
// the caller's slices stay untouched and stored vectors are always unit length.
func (x *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, vec := range vectors {
		if len(vec) != x.dimensions {
			return fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(vec), x.dimensions)
		}
		stored := make([]float32, x.dimensions)
		copy(stored, vec)
		utils.NormalizeL2(stored)
		x.vectors = append(x.vectors, stored)
	}
	return nil
}

// Search returns the k highest-scoring positions for query, ordered by
// descending score with ties broken by lower position. k is capped at the
// index size; an empty index or non-positive k yields no results.
func (x *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dimensions)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil
	}

	q := make([]float32, x.dimensions)
	copy(q, query)
	utils.NormalizeL2(q)

	hits := make([]Hit, len(x.vectors))
	for i, vec := range x.vectors {
		hits[i] = Hit{Position: i, Score: InnerProduct(q, vec)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Save writes a snapshot to path: dimensions (4 bytes), count (4 bytes), then
// count*dimensions little-endian float32 values. An empty path is a no-op.
func (x *FlatIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(x.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(x.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range x.vectors {
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with the snapshot at path. A missing file
// leaves the index unchanged without error; a dimension mismatch is an error.
func (x *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != x.dimensions {
		return fmt.Errorf("dimension mismatch: snapshot has %d, index expects %d", dim, x.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	vectors := make([][]float32, 0, n)
	buf := make([]byte, x.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}

	x.mu.Lock()
	x.vectors = vectors
	x.mu.Unlock()
	return nil
}

// Size returns the number of stored vectors.
func (x *FlatIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Dimensions returns the vector dimension the index was created with.
func (x *FlatIndex) Dimensions() int {
	return x.dimensions
}

// Close is a no-op; the index holds no external resources.
func (x *FlatIndex) Close() error {
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
