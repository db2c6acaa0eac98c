package testutil

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/vectorstore"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}
	return vectors
}

// GaussianVectors generates vectors with standard normal components.
func (r *RNG) GaussianVectors(num, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		vectors[i] = vec
	}
	return vectors
}

// UnitVectors generates random vectors of length 1.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	vectors := r.GaussianVectors(num, dim)
	for _, vec := range vectors {
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0], norm = 1, 1
		}
		inv := float32(1 / math.Sqrt(norm))
		for j := range vec {
			vec[j] *= inv
		}
	}
	return vectors
}

// ClusteredVectors generates vectors around random unit centroids, the
// way tracks of one genre share a region of feature space. Vector i belongs
// to cluster i % clusters.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}
	return vectors
}

// Zipf returns a Zipfian-distributed value in [0, n) with skew s > 1.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(rand.NewZipf(r.rand, s, 1, uint64(n-1)).Uint64())
}

// TrackID returns the id of the i-th generated track. Ids sort in
// generation order.
func TrackID(i int) string {
	return fmt.Sprintf("track-%06d", i)
}

// Snapshot stores vectors under TrackID(i) and returns an immutable view.
func Snapshot(vectors [][]float32) (*vectorstore.Snapshot, error) {
	if len(vectors) == 0 {
		return nil, vectorstore.ErrInvalidDimension
	}
	s, err := vectorstore.New(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	for i, v := range vectors {
		if err := s.Insert(TrackID(i), v); err != nil {
			return nil, err
		}
	}
	return s.Snapshot(), nil
}

// Vocabulary is the word list generated lyrics draw from, most frequent
// first.
var Vocabulary = strings.Fields(`
	love heart night baby dance fire river rain dream light
	blue moon summer road home time sky ocean star soul
	kiss shadow silver golden morning thunder whisper highway city window
	train winter garden mountain smoke diamond echo velvet neon midnight`)

// Lyrics generates n English documents of wordsPerDoc Zipf-distributed
// words, with ids doc-000000, doc-000001, ...
func (r *RNG) Lyrics(n, wordsPerDoc int) lexical.SliceSource {
	docs := make(lexical.SliceSource, n)
	words := make([]string, wordsPerDoc)
	for i := range docs {
		for j := range words {
			words[j] = Vocabulary[r.Zipf(len(Vocabulary), 1.1)]
		}
		docs[i] = lexical.Document{
			ID:       fmt.Sprintf("doc-%06d", i),
			Text:     strings.Join(words, " "),
			Language: "en",
		}
	}
	return docs
}

// BruteForceSearch performs an exact L2 search for ground truth. Ties keep
// insertion order.
func BruteForceSearch(snap *vectorstore.Snapshot, query []float32, k int) []index.Neighbor {
	type result struct {
		ord  int
		dist float32
	}

	results := make([]result, snap.Len())
	for i := range results {
		results[i] = result{ord: i, dist: distance.Euclidean(query, snap.Vector(uint32(i)))}
	}
	slices.SortStableFunc(results, func(a, b result) int {
		return cmp.Compare(a.dist, b.dist)
	})
	if len(results) > k {
		results = results[:k]
	}

	out := make([]index.Neighbor, len(results))
	for i, r := range results {
		out[i] = index.Neighbor{TrackID: snap.ID(uint32(r.ord)), Distance: r.dist}
	}
	return out
}

// ComputeRecall computes recall@k by comparing approximate results against
// ground truth.
func ComputeRecall(groundTruth, approximate []index.Neighbor) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))
	truthSet := make(map[string]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].TrackID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate[:k] {
		if _, ok := truthSet[r.TrackID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
