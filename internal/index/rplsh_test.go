package index

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomUnitVectors(n, d int, seed int64) []Item {
	rng := rand.New(rand.NewSource(seed))
	items := make([]Item, n)
	for i := 0; i < n; i++ {
		v := make([]float64, d)
		var norm float64
		for j := range v {
			v[j] = rng.NormFloat64()
			norm += v[j] * v[j]
		}
		scale := 1.0
		if norm > 0 {
			scale = 1.0 / math.Sqrt(norm)
		}
		for j := range v {
			v[j] *= scale
		}
		items[i] = Item{ChunkID: idFor(i), Vector: v}
	}
	return items
}

func idFor(i int) string {
	return fmt.Sprintf("n%04d", i)
}

// TestRPLSH_S4_RecallFloor builds Flat and RP-LSH over the same 1000 random
// unit vectors of dimension 64 and checks recall@10 >= 0.8 against the Flat
// oracle, averaged over 50 random queries.
func TestRPLSH_S4_RecallFloor(t *testing.T) {
	items := randomUnitVectors(1000, 64, 42)

	flat, err := BuildFlat(items)
	require.NoError(t, err)
	lsh, err := BuildRPLSH(items, Params{Seed: 42})
	require.NoError(t, err)

	queries := randomUnitVectors(50, 64, 43)

	var totalRecall float64
	for _, q := range queries {
		oracle, err := flat.Search(q.Vector, 10, nil)
		require.NoError(t, err)
		approx, err := lsh.Search(q.Vector, 10, nil)
		require.NoError(t, err)

		totalRecall += recallAt(oracle, approx)
	}
	avgRecall := totalRecall / float64(len(queries))
	assert.GreaterOrEqual(t, avgRecall, 0.8, "LSH recall@10 should be >= 0.8, got %f", avgRecall)
}

func recallAt(oracle, approx []Result) float64 {
	if len(oracle) == 0 {
		return 1
	}
	want := make(map[string]struct{}, len(oracle))
	for _, r := range oracle {
		want[r.ChunkID] = struct{}{}
	}
	hit := 0
	for _, r := range approx {
		if _, ok := want[r.ChunkID]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(oracle))
}

func TestRPLSH_Determinism(t *testing.T) {
	items := randomUnitVectors(200, 16, 7)
	a, err := BuildRPLSH(items, Params{Seed: 99})
	require.NoError(t, err)
	b, err := BuildRPLSH(items, Params{Seed: 99})
	require.NoError(t, err)

	q := items[0].Vector
	ra, err := a.Search(q, 5, nil)
	require.NoError(t, err)
	rb, err := b.Search(q, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}
