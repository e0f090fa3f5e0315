package index

import (
	"math/rand"

	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/vectormath"
)

const (
	defaultL = 8   // number of hash tables
	defaultH = 12  // bits per signature
	defaultP = 4   // pool-inflation factor
)

// signature is an H-bit sign-random-projection hash, packed into a uint64
// (H is bounded well under 64 by internal/config defaults and limits).
type signature uint64

// RPLSHIndex implements cosine-similarity approximate search via
// sign-random-projection (SimHash): L independent hash tables, each keyed by
// an H-bit signature, bucket the dataset so that vectors close in angle
// collide with high probability.
type RPLSHIndex struct {
	l, h, p int
	seed    int64

	ids     []string
	vectors [][]float64

	// planes[t] is an H×D matrix of N(0,1) draws for table t.
	planes [][][]float64

	// buckets[t][sig] -> indices into ids/vectors.
	buckets []map[signature][]int
}

// BuildRPLSH draws L random H×D plane matrices from a seeded generator,
// computes each item's per-table signature, and buckets item indices by
// signature.
func BuildRPLSH(items []Item, params Params) (*RPLSHIndex, error) {
	l := params.L
	if l <= 0 {
		l = defaultL
	}
	h := params.H
	if h <= 0 {
		h = defaultH
	}
	p := params.P
	if p <= 0 {
		p = defaultP
	}
	seed := params.Seed
	if seed == 0 {
		seed = 1
	}

	if len(items) == 0 {
		return &RPLSHIndex{l: l, h: h, p: p, seed: seed, buckets: make([]map[signature][]int, l)}, nil
	}
	d := len(items[0].Vector)

	rng := rand.New(rand.NewSource(seed))
	planes := make([][][]float64, l)
	for t := 0; t < l; t++ {
		planes[t] = make([][]float64, h)
		for b := 0; b < h; b++ {
			plane := make([]float64, d)
			for i := range plane {
				plane[i] = rng.NormFloat64()
			}
			planes[t][b] = plane
		}
	}

	ids := make([]string, len(items))
	vectors := make([][]float64, len(items))
	buckets := make([]map[signature][]int, l)
	for t := range buckets {
		buckets[t] = make(map[signature][]int)
	}

	for i, it := range items {
		if err := vectormath.Validate(it.Vector); err != nil {
			return nil, err
		}
		if len(it.Vector) != d {
			return nil, corverr.DimensionMismatchf("item %q has dimension %d, expected %d", it.ChunkID, len(it.Vector), d)
		}
		ids[i] = it.ChunkID
		vectors[i] = it.Vector

		for t := 0; t < l; t++ {
			sig, err := signatureOf(planes[t], it.Vector)
			if err != nil {
				return nil, err
			}
			buckets[t][sig] = append(buckets[t][sig], i)
		}
	}

	return &RPLSHIndex{
		l: l, h: h, p: p, seed: seed,
		ids: ids, vectors: vectors,
		planes: planes, buckets: buckets,
	}, nil
}

// signatureOf computes the H-bit sign(Planes · vector) signature: bit b is 1
// iff the dot product of plane b with vector is non-negative.
func signatureOf(planes [][]float64, vector []float64) (signature, error) {
	var sig signature
	for b, plane := range planes {
		dot, err := vectormath.Dot(plane, vector)
		if err != nil {
			return 0, err
		}
		if dot >= 0 {
			sig |= 1 << uint(b)
		}
	}
	return sig, nil
}

// popcount64 counts set bits, used to compute Hamming distance between two
// signatures of the same table.
func popcount64(x uint64) int {
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}

// Search unions candidates from the L matching buckets, widening to buckets
// at Hamming distance 1, 2, ... of each query signature while the pool is
// too small, then ranks the candidate pool by exact cosine similarity.
func (r *RPLSHIndex) Search(query []float64, k int, filter Filter) ([]Result, error) {
	if k <= 0 || len(r.ids) == 0 {
		return nil, nil
	}
	filter = normalizeFilter(filter)

	want := k * r.p
	if want > len(r.ids) {
		want = len(r.ids)
	}

	candidates := make(map[int]struct{})
	for t := 0; t < r.l; t++ {
		sig, err := signatureOf(r.planes[t], query)
		if err != nil {
			return nil, err
		}
		addBucket(r.buckets[t], sig, candidates)
	}

	// Widen by probing buckets at Hamming distance 1, then 2, and so on from
	// each table's query signature, until the pool reaches `want`, distance H
	// has been probed, or a whole distance adds no new candidate.
	for dist := 1; len(candidates) < want && dist <= r.h; dist++ {
		before := len(candidates)
		for t := 0; t < r.l; t++ {
			sig, err := signatureOf(r.planes[t], query)
			if err != nil {
				return nil, err
			}
			for _, flipped := range flipBits(sig, r.h, dist) {
				addBucket(r.buckets[t], flipped, candidates)
			}
		}
		if len(candidates) == before {
			break // every reachable bucket at this distance already scanned; stop probing
		}
	}

	collector := newTopKCollector(k)
	for idx := range candidates {
		id := r.ids[idx]
		if !filter(id) {
			continue
		}
		score, err := vectormath.Cosine(query, r.vectors[idx])
		if err != nil {
			return nil, corverr.Wrap(corverr.Internal, "rp_lsh search cosine computation failed", err)
		}
		collector.offer(Result{ChunkID: id, Score: score})
	}
	return collector.results(), nil
}

func addBucket(bucket map[signature][]int, sig signature, into map[int]struct{}) {
	for _, idx := range bucket[sig] {
		into[idx] = struct{}{}
	}
}

// flipBits returns every signature reachable from sig by flipping exactly
// dist of its h bits (bounded to a small, practical dist so this stays
// cheap — dist only grows to 1, 2, ... while the pool remains too small).
func flipBits(sig signature, h, dist int) []signature {
	if dist == 1 {
		out := make([]signature, 0, h)
		for b := 0; b < h; b++ {
			out = append(out, sig^(1<<uint(b)))
		}
		return out
	}
	// Generalized to arbitrary dist via combinations, kept small because
	// the search loop stops widening once the candidate pool is large
	// enough (dist rarely exceeds 2 in practice).
	var combos [][]int
	var choose func(start int, chosen []int)
	choose = func(start int, chosen []int) {
		if len(chosen) == dist {
			c := make([]int, dist)
			copy(c, chosen)
			combos = append(combos, c)
			return
		}
		for b := start; b < h; b++ {
			choose(b+1, append(chosen, b))
		}
	}
	choose(0, nil)

	out := make([]signature, 0, len(combos))
	for _, combo := range combos {
		flipped := sig
		for _, b := range combo {
			flipped ^= 1 << uint(b)
		}
		out = append(out, flipped)
	}
	return out
}

func (r *RPLSHIndex) Type() Type { return RPLSH }

func (r *RPLSHIndex) Len() int { return len(r.ids) }

// hammingDistance returns the number of bits in which a and b differ.
func hammingDistance(a, b signature) int {
	return popcount64(uint64(a ^ b))
}
