// Package search provides the search orchestrator: validating a query,
// acquiring a library's read lock, querying its index, applying metadata
// filters and the similarity floor, and hydrating results with their owning
// document and chunk. It also provides the additive hybrid path that fuses
// the vector index with the keyword co-index via Reciprocal Rank Fusion.
package search

import (
	"sort"

	"github.com/corvusdb/corvus/internal/index"
	"github.com/corvusdb/corvus/internal/keyword"
)

// DefaultRRFConstant is the standard RRF smoothing constant (k=60 is the
// widely-used default, e.g. in Azure AI Search and OpenSearch).
const DefaultRRFConstant = 60

// Fused is one chunk's combined ranking after RRF fusion of the vector and
// keyword result lists.
type Fused struct {
	ChunkID      string
	RRFScore     float64
	VecScore     float64
	VecRank      int // 1-indexed; 0 if absent from the vector list
	KeywordScore float64
	KeywordRank  int // 1-indexed; 0 if absent from the keyword list
	InBothLists  bool
}

// RRFFusion combines a vector result list and a keyword result list using
// Reciprocal Rank Fusion: score(d) = Σ 1 / (k + rank_i).
type RRFFusion struct {
	K int
}

// NewRRFFusion returns an RRFFusion using DefaultRRFConstant.
func NewRRFFusion() *RRFFusion {
	return &RRFFusion{K: DefaultRRFConstant}
}

// NewRRFFusionWithK returns an RRFFusion with a custom constant; k <= 0
// falls back to the default.
func NewRRFFusionWithK(k int) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse combines vec and kw into a single ranked list. Documents appearing in
// only one list are scored for the other as if they ranked just past the end
// of the longer of the two lists.
func (f *RRFFusion) Fuse(vec []index.Result, kw []keyword.Scored) []*Fused {
	scores := make(map[string]*Fused, len(vec)+len(kw))
	getOrCreate := func(id string) *Fused {
		if r, ok := scores[id]; ok {
			return r
		}
		r := &Fused{ChunkID: id}
		scores[id] = r
		return r
	}

	for rank, r := range vec {
		fr := getOrCreate(r.ChunkID)
		fr.VecScore = r.Score
		fr.VecRank = rank + 1
		fr.RRFScore += 1.0 / float64(f.K+rank+1)
	}
	for rank, r := range kw {
		fr := getOrCreate(r.ChunkID)
		fr.KeywordScore = r.Score
		fr.KeywordRank = rank + 1
		fr.RRFScore += 1.0 / float64(f.K+rank+1)
		if fr.VecRank > 0 {
			fr.InBothLists = true
		}
	}

	missingRank := len(vec)
	if len(kw) > missingRank {
		missingRank = len(kw)
	}
	missingRank++
	for _, r := range scores {
		if r.VecRank == 0 && r.KeywordRank > 0 {
			r.RRFScore += 1.0 / float64(f.K+missingRank)
		}
		if r.KeywordRank == 0 && r.VecRank > 0 {
			r.RRFScore += 1.0 / float64(f.K+missingRank)
		}
	}

	out := make([]*Fused, 0, len(scores))
	for _, r := range scores {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RRFScore != b.RRFScore {
			return a.RRFScore > b.RRFScore
		}
		if a.InBothLists != b.InBothLists {
			return a.InBothLists
		}
		return a.ChunkID < b.ChunkID
	})
	return out
}
