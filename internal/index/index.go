// Package index implements the three interchangeable approximate-nearest-
// neighbor index structures — Flat, RP-LSH, and Hierarchical — behind a
// single sealed contract. Each index is built once from a fixed collection
// of (chunk id, vector) pairs and is immutable thereafter; reindexing always
// replaces the instance rather than mutating it in place.
package index

import "github.com/corvusdb/corvus/internal/corverr"

// Type identifies which of the three sealed index implementations an
// instance is.
type Type string

const (
	Flat         Type = "flat"
	RPLSH        Type = "rp_lsh"
	Hierarchical Type = "hierarchical"
)

// ParseType validates a user-supplied index_type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Flat, RPLSH, Hierarchical:
		return Type(s), nil
	default:
		return "", corverr.UnsupportedIndexTypef("unsupported index_type %q", s)
	}
}

// Item is one (chunk id, vector) pair supplied to Build.
type Item struct {
	ChunkID string
	Vector  []float64
}

// Result is one ranked hit: a chunk id and its native similarity score.
// Scores are cosine similarity for all three implementations; an index
// never applies the similarity floor or metadata filter truncation itself —
// that is the orchestrator's job (see internal/search).
type Result struct {
	ChunkID string
	Score   float64
}

// Filter is an opaque predicate over a chunk id. An index passes candidates
// through it before they are considered for the result set, but does not
// know what the predicate represents (metadata equality, tombstones, etc).
type Filter func(chunkID string) bool

// Index is the common contract every ANN implementation satisfies. Once
// built, an Index is immutable and safe for concurrent Search calls (the
// entity store's per-library lock still serializes access at a higher
// level, but nothing internal to an Index mutates state post-build).
type Index interface {
	// Search returns at most k results ranked by descending score, ties
	// broken by ascending chunk id. filter may be nil, meaning "accept all".
	Search(query []float64, k int, filter Filter) ([]Result, error)

	// Type reports which implementation this instance is.
	Type() Type

	// Len reports how many items were built into the index.
	Len() int
}

// Params bundles every build-time hyperparameter across all three index
// types; fields not relevant to the chosen Type are ignored. The builders
// replace a zero value with this package's own default (L=8, H=12, P=4,
// M=16, EfConstruction=200, EfSearch=50, Seed=1).
type Params struct {
	Seed int64

	// RP-LSH
	L int // number of hash tables
	H int // bits per signature
	P int // pool-inflation factor

	// Hierarchical
	M              int // max neighbors per node on upper layers (2M on layer 0)
	EfConstruction int
	EfSearch       int
}

// acceptAll is used wherever a nil Filter is passed to Search.
func acceptAll(string) bool { return true }

func normalizeFilter(f Filter) Filter {
	if f == nil {
		return acceptAll
	}
	return f
}

// Build constructs the index named by typ from items using params.
func Build(typ Type, items []Item, params Params) (Index, error) {
	switch typ {
	case Flat:
		return BuildFlat(items)
	case RPLSH:
		return BuildRPLSH(items, params)
	case Hierarchical:
		return BuildHierarchical(items, params)
	default:
		return nil, corverr.UnsupportedIndexTypef("unsupported index_type %q", string(typ))
	}
}
