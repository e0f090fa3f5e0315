// Package validation checks request-shaped inputs (k, similarity thresholds,
// metadata filters, embeddings) before they reach the entity store or search
// orchestrator, returning corverr.Validation errors for anything
// structurally invalid. It is the one boundary-validation layer the core
// owns; request parsing itself belongs to the REST facade.
package validation

import (
	"math"

	"github.com/corvusdb/corvus/internal/corverr"
)

// KMax is the hard ceiling on the neighbor count k accepted by search.
const KMax = 100

// MaxDimension bounds embedding length so a misconfigured library cannot
// exhaust memory building an index.
const MaxDimension = 4096

// K validates the neighbor count for a search call.
func K(k int) error {
	if k < 1 || k > KMax {
		return corverr.Validationf("k must be between 1 and %d, got %d", KMax, k)
	}
	return nil
}

// SimilarityThreshold validates an optional similarity floor.
func SimilarityThreshold(threshold *float64) error {
	if threshold == nil {
		return nil
	}
	if *threshold < 0 || *threshold > 1 {
		return corverr.Validationf("similarity_threshold must be in [0, 1], got %f", *threshold)
	}
	return nil
}

// Embedding validates a query or chunk embedding's shape: non-empty, within
// MaxDimension, and free of NaN/Inf components.
func Embedding(v []float64) error {
	if len(v) == 0 {
		return corverr.Validationf("embedding must not be empty")
	}
	if len(v) > MaxDimension {
		return corverr.Validationf("embedding dimension %d exceeds maximum %d", len(v), MaxDimension)
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return corverr.Validationf("embedding component %d is NaN or Inf", i)
		}
	}
	return nil
}

// NonEmpty validates a required string field.
func NonEmpty(field, value string) error {
	if value == "" {
		return corverr.Validationf("%s is required", field)
	}
	return nil
}

// MetadataFilters validates an equality-filter map: keys must be non-empty.
func MetadataFilters(filters map[string]string) error {
	for k := range filters {
		if k == "" {
			return corverr.Validationf("metadata filter keys must not be empty")
		}
	}
	return nil
}
