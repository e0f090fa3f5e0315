// Package keyword provides the BM25 keyword co-index that supplements plain
// cosine search with an optional hybrid path. It wraps a memory-only Bleve
// index (bleve.NewMemOnly) — there is no disk I/O here, matching the core's
// persistence non-goal — built fresh from a library's chunk text whenever the
// vector index is (re)built.
package keyword

import (
	"context"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/corvusdb/corvus/internal/corverr"
)

// Doc is one item to add to the keyword index: a chunk id paired with the
// text it should be searchable by.
type Doc struct {
	ChunkID string
	Text    string
}

// Scored is a keyword search hit.
type Scored struct {
	ChunkID string
	Score   float64
}

// Index is a one-shot-build BM25 index over a set of chunks, mirroring the
// vector index family's build-then-query contract (it is rebuilt wholesale
// on every reindex rather than mutated incrementally).
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
}

type bleveDoc struct {
	Text string `json:"text"`
}

// Build constructs a fresh in-memory BM25 index from items and returns it as
// a new Index.
func Build(ctx context.Context, items []Doc) (*Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, corverr.Wrap(corverr.Internal, "failed to create keyword index", err)
	}

	batch := idx.NewBatch()
	for _, item := range items {
		if err := batch.Index(item.ChunkID, bleveDoc{Text: item.Text}); err != nil {
			return nil, corverr.Wrap(corverr.Internal, "failed to stage keyword document", err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, corverr.Wrap(corverr.Internal, "failed to build keyword index", err)
	}

	return &Index{bleve: idx}, nil
}

// Search returns up to k chunk ids ranked by BM25 score against query.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Scored, error) {
	if i == nil {
		return nil, nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	if query == "" || k <= 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	result, err := i.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, corverr.Wrap(corverr.Internal, "keyword search failed", err)
	}

	out := make([]Scored, 0, len(result.Hits))
	for _, hit := range result.Hits {
		out = append(out, Scored{ChunkID: hit.ID, Score: hit.Score})
	}
	return out, nil
}

// Close releases the underlying in-memory index resources.
func (i *Index) Close() error {
	if i == nil || i.bleve == nil {
		return nil
	}
	return i.bleve.Close()
}
