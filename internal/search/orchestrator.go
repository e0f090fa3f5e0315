package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corvusdb/corvus/internal/cache"
	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/index"
	"github.com/corvusdb/corvus/internal/keyword"
	"github.com/corvusdb/corvus/internal/store"
	"github.com/corvusdb/corvus/internal/telemetry"
	"github.com/corvusdb/corvus/internal/validation"
)

// Filter bundles the orchestrator's query-time filters: equality predicates
// over chunk metadata and an optional similarity floor.
type Filter struct {
	MetadataFilters     map[string]string
	SimilarityThreshold *float64
}

// Result is one hydrated search hit.
type Result struct {
	Chunk           *store.Chunk
	Document        *store.Document
	SimilarityScore float64
}

// Engine is the search orchestrator. The entity store is the source of truth
// for entities and vector indexes; the only state the Engine holds itself is
// the per-library keyword co-index map built by IndexLibrary.
type Engine struct {
	store   *Store
	cache   *cache.ResultCache
	metrics *telemetry.Metrics
	rrf     *RRFFusion

	keywordIndexes map[string]*keyword.Index
}

// Store is an alias for store.Store, the concrete entity store the
// orchestrator reads from.
type Store = store.Store

// Option configures an Engine.
type Option func(*Engine)

// WithCache attaches a result cache.
func WithCache(c *cache.ResultCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRRFConstant overrides the hybrid path's RRF smoothing constant.
func WithRRFConstant(k int) Option {
	return func(e *Engine) { e.rrf = NewRRFFusionWithK(k) }
}

// NewEngine returns an Engine bound to s.
func NewEngine(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		rrf:            NewRRFFusion(),
		keywordIndexes: make(map[string]*keyword.Index),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IndexLibrary builds a fresh vector index (§4.8) and, alongside it, a fresh
// BM25 keyword co-index over the same chunks (§4.10). Both are rebuilt
// wholesale; there is no incremental update path.
func (e *Engine) IndexLibrary(ctx context.Context, libraryID string, typ index.Type, params index.Params) error {
	start := time.Now()
	if err := e.store.IndexLibrary(libraryID, typ, params); err != nil {
		return err
	}

	view, release, err := e.store.BeginSearch(libraryID)
	if err != nil {
		return err
	}
	items := make([]keyword.Doc, 0, len(view.Chunks()))
	for id, c := range view.Chunks() {
		items = append(items, keyword.Doc{ChunkID: id, Text: c.Text})
	}
	release()

	kwIdx, err := keyword.Build(ctx, items)
	if err != nil {
		return err
	}
	e.keywordIndexes[libraryID] = kwIdx

	e.metrics.ObserveBuild(string(typ), time.Since(start).Seconds())
	return nil
}

// Search runs the plain vector-only search pipeline: validate, acquire the
// read lock (re-checking is_indexed under it), query the index, apply the
// metadata filter and similarity floor, hydrate, and truncate to k.
func (e *Engine) Search(ctx context.Context, libraryID string, q []float64, k int, filter Filter) ([]Result, error) {
	start := time.Now()

	if err := validation.K(k); err != nil {
		return nil, err
	}
	if err := validation.Embedding(q); err != nil {
		return nil, err
	}
	if err := validation.SimilarityThreshold(filter.SimilarityThreshold); err != nil {
		return nil, err
	}
	if err := validation.MetadataFilters(filter.MetadataFilters); err != nil {
		return nil, err
	}

	lib, err := e.store.GetLibrary(libraryID)
	if err != nil {
		return nil, err
	}
	if !lib.IsIndexed {
		return nil, corverr.NotIndexedf("library %q is not indexed", libraryID)
	}
	if len(q) != lib.EmbeddingDimension {
		return nil, corverr.DimensionMismatchf(
			"query embedding has dimension %d, library is fixed at %d", len(q), lib.EmbeddingDimension)
	}

	cacheKey := cache.Key{
		LibraryID:         libraryID,
		Generation:        lib.Generation,
		QueryFingerprint:  cache.QueryFingerprint(q),
		K:                 k,
		FilterFingerprint: cache.FilterFingerprint(filter.MetadataFilters, filter.SimilarityThreshold),
	}
	if cached, ok := e.cache.Get(cacheKey); ok {
		e.metrics.ObserveSearch(lib.IndexType, true, time.Since(start).Seconds())
		return cached.([]Result), nil
	}

	view, release, err := e.store.BeginSearch(libraryID)
	if err != nil {
		return nil, err
	}
	defer release()

	if len(q) != view.Library.EmbeddingDimension {
		return nil, corverr.DimensionMismatchf(
			"query embedding has dimension %d, library is fixed at %d", len(q), view.Library.EmbeddingDimension)
	}

	predicate := metadataPredicate(view, filter.MetadataFilters)
	oversample := 1
	if view.Index.Type() == index.RPLSH {
		oversample = 4
	}

	raw, err := view.Index.Search(q, k*oversample, predicate)
	if err != nil {
		return nil, err
	}

	results := hydrate(view, raw, filter.SimilarityThreshold, k)
	e.cache.Put(cacheKey, results)
	e.metrics.ObserveSearch(string(view.Index.Type()), false, time.Since(start).Seconds())
	return results, nil
}

// SearchHybrid runs the vector index and the keyword co-index concurrently,
// fuses their rankings with Reciprocal Rank Fusion, then applies the same
// metadata filter and similarity floor as plain Search.
func (e *Engine) SearchHybrid(ctx context.Context, libraryID string, q []float64, queryText string, k int, filter Filter) ([]Result, error) {
	if err := validation.K(k); err != nil {
		return nil, err
	}
	if err := validation.Embedding(q); err != nil {
		return nil, err
	}

	view, release, err := e.store.BeginSearch(libraryID)
	if err != nil {
		return nil, err
	}
	defer release()

	if len(q) != view.Library.EmbeddingDimension {
		return nil, corverr.DimensionMismatchf(
			"query embedding has dimension %d, library is fixed at %d", len(q), view.Library.EmbeddingDimension)
	}

	predicate := metadataPredicate(view, filter.MetadataFilters)

	var vecResults []index.Result
	var kwResults []keyword.Scored

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := view.Index.Search(q, k*4, predicate)
		if err != nil {
			return err
		}
		vecResults = r
		return nil
	})
	g.Go(func() error {
		kwIdx := e.keywordIndexes[libraryID]
		r, err := kwIdx.Search(gctx, queryText, k*4)
		if err != nil {
			return err
		}
		kwResults = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := e.rrf.Fuse(vecResults, kwResults)

	raw := make([]index.Result, 0, len(fused))
	for _, f := range fused {
		if predicate != nil && !predicate(f.ChunkID) {
			continue
		}
		score := f.RRFScore
		if f.VecRank > 0 {
			score = f.VecScore
		}
		raw = append(raw, index.Result{ChunkID: f.ChunkID, Score: score})
	}
	return hydrate(view, raw, filter.SimilarityThreshold, k), nil
}

// metadataPredicate builds an index.Filter from equality filters over chunk
// metadata, evaluated against the library snapshot under the read lock.
func metadataPredicate(view *store.SearchView, filters map[string]string) index.Filter {
	if len(filters) == 0 {
		return nil
	}
	return func(chunkID string) bool {
		chunk, ok := view.Chunk(chunkID)
		if !ok {
			return false
		}
		for key, want := range filters {
			if !matchesMetadata(chunk, key, want) {
				return false
			}
		}
		return true
	}
}

func matchesMetadata(chunk *store.Chunk, key, want string) bool {
	switch key {
	case "source":
		return chunk.Metadata.Source == want
	case "author":
		return chunk.Metadata.Author == want
	case "language":
		return chunk.Metadata.Language == want
	default:
		return chunk.Metadata.Extra[key] == want
	}
}

// hydrate looks up each surviving (chunk_id, score) pair's chunk and parent
// document, applies the similarity floor, and truncates to k. Order is
// preserved from raw (already sorted by the index).
func hydrate(view *store.SearchView, raw []index.Result, threshold *float64, k int) []Result {
	out := make([]Result, 0, k)
	for _, r := range raw {
		if threshold != nil && r.Score < *threshold {
			continue
		}
		chunk, ok := view.Chunk(r.ChunkID)
		if !ok {
			continue
		}
		doc, ok := view.Document(chunk.DocumentID)
		if !ok {
			continue
		}
		out = append(out, Result{Chunk: chunk, Document: doc, SimilarityScore: r.Score})
		if len(out) == k {
			break
		}
	}
	return out
}
