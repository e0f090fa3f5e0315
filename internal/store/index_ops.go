package store

import (
	"time"

	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/index"
)

// IndexLibrary builds a fresh index of type typ over every chunk in
// libraryID, acquiring the library's write lock for the duration of the
// build (the reference design builds under the write lock rather than
// copying the snapshot out first). The snapshot is taken in deterministic
// order — document order, then chunk order within each document — so builds
// are reproducible given a fixed seed.
func (s *Store) IndexLibrary(libraryID string, typ index.Type, params index.Params) error {
	entry, err := s.lookupEntry(libraryID)
	if err != nil {
		return err
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	items := make([]index.Item, 0, len(entry.chunks))
	for _, docID := range entry.lib.DocumentIDs {
		doc, ok := entry.documents[docID]
		if !ok {
			continue
		}
		for _, chunkID := range doc.ChunkIDs {
			chunk, ok := entry.chunks[chunkID]
			if !ok {
				continue
			}
			items = append(items, index.Item{ChunkID: chunk.ID, Vector: chunk.Embedding})
		}
	}

	built, err := index.Build(typ, items, params)
	if err != nil {
		return err
	}

	entry.idx = built
	entry.lib.IsIndexed = true
	entry.lib.IndexType = string(typ)
	now := time.Now().UTC()
	entry.lib.LastIndexed = &now
	entry.lib.Generation++

	return nil
}

// SearchView exposes read-locked access to a library's index and entities
// for the duration of a search. Release must be called exactly once.
type SearchView struct {
	Library *Library
	Index   index.Index
	entry   *libraryEntry
}

// Chunk looks up a chunk by id within the view's library.
func (v *SearchView) Chunk(id string) (*Chunk, bool) {
	c, ok := v.entry.chunks[id]
	if !ok {
		return nil, false
	}
	return c, true
}

// Document looks up a document by id within the view's library.
func (v *SearchView) Document(id string) (*Document, bool) {
	d, ok := v.entry.documents[id]
	if !ok {
		return nil, false
	}
	return d, true
}

// Chunks returns every chunk in the library, used to build the keyword
// co-index alongside the vector index.
func (v *SearchView) Chunks() map[string]*Chunk {
	return v.entry.chunks
}

// BeginSearch validates that libraryID exists and is indexed, acquires its
// read lock, and re-checks is_indexed under the lock (it may have flipped to
// false between validation and locking, per the orchestrator's fail-fast
// re-check). The returned release func must be called to drop the read lock.
func (s *Store) BeginSearch(libraryID string) (*SearchView, func(), error) {
	entry, err := s.lookupEntry(libraryID)
	if err != nil {
		return nil, nil, err
	}

	entry.lock.RLock()
	if !entry.lib.IsIndexed || entry.idx == nil {
		entry.lock.RUnlock()
		return nil, nil, corverr.NotIndexedf("library %q is not indexed", libraryID)
	}

	view := &SearchView{Library: entry.lib, Index: entry.idx, entry: entry}
	release := func() { entry.lock.RUnlock() }
	return view, release, nil
}
