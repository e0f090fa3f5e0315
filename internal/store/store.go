package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvusdb/corvus/internal/concurrency"
	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/index"
)

// libraryEntry bundles a library's metadata, its documents and chunks, its
// live index instance, and the fair lock guarding all of it. It is the unit
// the per-library lock protects.
type libraryEntry struct {
	lock *concurrency.FairRWMutex

	lib       *Library
	documents map[string]*Document
	chunks    map[string]*Chunk
	idx       index.Index
}

// Store is the entity store. A coarse store-level mutex serializes the
// narrow operations that modify the set of libraries and the cross-library
// routing maps (chunk id -> library id, document id -> library id); all
// other work happens under the owning library's fair reader-writer lock.
type Store struct {
	mu         sync.Mutex
	libraries  map[string]*libraryEntry
	chunkOwner map[string]string
	docOwner   map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		libraries:  make(map[string]*libraryEntry),
		chunkOwner: make(map[string]string),
		docOwner:   make(map[string]string),
	}
}

func newID() string {
	return uuid.NewString()
}

// CreateLibrary always succeeds: document_ids starts empty, is_indexed
// false.
func (s *Store) CreateLibrary(metadata LibraryMetadata) (string, error) {
	now := time.Now().UTC()
	metadata.CreatedAt = now
	metadata.UpdatedAt = now
	if metadata.Tags == nil {
		metadata.Tags = []string{}
	}

	id := newID()
	entry := &libraryEntry{
		lock: concurrency.NewFairRWMutex(),
		lib: &Library{
			ID:          id,
			Metadata:    metadata,
			DocumentIDs: []string{},
		},
		documents: make(map[string]*Document),
		chunks:    make(map[string]*Chunk),
	}

	s.mu.Lock()
	s.libraries[id] = entry
	s.mu.Unlock()

	return id, nil
}

// lookupEntry finds the entry owning a library id under the store mutex.
func (s *Store) lookupEntry(libraryID string) (*libraryEntry, error) {
	s.mu.Lock()
	entry, ok := s.libraries[libraryID]
	s.mu.Unlock()
	if !ok {
		return nil, corverr.NotFoundf("library %q not found", libraryID)
	}
	return entry, nil
}

// GetLibrary returns a snapshot of library metadata.
func (s *Store) GetLibrary(libraryID string) (*Library, error) {
	entry, err := s.lookupEntry(libraryID)
	if err != nil {
		return nil, err
	}
	entry.lock.RLock()
	defer entry.lock.RUnlock()
	return entry.lib.clone(), nil
}

// UpdateLibrary replaces the editable metadata fields of a library, leaving
// id, document_ids, is_indexed, and index state untouched.
func (s *Store) UpdateLibrary(libraryID string, metadata LibraryMetadata) error {
	entry, err := s.lookupEntry(libraryID)
	if err != nil {
		return err
	}
	entry.lock.Lock()
	defer entry.lock.Unlock()

	metadata.CreatedAt = entry.lib.Metadata.CreatedAt
	metadata.UpdatedAt = time.Now().UTC()
	if metadata.Tags == nil {
		metadata.Tags = []string{}
	}
	entry.lib.Metadata = metadata
	return nil
}

// DeleteLibrary removes a library and cascades to its documents and chunks.
// The cascade is atomic from an observer's viewpoint: it completes entirely
// under the store mutex plus the library's own write lock, so no concurrent
// reader can observe a partially-deleted library.
func (s *Store) DeleteLibrary(libraryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.libraries[libraryID]
	if !ok {
		return corverr.NotFoundf("library %q not found", libraryID)
	}

	entry.lock.Lock()
	for chunkID := range entry.chunks {
		delete(s.chunkOwner, chunkID)
	}
	for docID := range entry.documents {
		delete(s.docOwner, docID)
	}
	entry.lock.Unlock()

	delete(s.libraries, libraryID)
	return nil
}

// ListLibraries returns all libraries sorted by created_at ascending, id as
// tiebreak, so listings are deterministic.
func (s *Store) ListLibraries() []*Library {
	s.mu.Lock()
	entries := make([]*libraryEntry, 0, len(s.libraries))
	for _, e := range s.libraries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]*Library, 0, len(entries))
	for _, e := range entries {
		e.lock.RLock()
		out = append(out, e.lib.clone())
		e.lock.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Metadata.CreatedAt.Equal(out[j].Metadata.CreatedAt) {
			return out[i].Metadata.CreatedAt.Before(out[j].Metadata.CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LibraryStats returns aggregate counts and index state for a library.
func (s *Store) LibraryStats(libraryID string) (*Stats, error) {
	entry, err := s.lookupEntry(libraryID)
	if err != nil {
		return nil, err
	}
	entry.lock.RLock()
	defer entry.lock.RUnlock()

	stats := &Stats{
		TotalDocuments:     len(entry.lib.DocumentIDs),
		TotalChunks:        len(entry.chunks),
		EmbeddingDimension: entry.lib.EmbeddingDimension,
		IndexType:          entry.lib.IndexType,
		IsIndexed:          entry.lib.IsIndexed,
	}
	if entry.lib.LastIndexed != nil {
		t := *entry.lib.LastIndexed
		stats.LastIndexed = &t
	}
	return stats, nil
}

// invalidateLocked clears the index state for entry. Caller must hold
// entry.lock for writing.
func invalidateLocked(entry *libraryEntry) {
	entry.lib.IsIndexed = false
	entry.lib.IndexType = ""
	entry.lib.LastIndexed = nil
	entry.idx = nil
	entry.lib.Generation++
}
