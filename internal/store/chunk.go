package store

import (
	"time"

	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/vectormath"
)

const maxChunkTextLen = 10_000

func validateChunkText(text string) error {
	if len(text) > maxChunkTextLen {
		return corverr.Validationf("chunk text exceeds %d characters (got %d)", maxChunkTextLen, len(text))
	}
	return nil
}

// chunkEntry resolves a chunk id to its owning libraryEntry via the
// store-level routing map.
func (s *Store) chunkEntry(chunkID string) (*libraryEntry, error) {
	s.mu.Lock()
	libraryID, ok := s.chunkOwner[chunkID]
	s.mu.Unlock()
	if !ok {
		return nil, chunkNotFound(chunkID)
	}
	return s.lookupEntry(libraryID)
}

// CreateChunk appends a chunk to documentID. Fails NotFound if the document
// is missing, DimensionMismatch if the owning library has a fixed dimension
// that disagrees with len(embedding). The first chunk ever added to a
// library fixes that library's embedding_dimension.
func (s *Store) CreateChunk(documentID, text string, embedding []float64, metadata ChunkMetadata) (string, error) {
	if err := validateChunkText(text); err != nil {
		return "", err
	}
	if err := vectormath.Validate(embedding); err != nil {
		return "", err
	}

	entry, libraryID, err := s.docEntry(documentID)
	if err != nil {
		return "", err
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	doc, ok := entry.documents[documentID]
	if !ok {
		return "", documentNotFound(documentID)
	}

	if entry.lib.EmbeddingDimension == 0 {
		entry.lib.EmbeddingDimension = len(embedding)
	} else if entry.lib.EmbeddingDimension != len(embedding) {
		return "", corverr.DimensionMismatchf(
			"embedding has dimension %d, library %q is fixed at %d", len(embedding), libraryID, entry.lib.EmbeddingDimension)
	}

	now := time.Now().UTC()
	metadata.CreatedAt = now
	metadata.UpdatedAt = now
	metadata.CharCount = len(text)
	if metadata.Tags == nil {
		metadata.Tags = []string{}
	}

	id := newID()
	entry.chunks[id] = &Chunk{
		ID:         id,
		DocumentID: documentID,
		Text:       text,
		Embedding:  append([]float64(nil), embedding...),
		Metadata:   metadata,
	}
	doc.ChunkIDs = append(doc.ChunkIDs, id)
	doc.Metadata.UpdatedAt = now
	invalidateLocked(entry)

	s.mu.Lock()
	s.chunkOwner[id] = libraryID
	s.mu.Unlock()

	return id, nil
}

// GetChunk returns a snapshot of a chunk.
func (s *Store) GetChunk(chunkID string) (*Chunk, error) {
	entry, err := s.chunkEntry(chunkID)
	if err != nil {
		return nil, err
	}
	entry.lock.RLock()
	defer entry.lock.RUnlock()

	chunk, ok := entry.chunks[chunkID]
	if !ok {
		return nil, chunkNotFound(chunkID)
	}
	return chunk.clone(), nil
}

// ChunkUpdate describes an optional partial update to a chunk; nil fields
// are left unchanged.
type ChunkUpdate struct {
	Text      *string
	Embedding []float64
	Metadata  *ChunkMetadata
}

// UpdateChunk applies a partial update, enforcing the same dimension rule
// as CreateChunk and invalidating the owning library's index.
func (s *Store) UpdateChunk(chunkID string, update ChunkUpdate) error {
	if update.Embedding != nil {
		if err := vectormath.Validate(update.Embedding); err != nil {
			return err
		}
	}
	if update.Text != nil {
		if err := validateChunkText(*update.Text); err != nil {
			return err
		}
	}

	entry, err := s.chunkEntry(chunkID)
	if err != nil {
		return err
	}
	entry.lock.Lock()
	defer entry.lock.Unlock()

	chunk, ok := entry.chunks[chunkID]
	if !ok {
		return chunkNotFound(chunkID)
	}

	if update.Embedding != nil && len(update.Embedding) != entry.lib.EmbeddingDimension {
		return corverr.DimensionMismatchf(
			"embedding has dimension %d, library is fixed at %d", len(update.Embedding), entry.lib.EmbeddingDimension)
	}

	if update.Text != nil {
		chunk.Text = *update.Text
		chunk.Metadata.CharCount = len(*update.Text)
	}
	if update.Embedding != nil {
		chunk.Embedding = append([]float64(nil), update.Embedding...)
	}
	if update.Metadata != nil {
		meta := *update.Metadata
		meta.CreatedAt = chunk.Metadata.CreatedAt
		meta.CharCount = chunk.Metadata.CharCount
		if meta.Tags == nil {
			meta.Tags = []string{}
		}
		chunk.Metadata = meta
	}
	chunk.Metadata.UpdatedAt = time.Now().UTC()
	invalidateLocked(entry)

	return nil
}

// DeleteChunk removes a chunk and its back-reference from the owning
// document, invalidating the library's index.
func (s *Store) DeleteChunk(chunkID string) error {
	entry, err := s.chunkEntry(chunkID)
	if err != nil {
		return err
	}
	entry.lock.Lock()
	chunk, ok := entry.chunks[chunkID]
	if !ok {
		entry.lock.Unlock()
		return chunkNotFound(chunkID)
	}
	if doc, ok := entry.documents[chunk.DocumentID]; ok {
		doc.ChunkIDs = removeString(doc.ChunkIDs, chunkID)
	}
	delete(entry.chunks, chunkID)
	invalidateLocked(entry)
	entry.lock.Unlock()

	s.mu.Lock()
	delete(s.chunkOwner, chunkID)
	s.mu.Unlock()

	return nil
}

// ListChunks returns a document's chunks in chunk_ids order.
func (s *Store) ListChunks(documentID string) ([]*Chunk, error) {
	entry, _, err := s.docEntry(documentID)
	if err != nil {
		return nil, err
	}
	entry.lock.RLock()
	defer entry.lock.RUnlock()

	doc, ok := entry.documents[documentID]
	if !ok {
		return nil, documentNotFound(documentID)
	}
	out := make([]*Chunk, 0, len(doc.ChunkIDs))
	for _, id := range doc.ChunkIDs {
		out = append(out, entry.chunks[id].clone())
	}
	return out, nil
}
