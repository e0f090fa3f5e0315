package store

import "time"

// CreateDocument adds an empty document under libraryID. Fails NotFound if
// the library does not exist.
func (s *Store) CreateDocument(libraryID string, metadata DocumentMetadata) (string, error) {
	entry, err := s.lookupEntry(libraryID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	metadata.CreatedAt = now
	metadata.UpdatedAt = now
	if metadata.Tags == nil {
		metadata.Tags = []string{}
	}

	id := newID()

	entry.lock.Lock()
	entry.documents[id] = &Document{
		ID:        id,
		LibraryID: libraryID,
		Metadata:  metadata,
		ChunkIDs:  []string{},
	}
	entry.lib.DocumentIDs = append(entry.lib.DocumentIDs, id)
	entry.lock.Unlock()

	s.mu.Lock()
	s.docOwner[id] = libraryID
	s.mu.Unlock()

	return id, nil
}

// docEntry resolves a document id to its owning libraryEntry via the
// store-level routing map.
func (s *Store) docEntry(documentID string) (*libraryEntry, string, error) {
	s.mu.Lock()
	libraryID, ok := s.docOwner[documentID]
	s.mu.Unlock()
	if !ok {
		return nil, "", documentNotFound(documentID)
	}
	entry, err := s.lookupEntry(libraryID)
	if err != nil {
		return nil, "", err
	}
	return entry, libraryID, nil
}

// GetDocument returns a snapshot of a document.
func (s *Store) GetDocument(documentID string) (*Document, error) {
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
	return doc.clone(), nil
}

// UpdateDocument replaces a document's editable metadata fields.
func (s *Store) UpdateDocument(documentID string, metadata DocumentMetadata) error {
	entry, _, err := s.docEntry(documentID)
	if err != nil {
		return err
	}
	entry.lock.Lock()
	defer entry.lock.Unlock()

	doc, ok := entry.documents[documentID]
	if !ok {
		return documentNotFound(documentID)
	}
	metadata.CreatedAt = doc.Metadata.CreatedAt
	metadata.UpdatedAt = time.Now().UTC()
	if metadata.Tags == nil {
		metadata.Tags = []string{}
	}
	doc.Metadata = metadata
	return nil
}

// DeleteDocument removes a document and cascades to its chunks, invalidating
// the owning library's index.
func (s *Store) DeleteDocument(documentID string) error {
	entry, libraryID, err := s.docEntry(documentID)
	if err != nil {
		return err
	}

	entry.lock.Lock()
	doc, ok := entry.documents[documentID]
	if !ok {
		entry.lock.Unlock()
		return documentNotFound(documentID)
	}
	chunkIDs := append([]string(nil), doc.ChunkIDs...)
	for _, cid := range chunkIDs {
		delete(entry.chunks, cid)
	}
	delete(entry.documents, documentID)
	entry.lib.DocumentIDs = removeString(entry.lib.DocumentIDs, documentID)
	invalidateLocked(entry)
	entry.lock.Unlock()

	s.mu.Lock()
	delete(s.docOwner, documentID)
	for _, cid := range chunkIDs {
		delete(s.chunkOwner, cid)
	}
	_ = libraryID
	s.mu.Unlock()

	return nil
}

// ListDocuments returns documents for libraryID in creation order. If
// libraryID is empty, documents across every library are returned, each
// library visited in ListLibraries order (created_at ascending, id as
// tiebreak) under its own read lock.
func (s *Store) ListDocuments(libraryID string) ([]*Document, error) {
	if libraryID != "" {
		entry, err := s.lookupEntry(libraryID)
		if err != nil {
			return nil, err
		}
		entry.lock.RLock()
		defer entry.lock.RUnlock()
		out := make([]*Document, 0, len(entry.lib.DocumentIDs))
		for _, id := range entry.lib.DocumentIDs {
			out = append(out, entry.documents[id].clone())
		}
		return out, nil
	}

	libs := s.ListLibraries()
	var out []*Document
	for _, lib := range libs {
		docs, err := s.ListDocuments(lib.ID)
		if err != nil {
			continue
		}
		out = append(out, docs...)
	}
	return out, nil
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
