package store

import (
	"testing"

	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibraryWithChunk(t *testing.T, s *Store) (libraryID, documentID, chunkID string) {
	t.Helper()
	libraryID, err := s.CreateLibrary(LibraryMetadata{Name: "lib"})
	require.NoError(t, err)
	documentID, err = s.CreateDocument(libraryID, DocumentMetadata{Title: "doc"})
	require.NoError(t, err)
	chunkID, err = s.CreateChunk(documentID, "hello world", []float64{1, 0, 0}, ChunkMetadata{Source: "test"})
	require.NoError(t, err)
	return
}

func TestCreateChunk_FixesDimensionOnFirstInsert(t *testing.T) {
	s := New()
	libID, docID, _ := newLibraryWithChunk(t, s)

	lib, err := s.GetLibrary(libID)
	require.NoError(t, err)
	assert.Equal(t, 3, lib.EmbeddingDimension)

	_, err = s.CreateChunk(docID, "bad", []float64{1, 2}, ChunkMetadata{Source: "x"})
	require.Error(t, err)
	kind, ok := corverr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, corverr.DimensionMismatch, kind)
}

func TestS2_DimensionRejection(t *testing.T) {
	s := New()
	_, docID, _ := newLibraryWithChunk(t, s)

	_, err := s.CreateChunk(docID, "x", []float64{1, 0}, ChunkMetadata{Source: "s"})
	require.Error(t, err)
	kind, _ := corverr.KindOf(err)
	assert.Equal(t, corverr.DimensionMismatch, kind)
}

func TestS3_InvalidationOnNewChunk(t *testing.T) {
	s := New()
	libID, docID, _ := newLibraryWithChunk(t, s)

	require.NoError(t, s.IndexLibrary(libID, index.Flat, index.Params{}))
	stats, err := s.LibraryStats(libID)
	require.NoError(t, err)
	assert.True(t, stats.IsIndexed)

	_, err = s.CreateChunk(docID, "more text", []float64{0, 1, 0}, ChunkMetadata{Source: "s"})
	require.NoError(t, err)

	stats, err = s.LibraryStats(libID)
	require.NoError(t, err)
	assert.False(t, stats.IsIndexed, "is_indexed must flip to false after a chunk mutation")

	_, _, err = s.BeginSearch(libID)
	require.Error(t, err)
	kind, _ := corverr.KindOf(err)
	assert.Equal(t, corverr.NotIndexed, kind)
}

func TestS6_CascadeDelete(t *testing.T) {
	s := New()
	libID, err := s.CreateLibrary(LibraryMetadata{Name: "lib"})
	require.NoError(t, err)

	var docIDs, chunkIDs []string
	for i := 0; i < 2; i++ {
		docID, err := s.CreateDocument(libID, DocumentMetadata{Title: "d"})
		require.NoError(t, err)
		docIDs = append(docIDs, docID)
		for j := 0; j < 2; j++ {
			cID, err := s.CreateChunk(docID, "t", []float64{1, 0}, ChunkMetadata{Source: "s"})
			require.NoError(t, err)
			chunkIDs = append(chunkIDs, cID)
		}
	}
	extraDoc, _ := s.CreateDocument(libID, DocumentMetadata{Title: "d3"})
	extraChunk, _ := s.CreateChunk(extraDoc, "t", []float64{1, 0}, ChunkMetadata{Source: "s"})
	docIDs = append(docIDs, extraDoc)
	chunkIDs = append(chunkIDs, extraChunk)

	require.NoError(t, s.DeleteLibrary(libID))

	_, err = s.GetLibrary(libID)
	assert.Error(t, err)
	for _, d := range docIDs {
		_, err := s.GetDocument(d)
		assert.Error(t, err)
	}
	for _, c := range chunkIDs {
		_, err := s.GetChunk(c)
		assert.Error(t, err)
	}
}

func TestReferentialIntegrity(t *testing.T) {
	s := New()
	libID, docID, chunkID := newLibraryWithChunk(t, s)

	doc, err := s.GetDocument(docID)
	require.NoError(t, err)
	assert.Contains(t, doc.ChunkIDs, chunkID)
	assert.Equal(t, libID, doc.LibraryID)

	chunk, err := s.GetChunk(chunkID)
	require.NoError(t, err)
	assert.Equal(t, docID, chunk.DocumentID)

	lib, err := s.GetLibrary(libID)
	require.NoError(t, err)
	assert.Contains(t, lib.DocumentIDs, docID)
}

func TestDeleteChunk_RemovesBackReference(t *testing.T) {
	s := New()
	_, docID, chunkID := newLibraryWithChunk(t, s)

	require.NoError(t, s.DeleteChunk(chunkID))
	doc, err := s.GetDocument(docID)
	require.NoError(t, err)
	assert.NotContains(t, doc.ChunkIDs, chunkID)

	_, err = s.GetChunk(chunkID)
	assert.Error(t, err)
}

func TestListLibraries_DeterministicOrder(t *testing.T) {
	s := New()
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := s.CreateLibrary(LibraryMetadata{Name: "lib"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	libs := s.ListLibraries()
	require.Len(t, libs, 5)
	for i, lib := range libs {
		assert.Equal(t, ids[i], lib.ID)
	}
}

func TestCreateChunk_TextTooLong(t *testing.T) {
	s := New()
	_, docID, err := func() (string, string, error) {
		libID, err := s.CreateLibrary(LibraryMetadata{Name: "lib"})
		if err != nil {
			return "", "", err
		}
		docID, err := s.CreateDocument(libID, DocumentMetadata{Title: "d"})
		return libID, docID, err
	}()
	require.NoError(t, err)

	huge := make([]byte, maxChunkTextLen+1)
	_, err = s.CreateChunk(docID, string(huge), []float64{1}, ChunkMetadata{Source: "s"})
	require.Error(t, err)
	kind, _ := corverr.KindOf(err)
	assert.Equal(t, corverr.Validation, kind)
}
