package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndSearch(t *testing.T) {
	ctx := context.Background()
	idx, err := Build(ctx, []Doc{
		{ChunkID: "c1", Text: "the quick brown fox jumps over the lazy dog"},
		{ChunkID: "c2", Text: "vector databases store embeddings for similarity search"},
		{ChunkID: "c3", Text: "the lazy cat sleeps all day"},
	})
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search(ctx, "lazy dog", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestSearch_EmptyQuery(t *testing.T) {
	ctx := context.Background()
	idx, err := Build(ctx, []Doc{{ChunkID: "c1", Text: "hello world"}})
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_NilIndex(t *testing.T) {
	var idx *Index
	hits, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Nil(t, hits)
}
