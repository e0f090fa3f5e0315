package search

import (
	"testing"

	"github.com/corvusdb/corvus/internal/index"
	"github.com/corvusdb/corvus/internal/keyword"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRRFFusion_BoostsDocumentsInBothLists(t *testing.T) {
	f := NewRRFFusion()
	vec := []index.Result{{ChunkID: "a", Score: 0.9}, {ChunkID: "b", Score: 0.8}}
	kw := []keyword.Scored{{ChunkID: "b", Score: 5}, {ChunkID: "c", Score: 4}}

	out := f.Fuse(vec, kw)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].ChunkID, "b appears in both lists and should rank first")
	assert.True(t, out[0].InBothLists)
}

func TestRRFFusion_MissingFromOneListStillScored(t *testing.T) {
	f := NewRRFFusion()
	vec := []index.Result{{ChunkID: "a", Score: 0.9}}
	kw := []keyword.Scored{}

	out := f.Fuse(vec, kw)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.Greater(t, out[0].RRFScore, 0.0)
}

func TestRRFFusion_TieBreaksByChunkID(t *testing.T) {
	f := NewRRFFusion()
	// "z" is first in the vector list and "a" first in the keyword list, so
	// both get the same RRF score and neither is in both lists.
	vec := []index.Result{{ChunkID: "z", Score: 0.5}}
	kw := []keyword.Scored{{ChunkID: "a", Score: 0.5}}

	out := f.Fuse(vec, kw)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.Equal(t, "z", out[1].ChunkID)
}

func TestNewRRFFusionWithK_RejectsNonPositive(t *testing.T) {
	f := NewRRFFusionWithK(0)
	assert.Equal(t, DefaultRRFConstant, f.K)
	f2 := NewRRFFusionWithK(30)
	assert.Equal(t, 30, f2.K)
}
