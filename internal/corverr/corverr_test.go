package corverr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_KindDispatch(t *testing.T) {
	err := NotFoundf("library %s", "lib-1")

	var target *Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, NotFound, target.Kind)
	assert.True(t, errors.Is(err, New(NotFound, "")))
	assert.False(t, errors.Is(err, New(Validation, "")))
}

func TestError_WrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Internal, "index build failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestError_WithDetail(t *testing.T) {
	err := Validationf("k out of range").WithDetail("k", "500")
	assert.Equal(t, "500", err.Details["k"])
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(DimensionMismatchf("expected %d got %d", 3, 2))
	assert.True(t, ok)
	assert.Equal(t, DimensionMismatch, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(Internal, "msg", nil))
}
