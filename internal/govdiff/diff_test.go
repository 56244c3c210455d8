package govdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDetectsNoChange(t *testing.T) {
	s := Compute("line one\nline two\n", "line one\nline two\n")
	assert.False(t, s.Changed)
	assert.Zero(t, s.LinesAdded)
	assert.Zero(t, s.LinesRemoved)
}

func TestComputeDetectsAddedLines(t *testing.T) {
	s := Compute("line one\n", "line one\nline two\nline three\n")
	assert.True(t, s.Changed)
	assert.Equal(t, 2, s.LinesAdded)
	assert.Zero(t, s.LinesRemoved)
}

func TestComputeDetectsRemovedLines(t *testing.T) {
	s := Compute("line one\nline two\nline three\n", "line one\n")
	assert.True(t, s.Changed)
	assert.Equal(t, 2, s.LinesRemoved)
	assert.Zero(t, s.LinesAdded)
}

func TestComputeDetectsMixedEdit(t *testing.T) {
	s := Compute("alpha\nbeta\ngamma\n", "alpha\nBETA\ngamma\ndelta\n")
	assert.True(t, s.Changed)
	assert.Positive(t, s.LinesAdded)
	assert.Positive(t, s.LinesRemoved)
}

func TestComputeIsCachedPerEngine(t *testing.T) {
	e := NewEngine()
	first := e.Compute("old", "new content here")
	second := e.Compute("old", "new content here")
	assert.Equal(t, first, second)

	if _, ok := e.cache.Load(cacheKey{fnv1a("old"), fnv1a("new content here")}); !ok {
		t.Fatal("expected cache entry after Compute")
	}
}

func TestComputeCacheIsIsolatedPerEngine(t *testing.T) {
	e1 := NewEngine()
	e2 := NewEngine()
	e1.Compute("a", "b")
	if _, ok := e2.cache.Load(cacheKey{fnv1a("a"), fnv1a("b")}); ok {
		t.Fatal("expected separate engines to have separate caches")
	}
}

func TestFnv1aIsOrderSensitive(t *testing.T) {
	assert.NotEqual(t, fnv1a("ab"), fnv1a("ba"))
}

func TestCountLinesHandlesTrailingNewline(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("one line, no newline"))
	assert.Equal(t, 2, countLines("line one\nline two\n"))
	assert.Equal(t, 2, countLines("line one\nline two"))
}
