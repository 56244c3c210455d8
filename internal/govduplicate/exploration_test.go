package govduplicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/goverrors"
)

func TestExplorationLimiterHypothesisCeiling(t *testing.T) {
	limiter := NewExplorationLimiter(ExplorationLimits{MaxDepth: 5, MaxHypotheses: 2, MaxTotalActions: 25})
	limiter.Start("exp-1")

	require.NoError(t, limiter.GenerateHypothesis("exp-1"))
	require.NoError(t, limiter.GenerateHypothesis("exp-1"))

	err := limiter.GenerateHypothesis("exp-1")
	require.Error(t, err)
	ge := err.(*goverrors.GovError)
	assert.True(t, ge.HardStop())
	assert.True(t, limiter.IsStopped("exp-1"))
}

func TestExplorationLimiterDepthCeiling(t *testing.T) {
	limiter := NewExplorationLimiter(ExplorationLimits{MaxDepth: 1, MaxHypotheses: 10, MaxTotalActions: 25})
	limiter.Start("exp-1")

	depth, err := limiter.IncrementDepth("exp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	_, err = limiter.IncrementDepth("exp-1")
	require.Error(t, err)
}

func TestExplorationLimiterActionCeiling(t *testing.T) {
	limiter := NewExplorationLimiter(ExplorationLimits{MaxDepth: 5, MaxHypotheses: 10, MaxTotalActions: 1})
	limiter.Start("exp-1")

	require.NoError(t, limiter.RecordAction("exp-1"))
	err := limiter.RecordAction("exp-1")
	require.Error(t, err)
}

func TestExplorationLimiterStoppedRejectsFurtherCalls(t *testing.T) {
	limiter := NewExplorationLimiter(ExplorationLimits{MaxDepth: 1, MaxHypotheses: 10, MaxTotalActions: 10})
	limiter.Start("exp-1")

	_, err := limiter.IncrementDepth("exp-1")
	require.NoError(t, err)
	_, err = limiter.IncrementDepth("exp-1")
	require.Error(t, err)

	// Once stopped, even an unrelated counter call must fail.
	err = limiter.RecordAction("exp-1")
	require.Error(t, err)
}

func TestExplorationLimiterUnknownID(t *testing.T) {
	limiter := NewExplorationLimiter(DefaultExplorationLimits())
	err := limiter.RecordAction("never-started")
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonConfigurationError, err.(*goverrors.GovError).Reason())
	assert.True(t, limiter.IsStopped("never-started"))
}

func TestDefaultExplorationLimits(t *testing.T) {
	limits := DefaultExplorationLimits()
	assert.Equal(t, 5, limits.MaxDepth)
	assert.Equal(t, 10, limits.MaxHypotheses)
	assert.Equal(t, 25, limits.MaxTotalActions)
}
