package govthrottle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/goverrors"
)

func TestConfigValidateBounds(t *testing.T) {
	cases := []Config{
		{MinDelayPerAction: 100 * time.Millisecond, MaxActionsPerMinute: 10, BurstAllowance: 1},
		{MinDelayPerAction: time.Minute * 2, MaxActionsPerMinute: 10, BurstAllowance: 1},
		{MinDelayPerAction: time.Second, MaxActionsPerMinute: 0, BurstAllowance: 1},
		{MinDelayPerAction: time.Second, MaxActionsPerMinute: 100, BurstAllowance: 1},
		{MinDelayPerAction: time.Second, MaxActionsPerMinute: 10, BurstAllowance: -1},
	}
	for _, c := range cases {
		assert.Error(t, c.Validate())
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{MinDelayPerAction: time.Millisecond, MaxActionsPerMinute: 10})
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonConfigurationError, err.(*goverrors.GovError).Reason())
}

func TestExtractHostNormalizesURLsAndLiterals(t *testing.T) {
	assert.Equal(t, "example.com", ExtractHost("https://Example.com/path"))
	assert.Equal(t, "example.com", ExtractHost("HTTP://EXAMPLE.COM"))
	assert.Equal(t, "example.com", ExtractHost("example.com"))
}

func TestCheckThrottleAllowsFirstAction(t *testing.T) {
	th, err := New(Config{MinDelayPerAction: time.Second, MaxActionsPerMinute: 5, BurstAllowance: 1})
	require.NoError(t, err)
	d := th.CheckThrottle("example.com")
	assert.True(t, d.Allowed)
}

func TestCheckThrottleEnforcesMinDelayAfterBurst(t *testing.T) {
	th, err := New(Config{MinDelayPerAction: time.Hour, MaxActionsPerMinute: 10, BurstAllowance: 1})
	require.NoError(t, err)

	th.RecordAction("example.com")
	th.RecordAction("example.com") // consumes the burst allowance

	d := th.CheckThrottle("example.com")
	assert.False(t, d.Allowed)
	assert.Equal(t, "minimum delay not met", d.Reason)
	assert.Greater(t, d.WaitFor, time.Duration(0))
}

func TestCheckThrottleHardCeilingNeverWaitedOut(t *testing.T) {
	th, err := New(Config{MinDelayPerAction: time.Millisecond, MaxActionsPerMinute: 2, BurstAllowance: 5})
	require.NoError(t, err)

	th.RecordAction("example.com")
	th.RecordAction("example.com")

	d := th.CheckThrottle("example.com")
	assert.False(t, d.Allowed)
	assert.Equal(t, "rate limit exceeded", d.Reason)
	assert.Equal(t, time.Minute, d.WaitFor)
}

func TestWaitIfNeededReturnsThrottledErrorOnHardCeiling(t *testing.T) {
	th, err := New(Config{MinDelayPerAction: time.Millisecond, MaxActionsPerMinute: 1, BurstAllowance: 0})
	require.NoError(t, err)
	th.RecordAction("example.com")

	_, err = th.WaitIfNeeded(context.Background(), "example.com")
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonThrottled, err.(*goverrors.GovError).Reason())
}

func TestWaitIfNeededSleepsOutSoftDelay(t *testing.T) {
	th, err := New(Config{MinDelayPerAction: 30 * time.Millisecond, MaxActionsPerMinute: 10, BurstAllowance: 0})
	require.NoError(t, err)
	th.RecordAction("example.com")

	start := time.Now()
	d, err := th.WaitIfNeeded(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestWaitIfNeededRespectsContextCancellation(t *testing.T) {
	th, err := New(Config{MinDelayPerAction: time.Hour, MaxActionsPerMinute: 10, BurstAllowance: 0})
	require.NoError(t, err)
	th.RecordAction("example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = th.WaitIfNeeded(ctx, "example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHostStatsAndReset(t *testing.T) {
	th, err := New(DefaultConfig())
	require.NoError(t, err)
	th.RecordAction("example.com")

	stats, ok := th.HostStats("example.com")
	require.True(t, ok)
	assert.Equal(t, 1, stats.ActionsInLastMinute)

	th.ResetHost("example.com")
	_, ok = th.HostStats("example.com")
	assert.False(t, ok)
}

func TestResetAllClearsEverything(t *testing.T) {
	th, err := New(DefaultConfig())
	require.NoError(t, err)
	th.RecordAction("a.example.com")
	th.RecordAction("b.example.com")
	th.ResetAll()

	_, ok := th.HostStats("a.example.com")
	assert.False(t, ok)
	assert.Empty(t, th.ThrottleLog())
}

func TestThrottleLogAccumulatesDecisions(t *testing.T) {
	th, err := New(DefaultConfig())
	require.NoError(t, err)
	th.CheckThrottle("example.com")
	th.CheckThrottle("example.com")
	assert.Len(t, th.ThrottleLog(), 2)
}
