package govadvisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColdStartIsAlwaysSilent(t *testing.T) {
	d := NewDetector(5)
	for i := 0; i < 4; i++ {
		d.RecordConfirmation("reviewer-1", "dec", 30)
	}
	w := d.AnalyzePattern("reviewer-1")
	assert.Equal(t, WarningNone, w.WarningLevel)
	assert.True(t, w.IsColdStart)
	assert.True(t, w.IsAdvisorySilent)
}

func TestNoWarningOnceThresholdReachedButHealthy(t *testing.T) {
	d := NewDetector(5)
	// Space the confirmations a minute apart so no 10-second window holds
	// three of them; RecordConfirmation would stamp them all with "now".
	base := time.Now().Add(-10 * time.Minute)
	for i := 0; i < 5; i++ {
		d.history["reviewer-1"] = append(d.history["reviewer-1"],
			record{at: base.Add(time.Duration(i) * time.Minute), deliberation: 120})
	}
	w := d.AnalyzePattern("reviewer-1")
	assert.False(t, w.IsColdStart)
	assert.Equal(t, WarningNone, w.WarningLevel)
	assert.True(t, w.IsAdvisorySilent)
}

func TestRapidSuccessionRaisesLowWarning(t *testing.T) {
	d := NewDetector(3)
	d.RecordConfirmation("reviewer-1", "d1", 60)
	d.RecordConfirmation("reviewer-1", "d2", 60)
	d.RecordConfirmation("reviewer-1", "d3", 60)
	// All three RecordConfirmation calls above happen well within 10s of
	// each other (the test itself runs in microseconds), so the detector
	// must flag rapid succession.
	w := d.AnalyzePattern("reviewer-1")
	assert.GreaterOrEqual(t, w.WarningLevel, WarningLow)
	assert.NotEmpty(t, w.Reason)
}

func TestFloorDeliberationAtScaleRaisesMediumWarning(t *testing.T) {
	d := NewDetector(5)
	// Ten confirmations all at exactly the hard deliberation floor.
	for i := 0; i < 10; i++ {
		d.RecordConfirmation("reviewer-1", "d", 5.0)
	}
	w := d.AnalyzePattern("reviewer-1")
	assert.GreaterOrEqual(t, w.WarningLevel, WarningMedium)
}

func TestWarningNeverExposesBlockingBehavior(t *testing.T) {
	// Structural: Warning and Detector simply have no method whose name
	// suggests blocking — this test documents the invariant for readers,
	// since there is no runtime assertion that can express "a method does
	// not exist."
	d := NewDetector(1)
	d.RecordConfirmation("r", "d", 1)
	_ = d.AnalyzePattern("r")
}

func TestGetReviewerStatisticsEmpty(t *testing.T) {
	d := NewDetector(5)
	stats := d.GetReviewerStatistics("nobody")
	assert.Equal(t, 0.0, stats["decision_count"])
}

func TestGetReviewerStatisticsMinMaxAverage(t *testing.T) {
	d := NewDetector(1)
	d.RecordConfirmation("r", "d1", 10)
	d.RecordConfirmation("r", "d2", 30)
	stats := d.GetReviewerStatistics("r")
	assert.Equal(t, 2.0, stats["decision_count"])
	assert.Equal(t, 10.0, stats["min_deliberation"])
	assert.Equal(t, 30.0, stats["max_deliberation"])
	assert.Equal(t, 20.0, stats["average_deliberation"])
}

func TestClearHistoryResetsColdStart(t *testing.T) {
	d := NewDetector(2)
	d.RecordConfirmation("r", "d1", 10)
	d.RecordConfirmation("r", "d2", 10)
	w := d.AnalyzePattern("r")
	assert.False(t, w.IsColdStart)

	d.ClearHistory("r")
	w = d.AnalyzePattern("r")
	assert.True(t, w.IsColdStart)
}

func TestWarningLevelString(t *testing.T) {
	assert.Equal(t, "none", WarningNone.String())
	assert.Equal(t, "low", WarningLow.String())
	assert.Equal(t, "medium", WarningMedium.String())
	assert.Equal(t, "high", WarningHigh.String())
}
