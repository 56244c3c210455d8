// Package govadvisor implements C7, the Rubber-Stamp Advisor: a
// read-only pattern detector over confirmation history that emits
// advisory warnings and nothing else. This package exposes no method
// named block, reject, deny, or prevent, on the detector or on Warning
// — there is nothing here for a caller to invoke that would stop a
// confirmation from proceeding.
package govadvisor

import (
	"sync"
	"time"

	"codenerd/internal/govconfig"
)

// WarningLevel is the closed, ordered severity scale C7 emits.
type WarningLevel int

const (
	WarningNone WarningLevel = iota
	WarningLow
	WarningMedium
	WarningHigh
)

func (w WarningLevel) String() string {
	switch w {
	case WarningLow:
		return "low"
	case WarningMedium:
		return "medium"
	case WarningHigh:
		return "high"
	default:
		return "none"
	}
}

func maxLevel(a, b WarningLevel) WarningLevel {
	if b > a {
		return b
	}
	return a
}

// Warning is a purely informational output; it carries no method capable
// of affecting the confirmation it describes.
type Warning struct {
	WarningLevel             WarningLevel
	Reason                   string
	DecisionCount            int
	AverageDeliberationSeconds float64
	IsColdStart              bool
	IsAdvisorySilent         bool
}

type record struct {
	at           time.Time
	deliberation float64
}

// Detector tracks per-approver confirmation history and analyzes it for
// rubber-stamp patterns. It is read-only in the sense that nothing it
// observes ever changes whether a confirmation can be issued or consumed.
type Detector struct {
	minDecisions int

	mu      sync.Mutex
	history map[string][]record
}

// NewDetector creates a detector using minDecisions as the cold-start
// floor (MIN_DECISIONS_FOR_ANALYSIS); pass govconfig.MinDecisionsForAnalysisDefault
// absent an overriding policy value.
func NewDetector(minDecisions int) *Detector {
	if minDecisions <= 0 {
		minDecisions = govconfig.MinDecisionsForAnalysisDefault
	}
	return &Detector{minDecisions: minDecisions, history: make(map[string][]record)}
}

// RecordConfirmation appends one data point (now, deliberationSeconds) to
// approver's history.
func (d *Detector) RecordConfirmation(approver, decisionID string, deliberationSeconds float64) {
	_ = decisionID
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history[approver] = append(d.history[approver], record{at: time.Now(), deliberation: deliberationSeconds})
}

// AnalyzePattern evaluates approver's history against the rubber-stamp
// heuristics and returns a Warning. Cold-start reviewers always receive
// WarningNone.
func (d *Detector) AnalyzePattern(approver string) Warning {
	d.mu.Lock()
	hist := append([]record(nil), d.history[approver]...)
	d.mu.Unlock()

	count := len(hist)
	if count < d.minDecisions {
		return Warning{WarningLevel: WarningNone, IsColdStart: true, IsAdvisorySilent: true, DecisionCount: count}
	}

	avg := average(hist)
	level := WarningNone
	reasons := make([]string, 0, 2)

	if hasRapidSuccession(hist, 3, 10*time.Second) {
		level = maxLevel(level, WarningLow)
		reasons = append(reasons, "three or more confirmations within a 10-second window")
	}

	if count >= 10 && avg <= govconfig.HardMinDeliberation.Seconds() {
		level = maxLevel(level, WarningMedium)
		reasons = append(reasons, "average deliberation at the minimum floor across 10+ confirmations")
	}

	reason := ""
	if len(reasons) > 0 {
		reason = reasons[0]
		for _, r := range reasons[1:] {
			reason += "; " + r
		}
	}

	return Warning{
		WarningLevel:               level,
		Reason:                     reason,
		DecisionCount:              count,
		AverageDeliberationSeconds: avg,
		IsColdStart:                false,
		IsAdvisorySilent:           level == WarningNone,
	}
}

func average(hist []record) float64 {
	if len(hist) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range hist {
		sum += r.deliberation
	}
	return sum / float64(len(hist))
}

// hasRapidSuccession reports whether at least threshold records fall
// within any sliding window of length span, using a two-pointer scan over
// history sorted by time.
func hasRapidSuccession(hist []record, threshold int, span time.Duration) bool {
	if len(hist) < threshold {
		return false
	}
	sorted := append([]record(nil), hist...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].at.Before(sorted[j-1].at); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	left := 0
	for right := 0; right < len(sorted); right++ {
		for sorted[right].at.Sub(sorted[left].at) > span {
			left++
		}
		if right-left+1 >= threshold {
			return true
		}
	}
	return false
}

// GetReviewerStatistics returns decision_count/average/min/max deliberation
// for approver, as a plain map mirroring the dict shape the original
// detector returned.
func (d *Detector) GetReviewerStatistics(approver string) map[string]float64 {
	d.mu.Lock()
	hist := append([]record(nil), d.history[approver]...)
	d.mu.Unlock()

	if len(hist) == 0 {
		return map[string]float64{"decision_count": 0, "average_deliberation": 0, "min_deliberation": 0, "max_deliberation": 0}
	}
	min, max := hist[0].deliberation, hist[0].deliberation
	for _, r := range hist[1:] {
		if r.deliberation < min {
			min = r.deliberation
		}
		if r.deliberation > max {
			max = r.deliberation
		}
	}
	return map[string]float64{
		"decision_count":       float64(len(hist)),
		"average_deliberation": average(hist),
		"min_deliberation":     min,
		"max_deliberation":     max,
	}
}

// ClearHistory removes all recorded history for approver.
func (d *Detector) ClearHistory(approver string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.history, approver)
}
