// Exploration limits are a separate, advisory concern from the
// uniqueness guard above: they bound how much work an (out-of-scope)
// analyzer phase may spend exploring whether a finding duplicates a
// prior one, distinct from C5's hard block on a second submission.
// Grounded on original_source/python/execution_layer/duplicate.py's
// DuplicateHandler STOP conditions.
package govduplicate

import (
	"sync"

	"codenerd/internal/goverrors"
)

// ExplorationLimits bounds a single duplicate-exploration run.
type ExplorationLimits struct {
	MaxDepth       int
	MaxHypotheses  int
	MaxTotalActions int
}

// DefaultExplorationLimits returns the default hypothesis/depth/action bounds.
func DefaultExplorationLimits() ExplorationLimits {
	return ExplorationLimits{MaxDepth: 5, MaxHypotheses: 10, MaxTotalActions: 25}
}

type explorationState struct {
	depth       int
	hypotheses  int
	totalActions int
	stopped     bool
	stopReason  string
}

// ExplorationLimiter enforces bounded hypothesis/depth/action counters
// per exploration id, raising a hard stop once any bound is exceeded.
type ExplorationLimiter struct {
	limits ExplorationLimits

	mu    sync.Mutex
	state map[string]*explorationState
}

// NewExplorationLimiter creates a limiter enforcing limits.
func NewExplorationLimiter(limits ExplorationLimits) *ExplorationLimiter {
	return &ExplorationLimiter{limits: limits, state: make(map[string]*explorationState)}
}

// Start begins tracking a new exploration id.
func (l *ExplorationLimiter) Start(explorationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state[explorationID] = &explorationState{}
}

func (l *ExplorationLimiter) get(explorationID string) (*explorationState, error) {
	s, ok := l.state[explorationID]
	if !ok {
		return nil, goverrors.New(goverrors.ReasonConfigurationError, "unknown exploration %s", explorationID)
	}
	if s.stopped {
		return nil, goverrors.NewHardStop(goverrors.ReasonDuplicateSubmission, "exploration %s stopped: %s", explorationID, s.stopReason)
	}
	return s, nil
}

// GenerateHypothesis records one more hypothesis, failing once
// MaxHypotheses is reached.
func (l *ExplorationLimiter) GenerateHypothesis(explorationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.get(explorationID)
	if err != nil {
		return err
	}
	if s.hypotheses >= l.limits.MaxHypotheses {
		s.stopped = true
		s.stopReason = "max_hypotheses exceeded"
		return goverrors.NewHardStop(goverrors.ReasonDuplicateSubmission, "exploration %s: max_hypotheses (%d) exceeded", explorationID, l.limits.MaxHypotheses)
	}
	s.hypotheses++
	return nil
}

// RecordAction records one more action, failing once MaxTotalActions is reached.
func (l *ExplorationLimiter) RecordAction(explorationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.get(explorationID)
	if err != nil {
		return err
	}
	if s.totalActions >= l.limits.MaxTotalActions {
		s.stopped = true
		s.stopReason = "max_total_actions exceeded"
		return goverrors.NewHardStop(goverrors.ReasonDuplicateSubmission, "exploration %s: max_total_actions (%d) exceeded", explorationID, l.limits.MaxTotalActions)
	}
	s.totalActions++
	return nil
}

// IncrementDepth increases exploration depth, failing once MaxDepth is reached.
func (l *ExplorationLimiter) IncrementDepth(explorationID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.get(explorationID)
	if err != nil {
		return 0, err
	}
	if s.depth >= l.limits.MaxDepth {
		s.stopped = true
		s.stopReason = "max_depth exceeded"
		return 0, goverrors.NewHardStop(goverrors.ReasonDuplicateSubmission, "exploration %s: max_depth (%d) exceeded", explorationID, l.limits.MaxDepth)
	}
	s.depth++
	return s.depth, nil
}

// IsStopped reports whether the exploration has hit a stop condition.
func (l *ExplorationLimiter) IsStopped(explorationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.state[explorationID]
	return !ok || s.stopped
}
