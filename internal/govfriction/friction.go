// Package govfriction implements C6, the Friction Gate: a per-subject
// state machine enforcing minimum deliberation, a mandatory edit, a
// challenge question, and a cooldown before a Confirmation can be
// issued. Every transition's timing is measured on Go's monotonic clock
// reading (time.Time obtained from time.Now() carries one, and Sub
// always uses it when present) — wall-clock manipulation cannot shorten
// deliberation or cooldown. There is no auto-approval, timeout-approval,
// batch-approval, or skip method anywhere in this package's surface.
package govfriction

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"codenerd/internal/govaudit"
	"codenerd/internal/govconfig"
	"codenerd/internal/govconfirm"
	"codenerd/internal/govdiff"
	"codenerd/internal/goverrors"
	"codenerd/internal/govhash"
)

func newID() string { return uuid.NewString() }

// State is the closed set of states a pending subject moves through.
type State string

const (
	StateInitial         State = "initial"
	StateDeliberating    State = "deliberating"
	StateEditPending     State = "edit_pending"
	StateChallengePending State = "challenge_pending"
	StateCoolingDown     State = "cooling_down"
	StateReady           State = "ready"
	StateConsumed        State = "consumed"
)

const (
	kindDeliberation = "friction_deliberation"
	kindEdit         = "friction_edit"
	kindChallengePosed    = "friction_challenge_posed"
	kindChallenge    = "friction_challenge"
	kindCooldown     = "friction_cooldown"
	kindIssued       = "friction_confirmation_issued"
)

type challengeInfo struct {
	question           string
	contextSummary     string
	expectedAnswerKind string
	answer             string
	answered           bool
	posed              bool
}

type deliberationInfo struct {
	startedAt time.Time
	endedAt   time.Time
	complete  bool
}

type cooldownInfo struct {
	startedAt time.Time
	duration  time.Duration
	endedAt   time.Time
	complete  bool
}

// frictionState is the per-subject working state; it is owned by the
// request it gates and discarded once a confirmation is issued (its
// evidence survives only in the audit log).
type frictionState struct {
	subject       string
	state         State
	originalContent []byte
	deliberation  deliberationInfo
	edit          struct {
		verified bool
		content  []byte
	}
	challenge challengeInfo
	cooldown  cooldownInfo
}

// Gate drives the friction state machine for many concurrently pending
// subjects.
type Gate struct {
	minDeliberation time.Duration
	minCooldown     time.Duration
	audit           *govaudit.Log
	confirmations   *govconfirm.Registry

	mu     sync.Mutex
	states map[string]*frictionState
}

// NewGate builds a friction gate with the policy's (already-clamped)
// deliberation/cooldown floors.
func NewGate(policy govconfig.Policy, audit *govaudit.Log, confirmations *govconfirm.Registry) *Gate {
	minDel := policy.MinDeliberation
	if minDel < govconfig.HardMinDeliberation {
		minDel = govconfig.HardMinDeliberation
	}
	minCool := policy.MinCooldown
	if minCool < govconfig.HardMinCooldown {
		minCool = govconfig.HardMinCooldown
	}
	return &Gate{
		minDeliberation: minDel,
		minCooldown:     minCool,
		audit:           audit,
		confirmations:   confirmations,
		states:          make(map[string]*frictionState),
	}
}

func (g *Gate) get(subject string) (*frictionState, error) {
	s, ok := g.states[subject]
	if !ok {
		return nil, goverrors.New(goverrors.ReasonConfigurationError, "no friction state for subject %s", subject)
	}
	return s, nil
}

// StartDeliberation begins the deliberation window for subject. The
// caller is expected to suspend (wait, poll, or await) until the minimum
// deliberation time has elapsed before calling EndDeliberation.
func (g *Gate) StartDeliberation(subject string, originalContent []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[subject] = &frictionState{
		subject:         subject,
		state:           StateDeliberating,
		originalContent: append([]byte(nil), originalContent...),
		deliberation:    deliberationInfo{startedAt: time.Now()},
	}
}

// EndDeliberation transitions deliberating -> edit_pending. It fails with
// deliberation-too-short if called before the configured minimum has
// elapsed since StartDeliberation, measured on the monotonic clock.
func (g *Gate) EndDeliberation(subject string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.get(subject)
	if err != nil {
		return err
	}
	if s.state != StateDeliberating {
		return goverrors.New(goverrors.ReasonConfigurationError, "subject %s not in deliberating state", subject)
	}
	elapsed := time.Since(s.deliberation.startedAt)
	if elapsed < g.minDeliberation {
		return goverrors.New(goverrors.ReasonDeliberationTooShort,
			"subject %s: deliberated %s, need >= %s", subject, elapsed, g.minDeliberation)
	}
	s.deliberation.endedAt = time.Now()
	s.deliberation.complete = true
	s.state = StateEditPending

	_, err = g.audit.Append(kindDeliberation, "system", govaudit.OutcomeSuccess, []string{subject},
		map[string]any{"elapsed_seconds": elapsed.Seconds()})
	return err
}

// RecordEdit transitions edit_pending -> challenge_pending. newContent
// must differ from the content shown at StartDeliberation by at least
// one byte.
func (g *Gate) RecordEdit(subject string, newContent []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.get(subject)
	if err != nil {
		return err
	}
	if s.state != StateEditPending {
		return goverrors.New(goverrors.ReasonConfigurationError, "subject %s not in edit_pending state", subject)
	}
	if bytes.Equal(s.originalContent, newContent) {
		return goverrors.New(goverrors.ReasonEditMissing, "subject %s: content unchanged", subject)
	}
	summary := govdiff.Compute(string(s.originalContent), string(newContent))
	if !summary.Changed {
		return goverrors.New(goverrors.ReasonEditMissing, "subject %s: edit produced no line-level change", subject)
	}
	s.edit.verified = true
	s.edit.content = append([]byte(nil), newContent...)
	s.state = StateChallengePending

	_, err = g.audit.Append(kindEdit, "system", govaudit.OutcomeSuccess, []string{subject}, map[string]any{
		"lines_added":   summary.LinesAdded,
		"lines_removed": summary.LinesRemoved,
	})
	return err
}

// PoseChallenge records that a challenge question was presented to the
// human. AnswerChallenge requires this to have happened first.
func (g *Gate) PoseChallenge(subject, question, contextSummary, expectedAnswerKind string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.get(subject)
	if err != nil {
		return err
	}
	if s.state != StateChallengePending {
		return goverrors.New(goverrors.ReasonConfigurationError, "subject %s not in challenge_pending state", subject)
	}
	s.challenge = challengeInfo{
		question:           question,
		contextSummary:     contextSummary,
		expectedAnswerKind: expectedAnswerKind,
		posed:              true,
	}
	_, err = g.audit.Append(kindChallengePosed, "system", govaudit.OutcomeSuccess, []string{subject}, map[string]any{"question": question})
	return err
}

// AnswerChallenge transitions challenge_pending -> cooling_down. Requires
// a posed question and a nonempty, non-whitespace answer.
func (g *Gate) AnswerChallenge(subject, answer string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.get(subject)
	if err != nil {
		return err
	}
	if s.state != StateChallengePending {
		return goverrors.New(goverrors.ReasonConfigurationError, "subject %s not in challenge_pending state", subject)
	}
	if !s.challenge.posed {
		return goverrors.New(goverrors.ReasonChallengeUnanswered, "subject %s: no challenge question posed", subject)
	}
	if strings.TrimSpace(answer) == "" {
		return goverrors.New(goverrors.ReasonChallengeUnanswered, "subject %s: empty answer", subject)
	}
	s.challenge.answer = answer
	s.challenge.answered = true
	s.state = StateCoolingDown
	s.cooldown = cooldownInfo{startedAt: time.Now(), duration: g.minCooldown}

	_, err = g.audit.Append(kindChallenge, "system", govaudit.OutcomeSuccess, []string{subject}, nil)
	return err
}

// CheckCooldown reports whether the cooldown for subject has completed
// and, if not, how much longer is required.
func (g *Gate) CheckCooldown(subject string) (complete bool, remaining time.Duration, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.get(subject)
	if err != nil {
		return false, 0, err
	}
	if s.state != StateCoolingDown {
		return false, 0, goverrors.New(goverrors.ReasonConfigurationError, "subject %s not in cooling_down state", subject)
	}
	elapsed := time.Since(s.cooldown.startedAt)
	if elapsed >= s.cooldown.duration {
		return true, 0, nil
	}
	return false, s.cooldown.duration - elapsed, nil
}

// EndCooldown transitions cooling_down -> ready. Fails with
// cooldown-violation if called before the minimum cooldown has elapsed.
func (g *Gate) EndCooldown(subject string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.get(subject)
	if err != nil {
		return err
	}
	if s.state != StateCoolingDown {
		return goverrors.New(goverrors.ReasonConfigurationError, "subject %s not in cooling_down state", subject)
	}
	elapsed := time.Since(s.cooldown.startedAt)
	if elapsed < s.cooldown.duration {
		return goverrors.New(goverrors.ReasonCooldownViolation,
			"subject %s: cooled down %s, need >= %s", subject, elapsed, s.cooldown.duration)
	}
	s.cooldown.endedAt = time.Now()
	s.cooldown.complete = true
	s.state = StateReady

	_, err = g.audit.Append(kindCooldown, "system", govaudit.OutcomeSuccess, []string{subject},
		map[string]any{"elapsed_seconds": elapsed.Seconds()})
	return err
}

// IssueConfirmation transitions ready -> consumed, verifying all four
// audit-completeness booleans via the audit log before emitting a
// Confirmation bound to the content recorded by RecordEdit — the exact
// bytes the human reviewed and approved, not whatever the caller later
// presents for transmission. The friction state is discarded afterward;
// its evidence lives on only in the audit log.
func (g *Gate) IssueConfirmation(subject, requestID, approver string, validity time.Duration) (govconfirm.Confirmation, error) {
	g.mu.Lock()
	s, err := g.get(subject)
	if err != nil {
		g.mu.Unlock()
		return govconfirm.Confirmation{}, err
	}
	if s.state != StateReady {
		g.mu.Unlock()
		return govconfirm.Confirmation{}, goverrors.New(goverrors.ReasonConfigurationError, "subject %s not ready", subject)
	}
	contentHash := govhash.HexBytes(s.edit.content)
	g.mu.Unlock()

	evidence, err := g.auditCompleteness(subject)
	if err != nil {
		return govconfirm.Confirmation{}, err
	}

	now := time.Now().UTC()
	confirmation := govconfirm.Confirmation{
		ID:               newID(),
		RequestID:        requestID,
		ApproverID:       approver,
		CreatedAt:        now,
		ExpiresAt:        now.Add(validity),
		ContentHash:      contentHash,
		HumanInitiated:   true,
		FrictionEvidence: evidence,
	}

	if _, err := g.audit.Append(kindIssued, approver, govaudit.OutcomeSuccess,
		[]string{subject, confirmation.ID}, map[string]any{"content_hash": contentHash}); err != nil {
		return govconfirm.Confirmation{}, err
	}

	g.mu.Lock()
	s.state = StateConsumed
	delete(g.states, subject)
	g.mu.Unlock()

	return confirmation, nil
}

// auditCompleteness confirms one record per friction item exists for
// subject and returns the evidence references, or audit-incomplete.
func (g *Gate) auditCompleteness(subject string) (govconfirm.FrictionEvidence, error) {
	var ev govconfirm.FrictionEvidence
	missing := make([]string, 0, 4)

	find := func(kind string) string {
		for _, rec := range g.audit.BySubject(subject) {
			if rec.Kind == kind {
				return rec.ID
			}
		}
		return ""
	}

	if ev.DeliberationRecordID = find(kindDeliberation); ev.DeliberationRecordID == "" {
		missing = append(missing, "deliberation")
	}
	if ev.EditRecordID = find(kindEdit); ev.EditRecordID == "" {
		missing = append(missing, "edit")
	}
	if ev.ChallengeRecordID = find(kindChallenge); ev.ChallengeRecordID == "" {
		missing = append(missing, "challenge")
	}
	if ev.CooldownRecordID = find(kindCooldown); ev.CooldownRecordID == "" {
		missing = append(missing, "cooldown")
	}

	if len(missing) > 0 {
		return ev, goverrors.New(goverrors.ReasonAuditIncomplete, "subject %s: missing friction audit records: %s", subject, strings.Join(missing, ","))
	}
	return ev, nil
}

// CurrentState returns the state a subject is currently in, for
// diagnostics and tests.
func (g *Gate) CurrentState(subject string) (State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.states[subject]
	if !ok {
		return "", false
	}
	return s.state, true
}
