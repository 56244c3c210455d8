// Package govconfirm implements C4, the Confirmation Registry: tracking
// which human confirmations have been consumed, detecting and logging
// replay attempts, and reconstructing that state from the audit log on
// restart so single-use survives a crash.
package govconfirm

import (
	"sync"
	"time"

	"codenerd/internal/goverrors"
	"codenerd/internal/govaudit"
)

// FrictionEvidence references the four friction-gate audit records that
// justified issuing a confirmation (§3).
type FrictionEvidence struct {
	DeliberationRecordID string
	EditRecordID         string
	ChallengeRecordID    string
	CooldownRecordID     string
}

// Confirmation is a single-use, human-produced authorization bound by
// content hash to the exact artifact that was shown to and edited by the
// human.
type Confirmation struct {
	ID               string
	RequestID        string
	ApproverID       string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	ContentHash      string
	HumanInitiated   bool
	FrictionEvidence FrictionEvidence
}

// IsExpired reports whether now is at or past this confirmation's expiry.
func (c Confirmation) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

const (
	kindConsumed       = "confirmation_consumed"
	kindReplayBlocked  = "confirmation_replay_blocked"
)

// Outcome is the closed enum describing what happened to the thing a
// confirmation authorized, recorded alongside consumption.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Registry tracks consumed confirmation ids, backed by an audit log that
// is authoritative across restarts.
type Registry struct {
	mu       sync.Mutex
	consumed map[string]bool
	audit    *govaudit.Log
}

// NewRegistry creates a confirmation registry backed by audit.
func NewRegistry(audit *govaudit.Log) *Registry {
	return &Registry{consumed: make(map[string]bool), audit: audit}
}

// IsUsed reports whether confirmationID has been consumed, checking the
// in-memory set first and falling back to the audit log (reconstructing
// the in-memory entry on a hit so subsequent calls are O(1)).
func (r *Registry) IsUsed(confirmationID string) bool {
	r.mu.Lock()
	if r.consumed[confirmationID] {
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	for _, rec := range r.audit.BySubject(confirmationID) {
		if rec.Kind == kindConsumed {
			r.mu.Lock()
			r.consumed[confirmationID] = true
			r.mu.Unlock()
			return true
		}
	}
	return false
}

// Consume runs the replay check, writes a consumed record to the audit
// log BEFORE mutating in-memory state, and only then marks the
// confirmation consumed in memory. If the audit write fails the
// in-memory state is left untouched and the caller receives the audit
// failure (§4.4).
func (r *Registry) Consume(c Confirmation, submitter string, outcome Outcome, errMsg string) error {
	if err := r.checkReplay(c.ID, submitter); err != nil {
		return err
	}

	details := map[string]any{"outcome": string(outcome)}
	if errMsg != "" {
		details["error"] = errMsg
	}
	if _, err := r.audit.Append(kindConsumed, submitter, govaudit.OutcomeSuccess, []string{c.ID, c.RequestID}, details); err != nil {
		return err
	}

	r.mu.Lock()
	r.consumed[c.ID] = true
	r.mu.Unlock()
	return nil
}

func (r *Registry) checkReplay(confirmationID, submitter string) error {
	if !r.IsUsed(confirmationID) {
		return nil
	}
	_, _ = r.audit.Append(kindReplayBlocked, submitter, govaudit.OutcomeReplayAttempted, []string{confirmationID}, nil)
	return goverrors.New(goverrors.ReasonTokenAlreadyUsed, "confirmation %s already consumed", confirmationID)
}

// ValidateAndConsume combines the confirmation's own expiry check with
// Consume (which performs the replay check) into one call.
func (r *Registry) ValidateAndConsume(c Confirmation, submitter string, now time.Time, outcome Outcome, errMsg string) error {
	if c.IsExpired(now) {
		return goverrors.New(goverrors.ReasonTokenExpired, "confirmation %s expired at %s", c.ID, c.ExpiresAt)
	}
	return r.Consume(c, submitter, outcome, errMsg)
}

// ReconstructFromAudit rebuilds the in-memory consumed set by scanning
// the audit log for consumed-records, and returns the count restored.
// This is the mechanism by which single-use survives a process restart.
func (r *Registry) ReconstructFromAudit() int {
	restored := 0
	for _, rec := range r.audit.ByKind(kindConsumed) {
		if len(rec.SubjectRefs) == 0 {
			continue
		}
		confirmationID := rec.SubjectRefs[0]
		r.mu.Lock()
		if !r.consumed[confirmationID] {
			r.consumed[confirmationID] = true
			restored++
		}
		r.mu.Unlock()
	}
	return restored
}
