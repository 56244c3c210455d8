// Package goverrors defines the closed error taxonomy shared by every
// governance component. Callers branch on Reason(), never on string
// matching; HardStop() marks the errors that must abort the caller's
// current operation outright rather than being returned as a normal
// failure.
package goverrors

import (
	"errors"
	"fmt"
)

// Reason is a stable, short identifier for a governance error. It is
// part of the public contract: callers and operators key off it.
type Reason string

const (
	// Boundary (C2)
	ReasonNetworkAttempt          Reason = "network_attempt"
	ReasonAutomationAttempt       Reason = "automation_attempt"
	ReasonReadOnlyViolation       Reason = "read_only_violation"
	ReasonGenericBoundaryViolation Reason = "generic_boundary_violation"

	// Token / Confirmation (C3, C4, C8)
	ReasonTokenAlreadyUsed       Reason = "token_already_used"
	ReasonTokenExpired           Reason = "token_expired"
	ReasonTokenMismatch          Reason = "token_mismatch"
	ReasonReportTamperingDetected Reason = "report_tampering_detected"

	// Friction (C6)
	ReasonDeliberationTooShort Reason = "deliberation_too_short"
	ReasonEditMissing          Reason = "edit_missing"
	ReasonChallengeUnanswered  Reason = "challenge_unanswered"
	ReasonCooldownViolation    Reason = "cooldown_violation"
	ReasonAuditIncomplete      Reason = "audit_incomplete"

	// Duplicate (C5)
	ReasonDuplicateSubmission Reason = "duplicate_submission"

	// Audit (C1)
	ReasonAuditFailure          Reason = "audit_failure"
	ReasonAuditIntegrityFailure Reason = "audit_integrity_failure"

	// External (C8, C9, C10)
	ReasonTransmissionFailure Reason = "transmission_failure"
	ReasonConfigurationError  Reason = "configuration_error"
	ReasonThrottled           Reason = "throttled"
	ReasonScopeViolation      Reason = "scope_violation"
	ReasonPermissionDenied    Reason = "permission_denied"
)

// GovError is the single error type every governance component raises.
// It is never mutated after construction (construct-and-never-mutate,
// mirroring the source's frozen dataclasses).
type GovError struct {
	reason   Reason
	message  string
	hardStop bool
	wrapped  error
}

func (e *GovError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.reason, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.reason, e.message)
}

// Reason returns the stable short identifier for this error.
func (e *GovError) Reason() Reason { return e.reason }

// HardStop reports whether the caller must refuse to proceed with any
// further side-effectful operation until a human intervenes.
func (e *GovError) HardStop() bool { return e.hardStop }

func (e *GovError) Unwrap() error { return e.wrapped }

// New constructs an operation-level governance error (not a hard stop).
func New(reason Reason, format string, args ...any) *GovError {
	return &GovError{reason: reason, message: fmt.Sprintf(format, args...)}
}

// NewHardStop constructs a governance error that demands the caller
// refuse further side-effectful operations.
func NewHardStop(reason Reason, format string, args ...any) *GovError {
	return &GovError{reason: reason, message: fmt.Sprintf(format, args...), hardStop: true}
}

// Wrap attaches an opaque external error (e.g. a transmission failure)
// to a governance error without losing the original for %w unwrapping.
func Wrap(reason Reason, err error, format string, args ...any) *GovError {
	return &GovError{reason: reason, message: fmt.Sprintf(format, args...), wrapped: err}
}

// Is reports whether err is, or wraps, a *GovError with the given reason.
// It is the intended way for callers to branch on the taxonomy.
func Is(err error, reason Reason) bool {
	var ge *GovError
	if !errors.As(err, &ge) {
		return false
	}
	return ge.reason == reason
}

// fixedHardStopReasons are HARD STOP regardless of how the error was
// constructed — audit failures, integrity failures, tampering, and any
// boundary violation raised at runtime (§7 propagation policy).
var fixedHardStopReasons = map[Reason]bool{
	ReasonAuditFailure:             true,
	ReasonAuditIntegrityFailure:    true,
	ReasonReportTamperingDetected:  true,
	ReasonNetworkAttempt:           true,
	ReasonAutomationAttempt:        true,
	ReasonReadOnlyViolation:        true,
	ReasonGenericBoundaryViolation: true,
}

// NewPolicy constructs a governance error, automatically marking it as a
// hard stop when its reason is unconditionally a hard stop per §7.
func NewPolicy(reason Reason, format string, args ...any) *GovError {
	e := New(reason, format, args...)
	e.hardStop = fixedHardStopReasons[reason]
	return e
}
