// Package govpipeline implements C8, the Submission Pipeline: it
// composes the Boundary Guard, Duplicate Guard, Friction Gate,
// Confirmation Registry, and Audit Log into the single path by which a
// side effect (a report transmission, an action execution) is ever
// performed. Nothing outside this package may call a Transmitter.
package govpipeline

import (
	"context"
	"time"

	"codenerd/internal/goverrors"
	"codenerd/internal/govadvisor"
	"codenerd/internal/govaudit"
	"codenerd/internal/govboundary"
	"codenerd/internal/govconfirm"
	"codenerd/internal/govduplicate"
	"codenerd/internal/govfriction"
	"codenerd/internal/govhash"
	"codenerd/internal/govlog"
	"codenerd/internal/govroles"
)

const (
	kindTransmitted = "transmitted"
	kindFailed      = "submission_failed"
)

// Status is the closed acknowledgement enum an external submission
// platform may return; the pipeline does not interpret it further.
type Status string

const (
	StatusAcknowledged Status = "acknowledged"
	StatusRejected     Status = "rejected"
	StatusPending      Status = "pending"
)

// Classification is the closed set an external truth-engine may return.
// The pipeline treats it as authoritative and never re-derives it.
type Classification string

const (
	ClassificationSignal      Classification = "signal"
	ClassificationBug         Classification = "bug"
	ClassificationNoIssue     Classification = "no-issue"
	ClassificationCoverageGap Classification = "coverage-gap"
)

// Response is the side effect's outcome, generalized over both external
// contracts this pipeline serves (truth-engine and submission
// platform) — a given Transmitter populates whichever fields its
// contract defines and leaves the rest zero.
type Response struct {
	SubmissionID   string
	Status         Status
	VerificationID string
	Classification Classification
	InvariantID    string
	ProofHash      string

	// AdvisoryWarning is C7's read-only rubber-stamp assessment of the
	// approver who issued this confirmation. It is informational only:
	// nothing in this package inspects it to decide whether to proceed.
	AdvisoryWarning govadvisor.Warning
}

// Transmitter performs the single external network request a submission
// authorizes. It is the only side-effectful dependency this package
// calls, and it is always invoked with a caller-supplied deadline.
type Transmitter interface {
	Transmit(ctx context.Context, content []byte, evidence map[string]any) (Response, error)
}

// Request describes one submission as it enters the pipeline.
type Request struct {
	Subject       string
	Destination   string
	Submitter     string
	Role          govroles.Role
	OperationName string
	Evidence      map[string]any
}

// Handle tracks a submission between BeginSubmission and
// CompleteSubmission: the duplicate-guard lock held across the friction
// wait, plus the identifiers CompleteSubmission needs.
type Handle struct {
	dup         *govduplicate.Handle
	requestID   string
	subject     string
	destination string
	submitter   string
}

// Pipeline wires together one domain's worth of governance components.
// A process typically holds one Pipeline per external destination kind
// (truth-engine, submission platform).
type Pipeline struct {
	boundary      *govboundary.Guard
	duplicate     *govduplicate.Guard
	friction      *govfriction.Gate
	confirmations *govconfirm.Registry
	advisor       *govadvisor.Detector
	audit         *govaudit.Log
	validity      time.Duration
}

// New builds a Pipeline from its component dependencies. validity is how
// long a confirmation this pipeline issues remains usable.
func New(boundary *govboundary.Guard, duplicate *govduplicate.Guard, friction *govfriction.Gate,
	confirmations *govconfirm.Registry, advisor *govadvisor.Detector, audit *govaudit.Log, validity time.Duration) *Pipeline {
	return &Pipeline{
		boundary:      boundary,
		duplicate:     duplicate,
		friction:      friction,
		confirmations: confirmations,
		advisor:       advisor,
		audit:         audit,
		validity:      validity,
	}
}

// BeginSubmission runs the pre-friction steps (§4.8 steps 1-4's setup):
// role permission (a denial is recorded in the audit log), boundary
// check, duplicate acquisition, and starting deliberation. The caller then drives the friction gate directly
// (EndDeliberation, RecordEdit, PoseChallenge, AnswerChallenge,
// EndCooldown) before calling CompleteSubmission.
func (p *Pipeline) BeginSubmission(req Request, action govroles.Action, originalContent []byte) (*Handle, error) {
	if err := govroles.CheckPermission(req.Role, action); err != nil {
		_, _ = p.audit.Append("permission_denied", req.Submitter, govaudit.OutcomePolicyDenied,
			[]string{req.Subject}, map[string]any{"role": string(req.Role), "action": string(action)})
		return nil, err
	}
	if err := p.boundary.CheckAction(req.OperationName); err != nil {
		return nil, err
	}

	key := govduplicate.Key{Subject: req.Subject, Destination: req.Destination}
	dupHandle, err := p.duplicate.CheckAndAcquire(key, req.Submitter)
	if err != nil {
		return nil, err
	}

	p.friction.StartDeliberation(req.Subject, originalContent)

	return &Handle{
		dup:         dupHandle,
		requestID:   req.Subject + "->" + req.Destination,
		subject:     req.Subject,
		destination: req.Destination,
		submitter:   req.Submitter,
	}, nil
}

// Abort releases a handle's duplicate-guard lock without attempting
// transmission, for the path where friction or validation failed before
// a side effect was ever attempted.
func (p *Pipeline) Abort(h *Handle) {
	p.duplicate.ReleaseOnError(h.dup)
}

// CompleteSubmission runs §4.8 steps 5-11: issue the confirmation,
// recheck the content hash against exactly what is about to be
// transmitted, consume the confirmation, perform the side effect via
// transmitter, release the duplicate guard, and write the terminal audit
// record.
func (p *Pipeline) CompleteSubmission(ctx context.Context, h *Handle, approver string, finalContent []byte,
	evidence map[string]any, transmitter Transmitter) (Response, error) {

	confirmation, err := p.friction.IssueConfirmation(h.subject, h.requestID, approver, p.validity)
	if err != nil {
		p.duplicate.ReleaseOnError(h.dup)
		return Response{}, err
	}

	// C7 never gates this decision; it only observes it. Feed the
	// deliberation time into the detector and surface whatever pattern it
	// sees on the response.
	p.advisor.RecordConfirmation(approver, confirmation.ID, deliberationSeconds(p.audit, confirmation))
	warning := p.advisor.AnalyzePattern(approver)

	// Tamper check: the confirmation is bound to the edited content the
	// human reviewed during friction (RecordEdit), not to finalContent.
	// A mismatch here means what's about to be transmitted differs from
	// what was approved.
	if govhash.HexBytes(finalContent) != confirmation.ContentHash {
		_, _ = p.audit.Append("report_tampering_detected", h.submitter, govaudit.OutcomeBlocked,
			[]string{h.subject, confirmation.ID}, map[string]any{"expected_hash": confirmation.ContentHash})
		govlog.SecurityAlert(govlog.CategorySubmission, string(goverrors.ReasonReportTamperingDetected),
			"content hash mismatch at transmission time for subject "+h.subject)
		p.duplicate.ReleaseOnError(h.dup)
		return Response{}, goverrors.NewHardStop(goverrors.ReasonReportTamperingDetected,
			"content hash at transmission time does not match confirmation for subject %s", h.subject)
	}

	if err := p.confirmations.ValidateAndConsume(confirmation, h.submitter, time.Now(), govconfirm.OutcomeSuccess, ""); err != nil {
		p.duplicate.ReleaseOnError(h.dup)
		return Response{}, err
	}

	resp, txErr := transmitter.Transmit(ctx, finalContent, evidence)
	transmitted := txErr == nil

	if releaseErr := p.duplicate.VerifyAndRelease(h.dup, h.submitter, transmitted); releaseErr != nil {
		return resp, releaseErr
	}

	if txErr != nil {
		_, _ = p.audit.Append(kindFailed, h.submitter, govaudit.OutcomeError,
			[]string{h.subject, confirmation.ID}, map[string]any{"error": txErr.Error()})
		return Response{}, goverrors.Wrap(goverrors.ReasonTransmissionFailure, txErr, "transmit subject %s", h.subject)
	}

	duplicateRef := p.duplicate.SubjectRefFor(govduplicate.Key{Subject: h.subject, Destination: h.destination})
	_, err = p.audit.Append(kindTransmitted, h.submitter, govaudit.OutcomeSuccess,
		[]string{h.subject, confirmation.ID, duplicateRef}, map[string]any{
			"submission_id":   resp.SubmissionID,
			"status":          string(resp.Status),
			"verification_id": resp.VerificationID,
		})
	if err != nil {
		return resp, err
	}

	resp.AdvisoryWarning = warning
	return resp, nil
}

// deliberationSeconds looks up the elapsed deliberation time that the
// friction gate recorded for this confirmation, for feeding C7's pattern
// detector. It returns 0 if the record is missing or malformed.
func deliberationSeconds(audit *govaudit.Log, confirmation govconfirm.Confirmation) float64 {
	rec, ok := audit.ByID(confirmation.FrictionEvidence.DeliberationRecordID)
	if !ok {
		return 0
	}
	v, _ := rec.Details["elapsed_seconds"].(float64)
	return v
}
