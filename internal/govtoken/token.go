// Package govtoken implements C3, single-use, expiring, content-bound
// authorization tokens. A token authorizes exactly one operation (or, for
// a batch, an ordered tuple of operations) identified by its canonical
// content hash — never by name or pointer identity.
package govtoken

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"codenerd/internal/goverrors"
	"codenerd/internal/govhash"
)

// Operation is the canonical-form contributor for whatever is being
// authorized (an action execution, a report transmission). Kind, Target,
// and Params are serialized deterministically to produce the operation's
// content hash (§4.3 "Canonical form").
type Operation struct {
	Kind   string
	Target string
	Params map[string]any
}

// ContentHash returns the 256-bit canonical digest of this operation.
func (o Operation) ContentHash() string {
	return govhash.Hex(o.Kind, o.Target, govhash.CanonicalParams(o.Params))
}

// Status is the closed lifecycle state of a Token.
type Status string

const (
	StatusPending  Status = "pending"
	StatusConsumed Status = "consumed"
	StatusExpired  Status = "expired"
)

// Token is a one-shot authorization for a single operation or an ordered
// batch of operations, bound by content hash.
type Token struct {
	ID           string
	ApproverID   string
	ApprovedAt   time.Time
	ExpiresAt    time.Time
	SubjectHash  string   // set for single-operation tokens
	BatchHashes  []string // set, in order, for batch tokens
}

// Generate mints a single-operation token valid for the given duration.
func Generate(approver string, op Operation, validity time.Duration) Token {
	now := time.Now().UTC()
	return Token{
		ID:          uuid.NewString(),
		ApproverID:  approver,
		ApprovedAt:  now,
		ExpiresAt:   now.Add(validity),
		SubjectHash: op.ContentHash(),
	}
}

// GenerateBatch mints a token valid for an ordered batch of operations.
// The order is part of the binding: matching a batch token requires the
// caller to present operations in the exact order they were authorized.
func GenerateBatch(approver string, ops []Operation, validity time.Duration) Token {
	now := time.Now().UTC()
	hashes := make([]string, len(ops))
	for i, op := range ops {
		hashes[i] = op.ContentHash()
	}
	return Token{
		ID:          uuid.NewString(),
		ApproverID:  approver,
		ApprovedAt:  now,
		ExpiresAt:   now.Add(validity),
		BatchHashes: hashes,
	}
}

// IsExpired reports whether now is at or past the token's expiry.
func (t Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// MatchesOperation reports whether this single-subject token authorizes op.
func (t Token) MatchesOperation(op Operation) bool {
	if len(t.BatchHashes) != 0 {
		return false
	}
	return t.SubjectHash == op.ContentHash()
}

// MatchesBatch reports whether this batch token authorizes exactly this
// ordered sequence of operations — reordering or substitution fails.
func (t Token) MatchesBatch(ops []Operation) bool {
	if len(t.BatchHashes) == 0 || len(t.BatchHashes) != len(ops) {
		return false
	}
	for i, op := range ops {
		if t.BatchHashes[i] != op.ContentHash() {
			return false
		}
	}
	return true
}

// Registry tracks which token ids have been consumed. Validate and
// Invalidate are guarded by the same mutex, but each holds it only for its
// own call: Validate does not consume the token, so two Validate calls
// made before Invalidate can both succeed, and Invalidate does not report
// whether the token was already consumed.
type Registry struct {
	mu       sync.Mutex
	consumed map[string]bool
}

// NewRegistry creates an empty token registry.
func NewRegistry() *Registry {
	return &Registry{consumed: make(map[string]bool)}
}

// Validate runs all three required checks from §4.3's table, in a single
// atomic section so no other goroutine can invalidate the token between
// checks. It does not itself consume the token — callers invalidate
// separately.
func (r *Registry) Validate(t Token, op Operation, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validateLocked(t, func() bool { return t.MatchesOperation(op) }, now)
}

// ValidateBatch is Validate's batch-token counterpart.
func (r *Registry) ValidateBatch(t Token, ops []Operation, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validateLocked(t, func() bool { return t.MatchesBatch(ops) }, now)
}

func (r *Registry) validateLocked(t Token, matches func() bool, now time.Time) error {
	if r.consumed[t.ID] {
		return goverrors.New(goverrors.ReasonTokenAlreadyUsed, "token %s already used", t.ID)
	}
	if t.IsExpired(now) {
		return goverrors.New(goverrors.ReasonTokenExpired, "token %s expired at %s", t.ID, t.ExpiresAt)
	}
	if !matches() {
		return goverrors.New(goverrors.ReasonTokenMismatch, "token %s does not match operation", t.ID)
	}
	return nil
}

// Invalidate marks a token id as consumed. Idempotent: invalidating an
// already-consumed token is a no-op, and status never reverts.
func (r *Registry) Invalidate(t Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumed[t.ID] = true
}

// IsConsumed reports whether a token id has been invalidated.
func (r *Registry) IsConsumed(tokenID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumed[tokenID]
}
