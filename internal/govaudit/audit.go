// Package govaudit implements C1, the tamper-evident, append-only,
// hash-chained audit log shared by every governance component. Each
// domain (friction, token, duplicate, submission...) gets its own Log
// instance via New; nothing is ever shared between instances, and
// nothing in this package's exported surface can delete, update,
// truncate, or clear a record.
package govaudit

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"codenerd/internal/goverrors"
	"codenerd/internal/govhash"
)

// Outcome is the closed enum of terminal states for an audited step.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeBlocked         Outcome = "blocked"
	OutcomeReplayAttempted Outcome = "replay_attempted"
	OutcomePolicyDenied    Outcome = "policy_denied"
	OutcomeError           Outcome = "error"
)

// Record is one immutable entry in the hash chain. Fields are set once at
// append time and never mutated afterward.
type Record struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	ActorID      string         `json:"actor_id"`
	Kind         string         `json:"kind"`
	SubjectRefs  []string       `json:"subject_refs"`
	Outcome      Outcome        `json:"outcome"`
	Details      map[string]any `json:"details"`
	PreviousHash string         `json:"previous_hash"`
	RecordHash   string         `json:"record_hash"`
}

// WriteCallback persists a record before it becomes visible in-memory.
// A non-nil error from the callback is a HARD STOP (§4.1): the record is
// not appended and the caller must not proceed.
type WriteCallback func(Record) error

// Log is one per-domain instance of the append-only audit chain.
type Log struct {
	mu       sync.Mutex
	domain   string
	records  []Record
	writeCB  WriteCallback
	lastWall time.Time
}

// New creates an empty, per-domain audit log. domain is a label used only
// for diagnostics (e.g. "friction", "submission") — it never leaks into
// the hash computation, so two domains cannot be confused for one
// another by an attacker feeding them identical content.
func New(domain string, cb WriteCallback) *Log {
	return &Log{domain: domain, writeCB: cb}
}

func computeRecordHash(r Record) string {
	return govhash.Hex(
		r.ID,
		r.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		r.Kind,
		r.ActorID,
		string(r.Outcome),
		govhash.CanonicalMap(r.Details),
		r.PreviousHash,
	)
}

func (l *Log) tailHashLocked() string {
	if len(l.records) == 0 {
		return govhash.GenesisHash
	}
	return l.records[len(l.records)-1].RecordHash
}

// monotonicTimestampLocked returns a timestamp that never moves backward
// relative to the previous record, clamping to (previous + 1ms) if the
// wall clock stepped backward (§5 ordering guarantee).
func (l *Log) monotonicTimestampLocked() time.Time {
	now := time.Now().UTC()
	if !l.lastWall.IsZero() && !now.After(l.lastWall) {
		now = l.lastWall.Add(time.Millisecond)
	}
	l.lastWall = now
	return now
}

// Append records one governance event. The persistence callback, if
// configured, runs synchronously before the in-memory append — a
// failure there is a HARD STOP and the record never becomes visible.
func (l *Log) Append(kind, actor string, outcome Outcome, subjectRefs []string, details map[string]any) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if details == nil {
		details = map[string]any{}
	}
	r := Record{
		ID:           uuid.NewString(),
		Timestamp:    l.monotonicTimestampLocked(),
		ActorID:      actor,
		Kind:         kind,
		SubjectRefs:  append([]string(nil), subjectRefs...),
		Outcome:      outcome,
		Details:      details,
		PreviousHash: l.tailHashLocked(),
	}
	r.RecordHash = computeRecordHash(r)

	if l.writeCB != nil {
		if err := l.writeCB(r); err != nil {
			return Record{}, goverrors.NewHardStop(goverrors.ReasonAuditFailure, "persist record for domain %q: %v", l.domain, err)
		}
	}

	l.records = append(l.records, r)
	return r, nil
}

// VerifyChain walks the sequence in order and confirms every hash link.
// It returns an AuditIntegrityFailure-class *goverrors.GovError naming
// the first offending record on any mismatch.
func (l *Log) VerifyChain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	expectedPrevious := govhash.GenesisHash
	for i, r := range l.records {
		if r.PreviousHash != expectedPrevious {
			return goverrors.NewHardStop(goverrors.ReasonAuditIntegrityFailure,
				"chain broken at record %s (index %d): expected previous_hash %s, got %s",
				r.ID, i, expectedPrevious, r.PreviousHash)
		}
		if computeRecordHash(r) != r.RecordHash {
			return goverrors.NewHardStop(goverrors.ReasonAuditIntegrityFailure,
				"record hash mismatch at record %s (index %d)", r.ID, i)
		}
		expectedPrevious = r.RecordHash
	}
	return nil
}

// VerifyRecords re-checks the hash chain of an arbitrary record sequence
// (e.g. one loaded from a persisted export) without requiring a live Log
// instance — the verification CLI operates on-disk, not in-process.
func VerifyRecords(records []Record) error {
	expectedPrevious := govhash.GenesisHash
	for i, r := range records {
		if r.PreviousHash != expectedPrevious {
			return goverrors.NewHardStop(goverrors.ReasonAuditIntegrityFailure,
				"chain broken at record %s (index %d): expected previous_hash %s, got %s",
				r.ID, i, expectedPrevious, r.PreviousHash)
		}
		if computeRecordHash(r) != r.RecordHash {
			return goverrors.NewHardStop(goverrors.ReasonAuditIntegrityFailure,
				"record hash mismatch at record %s (index %d)", r.ID, i)
		}
		expectedPrevious = r.RecordHash
	}
	return nil
}

// Length returns the number of records currently in the chain.
func (l *Log) Length() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Tail returns the most recently appended record, or the zero Record
// with ok=false if the log is empty.
func (l *Log) Tail() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

// BySubject returns a copy of every record whose SubjectRefs contains subject.
func (l *Log) BySubject(subject string) []Record {
	return l.filter(func(r Record) bool {
		for _, s := range r.SubjectRefs {
			if s == subject {
				return true
			}
		}
		return false
	})
}

// ByID returns the record with the given id, if present.
func (l *Log) ByID(id string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// ByActor returns a copy of every record with the given actor identity.
func (l *Log) ByActor(actor string) []Record {
	return l.filter(func(r Record) bool { return r.ActorID == actor })
}

// ByKind returns a copy of every record of the given kind.
func (l *Log) ByKind(kind string) []Record {
	return l.filter(func(r Record) bool { return r.Kind == kind })
}

// ByTimeRange returns a copy of every record with start <= Timestamp <= end.
func (l *Log) ByTimeRange(start, end time.Time) []Record {
	return l.filter(func(r Record) bool {
		return !r.Timestamp.Before(start) && !r.Timestamp.After(end)
	})
}

func (l *Log) filter(pred func(Record) bool) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, 0)
	for _, r := range l.records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Export is a compliance export of a time range: the ordered record batch
// plus an export-hash over the ordered sequence of record hashes, and
// whether the chain verified clean as of export time (§6).
type Export struct {
	Start         time.Time
	End           time.Time
	RecordCount   int
	ChainVerified bool
	ExportHash    string
	Records       []Record
}

// ExportForCompliance verifies the chain and produces an Export of the
// records within [start, end].
func (l *Log) ExportForCompliance(start, end time.Time) (Export, error) {
	verifyErr := l.VerifyChain()
	records := l.ByTimeRange(start, end)
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })

	hashes := make([]string, len(records))
	for i, r := range records {
		hashes[i] = r.RecordHash
	}
	exp := Export{
		Start:         start,
		End:           end,
		RecordCount:   len(records),
		ChainVerified: verifyErr == nil,
		ExportHash:    govhash.Hex(hashes...),
		Records:       records,
	}
	if verifyErr != nil {
		return exp, fmt.Errorf("govaudit: export with broken chain: %w", verifyErr)
	}
	return exp, nil
}
