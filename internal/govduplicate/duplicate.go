// Package govduplicate implements C5, the Duplicate Guard: at-most-one
// successful submission per (subject, destination) pair, enforced with a
// per-key lock during the submission window and the audit log as ground
// truth across the process lifetime.
package govduplicate

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"codenerd/internal/goverrors"
	"codenerd/internal/govaudit"
)

const (
	kindDuplicateBlocked = "duplicate_blocked"
	kindTransmitted      = "transmitted"
)

// Key uniquely identifies a submission target: the subject being
// submitted and the destination it is submitted to (e.g. decision-id and
// platform).
type Key struct {
	Subject     string
	Destination string
}

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Subject, k.Destination) }

// Guard enforces at-most-one successful submission per Key.
type Guard struct {
	audit *govaudit.Log

	mu       sync.Mutex
	active   map[Key]bool
	locks    map[Key]*sync.Mutex
	collapse singleflight.Group
}

// NewGuard creates a duplicate guard backed by audit.
func NewGuard(audit *govaudit.Log) *Guard {
	return &Guard{
		audit:  audit,
		active: make(map[Key]bool),
		locks:  make(map[Key]*sync.Mutex),
	}
}

func (g *Guard) keyLock(k Key) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[k]
	if !ok {
		l = &sync.Mutex{}
		g.locks[k] = l
	}
	return l
}

// Handle is the held-lock handle returned by CheckAndAcquire; callers
// must eventually call VerifyAndRelease or ReleaseOnError with it.
type Handle struct {
	key  Key
	lock *sync.Mutex
}

// CheckAndAcquire acquires the per-key lock, then checks (under a short
// global lock) that the key is neither actively in-flight nor already
// transmitted per the audit log. The check runs inside a singleflight
// group keyed by k, but since the per-key lock is already held, calls for
// one key never overlap there and each performs its own audit scan.
func (g *Guard) CheckAndAcquire(k Key, submitter string) (*Handle, error) {
	lock := g.keyLock(k)
	lock.Lock()

	_, err, _ := g.collapse.Do(k.String(), func() (any, error) {
		g.mu.Lock()
		if g.active[k] {
			g.mu.Unlock()
			g.logBlocked(k, submitter, "active")
			return nil, goverrors.New(goverrors.ReasonDuplicateSubmission, "submission for %s already active", k)
		}
		g.mu.Unlock()

		if g.isTransmitted(k) {
			g.logBlocked(k, submitter, "audit")
			return nil, goverrors.New(goverrors.ReasonDuplicateSubmission, "submission for %s already transmitted", k)
		}

		g.mu.Lock()
		g.active[k] = true
		g.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return &Handle{key: k, lock: lock}, nil
}

// VerifyAndRelease performs the belt-and-suspenders post-transmission
// recheck when transmitted is true, then always releases the key from
// the active set and unlocks, via a finally-style defer.
func (g *Guard) VerifyAndRelease(h *Handle, submitter string, transmitted bool) error {
	defer func() {
		g.mu.Lock()
		delete(g.active, h.key)
		g.mu.Unlock()
		h.lock.Unlock()
	}()

	if !transmitted {
		return nil
	}
	count := g.countTransmitted(h.key)
	if count > 1 {
		_, _ = g.audit.Append(kindDuplicateBlocked, submitter, govaudit.OutcomeError,
			[]string{h.key.Subject, h.key.Destination},
			map[string]any{"reason": "post_transmission_duplicate", "count": count})
		return goverrors.NewHardStop(goverrors.ReasonDuplicateSubmission, "post-transmission duplicate detected for %s (count=%d)", h.key, count)
	}
	return nil
}

// ReleaseOnError releases the handle without any post-transmission
// verification, for the path where an error occurred before transmission
// was attempted.
func (g *Guard) ReleaseOnError(h *Handle) {
	g.mu.Lock()
	delete(g.active, h.key)
	g.mu.Unlock()
	h.lock.Unlock()
}

func (g *Guard) subjectRef(k Key) string { return k.Subject + "|" + k.Destination }

func (g *Guard) isTransmitted(k Key) bool {
	return g.countTransmitted(k) > 0
}

func (g *Guard) countTransmitted(k Key) int {
	n := 0
	for _, rec := range g.audit.BySubject(g.subjectRef(k)) {
		if rec.Kind == kindTransmitted && rec.Outcome == govaudit.OutcomeSuccess {
			n++
		}
	}
	return n
}

func (g *Guard) logBlocked(k Key, submitter, reason string) {
	_, _ = g.audit.Append(kindDuplicateBlocked, submitter, govaudit.OutcomeBlocked,
		[]string{k.Subject, k.Destination}, map[string]any{"reason": reason})
}

// SubjectRefFor returns the composite subject reference this guard uses
// to tag transmitted/blocked audit records for k, so callers writing the
// eventual transmitted record use the same reference the guard scans for.
func (g *Guard) SubjectRefFor(k Key) string { return g.subjectRef(k) }
