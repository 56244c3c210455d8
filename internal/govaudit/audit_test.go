package govaudit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codenerd/internal/goverrors"
	"codenerd/internal/govhash"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAppendChainsRecords(t *testing.T) {
	log := New("test", nil)

	r1, err := log.Append("deliberation_started", "actor-1", OutcomeSuccess, []string{"subject-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, govhash.GenesisHash, r1.PreviousHash)

	r2, err := log.Append("deliberation_ended", "actor-1", OutcomeSuccess, []string{"subject-1"}, map[string]any{"elapsed_seconds": 5.2})
	require.NoError(t, err)
	assert.Equal(t, r1.RecordHash, r2.PreviousHash)

	require.NoError(t, log.VerifyChain())
	assert.Equal(t, 2, log.Length())
}

func TestAppendNeverExposesMutators(t *testing.T) {
	// Structural check: Log's only exported methods are read/append, not
	// delete/update/truncate/clear. This documents the invariant rather
	// than enforcing it at runtime, since there is nothing to call.
	log := New("test", nil)
	_, _ = log.Append("k", "a", OutcomeSuccess, nil, nil)
	assert.Equal(t, 1, log.Length())
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	log := New("test", nil)
	_, err := log.Append("k1", "actor", OutcomeSuccess, nil, nil)
	require.NoError(t, err)
	_, err = log.Append("k2", "actor", OutcomeSuccess, nil, nil)
	require.NoError(t, err)

	log.records[0].Outcome = OutcomeBlocked // tamper directly, bypassing Append

	err = log.VerifyChain()
	require.Error(t, err)
	ge, ok := err.(*goverrors.GovError)
	require.True(t, ok)
	assert.True(t, ge.HardStop())
	assert.Equal(t, goverrors.ReasonAuditIntegrityFailure, ge.Reason())
}

func TestWriteCallbackFailureIsHardStopAndNotAppended(t *testing.T) {
	log := New("test", func(Record) error { return errors.New("disk full") })

	_, err := log.Append("k", "actor", OutcomeSuccess, nil, nil)
	require.Error(t, err)
	ge, ok := err.(*goverrors.GovError)
	require.True(t, ok)
	assert.True(t, ge.HardStop())
	assert.Equal(t, goverrors.ReasonAuditFailure, ge.Reason())
	assert.Equal(t, 0, log.Length())
}

func TestMonotonicTimestampNeverRegresses(t *testing.T) {
	log := New("test", nil)
	log.lastWall = time.Now().UTC().Add(time.Hour) // simulate a future wall clock

	r, err := log.Append("k", "actor", OutcomeSuccess, nil, nil)
	require.NoError(t, err)
	assert.True(t, r.Timestamp.After(time.Now().UTC()))
}

func TestBySubjectByActorByKind(t *testing.T) {
	log := New("test", nil)
	_, _ = log.Append("kind-a", "actor-1", OutcomeSuccess, []string{"s1"}, nil)
	_, _ = log.Append("kind-b", "actor-2", OutcomeSuccess, []string{"s2"}, nil)
	_, _ = log.Append("kind-a", "actor-1", OutcomeSuccess, []string{"s1", "s2"}, nil)

	assert.Len(t, log.BySubject("s1"), 2)
	assert.Len(t, log.BySubject("s2"), 2)
	assert.Len(t, log.ByActor("actor-2"), 1)
	assert.Len(t, log.ByKind("kind-a"), 2)
}

func TestExportForComplianceOrdersAndHashes(t *testing.T) {
	log := New("test", nil)
	start := time.Now().UTC().Add(-time.Minute)
	_, _ = log.Append("k1", "actor", OutcomeSuccess, nil, nil)
	_, _ = log.Append("k2", "actor", OutcomeSuccess, nil, nil)
	end := time.Now().UTC().Add(time.Minute)

	exp, err := log.ExportForCompliance(start, end)
	require.NoError(t, err)
	assert.True(t, exp.ChainVerified)
	assert.Equal(t, 2, exp.RecordCount)
	assert.NotEmpty(t, exp.ExportHash)
}

func TestJSONLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)

	log := New("test", JSONLWriteCallback(f))
	_, err = log.Append("k1", "actor", OutcomeSuccess, []string{"s1"}, map[string]any{"n": 1})
	require.NoError(t, err)
	_, err = log.Append("k2", "actor", OutcomeSuccess, []string{"s1"}, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	loaded, err := LoadJSONL(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.NoError(t, VerifyRecords(loaded))
	assert.Equal(t, "k1", loaded[0].Kind)
	assert.Equal(t, "k2", loaded[1].Kind)

	// Every field but Details round-trips exactly; Details is excluded
	// because JSON numbers come back as float64 regardless of what was
	// appended.
	if diff := cmp.Diff(log.records, loaded, cmpopts.IgnoreFields(Record{}, "Details")); diff != "" {
		t.Errorf("JSONL round trip mismatch (-appended +loaded):\n%s", diff)
	}
}

func TestVerifyRecordsDetectsBrokenChain(t *testing.T) {
	log := New("test", nil)
	_, _ = log.Append("k1", "actor", OutcomeSuccess, nil, nil)
	_, _ = log.Append("k2", "actor", OutcomeSuccess, nil, nil)

	records := append([]Record(nil), log.records...)
	records[1].PreviousHash = "not-the-real-hash"

	err := VerifyRecords(records)
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonAuditIntegrityFailure, err.(*goverrors.GovError).Reason())
}

