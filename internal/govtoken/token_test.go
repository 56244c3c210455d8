package govtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/goverrors"
)

func op(target string) Operation {
	return Operation{Kind: "submit_report", Target: target, Params: map[string]any{"severity": "high"}}
}

func TestGenerateAndMatchOperation(t *testing.T) {
	o := op("target.example.com")
	tok := Generate("reviewer-1", o, time.Minute)
	assert.True(t, tok.MatchesOperation(o))
	assert.False(t, tok.MatchesOperation(op("other.example.com")))
}

func TestGenerateBatchOrderMatters(t *testing.T) {
	ops := []Operation{op("a.example.com"), op("b.example.com")}
	tok := GenerateBatch("reviewer-1", ops, time.Minute)

	assert.True(t, tok.MatchesBatch(ops))
	assert.False(t, tok.MatchesBatch([]Operation{ops[1], ops[0]}))
	assert.False(t, tok.MatchesBatch([]Operation{ops[0]}))
}

func TestIsExpired(t *testing.T) {
	tok := Generate("reviewer-1", op("t"), time.Minute)
	assert.False(t, tok.IsExpired(time.Now().UTC()))
	assert.True(t, tok.IsExpired(tok.ExpiresAt.Add(time.Second)))
	assert.True(t, tok.IsExpired(tok.ExpiresAt))
}

func TestBatchTokenNeverMatchesSingleOperation(t *testing.T) {
	o := op("t")
	batch := GenerateBatch("reviewer-1", []Operation{o}, time.Minute)
	assert.False(t, batch.MatchesOperation(o))
}

func TestRegistryValidateRejectsMismatch(t *testing.T) {
	reg := NewRegistry()
	tok := Generate("reviewer-1", op("t1"), time.Minute)

	err := reg.Validate(tok, op("t2"), time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonTokenMismatch, err.(*goverrors.GovError).Reason())
}

func TestRegistryValidateRejectsExpired(t *testing.T) {
	reg := NewRegistry()
	o := op("t1")
	tok := Generate("reviewer-1", o, -time.Second)

	err := reg.Validate(tok, o, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonTokenExpired, err.(*goverrors.GovError).Reason())
}

func TestRegistryValidateThenInvalidatePreventsReplay(t *testing.T) {
	reg := NewRegistry()
	o := op("t1")
	tok := Generate("reviewer-1", o, time.Minute)

	require.NoError(t, reg.Validate(tok, o, time.Now().UTC()))
	reg.Invalidate(tok)
	assert.True(t, reg.IsConsumed(tok.ID))

	err := reg.Validate(tok, o, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonTokenAlreadyUsed, err.(*goverrors.GovError).Reason())
}

func TestRegistryInvalidateIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	tok := Generate("reviewer-1", op("t1"), time.Minute)
	reg.Invalidate(tok)
	reg.Invalidate(tok)
	assert.True(t, reg.IsConsumed(tok.ID))
}

func TestRegistryValidateBatch(t *testing.T) {
	reg := NewRegistry()
	ops := []Operation{op("a"), op("b")}
	tok := GenerateBatch("reviewer-1", ops, time.Minute)

	require.NoError(t, reg.ValidateBatch(tok, ops, time.Now().UTC()))
	err := reg.ValidateBatch(tok, []Operation{ops[1], ops[0]}, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, goverrors.ReasonTokenMismatch, err.(*goverrors.GovError).Reason())
}

func TestContentHashBoundNotName(t *testing.T) {
	a := Operation{Kind: "submit_report", Target: "x", Params: map[string]any{"a": 1}}
	b := Operation{Kind: "submit_report", Target: "x", Params: map[string]any{"a": 2}}
	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
}
