package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/govtoken"
)

func TestTokenInspectPrintsFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	tok := govtoken.Generate("reviewer-1", govtoken.Operation{Kind: "submit_report", Target: "t"}, time.Minute)
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	err = tokenInspectCmd.RunE(tokenInspectCmd, []string{path})
	require.NoError(t, w.Close())
	os.Stdout = old
	require.NoError(t, err)

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	out := buf.String()
	assert.Contains(t, out, tok.ID)
	assert.Contains(t, out, "reviewer-1")
	assert.Contains(t, out, "expired:      false")
}

func TestTokenInspectMissingFile(t *testing.T) {
	err := tokenInspectCmd.RunE(tokenInspectCmd, []string{"/nonexistent/path.json"})
	assert.Error(t, err)
}
