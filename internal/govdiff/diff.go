// Package govdiff computes the line-level diff between the content a
// human was shown during deliberation and the content they edited, for
// the Friction Gate's mandatory-edit step. Adapted from codeNERD's
// general-purpose diff engine onto a narrower contract: a single Summary
// call answering "did anything change, and how much."
package govdiff

import (
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summary is the edit-verification result the Friction Gate records: a
// boolean plus enough detail to justify it in an audit record.
type Summary struct {
	Changed      bool
	LinesAdded   int
	LinesRemoved int
}

// Engine computes diffs with caching across repeated (old, new) pairs,
// useful when the same original content is diffed against several
// candidate edits in sequence.
type Engine struct {
	dmp   *diffmatchpatch.DiffMatchPatch
	cache sync.Map
}

// NewEngine builds a diff engine tuned for accuracy over speed: timeouts
// are disabled so a large edit is never silently truncated mid-diff.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// DefaultEngine is a shared engine for callers that don't need isolated
// caches.
var DefaultEngine = NewEngine()

type cacheKey struct{ oldHash, newHash uint64 }

// Compute returns the Summary for oldContent -> newContent.
func (e *Engine) Compute(oldContent, newContent string) Summary {
	key := cacheKey{fnv1a(oldContent), fnv1a(newContent)}
	if cached, ok := e.cache.Load(key); ok {
		return cached.(Summary)
	}

	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	summary := Summary{}
	for _, d := range diffs {
		lines := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			summary.LinesAdded += lines
			summary.Changed = true
		case diffmatchpatch.DiffDelete:
			summary.LinesRemoved += lines
			summary.Changed = true
		}
	}

	e.cache.Store(key, summary)
	return summary
}

// Compute is a convenience call against DefaultEngine.
func Compute(oldContent, newContent string) Summary {
	return DefaultEngine.Compute(oldContent, newContent)
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return 1
	}
	return len(lines)
}

func fnv1a(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
