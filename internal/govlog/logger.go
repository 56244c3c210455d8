// Package govlog provides category-scoped structured logging for the
// governance core, adapted from codeNERD's internal/logging category
// system onto a zap backend. SecurityAlert additionally writes a stderr
// line with a stable prefix so operators can grep for governance-critical
// events (§7); ordinary category records are not mirrored to stderr.
package govlog

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies which governance subsystem emitted a log record.
type Category string

const (
	CategoryBoundary   Category = "boundary"
	CategoryToken      Category = "token"
	CategoryAudit      Category = "audit"
	CategoryFriction   Category = "friction"
	CategoryDuplicate  Category = "duplicate"
	CategorySubmission Category = "submission"
	CategoryAdvisor    Category = "advisor"
	CategoryThrottle   Category = "throttle"
	CategoryScope      Category = "scope"
)

// SecurityAlertPrefix is emitted to stderr ahead of any security-relevant
// error per §7 ("additionally emitted to a standard-error stream with a
// prefix identifier so operators can detect them in logs").
const SecurityAlertPrefix = "SECURITY_ALERT:"

var (
	mu      sync.Mutex
	base    *zap.Logger
	stderrW = os.Stderr
)

// Init installs the process-wide zap logger. debug selects development
// (console, debug level) vs. production (JSON, info level) encoding.
func Init(debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("govlog: build logger: %w", err)
	}
	base = l
	return nil
}

func logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base = zap.NewNop()
	}
	return base
}

// For returns a logger scoped to a category, with the category attached
// as a structured field on every record.
func For(cat Category) *zap.Logger {
	return logger().With(zap.String("category", string(cat)))
}

// SecurityAlert logs at error level through the category logger AND
// writes a stderr line prefixed with SecurityAlertPrefix, for the
// tampering / replay / boundary class of errors that operators must be
// able to detect purely by grepping stderr, independent of whatever log
// sink is configured.
func SecurityAlert(cat Category, reason, detail string) {
	For(cat).Error("security alert", zap.String("reason", reason), zap.String("detail", detail))
	fmt.Fprintf(stderrW, "%s reason=%s detail=%s\n", SecurityAlertPrefix, reason, detail)
}

// Sync flushes any buffered log entries; callers should defer this at
// process exit the way zap's own examples do.
func Sync() {
	_ = logger().Sync()
}
