// Package govboundary implements C2, the static and runtime Boundary
// Guard: per-phase forbidden imports, forbidden action names, and
// read-only phase adjacency. A Guard holds only configuration — every
// check is a pure function of that configuration, never of call history.
package govboundary

import (
	"strings"

	"codenerd/internal/goverrors"
)

// networkImports are permanently forbidden to any phase that declares
// them — these are the libraries that would let a phase reach the
// network directly instead of going through the governed pipeline.
var networkImports = []string{
	"net/http", "net", "crypto/tls",
	"github.com/go-resty/resty", "google.golang.org/grpc",
}

// automationImports are permanently forbidden — browser and input
// automation libraries a phase could use to act without going through
// C8. go-rod is named here specifically because the governance core
// must never import it itself; reference_driver is the one sanctioned
// exception, gated behind every caller-supplied PolicyCheck.
var automationImports = []string{
	"github.com/go-rod/rod", "github.com/go-rod/rod/lib/launcher",
	"github.com/chromedp/chromedp", "github.com/playwright-community/playwright-go",
	"github.com/go-vgo/robotgo",
}

// PhaseConfig is one phase's slice of boundary configuration (§4.2).
type PhaseConfig struct {
	Phase            string
	ForbiddenImports []string // additional, phase-specific forbidden imports
	ForbiddenActions []string // additional, phase-specific forbidden action names/prefixes
	ReadOnlyPhases   []string // other phases this phase may not write to
}

// Guard is a static, stateless (modulo configuration) boundary checker
// for one phase.
type Guard struct {
	phase            string
	forbiddenImports map[string]bool
	forbiddenActions map[string]bool
	readOnlyPhases   map[string]bool
}

// defaultForbiddenActions are permanently disabled regardless of phase
// configuration: the core forbids automated judgement outright (§1).
var defaultForbiddenActions = []string{
	"classify_vulnerability", "assign_severity", "compute_confidence",
	"generate_proof", "auto_submit", "auto_approve", "auto_confirm",
	"infer_decision", "suggest_decision", "recommend_action",
	"bypass_deliberation", "bypass_edit", "bypass_challenge",
	"bypass_cooldown", "bypass_audit", "bypass_friction",
	"disable_friction", "reduce_friction", "skip_friction",
}

var writeVerbs = []string{
	"delete", "update", "insert", "modify", "set", "post", "patch",
	"append", "clear", "reset", "save", "create", "put", "remove", "add",
}

// New builds a Guard for one phase from its PhaseConfig, merging in the
// permanent forbidden sets that apply regardless of configuration.
func New(cfg PhaseConfig) *Guard {
	g := &Guard{
		phase:            cfg.Phase,
		forbiddenImports: toSet(networkImports, automationImports, cfg.ForbiddenImports),
		forbiddenActions: toSet(defaultForbiddenActions, cfg.ForbiddenActions),
		readOnlyPhases:   toSet(cfg.ReadOnlyPhases),
	}
	return g
}

func toSet(lists ...[]string) map[string]bool {
	out := make(map[string]bool)
	for _, list := range lists {
		for _, v := range list {
			out[strings.ToLower(v)] = true
		}
	}
	return out
}

func (g *Guard) isNetworkImport(name string) bool {
	for _, n := range networkImports {
		if n == name || strings.HasPrefix(name, n+"/") {
			return true
		}
	}
	return false
}

func (g *Guard) isAutomationImport(name string) bool {
	for _, n := range automationImports {
		if n == name || strings.HasPrefix(name, n+"/") {
			return true
		}
	}
	return false
}

// CheckImport validates a single import path against this phase's
// forbidden-import set, raising the narrowest applicable taxonomy error
// (§4.2a). It covers exact names and submodules of a forbidden package.
func (g *Guard) CheckImport(importPath string) error {
	name := strings.ToLower(importPath)
	if g.forbiddenImports[name] || g.isSubmoduleOfForbidden(name) {
		switch {
		case g.isNetworkImport(importPath):
			return goverrors.NewPolicy(goverrors.ReasonNetworkAttempt, "phase %q: forbidden network import %q", g.phase, importPath)
		case g.isAutomationImport(importPath):
			return goverrors.NewPolicy(goverrors.ReasonAutomationAttempt, "phase %q: forbidden automation import %q", g.phase, importPath)
		default:
			return goverrors.NewPolicy(goverrors.ReasonGenericBoundaryViolation, "phase %q: forbidden import %q", g.phase, importPath)
		}
	}
	return nil
}

func (g *Guard) isSubmoduleOfForbidden(name string) bool {
	for forbidden := range g.forbiddenImports {
		if strings.HasPrefix(name, forbidden+"/") {
			return true
		}
	}
	return false
}

// ValidateAllImports re-checks every configured forbidden import against
// the supplied snapshot of imports currently loaded in the process
// (e.g. a build-info dump), the runtime counterpart to a static scan.
func (g *Guard) ValidateAllImports(loadedImports []string) error {
	for _, imp := range loadedImports {
		if err := g.CheckImport(imp); err != nil {
			return err
		}
	}
	return nil
}

// CheckAction validates an operation name against this phase's forbidden
// action set, matching both exact names and substrings (§4.2b), e.g. any
// name starting with "auto_" is an automation attempt.
func (g *Guard) CheckAction(name string) error {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "auto_") {
		return goverrors.NewPolicy(goverrors.ReasonAutomationAttempt, "phase %q: automation-prefixed action %q", g.phase, name)
	}
	for forbidden := range g.forbiddenActions {
		if lower == forbidden || strings.Contains(lower, forbidden) {
			if strings.HasPrefix(forbidden, "bypass") || isFrictionDisable(forbidden) {
				return goverrors.NewPolicy(goverrors.ReasonGenericBoundaryViolation, "phase %q: friction-bypass action %q", g.phase, name)
			}
			return goverrors.NewPolicy(goverrors.ReasonAutomationAttempt, "phase %q: forbidden action %q", g.phase, name)
		}
	}
	return nil
}

func isFrictionDisable(s string) bool {
	switch s {
	case "disable_friction", "reduce_friction", "skip_friction":
		return true
	}
	return false
}

// CheckWrite validates that an operation is not a write verb directed at
// a phase this Guard's phase may only read (§4.2c).
func (g *Guard) CheckWrite(targetPhase, opName string) error {
	if !g.readOnlyPhases[normalizePhase(targetPhase)] && !g.matchesReadOnly(targetPhase) {
		return nil
	}
	lower := strings.ToLower(opName)
	for _, verb := range writeVerbs {
		if strings.Contains(lower, verb) {
			return goverrors.NewPolicy(goverrors.ReasonReadOnlyViolation, "phase %q: write op %q against read-only phase %q", g.phase, opName, targetPhase)
		}
	}
	return nil
}

func normalizePhase(p string) string {
	p = strings.ToLower(p)
	p = strings.ReplaceAll(p, " ", "-")
	p = strings.ReplaceAll(p, "_", "-")
	return p
}

func (g *Guard) matchesReadOnly(targetPhase string) bool {
	norm := normalizePhase(targetPhase)
	for ro := range g.readOnlyPhases {
		roNorm := normalizePhase(ro)
		if norm == roNorm || strings.Contains(norm, roNorm) || strings.Contains(roNorm, norm) {
			return true
		}
	}
	return false
}
