// Package govconfig loads the governance Policy Configuration document
// the way codeNERD loads its own .nerd/config.json — a single YAML
// document read once at startup, with hard floors clamped rather than
// rejected.
package govconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Hard floors per §4.6 — configuration can only raise these, never lower them.
const (
	HardMinDeliberation = 5 * time.Second
	HardMinCooldown     = 3 * time.Second
)

// MinDecisionsForAnalysisDefault is C7's cold-start floor (§4.7).
const MinDecisionsForAnalysisDefault = 5

// PhaseBoundary describes one phase's slice of the Boundary Guard
// configuration (§4.2).
type PhaseBoundary struct {
	Phase            string   `yaml:"phase"`
	ForbiddenImports []string `yaml:"forbidden_imports"`
	ForbiddenActions []string `yaml:"forbidden_actions"`
	ReadOnlyPhases   []string `yaml:"read_only_phases"`
}

// Policy is the fully parsed Policy Configuration document.
type Policy struct {
	AuthorizedSubjects []string        `yaml:"authorized_subjects"`
	ExcludedSubjects   []string        `yaml:"excluded_subjects"`
	AttestationValidity time.Duration  `yaml:"attestation_validity"`
	MinDeliberation    time.Duration   `yaml:"min_deliberation"`
	MinCooldown        time.Duration   `yaml:"min_cooldown"`
	MinDecisionsForAnalysis int        `yaml:"min_decisions_for_analysis"`
	Boundaries         []PhaseBoundary `yaml:"boundaries"`
	AllowedDomains     []string        `yaml:"allowed_domains"`
}

// Default returns a Policy with every floor set to its hard minimum and
// no subjects authorized — the safe, deny-by-default starting point.
func Default() Policy {
	return Policy{
		MinDeliberation:         HardMinDeliberation,
		MinCooldown:             HardMinCooldown,
		MinDecisionsForAnalysis: MinDecisionsForAnalysisDefault,
	}
}

// Load reads and parses a Policy Configuration document from path,
// clamping any configured friction minimum that is below the hard floor
// instead of rejecting it (§4.6: "any attempt to configure below the
// hard-minimum silently clamps to the hard-minimum").
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("govconfig: read %s: %w", path, err)
	}
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("govconfig: parse %s: %w", path, err)
	}
	p.clamp()
	return p, nil
}

func (p *Policy) clamp() {
	if p.MinDeliberation < HardMinDeliberation {
		p.MinDeliberation = HardMinDeliberation
	}
	if p.MinCooldown < HardMinCooldown {
		p.MinCooldown = HardMinCooldown
	}
	if p.MinDecisionsForAnalysis <= 0 {
		p.MinDecisionsForAnalysis = MinDecisionsForAnalysisDefault
	}
}
