// Package govscope implements the Scope/Attestation entity and C10, the
// Domain Allow-List check for side effects with a network-reachable
// destination. It is a standalone check: the submission pipeline in
// govpipeline does not call it. Grounded on the original domain
// allow-list: exact-match and wildcard-suffix rules, IP-literal and
// internal-range rejection, and escape-attempt detection, all fail-closed
// and non-mutating.
package govscope

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ipv4Pattern   = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	escapePatterns = []*regexp.Regexp{
		regexp.MustCompile(`@`),
		regexp.MustCompile(`\\`),
		regexp.MustCompile(`%[0-9a-fA-F]{2}`),
		regexp.MustCompile("\x00"),
	}
	blockedDomains = map[string]bool{
		"localhost":              true,
		"localhost.localdomain": true,
		"127.0.0.1":              true,
		"0.0.0.0":                true,
		"::1":                    true,
		"[::1]":                 true,
	}
)

// Attestation is a human-produced, expiring declaration that a set of
// subjects is within authorized scope for a given side effect.
type Attestation struct {
	AuthorizedSubjects []string
	ExcludedSubjects   []string
	AttesterID         string
	AttestedAt         time.Time
	ExpiresAt          time.Time
}

// IsExpired reports whether now is at or past this attestation's expiry.
// Expiry is absolute: there is no grace period and no renewal method.
func (a Attestation) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// Covers reports whether subject is within scope: present in (or matched
// by a wildcard-suffix pattern in) AuthorizedSubjects and absent from
// ExcludedSubjects. Exclusion always wins over a matching inclusion.
func (a Attestation) Covers(subject string) bool {
	for _, excluded := range a.ExcludedSubjects {
		if matchesPattern(excluded, subject) {
			return false
		}
	}
	for _, authorized := range a.AuthorizedSubjects {
		if matchesPattern(authorized, subject) {
			return true
		}
	}
	return false
}

func matchesPattern(pattern, subject string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	subject = strings.ToLower(strings.TrimSpace(subject))
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:]
		return strings.HasSuffix(subject, suffix) && subject != suffix[1:]
	}
	return pattern == subject
}

// CheckResult is the audit-ready outcome of a domain check.
type CheckResult struct {
	Allowed   bool
	Reason    string
	Domain    string
	Timestamp time.Time
}

// AllowList enforces exact-match and wildcard-suffix domain rules. It
// never mutates a domain before deciding and never retries a check.
type AllowList struct {
	exact    map[string]bool
	wildcard map[string]bool
}

// NewAllowList builds an allow-list from a policy's allowed-domains list.
// A "*.example.com" entry is a wildcard-subdomain rule; anything else is
// matched exactly.
func NewAllowList(allowedDomains []string) *AllowList {
	al := &AllowList{exact: make(map[string]bool), wildcard: make(map[string]bool)}
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if strings.HasPrefix(d, "*.") {
			al.wildcard[d[1:]] = true
		} else {
			al.exact[d] = true
		}
	}
	return al
}

// Check decides whether domain may be used as a side effect's
// destination. Fail-closed: an empty domain, an escape attempt, an IP
// literal, a reserved domain, or anything not matched by a rule is
// blocked.
func (al *AllowList) Check(domain string) CheckResult {
	now := time.Now().UTC()
	if domain == "" {
		return CheckResult{Allowed: false, Reason: "empty domain - blocked", Domain: "<empty>", Timestamp: now}
	}

	lower := strings.ToLower(strings.TrimSpace(domain))

	for _, p := range escapePatterns {
		if p.MatchString(lower) {
			return CheckResult{Allowed: false, Reason: "escape attempt detected in domain - blocked", Domain: domain, Timestamp: now}
		}
	}

	if reason, blocked := checkIPLiteral(lower); blocked {
		return CheckResult{Allowed: false, Reason: reason, Domain: domain, Timestamp: now}
	}

	if blockedDomains[lower] {
		return CheckResult{Allowed: false, Reason: "domain is blocked (reserved)", Domain: domain, Timestamp: now}
	}

	if al.exact[lower] {
		return CheckResult{Allowed: true, Reason: "allowed (exact match)", Domain: domain, Timestamp: now}
	}

	for suffix := range al.wildcard {
		if strings.HasSuffix(lower, suffix) && lower != suffix[1:] {
			return CheckResult{Allowed: true, Reason: "allowed (wildcard match: *" + suffix + ")", Domain: domain, Timestamp: now}
		}
	}

	return CheckResult{Allowed: false, Reason: "domain not in allow-list", Domain: domain, Timestamp: now}
}

// CheckURL extracts the host from a URL (stripping port and userinfo)
// and checks it.
func (al *AllowList) CheckURL(raw string) CheckResult {
	now := time.Now().UTC()
	if raw == "" {
		return CheckResult{Allowed: false, Reason: "empty URL - blocked", Domain: "<empty>", Timestamp: now}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return CheckResult{Allowed: false, Reason: "malformed URL - blocked", Domain: raw, Timestamp: now}
	}
	host := u.Host
	if at := strings.LastIndex(host, "@"); at != -1 {
		host = host[at+1:]
	}
	if colon := strings.Index(host, ":"); colon != -1 {
		host = host[:colon]
	}
	return al.Check(host)
}

func checkIPLiteral(domain string) (string, bool) {
	if ipv4Pattern.MatchString(domain) {
		return "IP literal not allowed - use domain names", true
	}
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		return "IPv6 literal not allowed - use domain names", true
	}
	if isInternalIPv4(domain) {
		return "internal IP not allowed", true
	}
	return "", false
}

func isInternalIPv4(domain string) bool {
	if !ipv4Pattern.MatchString(domain) {
		return false
	}
	parts := strings.Split(domain, ".")
	if len(parts) != 4 {
		return false
	}
	nums := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return false
		}
		nums[i] = n
	}
	switch {
	case nums[0] == 10:
		return true
	case nums[0] == 172 && nums[1] >= 16 && nums[1] <= 31:
		return true
	case nums[0] == 192 && nums[1] == 168:
		return true
	case nums[0] == 127:
		return true
	default:
		return false
	}
}
