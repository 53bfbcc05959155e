package allowlist

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrBadPattern is returned when an allowlist regex does not compile.
// This is a configuration error and fatal to the run.
var ErrBadPattern = errors.New("allowlist pattern does not compile")

// Rule is a single allowlist entry. Overlapping rules all mean "allowed",
// so correctness does not depend on evaluation order.
//
// Design decision: literal and regex rules share one interface rather than
// being handled by parallel code paths. The Allowlist still stores them in
// disjoint structures so literal lookups stay O(1) while regex evaluation,
// the expensive path, is ordered last.
type Rule interface {
	// Matches reports whether the rule allows the given URL.
	Matches(url string) bool

	// String returns the rule's source text.
	String() string
}

// Literal is an exact-match rule.
type Literal string

// Matches reports whether u equals the literal exactly.
func (l Literal) Matches(u string) bool { return string(l) == u }

// String returns the literal URL.
func (l Literal) String() string { return string(l) }

// Pattern is a compiled regex rule. The pattern is anchored at the start of
// the URL, so "https://example\.org/" allows any URL beneath that prefix.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// CompilePattern compiles a raw pattern into a Pattern rule.
func CompilePattern(raw string) (Pattern, error) {
	re, err := regexp.Compile("^(?:" + raw + ")")
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %q: %v", ErrBadPattern, raw, err)
	}
	return Pattern{raw: raw, re: re}, nil
}

// Matches reports whether the pattern matches at the start of u.
func (p Pattern) Matches(u string) bool { return p.re.MatchString(u) }

// String returns the pattern source text.
func (p Pattern) String() string { return p.raw }

// Allowlist is the loaded rule set for one scanned hostname.
type Allowlist struct {
	// hostname is the scanned site's host, implicitly allowed unless the
	// host scope is disabled.
	hostname string

	// literals holds exact-match rules for O(1) lookup.
	literals map[string]struct{}

	// patterns holds compiled regex rules, scanned linearly after the
	// literal lookup misses.
	patterns []Pattern

	// hostScopeDisabled turns off the implicit own-domain allowance. Used
	// when testing a non-production origin whose absolute links still
	// point at the production domain: those links should be judged by the
	// explicit rules, not waved through.
	hostScopeDisabled bool
}

// Option configures an Allowlist.
type Option func(*Allowlist)

// WithoutHostScope disables the implicit allowance of the scanned site's
// own domain.
func WithoutHostScope() Option {
	return func(a *Allowlist) {
		a.hostScopeDisabled = true
	}
}

// New builds an Allowlist from already-prepared rules. Load is the usual
// entry point; New exists for tests and programmatic construction.
func New(hostname string, literals []string, patterns []Pattern, opts ...Option) *Allowlist {
	a := &Allowlist{
		hostname: hostname,
		literals: make(map[string]struct{}, len(literals)),
		patterns: patterns,
	}
	for _, l := range literals {
		a.literals[l] = struct{}{}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// document is the YAML shape of an allowlist file.
type document struct {
	RelevantHostnames []string `yaml:"relevant_hostnames"`
	Literals          []string `yaml:"allowed_outbound_url_literals"`
	Regexes           []string `yaml:"allowed_outbound_url_regexes"`
}

// Load reads the allowlist document at path and prepares it for the given
// hostname. Patterns are compiled once here; a pattern that does not compile
// fails the load.
//
// If hostname is not listed under relevant_hostnames, the rule set degrades
// to empty and every outbound URL will be reported as unexpected. The
// caller is expected to log this.
func Load(path, hostname string, opts ...Option) (*Allowlist, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read allowlist %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse allowlist %s: %w", path, err)
	}

	if !hostnameRelevant(doc.RelevantHostnames, hostname) {
		return New(hostname, nil, nil, opts...), nil
	}

	patterns := make([]Pattern, 0, len(doc.Regexes))
	for _, raw := range doc.Regexes {
		p, err := CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	return New(hostname, doc.Literals, patterns, opts...), nil
}

// hostnameRelevant reports whether hostname appears in the document's
// relevant_hostnames list.
func hostnameRelevant(hostnames []string, hostname string) bool {
	for _, h := range hostnames {
		if h == hostname {
			return true
		}
	}
	return false
}

// Hostname returns the scanned site's host.
func (a *Allowlist) Hostname() string { return a.hostname }

// Empty reports whether the allowlist carries no explicit rules.
func (a *Allowlist) Empty() bool {
	return len(a.literals) == 0 && len(a.patterns) == 0
}

// IsExpected reports whether url is an accepted outbound destination.
//
// Decision order: exact literal match first (cheap), then the regex rules,
// then the implicit own-domain check. Hrefs that contain raw line breaks
// are matched against the allowlist with the breaks escaped, mirroring how
// such entries end up written into allowlist files.
func (a *Allowlist) IsExpected(rawURL string) bool {
	lookup := rawURL
	if strings.Contains(lookup, "\n") {
		lookup = strings.ReplaceAll(lookup, "\n", "\\n")
	}

	if _, ok := a.literals[lookup]; ok {
		return true
	}

	for _, p := range a.patterns {
		if p.Matches(rawURL) {
			return true
		}
	}

	if !a.hostScopeDisabled && a.hostname != "" {
		if u, err := url.Parse(rawURL); err == nil && strings.EqualFold(u.Host, a.hostname) {
			return true
		}
	}

	return false
}
