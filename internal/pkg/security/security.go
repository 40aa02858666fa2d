// Package security checks what gitcamus is about to send to a hosted backend.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// APIKeyFormat defines the expected key shape per hosted backend.
var APIKeyFormat = map[string]*regexp.Regexp{
	"anthropic": regexp.MustCompile(`^sk-ant-[a-zA-Z0-9_\-]{20,}$`),
	"openai":    regexp.MustCompile(`^sk-[a-zA-Z0-9_\-]{20,}$`),
	"ollama":    nil,
}

// ValidateAPIKeyFormat reports a key that does not look like one issued by
// the backend. Gateways and proxies may use other formats, so callers treat
// the result as a warning.
func ValidateAPIKeyFormat(backend, apiKey string) error {
	pattern, ok := APIKeyFormat[backend]
	if !ok || pattern == nil || apiKey == "" {
		return nil
	}
	if !pattern.MatchString(apiKey) {
		return fmt.Errorf("API key format looks unusual for %s", backend)
	}
	return nil
}

// Finding is one likely secret on an added diff line.
type Finding struct {
	Kind string
	// Line is the 1-based line number within the diff.
	Line int
}

func (f Finding) String() string {
	return fmt.Sprintf("%s on diff line %d", f.Kind, f.Line)
}

var secretPatterns = []struct {
	kind  string
	regex *regexp.Regexp
}{
	{"API key", regexp.MustCompile(`sk-(ant-)?[a-zA-Z0-9_\-]{20,}`)},
	{"AWS access key", regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{"private key", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)},
	{"bearer token", regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._\-]{20,}`)},
	{"password assignment", regexp.MustCompile(`(?i)(password|passwd|secret[_-]?key|api[_-]?key)\s*[:=]\s*["'][^"'\s]{8,}["']`)},
}

// ScanDiff returns likely secrets introduced by a diff. Only added lines are
// inspected; removing a secret is not a leak.
func ScanDiff(diff string) []Finding {
	var findings []Finding
	for i, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		for _, p := range secretPatterns {
			if p.regex.MatchString(line) {
				findings = append(findings, Finding{Kind: p.kind, Line: i + 1})
				break
			}
		}
	}
	return findings
}

// IsHosted reports whether the backend sends data off the machine by default.
func IsHosted(backend string) bool {
	return backend != "" && backend != "ollama"
}
