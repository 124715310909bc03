package logging

import (
	"regexp"
	"strings"
)

const redactedMarker = "[REDACTED]"

// credentialPatterns match provider keys and generic secrets. The Anthropic
// pattern precedes the OpenAI one because both start with "sk-".
var credentialPatterns = []string{
	`sk-ant-[a-zA-Z0-9_-]{40,}`,
	`sk-(?:proj-)?[A-Za-z0-9_-]{20,}`,
	`gsk_[A-Za-z0-9]{20,}`,
	`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
	`(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{15,}`,
	`(?i)secret["'\s:=]+[a-zA-Z0-9_-]{20,}`,
}

// Sanitizer redacts credentials from log output: anything matching a known
// key format plus literal values registered with AddSecret.
type Sanitizer struct {
	patterns []*regexp.Regexp
	secrets  []string
}

// NewSanitizer creates a sanitizer with the built-in credential patterns.
func NewSanitizer() *Sanitizer {
	s := &Sanitizer{patterns: make([]*regexp.Regexp, 0, len(credentialPatterns))}
	for _, p := range credentialPatterns {
		s.patterns = append(s.patterns, regexp.MustCompile(p))
	}
	return s
}

// Sanitize returns input with every credential replaced by [REDACTED].
func (s *Sanitizer) Sanitize(input string) string {
	out := input
	for _, secret := range s.secrets {
		out = strings.ReplaceAll(out, secret, redactedMarker)
	}
	for _, re := range s.patterns {
		out = re.ReplaceAllString(out, redactedMarker)
	}
	return out
}

// AddPattern registers an extra credential pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}

// AddSecret registers a literal value, such as the configured API key, to
// redact wherever it appears. Values shorter than 8 characters are ignored
// so that short common words are never masked.
func (s *Sanitizer) AddSecret(value string) {
	value = strings.TrimSpace(value)
	if len(value) < 8 {
		return
	}
	s.secrets = append(s.secrets, value)
}
