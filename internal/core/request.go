package core

import (
	"fmt"
	"regexp"
	"strings"
)

// RequestLimits bounds what an AnalysisRequest accepts.
type RequestLimits struct {
	MinQueryLength int
	MaxTargets     int
}

// DefaultRequestLimits returns the limits used when none are configured.
func DefaultRequestLimits() RequestLimits {
	return RequestLimits{MinQueryLength: 10, MaxTargets: 8}
}

// AnalysisRequest is the validated input of one analysis run.
type AnalysisRequest struct {
	query   string
	targets []string
}

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-.,!?()$%&@#:;/'"+]`)
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
)

// CleanInput strips control and unusual characters, collapses runs of
// blanks and caps the result at maxLen runes.
func CleanInput(s string, maxLen int) string {
	s = unsafeChars.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if maxLen > 0 {
		if r := []rune(s); len(r) > maxLen {
			s = strings.TrimSpace(string(r[:maxLen]))
		}
	}
	return s
}

// ParseTargets splits a comma-separated target list. Entries are trimmed,
// cleaned and deduplicated case-insensitively, keeping the first spelling
// and the input order. maxTargets <= 0 means no cap.
func ParseTargets(raw string, maxTargets int) []string {
	seen := make(map[string]bool)
	targets := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		t := CleanInput(part, MaxTargetLength)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		targets = append(targets, t)
		if maxTargets > 0 && len(targets) == maxTargets {
			break
		}
	}
	return targets
}

// NewAnalysisRequest validates the raw query and target list.
func NewAnalysisRequest(query, targets string, limits RequestLimits) (AnalysisRequest, error) {
	q := CleanInput(query, MaxQueryLength)
	if q == "" {
		return AnalysisRequest{}, ErrValidation(CodeEmptyQuery, "research query is required")
	}
	if len([]rune(q)) < limits.MinQueryLength {
		return AnalysisRequest{}, ErrValidation(CodeQueryTooShort,
			fmt.Sprintf("research query must be at least %d characters", limits.MinQueryLength)).
			WithDetail("length", len([]rune(q)))
	}
	return AnalysisRequest{query: q, targets: ParseTargets(targets, limits.MaxTargets)}, nil
}

// Query returns the cleaned research query.
func (r AnalysisRequest) Query() string {
	return r.query
}

// Targets returns a copy of the target entities.
func (r AnalysisRequest) Targets() []string {
	out := make([]string, len(r.targets))
	copy(out, r.targets)
	return out
}

// HasTargets reports whether any target entity was given.
func (r AnalysisRequest) HasTargets() bool {
	return len(r.targets) > 0
}

// TargetList joins the targets for display, or returns fallback when empty.
func (r AnalysisRequest) TargetList(fallback string) string {
	if len(r.targets) == 0 {
		return fallback
	}
	return strings.Join(r.targets, ", ")
}
