package pipeline

import (
	"regexp"
	"strings"
)

// MaxRecommendations caps how many recommendations are extracted.
const MaxRecommendations = 8

var (
	numberedItem = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
	bulletItem   = regexp.MustCompile(`^[-*•]\s*(.+)$`)
	boldNumber   = regexp.MustCompile(`^\*\*\d+[.)]?\*\*[.)]?\s*(.+)$`)
)

// actionVerbs mark a free-text line as a recommendation when no list
// structure was found.
var actionVerbs = []string{
	"develop", "implement", "establish", "create", "invest",
	"expand", "focus", "prioritize", "enhance", "strengthen",
}

// ParseRecommendations extracts recommendation items from text. Numbered
// and bulleted lines longer than 20 characters are taken first; when that
// yields fewer than 4 items, lines containing an action verb are added.
// At most MaxRecommendations items are returned.
func ParseRecommendations(text string) []string {
	lines := strings.Split(text, "\n")
	var recs []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		recs = append(recs, s)
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, re := range []*regexp.Regexp{boldNumber, numberedItem, bulletItem} {
			if m := re.FindStringSubmatch(line); m != nil {
				if item := strings.TrimSpace(m[1]); len(item) > 20 {
					add(item)
				}
				break
			}
		}
	}

	if len(recs) < 4 {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if len(line) <= 25 || len(line) >= 300 || strings.HasPrefix(line, "#") {
				continue
			}
			lower := strings.ToLower(line)
			for _, verb := range actionVerbs {
				if strings.Contains(lower, verb) {
					add(stripListMarker(line))
					break
				}
			}
			if len(recs) >= MaxRecommendations {
				break
			}
		}
	}

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

func stripListMarker(line string) string {
	for _, re := range []*regexp.Regexp{boldNumber, numberedItem, bulletItem} {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return line
}
