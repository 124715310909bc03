package pipeline

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// ScoreWeights balances the components of the default per-agent score.
type ScoreWeights struct {
	Length  float64
	Markers float64
	Clean   float64
}

// ScoringOptions configures a Scorer.
type ScoringOptions struct {
	// Threshold is the confidence a result must exceed to be used verbatim.
	Threshold float64
	// AggregateFloor is the lowest aggregate reported for a run in which at
	// least one agent cleared Threshold.
	AggregateFloor     float64
	MinRecommendations int
	Weights            ScoreWeights
}

// DefaultScoringOptions returns the default scoring configuration.
func DefaultScoringOptions() ScoringOptions {
	return ScoringOptions{
		Threshold:          0.30,
		AggregateFloor:     0.25,
		MinRecommendations: 4,
		Weights:            ScoreWeights{Length: 0.4, Markers: 0.4, Clean: 0.2},
	}
}

// ScoreFunc scores the raw output of one agent in [0,1].
type ScoreFunc func(text string, req core.AnalysisRequest) float64

// minChars is the length at which an output counts as fully adequate.
var minChars = map[core.Role]int{
	core.RoleMarket:      300,
	core.RoleCompetitive: 300,
	core.RoleRisk:        200,
	core.RoleStrategic:   200,
}

var (
	dollarFigure = regexp.MustCompile(`\$\s?\d[\d,.]*`)
	percentage   = regexp.MustCompile(`\d+(?:\.\d+)?\s?(?:%|percent\b)`)
	riskRating   = regexp.MustCompile(`(?i)score:\s*(?:10|[1-9])(?:\s*/\s*10)?|\b(?:10|[1-9])\s*/\s*10\b`)
)

// refusalPhrases indicate the model declined, apologized or echoed an error.
var refusalPhrases = []string{
	"i'm sorry", "i am sorry", "i apologize", "i cannot", "i can't",
	"as an ai", "unable to provide", "cannot provide", "error:",
	"limited availability",
}

// competitiveVocabulary is checked when the request names no targets.
var competitiveVocabulary = []string{
	"competitor", "market share", "advantage", "differentiat", "position", "leader",
}

// Scorer assigns heuristic confidence to agent output.
type Scorer struct {
	opts  ScoringOptions
	funcs map[core.Role]ScoreFunc
}

// NewScorer creates a scorer with the default per-role functions.
func NewScorer(opts ScoringOptions) *Scorer {
	s := &Scorer{opts: opts, funcs: make(map[core.Role]ScoreFunc)}
	for _, role := range core.AllRoles() {
		s.funcs[role] = s.weighted(role)
	}
	return s
}

// SetScoreFunc replaces the scoring function of role.
func (s *Scorer) SetScoreFunc(role core.Role, fn ScoreFunc) {
	s.funcs[role] = fn
}

// Threshold returns the per-agent confidence threshold.
func (s *Scorer) Threshold() float64 {
	return s.opts.Threshold
}

// Score returns the confidence of result. Fallback results score 0.
func (s *Scorer) Score(result core.AgentResult, req core.AnalysisRequest) float64 {
	if result.Fallback {
		return 0
	}
	fn, ok := s.funcs[result.Agent]
	if !ok {
		return 0
	}
	return clamp01(fn(result.RawText, req))
}

// Aggregate returns the mean confidence of results. When the mean is below
// the floor but some agent cleared the threshold the floor is returned; a
// run where nothing cleared the threshold keeps its mean.
func (s *Scorer) Aggregate(results []core.AgentResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	anyConfident := false
	for _, r := range results {
		sum += r.Confidence
		if r.Confidence > s.opts.Threshold {
			anyConfident = true
		}
	}
	mean := sum / float64(len(results))
	if mean < s.opts.AggregateFloor && anyConfident {
		return s.opts.AggregateFloor
	}
	return mean
}

func (s *Scorer) weighted(role core.Role) ScoreFunc {
	return func(text string, req core.AnalysisRequest) float64 {
		text = strings.TrimSpace(text)
		if text == "" {
			return 0
		}
		w := s.opts.Weights
		return w.Length*lengthAdequacy(text, minChars[role]) +
			w.Markers*s.markers(role, text, req) +
			w.Clean*cleanScore(text)
	}
}

func (s *Scorer) markers(role core.Role, text string, req core.AnalysisRequest) float64 {
	switch role {
	case core.RoleMarket:
		return marketMarkers(text)
	case core.RoleCompetitive:
		return competitiveMarkers(text, req.Targets())
	case core.RoleRisk:
		return math.Min(1, float64(len(riskRating.FindAllString(text, -1)))/3)
	case core.RoleStrategic:
		want := s.opts.MinRecommendations
		if want < 1 {
			want = 1
		}
		return math.Min(1, float64(len(ParseRecommendations(text)))/float64(want))
	default:
		return 0
	}
}

func lengthAdequacy(text string, min int) float64 {
	if min <= 0 {
		return 1
	}
	return math.Min(1, float64(len(text))/float64(min))
}

func marketMarkers(text string) float64 {
	score := 0.0
	if dollarFigure.MatchString(text) {
		score += 0.5
	}
	if percentage.MatchString(text) {
		score += 0.5
	}
	return score
}

func competitiveMarkers(text string, targets []string) float64 {
	lower := strings.ToLower(text)
	if len(targets) == 0 {
		found := 0
		for _, term := range competitiveVocabulary {
			if strings.Contains(lower, term) {
				found++
			}
		}
		return math.Min(1, float64(found)/3)
	}

	words := strings.Fields(lower)
	mentioned := 0
	for _, t := range targets {
		t = strings.ToLower(t)
		if strings.Contains(lower, t) || fuzzyMention(t, words) {
			mentioned++
		}
	}
	return float64(mentioned) / float64(len(targets))
}

// fuzzyMention reports whether target appears in words as a near-match:
// every target character in order within a window of the same word count
// that is at most three characters longer. This tolerates spellings such
// as "One Drive" for "OneDrive".
func fuzzyMention(target string, words []string) bool {
	n := len(strings.Fields(target))
	if n == 0 || len(words) == 0 {
		return false
	}
	pattern := strings.ReplaceAll(target, " ", "")

	var candidates []string
	for size := n; size <= n+1; size++ {
		for i := 0; i+size <= len(words); i++ {
			c := strings.Trim(strings.Join(words[i:i+size], " "), ".,;:()\"'")
			if len(c) <= len(target)+3 {
				candidates = append(candidates, c)
			}
		}
	}
	for _, m := range fuzzy.Find(pattern, candidates) {
		if len(m.MatchedIndexes) == utf8.RuneCountInString(pattern) {
			return true
		}
	}
	return false
}

func cleanScore(text string) float64 {
	lower := strings.ToLower(text)
	for _, p := range refusalPhrases {
		if strings.Contains(lower, p) {
			return 0
		}
	}
	return 1
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
