package report

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// frontmatter is the YAML header of exported markdown reports. Field order
// is the order written to the file.
type frontmatter struct {
	Type                string   `yaml:"type"`
	RunID               string   `yaml:"run_id"`
	Query               string   `yaml:"query"`
	Targets             []string `yaml:"targets"`
	GeneratedAt         string   `yaml:"generated_at"`
	CompletionStatus    string   `yaml:"completion_status"`
	AggregateConfidence float64  `yaml:"aggregate_confidence"`
	ElapsedMS           int64    `yaml:"elapsed_ms"`
	Readiness           string   `yaml:"readiness"`
	WordCount           int      `yaml:"word_count"`
	DegradedSections    []string `yaml:"degraded_sections,omitempty"`
}

// degradedTitles lists the titles of sections replaced by placeholders.
func degradedTitles(r *core.Report) []string {
	var titles []string
	for _, s := range r.Sections() {
		if s.Degraded {
			titles = append(titles, s.Title)
		}
	}
	return titles
}

// render returns the header between "---" delimiters followed by a blank
// line.
func (f frontmatter) render() (string, error) {
	if f.Targets == nil {
		f.Targets = []string{}
	}
	out, err := yaml.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	return "---\n" + string(out) + "---\n\n", nil
}
