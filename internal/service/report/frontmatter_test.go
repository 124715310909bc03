package report

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFrontmatter_Render(t *testing.T) {
	w := NewWriter(Config{Options: Options{UseUTC: true}})
	r := sampleReport()
	r.Metadata.Query = "scope: cloud #storage"

	rendered, err := w.frontmatter(r).render()
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}

	if !strings.HasPrefix(rendered, "---\n") {
		t.Error("should start with ---")
	}
	if !strings.HasSuffix(rendered, "---\n\n") {
		t.Error("should end with ---\\n\\n")
	}
	for _, want := range []string{
		"type: analysis_report\n",
		"2025-01-21T15:30:45Z",
		"aggregate_confidence: 0.78\n",
		"elapsed_ms: 12400\n",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("missing %q in:\n%s", want, rendered)
		}
	}
	if strings.Index(rendered, "type:") > strings.Index(rendered, "run_id:") {
		t.Errorf("fields out of order:\n%s", rendered)
	}

	// The body parses back, including values that need quoting.
	body := strings.TrimSuffix(strings.TrimPrefix(rendered, "---\n"), "---\n\n")
	var parsed map[string]interface{}
	if err := yaml.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("frontmatter is not valid YAML: %v\n%s", err, body)
	}
	if parsed["query"] != "scope: cloud #storage" {
		t.Errorf("query = %v", parsed["query"])
	}
	if targets, ok := parsed["targets"].([]interface{}); !ok || len(targets) != 2 {
		t.Errorf("targets = %v", parsed["targets"])
	}
	degraded, ok := parsed["degraded_sections"].([]interface{})
	if !ok || len(degraded) != 1 || degraded[0] != "Strategic Risk Assessment" {
		t.Errorf("degraded_sections = %v", parsed["degraded_sections"])
	}
}

func TestFrontmatter_NoTargetsNoDegradation(t *testing.T) {
	r := sampleReport()
	r.Metadata.Targets = nil
	r.Risk.Degraded = false

	rendered, err := NewWriter(Config{}).frontmatter(r).render()
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if !strings.Contains(rendered, "targets: []\n") {
		t.Errorf("empty targets should render as an empty list:\n%s", rendered)
	}
	if strings.Contains(rendered, "degraded_sections") {
		t.Errorf("degraded_sections should be omitted:\n%s", rendered)
	}
}
