package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/tui"
)

// Format is a serialization of a report.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatText     Format = "text"
)

// ParseFormat parses a format name. "md", "yml" and "txt" are accepted
// aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", core.ErrValidation(core.CodeUnknownFormat, fmt.Sprintf("unknown report format: %s", s))
	}
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatText:
		return ".txt"
	default:
		return ".md"
	}
}

// document is the structured form shared by the JSON and YAML encodings.
// Sections are keyed by role so clients address them the way the HTTP API
// names them.
type document struct {
	Title            string              `json:"title" yaml:"title"`
	Status           string              `json:"status" yaml:"status"`
	ExecutiveSummary core.Section        `json:"executive_summary" yaml:"executive_summary"`
	Market           core.Section        `json:"market" yaml:"market"`
	Competitive      core.Section        `json:"competitive" yaml:"competitive"`
	Risk             core.Section        `json:"risk" yaml:"risk"`
	Strategic        core.Section        `json:"strategic" yaml:"strategic"`
	Metadata         core.ReportMetadata `json:"metadata" yaml:"metadata"`
}

func newDocument(r *core.Report) document {
	return document{
		Title:            ReportTitle,
		Status:           StatusMessage(r.Metadata),
		ExecutiveSummary: r.ExecutiveSummary,
		Market:           r.Market,
		Competitive:      r.Competitive,
		Risk:             r.Risk,
		Strategic:        r.Strategic,
		Metadata:         r.Metadata,
	}
}

// Encode serializes r in format f.
func Encode(r *core.Report, f Format, opts Options) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return []byte(Markdown(r, opts)), nil
	case FormatJSON:
		data, err := json.MarshalIndent(newDocument(r), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(newDocument(r))
		if err != nil {
			return nil, fmt.Errorf("encoding yaml report: %w", err)
		}
		return data, nil
	case FormatText:
		renderer, err := tui.NewRenderer(tui.DefaultWordWrap, false)
		if err != nil {
			return nil, err
		}
		out, err := renderer.Render(Markdown(r, opts))
		if err != nil {
			return nil, fmt.Errorf("encoding text report: %w", err)
		}
		return []byte(out), nil
	default:
		return nil, core.ErrValidation(core.CodeUnknownFormat, fmt.Sprintf("unknown report format: %s", f))
	}
}
