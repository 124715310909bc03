// Package report renders finished analyses as markdown, plain text, JSON or
// YAML and exports them to disk.
package report

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/fsutil"
)

// Config configures the report writer
type Config struct {
	Dir     string // default: "reports"
	Format  Format
	Options Options
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Dir:     "reports",
		Format:  FormatMarkdown,
		Options: DefaultOptions(),
	}
}

// Writer exports reports to files.
type Writer struct {
	config Config
}

// NewWriter creates a report writer.
func NewWriter(cfg Config) *Writer {
	if cfg.Format == "" {
		cfg.Format = FormatMarkdown
	}
	return &Writer{config: cfg}
}

// Filename returns the export filename for r, built from the generation
// time and the query, e.g. "20250121-153045-enterprise-cloud-storage.md".
func (w *Writer) Filename(r *core.Report) string {
	ts := r.Metadata.GeneratedAt
	if w.config.Options.UseUTC {
		ts = ts.UTC()
	}
	slug := sanitizeFilename(r.Metadata.Query)
	slug = strings.Trim(slug, "-.")
	if words := strings.Split(slug, "-"); len(words) > 6 {
		slug = strings.Join(words[:6], "-")
	}
	if slug == "" {
		slug = "analysis"
	}
	return fmt.Sprintf("%s-%s%s", ts.Format("20060102-150405"), slug, w.config.Format.Extension())
}

// Write exports r into the configured directory and returns the path.
func (w *Writer) Write(r *core.Report) (string, error) {
	path := filepath.Join(w.config.Dir, w.Filename(r))
	if err := w.WriteTo(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTo exports r to path atomically. Markdown exports carry YAML
// frontmatter with the run metadata.
func (w *Writer) WriteTo(path string, r *core.Report) error {
	data, err := Encode(r, w.config.Format, w.config.Options)
	if err != nil {
		return err
	}
	if w.config.Format == FormatMarkdown {
		header, err := w.frontmatter(r).render()
		if err != nil {
			return err
		}
		data = append([]byte(header), data...)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("exporting report: %w", err)
	}
	return nil
}

func (w *Writer) frontmatter(r *core.Report) frontmatter {
	meta := r.Metadata
	return frontmatter{
		Type:                "analysis_report",
		RunID:               meta.RunID,
		Query:               meta.Query,
		Targets:             meta.Targets,
		GeneratedAt:         w.formatTime(meta.GeneratedAt),
		CompletionStatus:    string(meta.Status),
		AggregateConfidence: roundTo(meta.AggregateConfidence, 2),
		ElapsedMS:           meta.ElapsedMS,
		Readiness:           Readiness(meta.AggregateConfidence),
		WordCount:           countWords(Markdown(r, Options{})),
		DegradedSections:    degradedTitles(r),
	}
}

func (w *Writer) formatTime(t time.Time) string {
	if w.config.Options.UseUTC {
		t = t.UTC()
	}
	return t.Format(time.RFC3339)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
