package pipeline

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

//go:embed prompts/*.md.tmpl
var promptsFS embed.FS

// partialTemplate holds {{define}} blocks shared by every role template.
const partialTemplate = "context"

// PromptRenderer renders role prompts from templates.
type PromptRenderer struct {
	templates map[string]*template.Template
	mu        sync.RWMutex
}

// NewPromptRenderer creates a new prompt renderer.
func NewPromptRenderer() (*PromptRenderer, error) {
	r := &PromptRenderer{
		templates: make(map[string]*template.Template),
	}

	if err := r.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	return r, nil
}

// loadTemplates loads all templates from the embedded filesystem. The
// partial is parsed first and cloned into every other template so the
// shared blocks resolve.
func (r *PromptRenderer) loadTemplates() error {
	partial, err := promptsFS.ReadFile("prompts/" + partialTemplate + ".md.tmpl")
	if err != nil {
		return fmt.Errorf("reading partial: %w", err)
	}
	base, err := template.New(partialTemplate).Funcs(templateFuncs()).Parse(string(partial))
	if err != nil {
		return fmt.Errorf("parsing partial: %w", err)
	}

	return fs.WalkDir(promptsFS, "prompts", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".md.tmpl") {
			return nil
		}

		name := strings.TrimPrefix(path, "prompts/")
		name = strings.TrimSuffix(name, ".md.tmpl")
		if name == partialTemplate {
			return nil
		}

		content, err := promptsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		clone, err := base.Clone()
		if err != nil {
			return err
		}
		tmpl, err := clone.New(name).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}

		r.templates[name] = tmpl
		return nil
	})
}

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join":      strings.Join,
		"trimSpace": strings.TrimSpace,
		"upper":     strings.ToUpper,
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
	}
}

// PromptParams is the data every role template receives.
type PromptParams struct {
	Query              string
	Targets            []string
	TargetList         string
	Context            []core.ContextEntry
	MinRecommendations int
	MaxRecommendations int
}

// RenderRole renders the system and user prompt of role.
func (r *PromptRenderer) RenderRole(role core.Role, params PromptParams) (system, user string, err error) {
	system, err = r.render(string(role)+"-system", params)
	if err != nil {
		return "", "", err
	}
	user, err = r.render(string(role), params)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

// Render renders a template by name with arbitrary data.
func (r *PromptRenderer) Render(name string, data interface{}) (string, error) {
	return r.render(name, data)
}

// render executes a template.
func (r *PromptRenderer) render(name string, data interface{}) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// ListTemplates returns all available template names, sorted.
func (r *PromptRenderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTemplate checks if a template exists.
func (r *PromptRenderer) HasTemplate(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[name]
	return ok
}
