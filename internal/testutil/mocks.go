package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// Step is one scripted completion outcome.
type Step struct {
	Text string
	Err  error
}

// Reply returns a successful step.
func Reply(text string) Step {
	return Step{Text: text}
}

// Fail returns a failing step.
func Fail(err error) Step {
	return Step{Err: err}
}

// CompletionCall records a call to the completer.
type CompletionCall struct {
	Request   core.CompletionRequest
	Timestamp time.Time
}

// ScriptedCompleter is a deterministic core.Completer. Each model can be
// given a script of outcomes consumed in order; the last step repeats once
// the script runs out. Models without a script use the responder.
type ScriptedCompleter struct {
	name      string
	scripts   map[string][]Step
	responder func(core.CompletionRequest) (string, error)
	calls     []CompletionCall
	mu        sync.Mutex
}

// NewScriptedCompleter creates a completer that answers every unscripted
// model with role-appropriate canned analysis.
func NewScriptedCompleter() *ScriptedCompleter {
	return &ScriptedCompleter{
		name:      "scripted",
		scripts:   make(map[string][]Step),
		responder: RoleResponder(),
	}
}

// Script sets the outcomes for model.
func (s *ScriptedCompleter) Script(model string, steps ...Step) *ScriptedCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[model] = append([]Step(nil), steps...)
	return s
}

// Respond replaces the responder used for unscripted models.
func (s *ScriptedCompleter) Respond(fn func(core.CompletionRequest) (string, error)) *ScriptedCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = fn
	return s
}

// Name returns the completer name.
func (s *ScriptedCompleter) Name() string {
	return s.name
}

// Complete returns the next scripted outcome for req.Model.
func (s *ScriptedCompleter) Complete(_ context.Context, req core.CompletionRequest) (core.Completion, error) {
	s.mu.Lock()
	s.calls = append(s.calls, CompletionCall{Request: req, Timestamp: time.Now()})

	var step Step
	if script, ok := s.scripts[req.Model]; ok && len(script) > 0 {
		step = script[0]
		if len(script) > 1 {
			s.scripts[req.Model] = script[1:]
		}
		s.mu.Unlock()
	} else {
		responder := s.responder
		s.mu.Unlock()
		if responder == nil {
			return core.Completion{}, core.ErrService("no script for model " + req.Model)
		}
		step.Text, step.Err = responder(req)
	}

	if step.Err != nil {
		return core.Completion{}, step.Err
	}
	return core.Completion{
		Text:      step.Text,
		Model:     req.Model,
		TokensIn:  len(req.System+req.User) / 4,
		TokensOut: len(step.Text) / 4,
	}, nil
}

// Calls returns a copy of every recorded call.
func (s *ScriptedCompleter) Calls() []CompletionCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CompletionCall(nil), s.calls...)
}

// CallCount returns the number of calls made.
func (s *ScriptedCompleter) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// CallsFor returns the number of calls made against model.
func (s *ScriptedCompleter) CallsFor(model string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Request.Model == model {
			n++
		}
	}
	return n
}

// PromptsFor returns the user prompts sent by role, in call order.
func (s *ScriptedCompleter) PromptsFor(role core.Role) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prompts []string
	for _, c := range s.calls {
		if r, ok := RoleOf(c.Request); ok && r == role {
			prompts = append(prompts, c.Request.User)
		}
	}
	return prompts
}

// RoleOf identifies which agent issued req from its system prompt.
func RoleOf(req core.CompletionRequest) (core.Role, bool) {
	system := strings.ToLower(req.System)
	switch {
	case strings.Contains(system, "strategy consultant"):
		return core.RoleStrategic, true
	case strings.Contains(system, "risk analyst"):
		return core.RoleRisk, true
	case strings.Contains(system, "competitive intelligence"):
		return core.RoleCompetitive, true
	case strings.Contains(system, "market intelligence"):
		return core.RoleMarket, true
	default:
		return "", false
	}
}

// RoleResponder answers each agent with its canned well-formed analysis.
func RoleResponder() func(core.CompletionRequest) (string, error) {
	return func(req core.CompletionRequest) (string, error) {
		role, ok := RoleOf(req)
		if !ok {
			return "", core.ErrInvalidResponse("unrecognized prompt")
		}
		return CannedOutput(role), nil
	}
}

// FailingResponder fails every call with err.
func FailingResponder(err error) func(core.CompletionRequest) (string, error) {
	return func(core.CompletionRequest) (string, error) {
		return "", err
	}
}
