package core

import (
	"strings"
	"testing"
)

func TestAgentContext_WithIsImmutable(t *testing.T) {
	var empty AgentContext
	one := empty.With(RoleMarket, "market analysis")
	two := one.With(RoleCompetitive, "competitive analysis")

	if empty.Len() != 0 || one.Len() != 1 || two.Len() != 2 {
		t.Fatalf("lengths = %d, %d, %d; want 0, 1, 2", empty.Len(), one.Len(), two.Len())
	}

	entries := two.Entries()
	entries[0].Text = "mutated"
	if two.Entries()[0].Text != "market analysis" {
		t.Error("Entries() must return a copy")
	}
	if one.Entries()[0].Role != RoleMarket || two.Entries()[1].Role != RoleCompetitive {
		t.Errorf("entries out of order: %+v", two.Entries())
	}
	if two.Size() != len("market analysis")+len("competitive analysis") {
		t.Errorf("Size() = %d", two.Size())
	}
}

func TestAgentContext_Window(t *testing.T) {
	ctx := AgentContext{}.
		With(RoleMarket, strings.Repeat("m", 10)).
		With(RoleCompetitive, strings.Repeat("c", 10)).
		With(RoleRisk, strings.Repeat("r", 10))

	t.Run("fits", func(t *testing.T) {
		if got := ctx.Window(30); len(got) != 3 {
			t.Errorf("Window(30) kept %d entries, want 3", len(got))
		}
	})

	t.Run("unbounded", func(t *testing.T) {
		if got := ctx.Window(0); len(got) != 3 {
			t.Errorf("Window(0) kept %d entries, want 3", len(got))
		}
	})

	t.Run("drops oldest first", func(t *testing.T) {
		got := ctx.Window(25)
		if len(got) != 2 {
			t.Fatalf("Window(25) kept %d entries, want 2", len(got))
		}
		if got[0].Role != RoleCompetitive || got[1].Role != RoleRisk {
			t.Errorf("Window(25) = %+v", got)
		}
	})

	t.Run("truncates oversized newest entry", func(t *testing.T) {
		got := ctx.Window(4)
		if len(got) != 1 || got[0].Role != RoleRisk || got[0].Text != "rrrr" {
			t.Errorf("Window(4) = %+v", got)
		}
	})
}

func TestTruncateRunes_KeepsRuneBoundary(t *testing.T) {
	got := truncateRunes("añb", 2)
	if got != "a" {
		t.Errorf("truncateRunes() = %q, want %q", got, "a")
	}
}

func TestAgentResult_Delivered(t *testing.T) {
	if !(AgentResult{Confidence: 0.8}).Delivered() {
		t.Error("model output should count as delivered")
	}
	if (AgentResult{Fallback: true}).Delivered() {
		t.Error("fallback should not count as delivered")
	}
}

func TestPrompt_Size(t *testing.T) {
	p := Prompt{System: "abc", User: "de"}
	if p.Size() != 5 {
		t.Errorf("Size() = %d, want 5", p.Size())
	}
}
