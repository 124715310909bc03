package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestCleanInput(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"plain", "Analyze the market", 0, "Analyze the market"},
		{"strips markup", "Analyze <b>the</b> market", 0, "Analyze bthe/b market"},
		{"collapses blanks", "  Analyze \t  the   market ", 0, "Analyze the market"},
		{"keeps punctuation", "Q3 growth: 12% (est.)?", 0, "Q3 growth: 12% (est.)?"},
		{"caps length", "abcdefgh", 5, "abcde"},
		{"unicode letters", "Análisis de mercado", 0, "Análisis de mercado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanInput(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("CleanInput(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		max  int
		want []string
	}{
		{"empty", "", 8, []string{}},
		{"trims and skips blanks", " Dropbox ,, Box , ", 8, []string{"Dropbox", "Box"}},
		{"dedupes case-insensitively", "Dropbox, dropbox, Box, DROPBOX", 8, []string{"Dropbox", "Box"}},
		{"caps count", "a, b, c, d", 2, []string{"a", "b"}},
		{"no cap", "a, b, c", 0, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTargets(tt.raw, tt.max); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTargets(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNewAnalysisRequest(t *testing.T) {
	limits := DefaultRequestLimits()

	t.Run("valid", func(t *testing.T) {
		req, err := NewAnalysisRequest("Analyze the enterprise cloud storage market", "Dropbox, Box", limits)
		if err != nil {
			t.Fatalf("NewAnalysisRequest() error = %v", err)
		}
		if req.Query() != "Analyze the enterprise cloud storage market" {
			t.Errorf("Query() = %q", req.Query())
		}
		if !req.HasTargets() || req.TargetList("none") != "Dropbox, Box" {
			t.Errorf("targets = %v", req.Targets())
		}
	})

	t.Run("no targets", func(t *testing.T) {
		req, err := NewAnalysisRequest("Analyze the enterprise cloud storage market", "", limits)
		if err != nil {
			t.Fatalf("NewAnalysisRequest() error = %v", err)
		}
		if req.HasTargets() || req.TargetList("Broad market") != "Broad market" {
			t.Errorf("targets = %v", req.Targets())
		}
	})

	t.Run("targets are copied", func(t *testing.T) {
		req, _ := NewAnalysisRequest("Analyze the enterprise cloud storage market", "Dropbox", limits)
		req.Targets()[0] = "changed"
		if req.Targets()[0] != "Dropbox" {
			t.Error("Targets() must return a copy")
		}
	})

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"empty", "", CodeEmptyQuery},
		{"only symbols", "<<<>>>", CodeEmptyQuery},
		{"too short", "hi there", CodeQueryTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalysisRequest(tt.query, "", limits)
			if !errors.Is(err, &DomainError{Category: ErrCatValidation, Code: tt.code}) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}

	t.Run("long query is capped", func(t *testing.T) {
		req, err := NewAnalysisRequest(strings.Repeat("a", MaxQueryLength+50), "", limits)
		if err != nil {
			t.Fatalf("NewAnalysisRequest() error = %v", err)
		}
		if len(req.Query()) != MaxQueryLength {
			t.Errorf("len(Query()) = %d, want %d", len(req.Query()), MaxQueryLength)
		}
	})
}
