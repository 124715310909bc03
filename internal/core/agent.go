package core

import (
	"strings"
	"time"
)

// ContextEntry is one upstream agent output carried forward.
type ContextEntry struct {
	Role Role
	Text string
}

// AgentContext is the ordered, append-only record of upstream agent output.
// Values are immutable: With returns a new context and leaves the receiver
// untouched, so earlier stages can never observe later writes.
type AgentContext struct {
	entries []ContextEntry
}

// With returns a new context with the entry appended.
func (c AgentContext) With(role Role, text string) AgentContext {
	entries := make([]ContextEntry, len(c.entries), len(c.entries)+1)
	copy(entries, c.entries)
	entries = append(entries, ContextEntry{Role: role, Text: text})
	return AgentContext{entries: entries}
}

// Entries returns a copy of the entries in insertion order.
func (c AgentContext) Entries() []ContextEntry {
	out := make([]ContextEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c AgentContext) Len() int {
	return len(c.entries)
}

// Size returns the total text length across entries.
func (c AgentContext) Size() int {
	n := 0
	for _, e := range c.entries {
		n += len(e.Text)
	}
	return n
}

// Window returns the newest entries whose combined text fits in maxChars.
// Oldest entries are dropped first; if the newest entry alone is larger
// than the bound it is cut to its leading maxChars bytes on a rune
// boundary. maxChars <= 0 disables the bound.
func (c AgentContext) Window(maxChars int) []ContextEntry {
	if maxChars <= 0 || c.Size() <= maxChars {
		return c.Entries()
	}

	var kept []ContextEntry
	used := 0
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if used+len(e.Text) > maxChars {
			if len(kept) == 0 {
				e.Text = truncateRunes(e.Text, maxChars)
				kept = append(kept, e)
			}
			break
		}
		used += len(e.Text)
		kept = append(kept, e)
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

func truncateRunes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxBytes {
			break
		}
		cut = i
	}
	return strings.TrimSpace(s[:cut])
}

// AgentResult is the outcome of one agent invocation.
type AgentResult struct {
	Agent           Role
	RawText         string
	Confidence      float64
	ModelUsed       string
	Attempts        int
	Elapsed         time.Duration
	Fallback        bool
	FailureCategory ErrorCategory
	FailureReason   string
}

// ElapsedMS returns the elapsed time in milliseconds.
func (r AgentResult) ElapsedMS() int64 {
	return r.Elapsed.Milliseconds()
}

// Delivered reports whether the agent produced model output.
func (r AgentResult) Delivered() bool {
	return !r.Fallback
}
