// Package clip copies rendered reports to the user's clipboard.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	atotto "github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"

	"github.com/hugo-lorenzo-mato/srip/internal/fsutil"
)

// Method is the mechanism that made the report copyable.
type Method string

const (
	MethodNative Method = "native" // OS clipboard
	MethodOSC52  Method = "osc52"  // terminal clipboard escape sequence
	MethodFile   Method = "file"   // saved to a file instead
)

// Result reports how a copy was delivered.
type Result struct {
	Method   Method
	FilePath string // only set for MethodFile
}

// Describe returns a one-line message for the user.
func (r Result) Describe() string {
	switch r.Method {
	case MethodNative:
		return "Report copied to clipboard"
	case MethodOSC52:
		return "Report copied to clipboard via terminal"
	default:
		return "Clipboard unavailable; report saved to " + r.FilePath
	}
}

// Terminal clipboards commonly cap OSC52 payloads near this size.
const osc52LimitBytes = 100_000

// Copier tries the native clipboard, then OSC52, then a file.
type Copier struct {
	native   func(string) error
	terminal io.Writer
	isTTY    func() bool
	dir      string
	now      func() time.Time
	getenv   func(string) string
}

// CopierOption configures a Copier.
type CopierOption func(*Copier)

// WithNative replaces the native clipboard writer.
func WithNative(fn func(string) error) CopierOption {
	return func(c *Copier) {
		c.native = fn
	}
}

// WithTerminal sends OSC52 sequences to w; isTTY reports whether w is a
// terminal.
func WithTerminal(w io.Writer, isTTY func() bool) CopierOption {
	return func(c *Copier) {
		c.terminal = w
		c.isTTY = isTTY
	}
}

// WithFallbackDir sets where reports are saved when no clipboard works.
func WithFallbackDir(dir string) CopierOption {
	return func(c *Copier) {
		c.dir = dir
	}
}

// WithEnv replaces environment lookups used to detect tmux and screen.
func WithEnv(getenv func(string) string) CopierOption {
	return func(c *Copier) {
		c.getenv = getenv
	}
}

// NewCopier creates a copier writing OSC52 to stderr so stdout stays clean
// for piped reports.
func NewCopier(opts ...CopierOption) *Copier {
	c := &Copier{
		native:   atotto.WriteAll,
		terminal: os.Stderr,
		isTTY:    func() bool { return term.IsTerminal(int(os.Stderr.Fd())) },
		dir:      os.TempDir(),
		now:      time.Now,
		getenv:   os.Getenv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy makes text available to the user.
func (c *Copier) Copy(text string) (Result, error) {
	if text == "" {
		return Result{}, errors.New("nothing to copy")
	}
	if c.native != nil && c.native(text) == nil {
		return Result{Method: MethodNative}, nil
	}
	if c.writeOSC52(text) == nil {
		return Result{Method: MethodOSC52}, nil
	}

	path := filepath.Join(c.dir, fmt.Sprintf("srip-report-%s.md", c.now().Format("20060102-150405")))
	if err := fsutil.WriteFileAtomic(path, []byte(text), 0o600); err != nil {
		return Result{}, fmt.Errorf("saving clipboard fallback: %w", err)
	}
	return Result{Method: MethodFile, FilePath: path}, nil
}

func (c *Copier) writeOSC52(text string) error {
	if c.terminal == nil || c.isTTY == nil || !c.isTTY() {
		return errors.New("no terminal for OSC52")
	}
	if len(text) > osc52LimitBytes {
		return fmt.Errorf("text too large for OSC52 (%d bytes > %d)", len(text), osc52LimitBytes)
	}

	seq := osc52.New(text).Limit(osc52LimitBytes)
	if c.getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if c.getenv("STY") != "" {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(c.terminal)
	return err
}
