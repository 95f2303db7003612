// Package console provides the colorized stdout/stderr messaging used by
// every pipeline stage. Errors and prompts always print; regular messages
// honor the quiet flag.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// Console writes user-facing messages. The zero value is not usable; use New.
type Console struct {
	quiet bool
	out   io.Writer
	errW  io.Writer
}

func New(quiet bool) *Console {
	return &Console{quiet: quiet, out: os.Stdout, errW: os.Stderr}
}

// NewWithWriters is used by tests to capture output.
func NewWithWriters(quiet bool, out, errW io.Writer) *Console {
	return &Console{quiet: quiet, out: out, errW: errW}
}

// Msg prints an uncolored message to stdout unless quiet is set.
func (c *Console) Msg(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Progress prints a message to stdout without a trailing newline.
func (c *Console) Progress(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, format, args...)
}

// Success prints a green message to stdout unless quiet is set.
func (c *Console) Success(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, successStyle.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a yellow message to stderr. Not silenced by quiet.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintln(c.errW, warnStyle.Render(fmt.Sprintf(format, args...)))
}

// Err prints a red message to stderr. Not silenced by quiet.
func (c *Console) Err(format string, args ...any) {
	fmt.Fprintln(c.errW, errStyle.Render(fmt.Sprintf(format, args...)))
}
