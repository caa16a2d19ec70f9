// Package trace provides the engine's three optional, off-by-default
// log channels: instruction trace, tier-up events, and collector
// events. Output goes to stderr, colorized when it is a terminal.
package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Channels groups the three independent enable flags. The zero value
// has every channel disabled.
type Channels struct {
	Instruction bool
	TierUp      bool
	GC          bool

	out io.Writer

	instrColor *color.Color
	tierColor  *color.Color
	gcColor    *color.Color
}

// New returns a Channels writing to w (os.Stderr if w is nil) with the
// three channels enabled as requested.
func New(w io.Writer, instruction, tierUp, gc bool) *Channels {
	if w == nil {
		w = os.Stderr
	}
	return &Channels{
		Instruction: instruction,
		TierUp:      tierUp,
		GC:          gc,
		out:         w,
		instrColor:  color.New(color.FgCyan),
		tierColor:   color.New(color.FgYellow),
		gcColor:     color.New(color.FgGreen),
	}
}

func (c *Channels) Instr(format string, args ...any) {
	if c == nil || !c.Instruction {
		return
	}
	c.instrColor.Fprintf(c.out, format+"\n", args...)
}

func (c *Channels) Tier(format string, args ...any) {
	if c == nil || !c.TierUp {
		return
	}
	c.tierColor.Fprintf(c.out, format+"\n", args...)
}

func (c *Channels) GCf(format string, args ...any) {
	if c == nil || !c.GC {
		return
	}
	c.gcColor.Fprintf(c.out, format+"\n", args...)
}

// Diagnostic prints a single-line, uncolored failure diagnostic, the
// required output on a non-zero exit.
func Diagnostic(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
