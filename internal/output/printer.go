// Package output is the shared sink for job output and scheduler notices.
//
// Every line written here is product output (what the user watches), as
// opposed to operational logs which go through logx.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Printer writes whole lines to an underlying writer. A disabled Printer
// swallows everything.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	colors  *ColorPicker
}

func NewPrinter(w io.Writer, enabled bool, colors *ColorPicker) *Printer {
	if colors == nil {
		colors = NewColorPicker(false)
	}
	return &Printer{w: w, enabled: enabled, colors: colors}
}

func (p *Printer) Enabled() bool { return p != nil && p.enabled }

// Colors returns the picker used for job prefixes.
func (p *Printer) Colors() *ColorPicker { return p.colors }

// Write emits one line; a trailing newline is added.
func (p *Printer) Write(line string) {
	if !p.Enabled() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, strings.TrimRight(line, "\r\n")+"\n")
}

// System writes a scheduler notice with the "[croner]" tag.
func (p *Printer) System(format string, args ...any) {
	if !p.Enabled() {
		return
	}
	p.Write(p.colors.System("[croner]") + " " + fmt.Sprintf(format, args...))
}

// Job writes one line of output from a job instance, prefixed with the
// instance id in the job's color.
func (p *Printer) Job(jobID, instanceID, line string) {
	if !p.Enabled() {
		return
	}
	p.Write(p.colors.Paint(jobID, "["+instanceID+"]") + ": " + line)
}
