package output

import (
	"hash/fnv"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const reset = "\033[0m"

// Palette excludes blue, which is reserved for the "[croner]" tag.
var palette = []string{
	"\033[31m", // red
	"\033[32m", // green
	"\033[33m", // yellow
	"\033[35m", // magenta
	"\033[36m", // cyan
	"\033[91m", // bright red
	"\033[92m", // bright green
	"\033[93m", // bright yellow
	"\033[95m", // bright magenta
	"\033[96m", // bright cyan
}

const systemColor = "\033[34m"

// ColorPicker assigns each job id a stable ANSI color. The color depends only
// on the id, so it survives config reloads and restarts.
type ColorPicker struct {
	enabled bool
}

func NewColorPicker(enabled bool) *ColorPicker {
	return &ColorPicker{enabled: enabled}
}

// ColorMode resolves "auto", "always" or "never" against the given file.
// Auto honors NO_COLOR and requires a terminal.
func ColorMode(mode string, f *os.File) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *ColorPicker) Enabled() bool { return c != nil && c.enabled }

// Color returns the escape sequence for id, or "" when colors are off.
func (c *ColorPicker) Color(id string) string {
	if !c.Enabled() {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Paint wraps s in id's color.
func (c *ColorPicker) Paint(id, s string) string {
	if !c.Enabled() {
		return s
	}
	return c.Color(id) + s + reset
}

func (c *ColorPicker) System(s string) string {
	if !c.Enabled() {
		return s
	}
	return systemColor + s + reset
}
