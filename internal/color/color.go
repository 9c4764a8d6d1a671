// Package color wraps text in ANSI escape sequences for terminal output.
//
//nolint:revive // package name conflicts with standard library
package color

// ANSI color codes
const (
	resetCode  = "\033[0m"
	grayCode   = "\033[90m"
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	redCode    = "\033[31m"
	cyanCode   = "\033[36m"
)

// Color wraps text with ANSI escape sequences
type Color func(text string) string

// NewColor creates a color function with the specified ANSI code.
func NewColor(ansiCode string) Color {
	return func(text string) string {
		return ansiCode + text + resetCode
	}
}

// Predefined color functions
var (
	Gray   = NewColor(grayCode)
	Green  = NewColor(greenCode)
	Yellow = NewColor(yellowCode)
	Red    = NewColor(redCode)
	Cyan   = NewColor(cyanCode)
)

// Plain returns text unchanged
func Plain(text string) string {
	return text
}

// Palette applies colors only when enabled
type Palette struct {
	enabled bool
}

// NewPalette returns a palette that colors when enabled is true
func NewPalette(enabled bool) Palette {
	return Palette{enabled: enabled}
}

// Enabled reports whether the palette emits escape sequences
func (p Palette) Enabled() bool {
	return p.enabled
}

// Apply colors text with c when the palette is enabled
func (p Palette) Apply(c Color, text string) string {
	if !p.enabled || c == nil {
		return text
	}
	return c(text)
}
