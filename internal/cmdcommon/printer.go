package cmdcommon

import (
	"fmt"
	"io"

	"github.com/isseis/go-code-encrypter/internal/color"
	"github.com/isseis/go-code-encrypter/internal/pipeline"
	"github.com/isseis/go-code-encrypter/internal/terminal"
)

// labelWidth aligns paths after the longest status label
const labelWidth = len("Not Encrypted")

// StatusPrinter writes one line per file to stdout and the cause of each
// failure to stderr. It implements pipeline.Reporter.
type StatusPrinter struct {
	stdout  io.Writer
	stderr  io.Writer
	palette color.Palette
}

// NewStatusPrinter creates a printer
func NewStatusPrinter(stdout, stderr io.Writer, palette color.Palette) *StatusPrinter {
	return &StatusPrinter{stdout: stdout, stderr: stderr, palette: palette}
}

// Report implements pipeline.Reporter
func (p *StatusPrinter) Report(path string, status pipeline.Status, err error) {
	label := fmt.Sprintf("%-*s", labelWidth, status.String())
	_, _ = fmt.Fprintf(p.stdout, "%s %s\n", p.palette.Apply(statusColor(status), label), path)
	if err != nil {
		_, _ = fmt.Fprintf(p.stderr, "Error processing %s: %v\n", path, err)
	}
}

func statusColor(status pipeline.Status) color.Color {
	switch status {
	case pipeline.StatusEncrypted:
		return color.Green
	case pipeline.StatusDecrypted:
		return color.Red
	case pipeline.StatusInvalidFile:
		return color.Gray
	default:
		return color.Yellow
	}
}

// Palette chooses colored or plain output from the flags and the terminal
func Palette(f Flags, detector *terminal.Detector) color.Palette {
	return color.NewPalette(terminal.SupportsColor(detector, terminal.PreferenceOptions{
		ForceColor:   f.Color,
		DisableColor: f.NoColor,
	}))
}
