package terminal

import (
	"os"
	"strings"
)

// PreferenceOptions contains command-line color preferences
type PreferenceOptions struct {
	ForceColor   bool
	DisableColor bool
}

// SupportsColor decides whether status output is colored, in priority order:
// command-line options, CLICOLOR_FORCE, NO_COLOR, then, only when
// interactive, TERM=dumb and CLICOLOR.
func SupportsColor(d *Detector, prefs PreferenceOptions) bool {
	if prefs.ForceColor {
		return true
	}
	if prefs.DisableColor {
		return false
	}
	if isTruthy(os.Getenv("CLICOLOR_FORCE")) {
		return true
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	if !d.IsInteractive() {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	if cliColor := os.Getenv("CLICOLOR"); cliColor != "" {
		return isTruthy(cliColor)
	}
	return true
}

// isTruthy accepts "1", "true" and "yes" in any case
func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
