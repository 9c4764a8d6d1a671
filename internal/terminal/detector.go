// Package terminal decides whether the commands talk to a person: whether
// status lines may be colored and whether a missing key can be prompted for.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars contains common CI environment variables
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"TRAVIS",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILD_NUMBER",
	"GITLAB_CI",
	"APPVEYOR",
	"BUILDKITE",
	"DRONE",
	"TF_BUILD",
}

// DetectorOptions contains options for controlling interactive detection
type DetectorOptions struct {
	ForceInteractive    bool
	ForceNonInteractive bool
}

// Detector reports how the process is attached to terminals
type Detector struct {
	options    DetectorOptions
	isTerminal func(fd int) bool
}

// NewDetector creates a detector backed by golang.org/x/term
func NewDetector(options DetectorOptions) *Detector {
	return &Detector{options: options, isTerminal: term.IsTerminal}
}

// IsInteractive reports whether output is read by a person: forced by
// options, otherwise stdout on a terminal outside CI.
func (d *Detector) IsInteractive() bool {
	if d.options.ForceInteractive {
		return true
	}
	if d.options.ForceNonInteractive {
		return false
	}
	if IsCIEnvironment() {
		return false
	}
	return d.isTerminal(int(os.Stdout.Fd()))
}

// CanPrompt reports whether a secret can be read from stdin without echo
func (d *Detector) CanPrompt() bool {
	if d.options.ForceNonInteractive {
		return false
	}
	return d.isTerminal(int(os.Stdin.Fd()))
}

// IsCIEnvironment checks if the current environment is a CI/CD system
func IsCIEnvironment() bool {
	for _, envVar := range ciEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if envVar == "CI" {
			return isCITruthy(value)
		}
		return true
	}
	return false
}

// isCITruthy treats CI=false, CI=0 and CI=no as not CI
func isCITruthy(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return lower != "false" && lower != "0" && lower != "no"
}
