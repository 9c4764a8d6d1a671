package terminal

import (
	"testing"
)

// setupCleanEnv controls every environment variable the package reads and
// sets only the given ones.
func setupCleanEnv(t *testing.T, envVars map[string]string) {
	t.Helper()

	// NO_COLOR is checked for existence, so it stays unset unless specified
	if value, specified := envVars["NO_COLOR"]; specified {
		t.Setenv("NO_COLOR", value)
	}

	valueCheckedVars := append([]string{"CLICOLOR", "CLICOLOR_FORCE", "TERM"}, ciEnvVars...)
	for _, v := range valueCheckedVars {
		if value, specified := envVars[v]; specified {
			t.Setenv(v, value)
		} else {
			t.Setenv(v, "")
		}
	}
}

func fakeTerminal(attached bool) func(int) bool {
	return func(int) bool { return attached }
}
