package cmdcommon

import (
	"bytes"
	"fmt"

	"github.com/isseis/go-code-encrypter/internal/safefileio"
	"github.com/joho/godotenv"
)

// LoadEnvironment returns the command's variables from the process
// environment, overridden by the .env file when envFile is set. Other
// variables in the file are ignored.
func LoadEnvironment(envFile string, lookupEnv func(string) (string, bool)) (map[string]string, error) {
	env := make(map[string]string)
	for _, name := range []string{EnvKey, EnvCipher} {
		if value, ok := lookupEnv(name); ok && value != "" {
			env[name] = value
		}
	}

	if envFile == "" {
		return env, nil
	}

	content, err := safefileio.SafeReadFile(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file %s securely: %w", envFile, err)
	}
	fileEnv, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment file %s: %w", envFile, err)
	}
	for _, name := range []string{EnvKey, EnvCipher} {
		if value := fileEnv[name]; value != "" {
			env[name] = value
		}
	}
	return env, nil
}
