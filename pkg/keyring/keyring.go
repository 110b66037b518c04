// Package keyring resolves plaintext API keys for provider ids. The
// encrypted credential vault lives outside this module; anything that can
// answer "key for provider X, or not" plugs in as a Source.
package keyring

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Source supplies the API key for a provider id. The second return is false
// when the vault is locked or no key is configured for that provider.
type Source interface {
	APIKey(provider string) (string, bool)
}

// Static is a fixed provider→key map, typically filled from config.
type Static map[string]string

func (s Static) APIKey(provider string) (string, bool) {
	key, ok := s[provider]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// envAliases maps provider ids onto the environment variable convention.
// Both google and gemini resolve through GOOGLE_API_KEY.
var envAliases = map[string]string{
	"google": "GOOGLE_API_KEY",
	"gemini": "GOOGLE_API_KEY",
}

// Env resolves keys from <PROVIDER>_API_KEY environment variables.
type Env struct{}

func (Env) APIKey(provider string) (string, bool) {
	name, ok := envAliases[provider]
	if !ok {
		name = strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
	}
	key := os.Getenv(name)
	return key, key != ""
}

// Chain tries each source in order and returns the first hit.
type Chain []Source

func (c Chain) APIKey(provider string) (string, bool) {
	for _, s := range c {
		if key, ok := s.APIKey(provider); ok {
			return key, true
		}
	}
	return "", false
}

// LoadDotEnv loads variables from a .env file into the process environment
// so that Env can see them. A missing file is not an error when no explicit
// path was given.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	return godotenv.Load(paths...)
}
