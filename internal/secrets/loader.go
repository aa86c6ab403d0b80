// Package secrets resolves credentials (IMAP/SMTP passwords, model API keys)
// from configuration, preferring file-backed values over inline ones.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret comes from.
type Source struct {
	// Name gives error messages context about which secret failed to load.
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File points to a file holding the secret. When set it takes precedence
	// over Value.
	File string
}

// Load resolves the secret, trimmed of surrounding whitespace. An error is
// returned when neither File nor Value yields a non-empty value.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	value := src.Value
	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		value = string(data)
	}

	secret := strings.TrimSpace(value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
