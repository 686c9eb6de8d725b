package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret value comes from. File takes precedence
// over Value so a mounted secret file overrides anything left inline in the
// configuration.
type Source struct {
	// Name identifies the secret in error messages.
	Name string
	// Value is an inline value provided via configuration or flags.
	Value string
	// File is a path to a file holding the value.
	File string
}

// Load resolves the secret, trimmed of surrounding whitespace. Secret files
// mounted by the platform usually end with a trailing newline, so trimming is
// part of the contract.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		return fromFile(name, file)
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}

func fromFile(name, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}

	return secret, nil
}
