package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/spigell/placement-engine/internal/types"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
	// Hint is appended to the configuration error when nothing is configured.
	Hint string
}

// Load returns the resolved, trimmed secret value. A missing secret is reported
// as *types.ErrConfiguration; an unreadable file is reported as a wrapped error.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if file != "" {
			return "", &types.ErrConfiguration{Setting: name, Hint: fmt.Sprintf("file %q is empty", file)}
		}
		return "", &types.ErrConfiguration{Setting: name, Hint: src.Hint}
	}

	return secret, nil
}

// Optional behaves like Load but treats an unconfigured secret as empty.
func Optional(src Source) (string, error) {
	if strings.TrimSpace(src.File) == "" && strings.TrimSpace(src.Value) == "" {
		return "", nil
	}
	return Load(src)
}
