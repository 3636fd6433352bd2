// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files so
// they stay out of the YAML configuration. The filename is the key and the
// trimmed contents are the value.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Recognized key files.
const (
	LLMAPIKey     = "llm-api-key"
	SMTPPassword  = "smtp-password"
	OpenAlexEmail = "openalex-email"
)

// Set maps key names to secret values.
type Set map[string]string

// Default returns configured when it is non-empty, otherwise the secret
// stored under key, otherwise "". Explicit configuration always wins.
func (s Set) Default(key, configured string) string {
	if configured != "" {
		return configured
	}
	return s[key]
}

// Load reads every regular, non-hidden file in dir. A missing directory yields
// an empty Set. Unreadable or empty files are skipped; unreadable ones are
// reported to stderr.
func Load(dir string) (Set, error) {
	return LoadWithWarnings(dir, os.Stderr)
}

// LoadWithWarnings is Load with an explicit destination for skip warnings.
func LoadWithWarnings(dir string, warn io.Writer) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	set := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			set[name] = value
		}
	}
	return set, nil
}
