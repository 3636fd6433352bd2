// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// Defaults for prompts.yaml fields.
const (
	DefaultSummarizeThreshold = 4
	DefaultSubject            = "PaperSeeker: {date} Papers ({count})"
	DefaultGreeting           = "Hello, here are today's paper recommendations."
)

// DefaultPrompts returns the values used for keys prompts.yaml leaves out.
func DefaultPrompts() *types.Prompts {
	return &types.Prompts{
		SummarizeThreshold: DefaultSummarizeThreshold,
		Email: types.EmailTemplates{
			Subject:  DefaultSubject,
			Greeting: DefaultGreeting,
		},
	}
}

// LoadPrompts reads a prompts file. An empty path yields the defaults.
func LoadPrompts(path string) (*types.Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts: %w", err)
	}
	p, err := ParsePrompts(ExpandEnv(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParsePrompts decodes prompts YAML over the defaults, so keys absent from
// data keep their default values.
func ParsePrompts(data []byte) (*types.Prompts, error) {
	p := DefaultPrompts()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing prompts: %w", err)
	}
	return p, nil
}
