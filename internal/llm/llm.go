// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the chat-completion providers used by the relevance
// and summarize stages behind a single Completer interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// Default model names per provider, used when the configuration leaves Model empty.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-haiku-4-5"
)

// defaultTimeout bounds one completion call when the configuration does not.
const defaultTimeout = 60 * time.Second

// Request is one system+user exchange with a model.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer sends a Request to a model and returns the reply text.
// Implementations make exactly one attempt; callers decide how to degrade.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// ErrEmptyReply is returned when the provider answers without any choice.
// A choice with empty text is not an error; it is returned as "".
var ErrEmptyReply = errors.New("model returned no content")

// New builds the Completer selected by cfg.Provider. The boolean is false when
// no API key is configured; callers then pick their model-free variants and
// the returned Completer is nil.
func New(cfg types.LLMConfig) (Completer, bool, error) {
	if !cfg.Configured() {
		return nil, false, nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch strings.ToLower(cfg.Provider) {
	case "", types.ProviderOpenAI:
		return NewOpenAI(cfg), true, nil
	case types.ProviderAnthropic:
		return NewAnthropic(cfg), true, nil
	default:
		return nil, false, fmt.Errorf("unknown llm provider %q (want %s or %s)",
			cfg.Provider, types.ProviderOpenAI, types.ProviderAnthropic)
	}
}
