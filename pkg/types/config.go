// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperseeker pipeline:
// the PaperRecord that flows through every stage and the configuration value
// built once at startup and handed to each component constructor.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// OpenAlexConfig holds the paper-search API settings.
type OpenAlexConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIURL is the OpenAlex base URL; /graphql and /works are appended.
	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url"`

	// Email is sent as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	// MaxResults is the maximum number of works requested per keyword (capped at 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// DaysBack is the "last N days" window used when no start date is given.
	DaysBack int `json:"days_back" yaml:"days_back" mapstructure:"days_back"`

	// FromDate and ToDate pin the window (YYYY-MM-DD). Empty means unset.
	FromDate string `json:"from_date,omitempty" yaml:"from_date,omitempty" mapstructure:"from_date"`
	ToDate   string `json:"to_date,omitempty" yaml:"to_date,omitempty" mapstructure:"to_date"`

	// RelevanceThreshold is the minimum score kept by the final filter stage.
	RelevanceThreshold int `json:"relevance_threshold" yaml:"relevance_threshold" mapstructure:"relevance_threshold"`

	// KeywordThreshold is the keyword pre-filter threshold used ahead of AI refinement.
	KeywordThreshold int `json:"keyword_threshold" yaml:"keyword_threshold" mapstructure:"keyword_threshold"`

	// KeywordDelay is the pause between per-keyword queries.
	KeywordDelay time.Duration `json:"keyword_delay" yaml:"keyword_delay" mapstructure:"keyword_delay"`
}

// Provider names accepted in LLMConfig.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMConfig holds settings for stages that call a language model.
type LLMConfig struct {
	// Provider selects the client: "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier sent with each request.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the credential. Empty selects the degraded, model-free code path.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout bounds a single completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Configured reports whether a model credential is set.
func (c LLMConfig) Configured() bool {
	return c.APIKey != ""
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	SMTPServer     string `json:"smtp_server" yaml:"smtp_server" mapstructure:"smtp_server"`
	SMTPPort       int    `json:"smtp_port" yaml:"smtp_port" mapstructure:"smtp_port"`
	SenderEmail    string `json:"sender_email" yaml:"sender_email" mapstructure:"sender_email"`
	SenderPassword string `json:"sender_password,omitempty" yaml:"sender_password,omitempty" mapstructure:"sender_password"`
	RecipientEmail string `json:"recipient_email" yaml:"recipient_email" mapstructure:"recipient_email"`

	// ProbeTimeout bounds the pre-flight TCP reachability check.
	ProbeTimeout time.Duration `json:"probe_timeout" yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// HasAddresses reports whether both sender and recipient are set.
func (c EmailConfig) HasAddresses() bool {
	return c.SenderEmail != "" && c.RecipientEmail != ""
}

// SchedulerConfig holds the daily trigger settings.
type SchedulerConfig struct {
	// TriggerTime is the daily wall-clock time, "HH:MM".
	TriggerTime string `json:"trigger_time" yaml:"trigger_time" mapstructure:"trigger_time"`

	// Timezone is an IANA zone name for TriggerTime.
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`

	// Enabled gates the serve command.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// ArchiveConfig holds the optional run archive settings.
type ArchiveConfig struct {
	// Path is the SQLite file. Empty disables archiving.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// EmailTemplates holds the digest wording. Subject accepts {date} and {count}.
type EmailTemplates struct {
	Subject  string `json:"subject" yaml:"subject"`
	Greeting string `json:"greeting" yaml:"greeting"`
	Footer   string `json:"footer" yaml:"footer"`
}

// Prompts holds the research interests and model instructions loaded from prompts.yaml.
type Prompts struct {
	ResearchKeywords   []string       `json:"research_keywords" yaml:"research_keywords"`
	ExcludeKeywords    []string       `json:"exclude_keywords" yaml:"exclude_keywords"`
	FilterPrompt       string         `json:"filter_prompt" yaml:"filter_prompt"`
	SummarizePrompt    string         `json:"summarize_prompt" yaml:"summarize_prompt"`
	SummarizeThreshold int            `json:"summarize_threshold" yaml:"summarize_threshold"`
	Email              EmailTemplates `json:"email" yaml:"email"`
}

// Config groups every setting for one process. It is built once at startup
// and passed by pointer into component constructors.
type Config struct {
	Email     EmailConfig     `json:"email" yaml:"email" mapstructure:"email"`
	OpenAlex  OpenAlexConfig  `json:"openalex" yaml:"openalex" mapstructure:"openalex"`
	LLM       LLMConfig       `json:"llm" yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive" mapstructure:"archive"`
	Prompts   Prompts         `json:"prompts" yaml:"prompts" mapstructure:"-"`
}
