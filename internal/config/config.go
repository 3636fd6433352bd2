// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds the process configuration from paperseeker.yaml,
// prompts.yaml, the environment, and the .secrets/ directory.
//
// Precedence, highest first: PAPERSEEKER_* environment variables, the
// config file, files in .secrets/, built-in defaults. ${VAR} references in
// either YAML file are expanded from the environment before parsing; a .env
// file is loaded into the environment first.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperseeker/internal/secrets"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// DefaultConfigYAML is written by "paperseeker init".
//
//go:embed defaults/paperseeker.yaml
var DefaultConfigYAML []byte

// DefaultPromptsYAML is written by "paperseeker init".
//
//go:embed defaults/prompts.yaml
var DefaultPromptsYAML []byte

// File names searched for when no explicit path is given.
const (
	ConfigName  = "paperseeker"
	ConfigFile  = ConfigName + ".yaml"
	PromptsFile = "prompts.yaml"
	EnvPrefix   = "PAPERSEEKER"
)

// Options locate the inputs for Load. Empty fields use the defaults.
type Options struct {
	// ConfigFile is an explicit config path; otherwise ./paperseeker.yaml
	// then ~/.config/paperseeker/paperseeker.yaml are tried.
	ConfigFile string

	// PromptsFile is an explicit prompts path; otherwise prompts.yaml is
	// looked up next to the config file, then in the working directory.
	PromptsFile string

	// SecretsDir defaults to ".secrets".
	SecretsDir string

	// EnvFile defaults to ".env". A missing file is not an error.
	EnvFile string
}

// envRef matches ${NAME} references.
var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// ExpandEnv replaces every ${NAME} with the variable's value, or "" when unset.
func ExpandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// SetDefaults registers every configuration key with its default on v.
// Registering all keys also lets AutomaticEnv override any of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("email.smtp_server", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.sender_email", "")
	v.SetDefault("email.sender_password", "")
	v.SetDefault("email.recipient_email", "")
	v.SetDefault("email.probe_timeout", 10*time.Second)

	v.SetDefault("openalex.api_url", "https://api.openalex.org")
	v.SetDefault("openalex.email", "")
	v.SetDefault("openalex.timeout", 30*time.Second)
	v.SetDefault("openalex.user_agent", "")

	v.SetDefault("llm.provider", types.ProviderOpenAI)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.days_back", 1)
	v.SetDefault("search.from_date", "")
	v.SetDefault("search.to_date", "")
	v.SetDefault("search.relevance_threshold", 3)
	v.SetDefault("search.keyword_threshold", 1)
	v.SetDefault("search.keyword_delay", 500*time.Millisecond)

	v.SetDefault("scheduler.trigger_time", "21:00")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.enabled", true)

	v.SetDefault("archive.path", "")
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FindConfigFile resolves the config path. It returns "" with no error when
// no explicit path was given and no file exists in the search locations.
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	candidates := []string{ConfigFile}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", ConfigName, ConfigFile))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// FindPromptsFile resolves the prompts path, looking next to configPath
// before the working directory.
func FindPromptsFile(explicit, configPath string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("prompts file not found: %s", explicit)
		}
		return explicit, nil
	}

	var candidates []string
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), PromptsFile))
	}
	candidates = append(candidates, PromptsFile)
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// Load builds the configuration. v must come from New; it is filled with
// the expanded config file so callers can watch it for changes. The path of
// the config file used ("" when none) is returned alongside.
func Load(v *viper.Viper, opts Options) (*types.Config, string, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("loading %s: %w", envFile, err)
	}

	path, err := FindConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("reading config: %w", err)
		}
		if err := v.ReadConfig(bytes.NewReader(ExpandEnv(data))); err != nil {
			return nil, "", fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("decoding config: %w", err)
	}

	secretsDir := opts.SecretsDir
	if secretsDir == "" {
		secretsDir = secrets.DefaultDir
	}
	s, err := secrets.Load(secretsDir)
	if err != nil {
		return nil, "", err
	}
	ApplySecrets(&cfg, s)

	promptsPath, err := FindPromptsFile(opts.PromptsFile, path)
	if err != nil {
		return nil, "", err
	}
	prompts, err := LoadPrompts(promptsPath)
	if err != nil {
		return nil, "", err
	}
	cfg.Prompts = *prompts

	if err := Validate(&cfg); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

// ApplySecrets fills credentials the config left empty from the secret set.
func ApplySecrets(cfg *types.Config, s secrets.Set) {
	cfg.LLM.APIKey = s.Default(secrets.LLMAPIKey, cfg.LLM.APIKey)
	cfg.Email.SenderPassword = s.Default(secrets.SMTPPassword, cfg.Email.SenderPassword)
	cfg.OpenAlex.Email = s.Default(secrets.OpenAlexEmail, cfg.OpenAlex.Email)
}

// Validate rejects settings no stage can work with.
func Validate(cfg *types.Config) error {
	var errs []error
	switch strings.ToLower(cfg.LLM.Provider) {
	case types.ProviderOpenAI, types.ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be %q or %q, got %q",
			types.ProviderOpenAI, types.ProviderAnthropic, cfg.LLM.Provider))
	}
	if cfg.Email.SMTPPort <= 0 || cfg.Email.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("email.smtp_port out of range: %d", cfg.Email.SMTPPort))
	}
	if cfg.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.max_results must be positive, got %d", cfg.Search.MaxResults))
	}
	if cfg.Search.DaysBack < 0 {
		errs = append(errs, fmt.Errorf("search.days_back must not be negative, got %d", cfg.Search.DaysBack))
	}
	if cfg.Search.RelevanceThreshold < 0 || cfg.Search.KeywordThreshold < 0 {
		errs = append(errs, errors.New("search thresholds must not be negative"))
	}
	return errors.Join(errs...)
}
