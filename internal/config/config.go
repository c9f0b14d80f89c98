// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles the run configuration from defaults, a YAML
// config file, a dotenv file, environment variables and the secrets
// directory, in increasing order of precedence for everything except API
// keys, where the secrets directory is only a fallback.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/secrets"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name is used for the config file, its directory and the env prefix.
const Name = "doc2md"

// DefaultEnvFile is read when Options.EnvFile is empty.
const DefaultEnvFile = ".env"

// Options locate the configuration sources.
type Options struct {
	// File is an explicit config file. Empty searches ./doc2md.yaml and
	// ~/.config/doc2md/doc2md.yaml.
	File string

	// EnvFile is a dotenv file loaded into the process environment. Values
	// already set in the environment win.
	EnvFile string
}

// legacyEnv maps config keys to the unprefixed variable names accepted
// alongside DOC2MD_*.
var legacyEnv = map[string][]string{
	"openai.api_key":            {"OPENAI_API_KEY"},
	"openai.model":              {"OPENAI_MODEL"},
	"openai.base_url":           {"OPENAI_BASE_URL"},
	"openai.max_tokens":         {"OPENAI_MAX_TOKENS"},
	"openai.rate_limit_delay":   {"OPENAI_RATE_LIMIT_DELAY"},
	"deepseek.api_key":          {"DEEPSEEK_API_KEY"},
	"deepseek.model":            {"DEEPSEEK_MODEL"},
	"deepseek.base_url":         {"DEEPSEEK_BASE_URL"},
	"deepseek.max_tokens":       {"DEEPSEEK_MAX_TOKENS"},
	"deepseek.rate_limit_delay": {"DEEPSEEK_RATE_LIMIT_DELAY"},
	"ai_extensions":             {"AI_SUPPORTED_EXTENSIONS"},
	"minio.endpoint":            {"MINIO_ENDPOINT"},
	"minio.access_key":          {"MINIO_ACCESS_KEY"},
	"minio.secret_key":          {"MINIO_SECRET_KEY"},
	"minio.use_ssl":             {},
}

// New returns a viper instance with defaults, environment bindings and the
// config file (when one is found) applied. Callers may bind command-line
// flags on it before calling Decode.
func New(opts Options) (*viper.Viper, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(Name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := strings.ToUpper(Name) + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("use_ai", false)
	v.SetDefault("ai_provider", string(types.ProviderOpenAI))
	v.SetDefault("include_titles", true)
	v.SetDefault("prompts_file", "prompts.yaml")
	// Empty makes every kind AI-eligible.
	v.SetDefault("ai_extensions", []string{})
	v.SetDefault("workers", 4)
	v.SetDefault("chunk_workers", 4)
	v.SetDefault("max_retries", 3)
	v.SetDefault("request_timeout", "120s")
	v.SetDefault("recursive", false)
	v.SetDefault("strict", false)
	v.SetDefault("detect_content", false)
	v.SetDefault("cache_responses", true)

	v.SetDefault("generic.backend", string(types.BackendAuto))
	v.SetDefault("generic.image", "markitdown:latest")

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 3000)
	v.SetDefault("openai.rate_limit_delay", 1.0)

	v.SetDefault("deepseek.model", "deepseek-chat")
	v.SetDefault("deepseek.base_url", formatter.DeepSeekBaseURL)
	v.SetDefault("deepseek.max_tokens", 3000)
	v.SetDefault("deepseek.rate_limit_delay", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
}

var validate = validator.New()

// Decode unmarshals v into a Config, fills empty credentials from store,
// and validates the result. The API key of the selected provider is
// required only when the AI pass is enabled.
func Decode(v *viper.Viper, store secrets.Store) (*types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	store.Fill(&cfg.OpenAI.APIKey, secrets.OpenAIKey)
	store.Fill(&cfg.DeepSeek.APIKey, secrets.DeepSeekKey)
	store.Fill(&cfg.Minio.AccessKey, secrets.MinioAccessKey)
	store.Fill(&cfg.Minio.SecretKey, secrets.MinioSecretKey)

	cfg.AIProvider = types.ProviderKind(strings.ToLower(string(cfg.AIProvider)))
	cfg.AIExtensions = NormalizeExtensions(cfg.AIExtensions)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.UseAI && cfg.Provider().APIKey == "" {
		return nil, fmt.Errorf("invalid config: %s API key is required when AI formatting is enabled", cfg.AIProvider)
	}
	return &cfg, nil
}

// Load is New followed by Decode with the secrets in secretsDir.
func Load(opts Options, secretsDir string, log logrus.FieldLogger) (*types.Config, error) {
	v, err := New(opts)
	if err != nil {
		return nil, err
	}
	store, err := secrets.Load(secretsDir, log)
	if err != nil {
		return nil, err
	}
	return Decode(v, store)
}

// NormalizeExtensions lower-cases entries and gives them a leading dot.
// Entries may also arrive as one comma-separated string.
func NormalizeExtensions(exts []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range exts {
		for _, part := range strings.Split(e, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if !strings.HasPrefix(part, ".") {
				part = "." + part
			}
			if !seen[part] {
				seen[part] = true
				out = append(out, part)
			}
		}
	}
	return out
}

// Prompts loads the prompt table named by cfg. A missing file falls back to
// the built-in prompts with a warning; a malformed one is an error.
func Prompts(cfg *types.Config, log logrus.FieldLogger) (formatter.Prompts, error) {
	p, err := formatter.LoadPrompts(cfg.PromptsFile)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("prompts_file", cfg.PromptsFile).Warn("prompts file not found, using built-in prompts")
		return formatter.DefaultPrompts(), nil
	}
	return nil, err
}
