// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProviderKind names an AI formatting provider.
type ProviderKind string

const (
	ProviderOpenAI   ProviderKind = "openai"
	ProviderDeepSeek ProviderKind = "deepseek"
)

// GenericBackend selects how word, presentation, PDF and HTML files are
// turned into markdown.
type GenericBackend string

const (
	BackendAuto       GenericBackend = "auto"
	BackendMarkitdown GenericBackend = "markitdown"
	BackendNative     GenericBackend = "native"
)

// ProviderConfig holds the settings of one AI provider. It is immutable for
// the duration of a run.
type ProviderConfig struct {
	// Model is the chat model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// BaseURL overrides the provider API endpoint. Empty uses the client default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url" validate:"omitempty,url"`

	// APIKey authenticates requests. Required only for the selected provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens is the token budget of one request (default 3000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=1"`

	// RateLimitDelay is the minimum number of seconds between the starts of
	// two calls to this provider (default 1.0).
	RateLimitDelay float64 `json:"rate_limit_delay" yaml:"rate_limit_delay" mapstructure:"rate_limit_delay" validate:"gte=0"`
}

// Delay returns RateLimitDelay as a duration.
func (p ProviderConfig) Delay() time.Duration {
	return time.Duration(p.RateLimitDelay * float64(time.Second))
}

// GenericConfig holds settings for the generic document converter.
type GenericConfig struct {
	// Backend is auto, markitdown or native (default auto).
	Backend GenericBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=auto markitdown native"`

	// Image is the markitdown container image (default "markitdown:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`
}

// MinioConfig holds object-store credentials used when an output path is an
// s3:// URL.
type MinioConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl" mapstructure:"use_ssl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a logrus level name (default "info").
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`

	// Format is "text" or "json" (default "text").
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=text json"`

	// File, when set, receives log output through a rotating writer.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	// MaxSizeMB is the rotation threshold of File (default 10).
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb" validate:"gte=0"`

	// MaxBackups is the number of rotated files kept (default 3).
	MaxBackups int `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups" validate:"gte=0"`
}

// Config is the validated run configuration handed to the pipeline.
type Config struct {
	// UseAI enables the AI formatting pass.
	UseAI bool `json:"use_ai" yaml:"use_ai" mapstructure:"use_ai"`

	// AIProvider selects openai or deepseek.
	AIProvider ProviderKind `json:"ai_provider" yaml:"ai_provider" mapstructure:"ai_provider" validate:"oneof=openai deepseek"`

	// IncludeTitles adds a "## <sheet>" heading per spreadsheet table.
	IncludeTitles bool `json:"include_titles" yaml:"include_titles" mapstructure:"include_titles"`

	// PromptsFile is the YAML prompt table used by the AI pass.
	PromptsFile string `json:"prompts_file" yaml:"prompts_file" mapstructure:"prompts_file"`

	// AIExtensions restricts the AI pass to these extensions (".xlsx").
	// Empty means every supported extension is eligible.
	AIExtensions []string `json:"ai_extensions" yaml:"ai_extensions" mapstructure:"ai_extensions"`

	// Workers bounds the number of files converted at once (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers" validate:"gte=1"`

	// ChunkWorkers bounds the concurrent provider calls per document (default 4).
	ChunkWorkers int `json:"chunk_workers" yaml:"chunk_workers" mapstructure:"chunk_workers" validate:"gte=1"`

	// MaxRetries is the number of retries of a transient provider failure (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`

	// RequestTimeout bounds a single provider call (default 120s).
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout" validate:"gte=0"`

	// Recursive makes directory runs descend into subdirectories.
	Recursive bool `json:"recursive" yaml:"recursive" mapstructure:"recursive"`

	// Strict records unsupported files in a directory as failures instead
	// of skipping them.
	Strict bool `json:"strict" yaml:"strict" mapstructure:"strict"`

	// DetectContent sniffs the content of files with unknown extensions.
	DetectContent bool `json:"detect_content" yaml:"detect_content" mapstructure:"detect_content"`

	// CacheResponses reuses provider responses for identical prompts.
	CacheResponses bool `json:"cache_responses" yaml:"cache_responses" mapstructure:"cache_responses"`

	Generic  GenericConfig  `json:"generic" yaml:"generic" mapstructure:"generic"`
	OpenAI   ProviderConfig `json:"openai" yaml:"openai" mapstructure:"openai"`
	DeepSeek ProviderConfig `json:"deepseek" yaml:"deepseek" mapstructure:"deepseek"`
	Minio    MinioConfig    `json:"minio" yaml:"minio" mapstructure:"minio"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// Provider returns the settings of the selected AI provider.
func (c *Config) Provider() ProviderConfig {
	if c.AIProvider == ProviderDeepSeek {
		return c.DeepSeek
	}
	return c.OpenAI
}
