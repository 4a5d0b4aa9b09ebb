// Configuration settings with environment variable overrides
package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath              = "./data"
	DefaultTimeoutSeconds    = 600
	DefaultModel             = "claude-sonnet-4-5"
	DefaultTemperature       = 0.7
	DefaultBedrockMaxRetries = 5

	// Bedrock network timeouts, in seconds
	DefaultBedrockConnectTimeout = 60
	DefaultBedrockReadTimeout    = 300
)

// Environment variables recognized by Config.ApplyEnv. Where a setting has more
// than one name, the first non-empty one in the list wins.
var (
	EnvPath                   = []string{"BIOMNI_PATH", "BIOMNI_DATA_PATH"}
	EnvTimeoutSeconds         = []string{"BIOMNI_TIMEOUT_SECONDS"}
	EnvModel                  = []string{"BIOMNI_LLM", "BIOMNI_LLM_MODEL"}
	EnvUseToolRetriever       = []string{"BIOMNI_USE_TOOL_RETRIEVER"}
	EnvCommercialMode         = []string{"BIOMNI_COMMERCIAL_MODE"}
	EnvTemperature            = []string{"BIOMNI_TEMPERATURE"}
	EnvBaseURL                = []string{"BIOMNI_CUSTOM_BASE_URL"}
	EnvAPIKey                 = []string{"BIOMNI_CUSTOM_API_KEY"}
	EnvSource                 = []string{"BIOMNI_SOURCE"}
	EnvProtocolsIOAccessToken = []string{"PROTOCOLS_IO_ACCESS_TOKEN", "BIOMNI_PROTOCOLS_IO_ACCESS_TOKEN"}
	EnvAWSRegion              = []string{"AWS_REGION", "AWS_DEFAULT_REGION"}
	EnvAWSProfile             = []string{"AWS_PROFILE"}
	EnvBedrockMaxRetries      = []string{"BIOMNI_BEDROCK_MAX_RETRIES"}
	EnvBedrockConnectTimeout  = []string{"BIOMNI_BEDROCK_CONNECT_TIMEOUT"}
	EnvBedrockReadTimeout     = []string{"BIOMNI_BEDROCK_READ_TIMEOUT"}
)

// Config holds the application settings forwarded to the model clients.
//
// Values are resolved as: built-in default, then explicit value (option or
// config file), then environment variable. A Config is a plain value and can
// be modified after creation.
type Config struct {
	// Data and execution settings
	Path           string `json:"path" yaml:"path" toml:"path"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`

	// LLM settings (provider API keys stay in the environment)
	Model       string  `json:"llm" yaml:"llm" toml:"llm"`
	Temperature float64 `json:"temperature" yaml:"temperature" toml:"temperature"`

	UseToolRetriever bool `json:"use_tool_retriever" yaml:"use_tool_retriever" toml:"use_tool_retriever"`

	// CommercialMode excludes non-commercial datasets
	CommercialMode bool `json:"commercial_mode" yaml:"commercial_mode" toml:"commercial_mode"`

	// Custom model serving. APIKey is only for custom models.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`

	// Source forces the LLM source; auto-detected when empty
	Source string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`

	ProtocolsIOAccessToken string `json:"protocols_io_access_token,omitempty" yaml:"protocols_io_access_token,omitempty" toml:"protocols_io_access_token,omitempty"`

	// AWS Bedrock
	AWSRegion                    string `json:"aws_region,omitempty" yaml:"aws_region,omitempty" toml:"aws_region,omitempty"`
	AWSProfile                   string `json:"aws_profile,omitempty" yaml:"aws_profile,omitempty" toml:"aws_profile,omitempty"`
	BedrockMaxRetries            int    `json:"bedrock_max_retries" yaml:"bedrock_max_retries" toml:"bedrock_max_retries"`
	BedrockConnectTimeoutSeconds int    `json:"bedrock_connect_timeout" yaml:"bedrock_connect_timeout" toml:"bedrock_connect_timeout"`
	BedrockReadTimeoutSeconds    int    `json:"bedrock_read_timeout" yaml:"bedrock_read_timeout" toml:"bedrock_read_timeout"`
}

// ConfigOption sets an explicit value on a Config
type ConfigOption func(*Config)

func WithPath(path string) ConfigOption {
	return func(c *Config) { c.Path = path }
}

func WithTimeoutSeconds(seconds int) ConfigOption {
	return func(c *Config) { c.TimeoutSeconds = seconds }
}

func WithModel(model string) ConfigOption {
	return func(c *Config) { c.Model = model }
}

func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) { c.Temperature = temperature }
}

func WithToolRetriever(enabled bool) ConfigOption {
	return func(c *Config) { c.UseToolRetriever = enabled }
}

func WithCommercialMode(enabled bool) ConfigOption {
	return func(c *Config) { c.CommercialMode = enabled }
}

// WithCustomModel sets the base URL and API key of a self-hosted model
func WithCustomModel(baseURL, apiKey string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = baseURL
		c.APIKey = apiKey
	}
}

func WithSource(source string) ConfigOption {
	return func(c *Config) { c.Source = source }
}

func WithProtocolsIOAccessToken(token string) ConfigOption {
	return func(c *Config) { c.ProtocolsIOAccessToken = token }
}

func WithAWSRegion(region string) ConfigOption {
	return func(c *Config) { c.AWSRegion = region }
}

func WithAWSProfile(profile string) ConfigOption {
	return func(c *Config) { c.AWSProfile = profile }
}

func WithBedrockMaxRetries(retries int) ConfigOption {
	return func(c *Config) { c.BedrockMaxRetries = retries }
}

// WithBedrockTimeouts sets the connect and read timeouts, in seconds
func WithBedrockTimeouts(connect, read int) ConfigOption {
	return func(c *Config) {
		c.BedrockConnectTimeoutSeconds = connect
		c.BedrockReadTimeoutSeconds = read
	}
}

// DefaultConfig returns a Config with built-in defaults only. The environment
// is not consulted.
func DefaultConfig() Config {
	return Config{
		Path:                         DefaultPath,
		TimeoutSeconds:               DefaultTimeoutSeconds,
		Model:                        DefaultModel,
		Temperature:                  DefaultTemperature,
		UseToolRetriever:             true,
		BedrockMaxRetries:            DefaultBedrockMaxRetries,
		BedrockConnectTimeoutSeconds: DefaultBedrockConnectTimeout,
		BedrockReadTimeoutSeconds:    DefaultBedrockReadTimeout,
	}
}

// NewConfig creates a Config from the defaults, the given options and then
// the environment.
func NewConfig(opts ...ConfigOption) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.ApplyEnv()
	return cfg
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file on top of the
// defaults, and then applies the environment.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	default:
		return Config{}, fmt.Errorf("config %s: unsupported file extension %q", path, filepath.Ext(path))
	}

	cfg, err := ParseConfig(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ParseConfig decodes data ("yaml" or "toml") on top of the defaults. Keys not
// present in data keep their default. The environment is not consulted.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing yaml config: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing toml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	return cfg, nil
}

// ApplyEnv overrides fields with the environment variables that are set and
// non-empty. Numeric values that do not parse, and non-positive integers, are
// ignored.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := firstEnv(getenv, EnvPath); v != "" {
		c.Path = v
	}
	if v, ok := envInt(getenv, EnvTimeoutSeconds); ok {
		c.TimeoutSeconds = v
	}
	if v := firstEnv(getenv, EnvModel); v != "" {
		c.Model = v
	}
	if v := firstEnv(getenv, EnvUseToolRetriever); v != "" {
		c.UseToolRetriever = strings.EqualFold(v, "true")
	}
	if v := firstEnv(getenv, EnvCommercialMode); v != "" {
		c.CommercialMode = strings.EqualFold(v, "true")
	}
	if v := firstEnv(getenv, EnvTemperature); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := firstEnv(getenv, EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := firstEnv(getenv, EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := firstEnv(getenv, EnvSource); v != "" {
		c.Source = v
	}
	if v := firstEnv(getenv, EnvProtocolsIOAccessToken); v != "" {
		c.ProtocolsIOAccessToken = v
	}
	if v := firstEnv(getenv, EnvAWSRegion); v != "" {
		c.AWSRegion = v
	}
	if v := firstEnv(getenv, EnvAWSProfile); v != "" {
		c.AWSProfile = v
	}
	if v, ok := envInt(getenv, EnvBedrockMaxRetries); ok {
		c.BedrockMaxRetries = v
	}
	if v, ok := envInt(getenv, EnvBedrockConnectTimeout); ok {
		c.BedrockConnectTimeoutSeconds = v
	}
	if v, ok := envInt(getenv, EnvBedrockReadTimeout); ok {
		c.BedrockReadTimeoutSeconds = v
	}
}

// ToMap returns the config as a plain map, keyed like the serialized forms
func (c Config) ToMap() map[string]any {
	return map[string]any{
		"path":                      c.Path,
		"timeout_seconds":           c.TimeoutSeconds,
		"llm":                       c.Model,
		"temperature":               c.Temperature,
		"use_tool_retriever":        c.UseToolRetriever,
		"commercial_mode":           c.CommercialMode,
		"base_url":                  c.BaseURL,
		"api_key":                   c.APIKey,
		"source":                    c.Source,
		"protocols_io_access_token": c.ProtocolsIOAccessToken,
		"aws_region":                c.AWSRegion,
		"aws_profile":               c.AWSProfile,
		"bedrock_max_retries":       c.BedrockMaxRetries,
		"bedrock_connect_timeout":   c.BedrockConnectTimeoutSeconds,
		"bedrock_read_timeout":      c.BedrockReadTimeoutSeconds,
	}
}

// firstEnv returns the value of the first variable in names that is set and non-empty
func firstEnv(getenv func(string) string, names []string) string {
	for _, name := range names {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// envInt parses the first non-empty variable in names as a positive integer.
// Every integer setting is a count or a duration, so zero is ignored as well.
func envInt(getenv func(string) string, names []string) (int, bool) {
	v := firstEnv(getenv, names)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
