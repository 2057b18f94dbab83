// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jj82931/Cost-of-Living-saver/internal/llm"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"github.com/jj82931/Cost-of-Living-saver/pkg/validation"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Configuration holds all configuration for the comparison tools.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Catalog CatalogConfig `yaml:"catalog,omitempty"`
	Match   MatchConfig   `yaml:"match,omitempty"`
	Extract ExtractConfig `yaml:"extract,omitempty"`
	LLM     LLMConfig     `yaml:"llm,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json, xlsx
}

// CatalogConfig points at the plan catalog. An empty path uses the bundled
// sample catalog.
type CatalogConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MatchConfig tunes plan ranking.
type MatchConfig struct {
	Limit int `yaml:"limit,omitempty"`
}

// ExtractConfig tunes bill extraction.
type ExtractConfig struct {
	NormalizeText bool    `yaml:"normalizeText,omitempty"`
	MinConfidence float64 `yaml:"minConfidence,omitempty"`
}

// LLMConfig configures the optional plain-language explanation of a report.
type LLMConfig struct {
	Enabled           bool          `yaml:"enabled,omitempty"`
	BaseURL           string        `yaml:"baseURL,omitempty"`
	APIKey            string        `yaml:"apiKey,omitempty"`
	Site              string        `yaml:"site,omitempty"`
	App               string        `yaml:"app,omitempty"`
	Model             string        `yaml:"model,omitempty"`
	Temperature       float64       `yaml:"temperature,omitempty"`
	MaxTokens         int           `yaml:"maxTokens,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	Retries           int           `yaml:"retries,omitempty"`
	Backoff           time.Duration `yaml:"backoff,omitempty"`
	RequestsPerMinute int           `yaml:"requestsPerMinute,omitempty"`
	CacheTTL          time.Duration `yaml:"cacheTTL,omitempty"`
}

// ClientOptions converts the settings into llm client options. Connection
// settings left empty fall back to the OPENROUTER_* environment variables.
func (c LLMConfig) ClientOptions(logger *zap.Logger) llm.Options {
	opts := llm.Options{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		Site:              c.Site,
		App:               c.App,
		Model:             c.Model,
		Temperature:       c.Temperature,
		MaxTokens:         c.MaxTokens,
		Timeout:           c.Timeout,
		Retries:           c.Retries,
		Backoff:           c.Backoff,
		RequestsPerMinute: c.RequestsPerMinute,
		Logger:            logger,
	}
	return opts.WithEnv()
}

// Default returns the configuration used when no file is given.
func Default() *Configuration {
	v := newViper()
	var configuration Configuration
	// Defaults alone always decode.
	_ = v.Unmarshal(&configuration)
	return &configuration
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("catalog.path", "")
	v.SetDefault("match.limit", constants.DefaultMatchLimit)
	v.SetDefault("extract.normalizeText", false)
	v.SetDefault("extract.minConfidence", constants.DefaultMinConfidence)
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.baseURL", "")
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.site", "")
	v.SetDefault("llm.app", "")
	v.SetDefault("llm.model", constants.DefaultLLMModel)
	v.SetDefault("llm.temperature", constants.DefaultLLMTemperature)
	v.SetDefault("llm.maxTokens", constants.DefaultLLMMaxTokens)
	v.SetDefault("llm.timeout", time.Duration(constants.DefaultLLMTimeoutMillis)*time.Millisecond)
	v.SetDefault("llm.retries", constants.DefaultLLMRetries)
	v.SetDefault("llm.backoff", time.Duration(constants.DefaultLLMBackoffMillis)*time.Millisecond)
	v.SetDefault("llm.requestsPerMinute", 0)
	v.SetDefault("llm.cacheTTL", 10*time.Minute)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		OutputFormat:  c.Output.Format,
		CatalogPath:   c.Catalog.Path,
		MatchLimit:    c.Match.Limit,
		MinConfidence: c.Extract.MinConfidence,
		LLMEnabled:    c.LLM.Enabled,
		LLMAPIKey:     c.LLM.ClientOptions(nil).APIKey,
	}
	return validator.ValidateAll()
}
