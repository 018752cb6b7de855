// Package config loads service configuration from config.yml, .env files,
// and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/skillsenselab/audiopipe/job"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/redis"
	"github.com/skillsenselab/audiopipe/storage"
	"github.com/skillsenselab/audiopipe/transcription"
	"github.com/skillsenselab/audiopipe/transcription/sarvam"
	"github.com/skillsenselab/audiopipe/translation"
)

// envPrefix namespaces environment variable overrides, e.g.
// AUDIOPIPE_SARVAM_API_KEY overrides sarvam.api_key.
const envPrefix = "AUDIOPIPE"

// ServerConfig configures the HTTP ingress.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// TranslatorConfig configures the optional translation provider.
type TranslatorConfig struct {
	// Enabled turns translation on. When off, non-English transcripts are
	// returned untranslated.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	translation.OpenAIConfig `yaml:",inline" mapstructure:",squash"`
}

// ChunkingConfig configures audio segmentation.
type ChunkingConfig struct {
	// MaxChunkSeconds bounds each chunk's duration.
	MaxChunkSeconds float64 `yaml:"max_chunk_seconds" mapstructure:"max_chunk_seconds"`
}

// Config is the full service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`

	Logging       logger.Config         `yaml:"logging" mapstructure:"logging"`
	Server        ServerConfig          `yaml:"server" mapstructure:"server"`
	Sarvam        sarvam.Config         `yaml:"sarvam" mapstructure:"sarvam"`
	Translator    TranslatorConfig      `yaml:"translator" mapstructure:"translator"`
	Transcription transcription.Options `yaml:"transcription" mapstructure:"transcription"`
	Chunking      ChunkingConfig        `yaml:"chunking" mapstructure:"chunking"`
	Redis         redis.Config          `yaml:"redis" mapstructure:"redis"`
	Storage       storage.Config        `yaml:"storage" mapstructure:"storage"`
	Worker        job.Config            `yaml:"worker" mapstructure:"worker"`
}

// ApplyDefaults fills zero-valued fields across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "audiopipe"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Chunking.MaxChunkSeconds <= 0 {
		c.Chunking.MaxChunkSeconds = 300
	}
	c.Transcription.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Worker.ApplyDefaults()
}

// Validate checks cross-section requirements.
func (c *Config) Validate() error {
	if c.Sarvam.APIKey == "" {
		return fmt.Errorf("config: sarvam.api_key is required (set %s_SARVAM_API_KEY)", envPrefix)
	}
	if c.Translator.Enabled && c.Translator.APIKey == "" {
		return fmt.Errorf("config: translator.api_key is required when translator is enabled")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: logging: %w", err)
	}
	return nil
}

// Load reads configuration for the named service. configFile may be empty, in
// which case standard locations are searched. Environment variables win over
// file values.
func Load(serviceName, configFile string) (*Config, error) {
	v := viper.New()

	if configFile == "" {
		configFile = findConfigFile(serviceName)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	// .env is a developer convenience; absence is not an error.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// A bool field cannot tell "unset" from "off", so the flag defaults key
	// off presence: diarization and timestamps are on unless the file or
	// environment explicitly turns them off.
	if !v.IsSet("transcription.diarization") {
		cfg.Transcription.Diarization = true
	}
	if !v.IsSet("transcription.timestamps") {
		cfg.Transcription.Timestamps = true
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvKeys registers the keys AutomaticEnv should resolve even when they
// are absent from the config file. Viper only consults the environment for
// keys it already knows about.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host",
		"server.port",
		"sarvam.api_key",
		"sarvam.base_url",
		"translator.enabled",
		"translator.api_key",
		"translator.base_url",
		"translator.model",
		"transcription.model",
		"transcription.diarization",
		"transcription.timestamps",
		"redis.addr",
		"redis.password",
		"redis.db",
		"storage.provider",
		"storage.base_path",
		"storage.bucket",
		"storage.region",
		"storage.endpoint",
		"storage.access_key",
		"storage.secret_key",
		"chunking.max_chunk_seconds",
		"worker.workers",
		"logging.level",
		"logging.format",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// findConfigFile searches standard locations for config.yml.
func findConfigFile(serviceName string) string {
	searchPaths := []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
