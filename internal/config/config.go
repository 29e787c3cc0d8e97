// Package config loads pyq settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration
type Config struct {
	Server     Server     `yaml:"server"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	Classifier Classifier `yaml:"classifier"`
	Auth       Auth       `yaml:"auth"`
}

// Server configures the HTTP API
type Server struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Pipeline bounds organize runs
type Pipeline struct {
	MaxDocuments    int           `yaml:"max_documents"`
	Timeout         time.Duration `yaml:"timeout"`
	ParallelExtract *bool         `yaml:"parallel_extract"`
}

// Classifier selects the language model backend
type Classifier struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
	APIKey    string `yaml:"-"`
}

// Auth configures accounts and tokens
type Auth struct {
	DB       string        `yaml:"db"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	Secret   string        `yaml:"-"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	parallel := true
	return &Config{
		Server: Server{
			Addr:           ":5000",
			MaxUploadBytes: 10 << 20,
		},
		Pipeline: Pipeline{
			MaxDocuments:    5,
			Timeout:         60 * time.Second,
			ParallelExtract: &parallel,
		},
		Classifier: Classifier{
			Provider: "gemini",
		},
		Auth: Auth{
			DB:       defaultDB(),
			TokenTTL: time.Hour,
		},
	}
}

func defaultDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pyq.db"
	}
	return filepath.Join(home, ".pyq", "pyq.db")
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.Auth.DB = ExpandHome(cfg.Auth.DB)
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PYQ_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PYQ_JWT_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	switch c.Classifier.Provider {
	case "anthropic":
		c.Classifier.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	default:
		c.Classifier.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.MaxDocuments <= 0 {
		errs = append(errs, errors.New("pipeline.max_documents must be positive"))
	}
	if c.Pipeline.Timeout < 0 {
		errs = append(errs, errors.New("pipeline.timeout must not be negative"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	switch c.Classifier.Provider {
	case "gemini", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("classifier.provider %q is not one of gemini, anthropic", c.Classifier.Provider))
	}
	return errors.Join(errs...)
}

// Parallel reports whether documents are extracted concurrently
func (p Pipeline) Parallel() bool {
	return p.ParallelExtract == nil || *p.ParallelExtract
}
