// Package config provides YAML configuration file loading and validation.
// Every field is optional; zero values fall back to built-in defaults so the
// tool runs with no config file at all.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wehmoen/ronin-wally/internal/checkpoint"
	"github.com/wehmoen/ronin-wally/internal/ronin"
)

// DefaultFile is the config file picked up from the working directory when
// no --config flag is given.
const DefaultFile = "wally.yaml"

// Config is the root structure of a wally.yaml file.
type Config struct {
	API        API        `yaml:"api"`        // ronin.rest client settings
	OutDir     string     `yaml:"out_dir"`    // where archives are written (default ".")
	Workers    int        `yaml:"workers"`    // concurrent enrichment workers (default 1)
	Checkpoint Checkpoint `yaml:"checkpoint"` // resume state storage
}

// API tunes the ronin.rest client. Zero values use the client defaults.
type API struct {
	Host           string        `yaml:"host"`            // API base URL (supports ${VAR} env expansion)
	Timeout        time.Duration `yaml:"timeout"`         // HTTP request timeout (e.g. "30s")
	MaxRetries     int           `yaml:"max_retries"`     // retry attempts after the first try (0 = client default)
	BackoffInitial time.Duration `yaml:"backoff_initial"` // first retry delay
	BackoffMax     time.Duration `yaml:"backoff_max"`     // retry delay ceiling
	BackoffFactor  int           `yaml:"backoff_factor"`  // delay multiplier between attempts
}

// Checkpoint configures where resume state is kept.
type Checkpoint struct {
	Path string `yaml:"path"` // sqlite database file (default "wally-checkpoint.db")
}

// ClientConfig translates the API section into the client's configuration.
// UserAgent and Recorder stay zero for the caller to fill in.
func (c *Config) ClientConfig() ronin.ClientConfig {
	return ronin.ClientConfig{
		BaseURL:        c.API.Host,
		Timeout:        c.API.Timeout,
		MaxRetries:     c.API.MaxRetries,
		BackoffInitial: c.API.BackoffInitial,
		BackoffMax:     c.API.BackoffMax,
		BackoffFactor:  c.API.BackoffFactor,
	}
}

// Validate checks the configuration for values the client cannot work with.
// It may emit warnings (to stderr) for suspicious values but does not fail
// on warnings.
func (c *Config) Validate() error {
	if c.API.Host != "" {
		u, err := url.Parse(c.API.Host)
		if err != nil {
			return fmt.Errorf("api.host: invalid url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api.host: invalid url (missing scheme or host)")
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("api.host: invalid url scheme %q (expected http or https)", u.Scheme)
		}
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be >= 0")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0")
	}
	if c.API.BackoffInitial < 0 || c.API.BackoffMax < 0 {
		return fmt.Errorf("api backoff intervals must be >= 0")
	}
	if c.API.BackoffInitial > 0 && c.API.BackoffMax > 0 && c.API.BackoffMax < c.API.BackoffInitial {
		return fmt.Errorf("api.backoff_max must be >= api.backoff_initial")
	}
	if c.API.BackoffFactor < 0 {
		return fmt.Errorf("api.backoff_factor must be >= 0")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}

	warnTimeout(c.API.Timeout)
	return nil
}

func warnTimeout(d time.Duration) {
	const low = 500 * time.Millisecond
	const high = 2 * time.Minute
	if d > 0 && d < low {
		fmt.Fprintf(os.Stderr, "Warning: api.timeout is very low (%s); requests may fail under normal network jitter\n", d)
	}
	if d > high {
		fmt.Fprintf(os.Stderr, "Warning: api.timeout is very high (%s); failures may take a long time to surface\n", d)
	}
}

func (c *Config) applyDefaults() {
	if c.OutDir == "" {
		c.OutDir = "."
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Checkpoint.Path == "" {
		c.Checkpoint.Path = checkpoint.DefaultPath
	}
}

// Load reads and parses a YAML configuration file, expanding ${VAR}
// references from the environment before parsing.
//
// An empty path tries DefaultFile in the working directory and falls back
// to built-in defaults when the file does not exist. A path given
// explicitly must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			cfg := &Config{}
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
