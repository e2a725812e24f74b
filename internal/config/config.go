// Package config loads storefront settings from a YAML file.
//
// Every field has a default, so a missing file is not an error when loading
// with LoadOptional. Unknown keys are rejected to catch typos.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is looked up in the working directory when no
	// --config flag is given.
	DefaultFileName = "storefront.yaml"

	// DefaultAPIBaseURL is the public products API.
	DefaultAPIBaseURL = "https://fakestoreapi.com"

	// DefaultDBPath is the SQLite database for the local storage backend.
	DefaultDBPath = "storefront.db"

	// DefaultAddr is the HTTP listen address for `storefront serve`.
	DefaultAddr = "localhost:8080"

	// DefaultLocale formats prices.
	DefaultLocale = "es"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config is the complete storefront.yaml configuration.
type Config struct {
	// APIBaseURL is the products API base URL.
	APIBaseURL string `yaml:"api_base_url"`

	// APITimeout bounds each products API request.
	APITimeout time.Duration `yaml:"api_timeout"`

	// Locale is the BCP 47 tag used for price formatting.
	Locale string `yaml:"locale"`

	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	path string
}

// StorageConfig selects the durable KV backend.
type StorageConfig struct {
	// Backend is one of sqlite, s3, memory.
	Backend string `yaml:"backend"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	S3 S3Config `yaml:"s3"`
}

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// ServerConfig configures `storefront serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// LoadOnStart fetches the catalog when the server starts.
	LoadOnStart *bool `yaml:"load_on_start"`
}

// CheckoutConfig overrides the simulated checkout delays.
type CheckoutConfig struct {
	SubmitDelay  time.Duration `yaml:"submit_delay"`
	SuccessDelay time.Duration `yaml:"success_delay"`
}

// MetricsConfig configures Prometheus collectors.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`

	// Buckets overrides the latency histogram buckets, in seconds.
	// Empty means the Prometheus defaults.
	Buckets []float64 `yaml:"buckets"`
}

// New returns a configuration with all defaults applied.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	c.path = path
	return c, nil
}

// LoadOptional is Load, except that a missing file yields defaults.
func LoadOptional(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	return c, err
}

// Parse decodes YAML, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.APITimeout == 0 {
		c.APITimeout = 10 * time.Second
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultDBPath
	}
	if c.Storage.S3.Prefix == "" {
		c.Storage.S3.Prefix = "storefront/"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Server.LoadOnStart == nil {
		on := true
		c.Server.LoadOnStart = &on
	}
	if c.Checkout.SubmitDelay == 0 {
		c.Checkout.SubmitDelay = 1500 * time.Millisecond
	}
	if c.Checkout.SuccessDelay == 0 {
		c.Checkout.SuccessDelay = 2000 * time.Millisecond
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "storefront"
	}
}

// Validate checks the configuration. It returns every problem found,
// joined.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_base_url: %q is not an absolute URL", c.APIBaseURL))
	}
	if c.APITimeout < 0 {
		errs = append(errs, fmt.Errorf("api_timeout: must not be negative"))
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale: %w", err))
	}

	switch c.Storage.Backend {
	case BackendSQLite, BackendMemory:
	case BackendS3:
		if strings.TrimSpace(c.Storage.S3.Bucket) == "" {
			errs = append(errs, fmt.Errorf("storage.s3.bucket: required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q (want sqlite, s3 or memory)", c.Storage.Backend))
	}

	if c.Checkout.SubmitDelay < 0 || c.Checkout.SuccessDelay < 0 {
		errs = append(errs, fmt.Errorf("checkout: delays must not be negative"))
	}

	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			errs = append(errs, fmt.Errorf("metrics.buckets: must be strictly increasing"))
			break
		}
	}

	return errors.Join(errs...)
}

// Language returns the parsed locale tag.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Spanish
	}
	return tag
}
