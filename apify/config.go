package apify

import (
	"fmt"
	"time"

	"github.com/kbukum/apifykit/resilience"
	"github.com/kbukum/apifykit/validation"
)

// DefaultBaseURL is the public Apify API v2 origin.
const DefaultBaseURL = "https://api.apify.com/v2"

// Defaults for Config.
const (
	DefaultTokenEnv            = "APIFY_TOKEN"
	DefaultTimeout             = 30 * time.Second
	DefaultIntegrationPlatform = "apifykit"
)

// Config configures a Connection.
type Config struct {
	// BaseURL is the API origin. Tests point it at a fake server.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,http_url"`
	// Token is the API token. When empty the token is read from TokenEnv
	// on every request.
	Token string `yaml:"token" mapstructure:"token"`
	// TokenEnv names the environment variable holding the token.
	TokenEnv string `yaml:"token_env" mapstructure:"token_env"`
	// Timeout bounds a single buffered HTTP exchange. Streamed exports are
	// bounded by the context only.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// IntegrationPlatform is sent as X-Apify-Integration-Platform.
	IntegrationPlatform string `yaml:"integration_platform" mapstructure:"integration_platform"`
	// Headers are added to every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// TransportRetries enables retry of connection failures, 429 and 5xx
	// for buffered requests. Zero disables it.
	TransportRetries int `yaml:"transport_retries" mapstructure:"transport_retries" validate:"gte=0,lte=10"`
	// Poll is the readiness polling policy for datasets and runs.
	Poll resilience.PollConfig `yaml:"poll" mapstructure:"poll"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TokenEnv == "" {
		c.TokenEnv = DefaultTokenEnv
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.IntegrationPlatform == "" {
		c.IntegrationPlatform = DefaultIntegrationPlatform
	}
	c.Poll.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Poll.Validate(); err != nil {
		return fmt.Errorf("apify.poll: %w", err)
	}
	return nil
}
