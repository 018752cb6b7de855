package httpclient

import (
	"fmt"
	"time"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultSendTimeout    = 30 * time.Second
	defaultReadTimeout    = 420 * time.Second
	defaultIdleTimeout    = 300 * time.Second
)

// Config configures the HTTP client.
//
// Timeouts are phase-scoped: establishing the connection, sending the request
// body, and awaiting the response each have their own budget. The read budget
// is deliberately the largest — transcription-style workloads are slow to
// answer relative to connect/send.
type Config struct {
	// BaseURL is the base URL prepended to all request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// ConnectTimeout bounds connection establishment. Defaults to 30s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// SendTimeout bounds sending the request body. Defaults to 30s.
	SendTimeout time.Duration `yaml:"send_timeout" mapstructure:"send_timeout"`

	// ReadTimeout bounds awaiting the response headers. Defaults to 420s.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`

	// IdleTimeout bounds how long an idle connection may be reused. Defaults to 300s.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`

	// DisableKeepAlives forces a fresh connection per request so no state
	// leaks between consecutive calls.
	DisableKeepAlives bool `yaml:"disable_keep_alives" mapstructure:"disable_keep_alives"`

	// Auth configures default authentication applied to all requests.
	// Individual requests can override this.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ConnectTimeout <= 0 || c.SendTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("httpclient: timeouts must be positive")
	}
	return nil
}

// overall returns the total per-request deadline across all phases.
func (c *Config) overall() time.Duration {
	return c.ConnectTimeout + c.SendTimeout + c.ReadTimeout
}
