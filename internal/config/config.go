// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds interop-agent configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMS_URL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"interop-agent"`

	// AgentSubject overrides the request/reply subject the agent serves on
	// (empty = default interop.agent.v1).
	AgentSubject string `envconfig:"AGENT_SUBJECT"`

	// Identity presented to every platform at connect time.
	ApplicationName string `envconfig:"AGENT_APPLICATION_NAME" default:"interop-agent"`

	// Timeouts and retry policy
	RequestTimeout       time.Duration `envconfig:"AGENT_REQUEST_TIMEOUT" default:"25s"`
	ConnectRetryInterval time.Duration `envconfig:"PLATFORM_RETRY_INTERVAL" default:"2s"`

	// Bootstrap
	BootstrapFile string `envconfig:"AGENT_BOOTSTRAP_FILE"`

	// HTTP health endpoint (AGENT_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr string `envconfig:"AGENT_HTTP_ADDR"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the agent server.
func (c *Config) ValidateForServe() error {
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - AGENT_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.ConnectRetryInterval <= 0 {
		return fmt.Errorf("%s - PLATFORM_RETRY_INTERVAL must be positive", logPrefix)
	}
	return nil
}
