// Package config provides couchctl configuration loaded from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds couch-client tooling configuration.
type Config struct {
	// CouchURL is the initial server; a cluster file can add more.
	CouchURL string `envconfig:"COUCH_URL" default:"http://127.0.0.1:5984"`
	// APIVersion is the expected server API version the tool codes against.
	APIVersion string `envconfig:"COUCH_API_VERSION" default:"3.3"`
	Username   string `envconfig:"COUCH_USERNAME"`
	Password   string `envconfig:"COUCH_PASSWORD"`

	// ClusterFile points at a cluster seed file (empty = probe defaults).
	ClusterFile string `envconfig:"COUCH_CLUSTER_FILE"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"COUCH_REQUEST_TIMEOUT" default:"30s"`

	// COMMS: the changes bridge publishes to standalone NATS at COMMSURL.
	COMMSURL      string        `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName     string        `envconfig:"SERVICE_NAME" default:"couchctl"`
	ChangeSubject string        `envconfig:"COUCH_CHANGE_SUBJECT"`
	PollInterval  time.Duration `envconfig:"COUCH_POLL_INTERVAL" default:"5s"`

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

// Validate checks required config for running couchctl commands.
func (c *Config) Validate() error {
	if c.APIVersion == "" {
		return fmt.Errorf("%s - COUCH_API_VERSION is required", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - COUCH_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForBridge checks required config for the changes bridge.
func (c *Config) ValidateForBridge() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for the changes bridge", logPrefix)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%s - COUCH_POLL_INTERVAL must be positive", logPrefix)
	}
	return nil
}
