package config

import (
	"fmt"
	"strings"
)

// APIConfig configures the operator-facing HTTP API.
type APIConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr"`
	// Token, when set, is required as a bearer token on every request.
	Token string `json:"token"`
	// Enabled toggles the API server.
	Enabled bool `json:"enabled"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.Enabled && !strings.Contains(c.Addr, ":") {
		return fmt.Errorf("addr %q is not a listen address", c.Addr)
	}
	return nil
}
