// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the sikre server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - DatabaseEngine: storage engine, "postgres" or "sqlite".
//   - DatabaseDSN: DSN for the selected engine.
//   - SiteDomain: JWT issuer; tokens from any other issuer are rejected.
//   - SecretKey: HMAC secret for signing session tokens (HS256). Do not use
//     the test default in production.
//   - SessionExpires: how far back an iat claim may lie before the token is
//     considered stale regardless of its stated expiry.
//   - TokenValidityDuration: lifetime of newly issued session tokens.
//   - ShareTokenValidityDuration: lifetime of newly issued share tokens;
//     zero means they never expire on their own.
type Config struct {
	EndpointAddr               string
	DatabaseEngine             string
	DatabaseDSN                string
	SiteDomain                 string
	SecretKey                  string
	SessionExpires             time.Duration
	TokenValidityDuration      time.Duration
	ShareTokenValidityDuration time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8000"
	c.DatabaseEngine = "sqlite"
	c.DatabaseDSN = "file:sikre.db"
	c.SiteDomain = "localhost"
	c.SecretKey = "secretKey"
	c.SessionExpires = 12 * time.Hour
	c.TokenValidityDuration = 1 * time.Hour
	c.ShareTokenValidityDuration = 0
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
