package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/clione/sikre/internal/flagx"
	"github.com/clione/sikre/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "12h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr               string         `json:"endpoint_addr"`
	DatabaseEngine             string         `json:"database_engine"`
	DatabaseDSN                string         `json:"database_dsn"`
	SiteDomain                 string         `json:"site_domain"`
	SecretKey                  string         `json:"secret_key"`
	SessionExpires             timex.Duration `json:"session_expires"`
	TokenValidityDuration      timex.Duration `json:"token_validity_duration"`
	ShareTokenValidityDuration timex.Duration `json:"share_token_validity_duration"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseEngine = c.DatabaseEngine
	config.DatabaseDSN = c.DatabaseDSN
	config.SiteDomain = c.SiteDomain
	config.SecretKey = c.SecretKey
	config.SessionExpires = time.Duration(c.SessionExpires.Duration)
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.ShareTokenValidityDuration = time.Duration(c.ShareTokenValidityDuration.Duration)
}
