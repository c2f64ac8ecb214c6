package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bankapi/internal/flagx"
	"github.com/dmitrijs2005/bankapi/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "30s"-style strings and integer nanoseconds. Fields left out
// of the file keep their current values.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	TransferTimeout             *timex.Duration `json:"transfer_timeout"`
	AdminLogin                  *string         `json:"admin_login"`
	AdminPassword               *string         `json:"admin_password"`
	SeedDemoUsers               *bool           `json:"seed_demo_users"`
	RedisURL                    *string         `json:"redis_url"`
	SignInRatePerSecond         *float64        `json:"signin_rate_per_second"`
	SignInBurst                 *int            `json:"signin_burst"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson overlays config with the file named by -c / -config.
// Without the flag nothing is loaded. An unreadable file or invalid JSON
// panics, since the server cannot start with a config it cannot read.
func parseJson(config *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.AdminLogin, c.AdminLogin)
	setIf(&config.AdminPassword, c.AdminPassword)
	setIf(&config.SeedDemoUsers, c.SeedDemoUsers)
	setIf(&config.RedisURL, c.RedisURL)
	setIf(&config.SignInRatePerSecond, c.SignInRatePerSecond)
	setIf(&config.SignInBurst, c.SignInBurst)
	setIf(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.TransferTimeout != nil {
		config.TransferTimeout = c.TransferTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
