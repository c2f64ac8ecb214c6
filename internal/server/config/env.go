package config

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// EnvConfig lists the environment variables understood by the server.
// Variables that are not set leave the corresponding field untouched.
type EnvConfig struct {
	EndpointAddrHTTP            string        `env:"BANKAPI_HTTP_ADDR"`
	DatabaseDSN                 string        `env:"BANKAPI_DATABASE_DSN"`
	SecretKey                   string        `env:"BANKAPI_SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"BANKAPI_TOKEN_TTL"`
	TransferTimeout             time.Duration `env:"BANKAPI_TRANSFER_TIMEOUT"`
	AdminLogin                  string        `env:"BANKAPI_ADMIN_LOGIN"`
	AdminPassword               string        `env:"BANKAPI_ADMIN_PASSWORD"`
	SeedDemoUsers               bool          `env:"BANKAPI_SEED_DEMO_USERS"`
	RedisURL                    string        `env:"BANKAPI_REDIS_URL"`
	SignInRatePerSecond         float64       `env:"BANKAPI_SIGNIN_RPS"`
	SignInBurst                 int           `env:"BANKAPI_SIGNIN_BURST"`
	ShutdownTimeout             time.Duration `env:"BANKAPI_SHUTDOWN_TIMEOUT"`
	LogLevel                    string        `env:"BANKAPI_LOG_LEVEL"`
}

// parseEnv loads an optional .env file from the working directory and
// overlays config with any BANKAPI_* variables. Malformed values panic.
func parseEnv(config *Config) {
	// a missing .env is normal
	_ = godotenv.Load()

	e := EnvConfig{
		EndpointAddrHTTP:            config.EndpointAddrHTTP,
		DatabaseDSN:                 config.DatabaseDSN,
		SecretKey:                   config.SecretKey,
		AccessTokenValidityDuration: config.AccessTokenValidityDuration,
		TransferTimeout:             config.TransferTimeout,
		AdminLogin:                  config.AdminLogin,
		AdminPassword:               config.AdminPassword,
		SeedDemoUsers:               config.SeedDemoUsers,
		RedisURL:                    config.RedisURL,
		SignInRatePerSecond:         config.SignInRatePerSecond,
		SignInBurst:                 config.SignInBurst,
		ShutdownTimeout:             config.ShutdownTimeout,
		LogLevel:                    config.LogLevel,
	}

	if err := envdecode.StrictDecode(&e); err != nil {
		// nothing set
		if errors.Is(err, envdecode.ErrInvalidTarget) {
			return
		}
		panic(err)
	}

	config.EndpointAddrHTTP = e.EndpointAddrHTTP
	config.DatabaseDSN = e.DatabaseDSN
	config.SecretKey = e.SecretKey
	config.AccessTokenValidityDuration = e.AccessTokenValidityDuration
	config.TransferTimeout = e.TransferTimeout
	config.AdminLogin = e.AdminLogin
	config.AdminPassword = e.AdminPassword
	config.SeedDemoUsers = e.SeedDemoUsers
	config.RedisURL = e.RedisURL
	config.SignInRatePerSecond = e.SignInRatePerSecond
	config.SignInBurst = e.SignInBurst
	config.ShutdownTimeout = e.ShutdownTimeout
	config.LogLevel = e.LogLevel
}
