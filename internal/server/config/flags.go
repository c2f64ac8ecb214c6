package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-x int      transfer timeout, seconds
//	-r string   Redis URL for the revocation list
//	-l float    sign-in requests per second per client
//
// Only the flags listed above are taken from os.Args (see flagx.FilterArgs),
// so -c / -config and test runner flags do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-x", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	transferTimeout := fs.Int("x", int(config.TransferTimeout.Seconds()), "transfer_timeout (in seconds)")

	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL for token revocation")
	fs.Float64Var(&config.SignInRatePerSecond, "l", config.SignInRatePerSecond, "signin requests per second per client")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.TransferTimeout = time.Duration(*transferTimeout) * time.Second
}
