package config

import (
	"flag"
	"os"
	"time"

	"github.com/clione/sikre/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-e string   database engine ("postgres" or "sqlite")
//	-d string   database DSN
//	-m string   site domain (JWT issuer)
//	-s string   JWT HMAC secret key
//	-w int      session window, hours
//	-t int      session token validity, minutes
//	-x int      share token validity, hours (0 = no expiry)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-e", "-d", "-m", "-s", "-w", "-t", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseEngine, "e", config.DatabaseEngine, "database engine (postgres or sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SiteDomain, "m", config.SiteDomain, "site domain used as token issuer")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionExpires := fs.Int("w", int(config.SessionExpires.Hours()), "session window (in hours)")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "session token validity (in minutes)")
	shareValidity := fs.Int("x", int(config.ShareTokenValidityDuration.Hours()), "share token validity (in hours, 0 disables expiry)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionExpires = time.Duration(*sessionExpires) * time.Hour
	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.ShareTokenValidityDuration = time.Duration(*shareValidity) * time.Hour
}
