// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/realmtools/realmd/internal/logger"
	"github.com/realmtools/realmd/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	Server    Server        `group:"Server Options" env-namespace:"REALMD"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"REALMD_DB"`
	Auth      Auth          `group:"Auth Options" namespace:"auth" env-namespace:"REALMD_AUTH"`
	Upstream  Upstream      `group:"Upstream Options" namespace:"upstream" env-namespace:"REALMD_UPSTREAM"`
	Ping      Ping          `group:"Ping Options" namespace:"ping" env-namespace:"REALMD_PING"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"REALMD_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"REALMD_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"REALMD_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	Address    string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken  string `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Bearer token protecting the metrics endpoint"`
	TrustProxy bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Storage holds record store configuration and maintenance flags.
type Storage struct {
	RealmsPath   string `long:"realms-path" env:"REALMS_PATH" description:"Path to the realm records JSON file" default:"data/realms.json"`
	ProfilesPath string `long:"profiles-path" env:"PROFILES_PATH" description:"Path to the profile records JSON file" default:"data/xboxusers.json"`
	ProtocolPath string `long:"protocol-path" env:"PROTOCOL_PATH" description:"Path to the protocol version table (empty for the embedded table)"`

	Compact       bool `long:"compact" description:"Deduplicate realm records by id keeping the newest append, then exit"`
	PruneInvalid  bool `long:"prune-invalid" description:"Drop realm records that never got live status, then exit"`
	GenerateCount int  `long:"gen-fake-data" hidden:"true"`
}

// Auth holds credential source configuration for the upstream providers.
type Auth struct {
	TokenFile string `long:"token-file" env:"TOKEN_FILE" description:"Path to the XSTS credential JSON file" default:"auth/credentials.json"`
	UserHash  string `long:"user-hash" env:"USER_HASH" description:"Static XBL user hash (overrides the token file)"`
	XSTSToken string `long:"xsts-token" env:"XSTS_TOKEN" description:"Static XSTS token (overrides the token file)"`
	Watch     bool   `long:"watch" env:"WATCH" description:"Reload the token file when it changes"`
}

// Upstream holds endpoints and retry policy for the provider HTTP APIs.
type Upstream struct {
	RealmsURL string        `long:"realms-url" env:"REALMS_URL" description:"Realms API base URL" default:"https://pocket.realms.minecraft.net"`
	PeopleURL string        `long:"people-url" env:"PEOPLE_URL" description:"People hub base URL" default:"https://peoplehub.xboxlive.com"`
	ClubURL   string        `long:"club-url" env:"CLUB_URL" description:"Club hub base URL" default:"https://clubhub.xboxlive.com"`
	Timeout   time.Duration `long:"timeout" env:"TIMEOUT" description:"Per-request upstream timeout" default:"10s"`
	Retries   int           `long:"retries" env:"RETRIES" description:"Retry attempts for non-fatal upstream calls" default:"2"`
	Backoff   time.Duration `long:"backoff" env:"BACKOFF" description:"Delay between retry attempts" default:"250ms"`
}

// Ping holds RakNet query configuration.
type Ping struct {
	Timeout     time.Duration `long:"timeout" env:"TIMEOUT" description:"Ping timeout" default:"5s"`
	DefaultPort int           `long:"default-port" env:"DEFAULT_PORT" description:"Port used when the address omits one" default:"19132"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"realmd.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
	Disable  bool          `long:"disable" env:"DISABLE" description:"Skip GeoIP download and country enrichment"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"30"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
	SoftLimitDur   time.Duration `long:"soft" env:"SOFT" description:"Serve repeated lookups of the same code from the store within this window (0 disables)" default:"0s"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return &cfg
}
