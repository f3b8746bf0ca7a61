package app

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	accessapi "datagate/cmd/internal/access/api"
	"datagate/cmd/internal/access/credential"
	"datagate/cmd/internal/access/grant"
)

// Config contains all runtime configuration. Values come from DATAGATE_*
// environment variables, with defaults suitable for local development.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool

	// DevContributorID seeds an accepted contributor in in-memory mode so
	// the API is usable without a database. Ignored when a database is
	// configured.
	DevContributorID string

	GrantDefaultDuration   time.Duration
	GrantMaxConcurrent     int
	GrantMaxExtensionHours int
	GrantSweepInterval     time.Duration

	SecretFirstIssueWindow time.Duration
	SecretRotationWindow   time.Duration

	APITrustProxy   bool
	APIMaxBodyBytes int64
}

// LoadConfig loads Config from DATAGATE_* environment variables.
func LoadConfig() Config {
	v := viper.New()
	v.SetEnvPrefix("DATAGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", "0.0.0.0:8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("http_read_header_timeout", 5*time.Second)
	v.SetDefault("http_read_timeout", 15*time.Second)
	v.SetDefault("http_write_timeout", 15*time.Second)
	v.SetDefault("http_idle_timeout", 60*time.Second)
	v.SetDefault("http_max_header_bytes", 1<<20)

	v.SetDefault("database_url", "")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("db_min_conns", 0)
	v.SetDefault("readiness_require_db", false)
	v.SetDefault("dev_contributor_id", "")

	gd := grant.DefaultConfig()
	v.SetDefault("grant_default_duration", gd.DefaultDuration)
	v.SetDefault("grant_max_concurrent", gd.MaxConcurrent)
	v.SetDefault("grant_max_extension_hours", gd.MaxExtensionHours)
	v.SetDefault("grant_sweep_interval", gd.SweepInterval)

	cd := credential.DefaultConfig()
	v.SetDefault("secret_first_issue_window", cd.FirstIssueWindow)
	v.SetDefault("secret_rotation_window", cd.RotationWindow)

	ad := accessapi.DefaultConfig()
	v.SetDefault("api_trust_proxy", ad.TrustProxy)
	v.SetDefault("api_max_body_bytes", ad.MaxBodyBytes)

	return Config{
		HTTPAddr: v.GetString("http_addr"),
		LogLevel: v.GetString("log_level"),

		ReadHeaderTimeout: v.GetDuration("http_read_header_timeout"),
		ReadTimeout:       v.GetDuration("http_read_timeout"),
		WriteTimeout:      v.GetDuration("http_write_timeout"),
		IdleTimeout:       v.GetDuration("http_idle_timeout"),
		MaxHeaderBytes:    v.GetInt("http_max_header_bytes"),

		DatabaseURL: v.GetString("database_url"),
		DBMaxConns:  v.GetInt32("db_max_conns"),
		DBMinConns:  v.GetInt32("db_min_conns"),

		ReadinessRequireDB: v.GetBool("readiness_require_db"),
		DevContributorID:   v.GetString("dev_contributor_id"),

		GrantDefaultDuration:   v.GetDuration("grant_default_duration"),
		GrantMaxConcurrent:     v.GetInt("grant_max_concurrent"),
		GrantMaxExtensionHours: v.GetInt("grant_max_extension_hours"),
		GrantSweepInterval:     v.GetDuration("grant_sweep_interval"),

		SecretFirstIssueWindow: v.GetDuration("secret_first_issue_window"),
		SecretRotationWindow:   v.GetDuration("secret_rotation_window"),

		APITrustProxy:   v.GetBool("api_trust_proxy"),
		APIMaxBodyBytes: v.GetInt64("api_max_body_bytes"),
	}
}

// GrantConfig builds the grant policy from app config.
func (c Config) GrantConfig() grant.Config {
	return grant.Config{
		DefaultDuration:   c.GrantDefaultDuration,
		MaxConcurrent:     c.GrantMaxConcurrent,
		MaxExtensionHours: c.GrantMaxExtensionHours,
		SweepInterval:     c.GrantSweepInterval,
	}
}

// CredentialConfig builds the secret rotation policy from app config.
func (c Config) CredentialConfig() credential.Config {
	cfg := credential.DefaultConfig()
	cfg.FirstIssueWindow = c.SecretFirstIssueWindow
	cfg.RotationWindow = c.SecretRotationWindow
	return cfg
}

// APIConfig builds the HTTP boundary config from app config.
func (c Config) APIConfig() accessapi.Config {
	return accessapi.Config{
		TrustProxy:   c.APITrustProxy,
		MaxBodyBytes: c.APIMaxBodyBytes,
	}
}
