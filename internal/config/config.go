// Package config loads runtime settings from the environment, an optional
// .env file and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. ZIMMET_DB_PATH.
const EnvPrefix = "zimmet"

// Config is the full runtime configuration.
type Config struct {
	DBPath    string `envconfig:"DB_PATH" default:"zimmet.sqlite3"`
	Addr      string `envconfig:"ADDR" default:":8080"`
	AdminUser string `envconfig:"ADMIN_USER" default:"Admin"`

	LogFile   string `envconfig:"LOG_FILE"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	TokenIssuer string        `envconfig:"TOKEN_ISSUER" default:"zimmet"`

	FormsDir     string `envconfig:"FORMS_DIR" default:"forms"`
	FormMaxBytes int64  `envconfig:"FORM_MAX_BYTES" default:"10485760"`

	Redis RedisConfig
	Audit AuditConfig
	Jobs  JobsConfig
}

// RedisConfig configures the pending-count cache (ZIMMET_REDIS_*). Without a
// URL the cache is kept in process memory.
type RedisConfig struct {
	URL             string        `envconfig:"URL"`
	PendingCountTTL time.Duration `envconfig:"PENDING_COUNT_TTL" default:"5m"`
}

// AuditConfig configures the optional audit webhook (ZIMMET_AUDIT_*).
type AuditConfig struct {
	WebhookURL     string        `envconfig:"WEBHOOK_URL"`
	WebhookToken   string        `envconfig:"WEBHOOK_TOKEN"`
	WebhookTimeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"5s"`
}

// JobsConfig configures scheduled maintenance (ZIMMET_JOBS_*).
type JobsConfig struct {
	Enabled            bool          `envconfig:"ENABLED" default:"true"`
	TokenPurgeSchedule string        `envconfig:"TOKEN_PURGE_SCHEDULE" default:"@hourly"`
	FormPurgeSchedule  string        `envconfig:"FORM_PURGE_SCHEDULE" default:"@daily"`
	OrphanFormMaxAge   time.Duration `envconfig:"ORPHAN_FORM_MAX_AGE" default:"24h"`
}

// ErrHelp is returned by Load when -h or -help was given.
var ErrHelp = flag.ErrHelp

// Load reads envFile (ignored when missing), the environment and args.
func Load(envFile string, args []string, usageOut io.Writer) (Config, error) {
	var cfg Config

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.parseFlags(args, usageOut); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) parseFlags(args []string, usageOut io.Writer) error {
	fs := flag.NewFlagSet("zimmet", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.DBPath, "db", c.DBPath, "")
	fs.StringVar(&c.DBPath, "d", c.DBPath, "")
	fs.StringVar(&c.Addr, "addr", c.Addr, "")
	fs.StringVar(&c.Addr, "a", c.Addr, "")
	fs.StringVar(&c.AdminUser, "user", c.AdminUser, "")
	fs.StringVar(&c.AdminUser, "u", c.AdminUser, "")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "")
	fs.StringVar(&c.LogFile, "l", c.LogFile, "")
	fs.StringVar(&c.FormsDir, "forms", c.FormsDir, "")
	fs.StringVar(&c.FormsDir, "f", c.FormsDir, "")

	fs.Usage = func() {
		if usageOut != nil {
			fmt.Fprint(usageOut, Usage)
		}
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrHelp
		}
		fs.Usage()
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}

// Usage describes the command-line flags.
const Usage = `Usage: zimmet [flags]

Flags:
  -d, -db <path>          SQLite database path (default: zimmet.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -f, -forms <dir>        signed form storage directory (default: forms)
  -h, -help               show this help and exit

Every flag can also be set through the environment (ZIMMET_DB_PATH,
ZIMMET_ADDR, ZIMMET_ADMIN_USER, ZIMMET_LOG_FILE, ZIMMET_FORMS_DIR) or a .env
file. Flags win.
`

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.AdminUser) == "" {
		return errors.New("admin username is required")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.FormMaxBytes <= 0 {
		return errors.New("form size limit must be positive")
	}
	return nil
}
