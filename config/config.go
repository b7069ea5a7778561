/*
config.go - Server configuration

PURPOSE:
  Collects the server settings from command-line flags. Every flag takes
  its default from an environment variable so containers can be configured
  without arguments; an explicit flag wins over the environment.

SETTINGS:
  -port          PORT                  HTTP port (default: 8080)
  -driver        DB_DRIVER             sqlite3 | pgx (default: sqlite3)
  -dsn           DATABASE_DSN          SQLite path or PostgreSQL DSN
                                       (default: planificator.db)
  -max-conns     DB_MAX_OPEN_CONNS     PostgreSQL pool size (SQLite is pinned to 1)
  -jurisdiction  JURISDICTION          Holiday calendar code: MG | FR (default: MG)
  -max-retries   LEDGER_MAX_RETRIES    Retries for creation writes (default: 3)
  -schedule      SCHEDULER_SPEC        Cron spec of the daily digest, "" disables it
  -cors          CORS_ALLOWED_ORIGINS  Comma separated origins

SEE ALSO:
  - cmd/server/main.go: Consumes Config
*/
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/josoavj/Planificator/planning"
	"github.com/josoavj/Planificator/store/sqlstore"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Port          int
	Driver        string
	DSN           string
	MaxOpenConns  int
	Jurisdiction  string
	MaxRetries    int
	SchedulerSpec string
	CORSOrigins   []string
}

// Load parses args (usually os.Args[1:]) over the environment defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("planificator", flag.ContinueOnError)

	port := fs.Int("port", getEnvInt("PORT", 8080), "HTTP server port")
	driver := fs.String("driver", getEnv("DB_DRIVER", sqlstore.DriverSQLite), "database driver: sqlite3 or pgx")
	dsn := fs.String("dsn", getEnv("DATABASE_DSN", "planificator.db"), "SQLite path or PostgreSQL DSN")
	maxConns := fs.Int("max-conns", getEnvInt("DB_MAX_OPEN_CONNS", 10), "maximum open connections (pgx only)")
	jurisdiction := fs.String("jurisdiction", getEnv("JURISDICTION", "MG"), "holiday calendar code")
	maxRetries := fs.Int("max-retries", getEnvInt("LEDGER_MAX_RETRIES", 3), "retries for creation writes")
	spec := fs.String("schedule", getEnv("SCHEDULER_SPEC", "0 6 * * *"), "cron spec of the daily digest, empty to disable")
	origins := fs.String("cors", getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080"), "comma separated CORS origins")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:          *port,
		Driver:        *driver,
		DSN:           *dsn,
		MaxOpenConns:  *maxConns,
		Jurisdiction:  strings.ToUpper(strings.TrimSpace(*jurisdiction)),
		MaxRetries:    *maxRetries,
		SchedulerSpec: strings.TrimSpace(*spec),
		CORSOrigins:   splitList(*origins),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.Driver != sqlstore.DriverSQLite && c.Driver != sqlstore.DriverPostgres {
		return fmt.Errorf("config: unknown driver %q (want %s or %s)", c.Driver, sqlstore.DriverSQLite, sqlstore.DriverPostgres)
	}
	if c.DSN == "" {
		return fmt.Errorf("config: empty DSN")
	}
	if _, ok := planning.JurisdictionByCode(c.Jurisdiction); !ok {
		return fmt.Errorf("config: unknown jurisdiction %q", c.Jurisdiction)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: negative retry count %d", c.MaxRetries)
	}
	if c.SchedulerSpec != "" {
		if _, err := cron.ParseStandard(c.SchedulerSpec); err != nil {
			return fmt.Errorf("config: scheduler spec %q: %w", c.SchedulerSpec, err)
		}
	}
	return nil
}

// StoreOptions maps the database settings onto the store.
func (c *Config) StoreOptions() sqlstore.Options {
	return sqlstore.Options{Driver: c.Driver, DSN: c.DSN, MaxOpenConns: c.MaxOpenConns}
}

// ServiceOptions maps the engine settings onto planning.Options.
func (c *Config) ServiceOptions() planning.Options {
	j, _ := planning.JurisdictionByCode(c.Jurisdiction)
	retry := planning.DefaultRetryPolicy()
	retry.MaxRetries = c.MaxRetries
	return planning.Options{Jurisdiction: j, Retry: &retry}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
