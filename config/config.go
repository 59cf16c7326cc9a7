package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Debug    bool   `envconfig:"debug"`
	Env      string `envconfig:"env" default:"dev"`
	Port     int    `envconfig:"port" default:"8080"`
	LogLevel string `envconfig:"log_level" default:"info"`

	DBDriver          string        `envconfig:"db_driver" default:"postgres"`
	SQLitePath        string        `envconfig:"sqlite_path" default:"lankawatch.db"`
	PostgresHost      string        `envconfig:"postgres_host" default:"localhost"`
	PostgresPort      int           `envconfig:"postgres_port" default:"5432"`
	PostgresUser      string        `envconfig:"postgres_user" default:"postgres"`
	PostgresPassword  string        `envconfig:"postgres_password"`
	PostgresDB        string        `envconfig:"postgres_db" default:"postgres"`
	PostgresSSLMode   string        `envconfig:"postgres_sslmode" default:"disable"`
	DBMaxOpenConns    int           `envconfig:"db_max_open_conns" default:"25"`
	DBMaxIdleConns    int           `envconfig:"db_max_idle_conns" default:"10"`
	DBConnMaxLifetime time.Duration `envconfig:"db_conn_max_lifetime" default:"30m"`

	// QuorumThreshold is the number of distinct voters that verifies a report.
	QuorumThreshold int `envconfig:"quorum_threshold" default:"3"`

	AllowedOrigins  []string      `envconfig:"allowed_origins" default:"*"`
	VoteRateLimit   uint          `envconfig:"vote_rate_limit" default:"10"`
	ShutdownTimeout time.Duration `envconfig:"shutdown_timeout" default:"15s"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	if err := envconfig.Process("lankawatch", c); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.QuorumThreshold < 1 {
		return errors.Errorf("quorum threshold must be at least 1, got %d", c.QuorumThreshold)
	}
	if c.Port <= 0 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.Errorf("unsupported db driver %q", c.DBDriver)
	}
	return nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode)
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
