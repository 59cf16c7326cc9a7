package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "release")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, c.QuorumThreshold)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, DriverPostgres, c.DBDriver)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, c.DBConnMaxLifetime)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("LANKAWATCH_QUORUM_THRESHOLD", "5")
	t.Setenv("LANKAWATCH_DB_DRIVER", "sqlite")
	t.Setenv("LANKAWATCH_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, c.QuorumThreshold)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := Config{Port: 8080, DBDriver: DriverPostgres, QuorumThreshold: 3}
	require.NoError(t, base.Validate())

	noQuorum := base
	noQuorum.QuorumThreshold = 0
	assert.Error(t, noQuorum.Validate())

	badDriver := base
	badDriver.DBDriver = "mysql"
	assert.Error(t, badDriver.Validate())

	badPort := base
	badPort.Port = 0
	assert.Error(t, badPort.Validate())
}

func TestDSN(t *testing.T) {
	c := Config{
		PostgresHost:     "db",
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresDB:       "reports",
		PostgresPort:     6543,
		PostgresSSLMode:  "require",
	}
	assert.Equal(t, "host=db user=u password=p dbname=reports port=6543 sslmode=require TimeZone=UTC", c.DSN())
}
