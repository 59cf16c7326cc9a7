package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/techagentng/lankawatch/config"
	"github.com/techagentng/lankawatch/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB owns the connection pool. It is built once in main and handed to the
// repositories; there is no package level handle.
type GormDB struct {
	DB *gorm.DB
}

// Open connects to the store selected by c.DBDriver, tunes the pool and runs
// migrations.
func Open(c *config.Config) (*GormDB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(c),
	}

	var dialector gorm.Dialector
	switch c.DBDriver {
	case config.DriverSQLite:
		log.WithField("path", c.SQLitePath).Info("opening sqlite store")
		dialector = sqlite.Open(c.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	default:
		log.WithFields(log.Fields{
			"host": c.PostgresHost,
			"port": c.PostgresPort,
			"db":   c.PostgresDB,
		}).Info("connecting to postgres")
		dialector = postgres.New(postgres.Config{DSN: c.DSN()})
	}

	gormDB, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	if c.DBDriver == config.DriverSQLite {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(c.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(c.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(c.DBConnMaxLifetime)
	}

	g := &GormDB{DB: gormDB}
	if err := migrate(g.DB); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

func newGormLogger(c *config.Config) logger.Interface {
	level := logger.Warn
	if !c.IsProd() && c.Debug {
		level = logger.Info
	}
	return logger.New(log.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Report{}, &models.Vote{}); err != nil {
		return errors.Wrap(err, "migrations error")
	}
	return nil
}

// txOptions returns the isolation used for a unit of work. Postgres runs at read
// committed; other drivers keep their default.
func (g *GormDB) txOptions() *sql.TxOptions {
	if g.DB.Dialector.Name() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

func (g *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *GormDB) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
