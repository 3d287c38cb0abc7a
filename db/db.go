package db

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Instance  *gorm.DB
	available bool
)

// Init opens MySQL when a DSN is configured, otherwise SQLite.
// A connection failure is not fatal: the server keeps running with
// Available() == false and handlers surface the outage to users.
func Init(mysqlDSN, sqliteFile string, debug bool) error {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if !debug {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	var (
		db  *gorm.DB
		err error
	)
	if mysqlDSN != "" {
		db, err = gorm.Open(mysql.Open(mysqlDSN), cfg)
	} else if sqliteFile != "" {
		if mkErr := os.MkdirAll(filepath.Dir(sqliteFile), 0o755); mkErr != nil {
			return mkErr
		}
		db, err = gorm.Open(sqlite.Open(sqliteFile), cfg)
	} else {
		err = errors.New("no database configured")
	}
	if err != nil {
		logrus.WithError(err).Error("db: cannot connect, continuing without data")
		available = false
		return err
	}
	Instance = db
	available = true
	return nil
}

// Available reports whether the database connection was established at startup.
func Available() bool {
	return available
}

// SetInstanceForTest swaps the global connection. Tests only.
func SetInstanceForTest(db *gorm.DB) {
	Instance = db
	available = db != nil
}
