// Package store persists templates, certificates and settings with gorm.
package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"certificate-service/internal/errs"
)

// InitDB opens the database and migrates the schema. dbType is "sqlite"
// (default) or "mysql".
func InitDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dbType, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newLogger reports slow queries and failures. Lookups of missing rows are
// answered as NotFound by the stores and are not logged.
func newLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&templateRecord{}, &certificateRecord{}, &settingsRecord{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// notFound maps gorm.ErrRecordNotFound to the NotFound kind.
func notFound(err error, op, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(op, what, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
