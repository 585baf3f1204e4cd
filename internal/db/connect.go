// Package db opens GORM connections for the session archive.
package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/switchboard/internal/models"
)

// DSN builds a MySQL DSN for the archive database.
func DSN(user, host string, port int, database string) string {
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", user, host, port, database)
}

// ConnectSQLite opens a GORM connection to a SQLite archive file.
func ConnectSQLite(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	return gdb, nil
}

// ConnectMySQL opens a GORM connection to a MySQL archive database.
func ConnectMySQL(user, host string, port int, database string) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(DSN(user, host, port, database)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", host, port, database, err)
	}
	return gdb, nil
}

// Migrate creates or updates the archive tables.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.SessionRecord{},
		&models.TranscriptEntry{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
