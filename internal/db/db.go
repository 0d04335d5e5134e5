package db

import (
	"fmt"
	"strings"

	"go-yamdb/internal/catalog"
	"go-yamdb/internal/config"
	"go-yamdb/internal/mail"
	"go-yamdb/internal/review"
	"go-yamdb/internal/user"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects with the configured driver. Driver errors such as unique
// violations are translated to gorm's sentinel errors.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(withForeignKeys(dsn))
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// withForeignKeys turns on sqlite foreign key enforcement for the connection.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_fk=") || strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_fk=1"
}

// Migrate creates or updates every table. Order matters for foreign keys.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	if err := db.AutoMigrate(&catalog.Category{}, &catalog.Genre{}, &catalog.Title{}); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	if err := db.AutoMigrate(&review.Review{}, &review.Comment{}); err != nil {
		return fmt.Errorf("migrate reviews: %w", err)
	}
	if err := db.AutoMigrate(&mail.Dispatch{}); err != nil {
		return fmt.Errorf("migrate mail journal: %w", err)
	}
	return nil
}

func Init(cfg *config.Config) error {
	db, err := Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	return nil
}
