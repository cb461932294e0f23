package db

import (
	"errors"
	"fmt"
	"os"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tooldesk/quoteflow/internal/auth"
	"github.com/tooldesk/quoteflow/internal/config"
	"github.com/tooldesk/quoteflow/internal/logger"
	"github.com/tooldesk/quoteflow/internal/models"
)

// AllModels lists every persisted model in AutoMigrate order. Shared with the
// test fixtures so schemas never drift apart.
func AllModels() []any {
	return []any{
		&models.Role{}, &models.User{},
		&models.Customer{}, &models.Machine{}, &models.AuxiliaryCostType{},
		&models.Quotation{}, &models.Part{}, &models.Operation{}, &models.AuxiliaryCostLine{},
		&models.QuotationAudit{}, &models.QuoteCounter{},
	}
}

// ConnectAndMigrate opens the database and brings the schema up to date.
// With MIGRATIONS=1 the SQL migrations in ./migrations run via golang-migrate;
// otherwise AutoMigrate is used as a dev convenience.
func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check environment configuration")
	}
	var db *gorm.DB
	var err error
	logLevel := gormlogger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = gormlogger.Info
	}
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel), TranslateError: true}
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		logger.Warn("retrying DB connection", logger.ErrorF(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if config.ParseBool("MIGRATIONS", false) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range AllModels() {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"roles", "users", "quotations", "quote_counters"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if config.ParseBool("DB_SEED", false) {
		Seed(db)
	}
	return db, nil
}

// Seed inserts the base roles, a default admin account (when ADMIN_EMAIL and
// ADMIN_PASSWORD are set), and the common auxiliary-cost types. Existing rows
// are left alone, so seeding is safe to run on every start.
func Seed(db *gorm.DB) {
	for _, r := range []models.Role{
		{Name: models.RoleAdmin, Description: "Full access"},
		{Name: models.RoleEngineer, Description: "Technical review of quotations"},
		{Name: models.RoleManagement, Description: "Commercial approval and issuing"},
		{Name: models.RoleSales, Description: "Creates and submits quotations"},
	} {
		var existing models.Role
		if err := db.Where("name = ?", r.Name).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&r)
		}
	}

	for _, t := range []models.AuxiliaryCostType{
		{Code: "SETUP", Name: "Setup", DefaultAmount: decimal.NewFromInt(50), Active: true},
		{Code: "INSP", Name: "Inspection", DefaultAmount: decimal.NewFromInt(30), Active: true},
		{Code: "TOOL", Name: "Tooling", DefaultAmount: decimal.NewFromInt(80), Active: true},
		{Code: "PACK", Name: "Packing", DefaultAmount: decimal.NewFromInt(15), Active: true},
	} {
		var existing models.AuxiliaryCostType
		if err := db.Where("code = ?", t.Code).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&t)
		}
	}

	email := os.Getenv("ADMIN_EMAIL")
	pass := os.Getenv("ADMIN_PASSWORD")
	if email == "" || pass == "" {
		return
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil || count > 0 {
		return
	}
	hash, err := auth.HashPassword(pass)
	if err != nil {
		logger.Warn("seed admin: hash password", logger.ErrorF(err))
		return
	}
	var adminRole models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		return
	}
	db.Create(&models.User{Email: email, Password: hash, FirstName: "Admin", RoleID: adminRole.ID, Active: true})
}

// runSQLMigrations executes migrations in ./migrations using the golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
