package db

import (
	"os"

	"github.com/tooldesk/quoteflow/internal/logger"
)

// RunMigrations is a lightweight entry point for tests or a migrate job.
// It respects the MIGRATIONS env var just like ConnectAndMigrate.
func RunMigrations() error {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil
	}
	if os.Getenv("MIGRATIONS") == "" {
		logger.Info("MIGRATIONS env not set; skipping sql migrations (AutoMigrate path used at app start)")
		return nil
	}
	logger.Info("running explicit SQL migrations")
	return runSQLMigrations(dsn)
}
