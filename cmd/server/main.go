package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tooldesk/quoteflow/internal/config"
	"github.com/tooldesk/quoteflow/internal/db"
	"github.com/tooldesk/quoteflow/internal/logger"
	"github.com/tooldesk/quoteflow/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()
	if err := logger.Init(cfg.Env); err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(); err != nil {
			logger.Error("migrate-only failed", logger.ErrorF(err))
			os.Exit(1)
		}
		logger.Info("migrations completed; exiting as requested")
		return
	}

	dbConn, err := db.ConnectAndMigrate()
	if err != nil {
		logger.Error("database connection failed", logger.ErrorF(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(dbConn),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", srv.Addr), logger.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", logger.ErrorF(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown error", logger.ErrorF(err))
	}
	logger.Info("server stopped")
}
