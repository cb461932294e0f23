// Package logger owns the process-wide zap logger. Import it anywhere instead
// of wiring a logger through every constructor; Init is called once from main
// and tests just get the nop logger.
package logger

import "go.uber.org/zap"

var log = zap.NewNop()

// Init builds the global logger. Production env gets JSON output, anything
// else the human-readable development encoder.
func Init(env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	log = l
	return nil
}

// L returns the global logger.
func L() *zap.Logger { return log }

// Sync flushes buffered entries; call on shutdown.
func Sync() { _ = log.Sync() }

func Debug(msg string, fields ...Field) { log.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { log.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { log.Warn(msg, fields...) }
func Error(msg string, fields ...Field) { log.Error(msg, fields...) }

// Field aliases so callers need no direct zap import.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Uint     = zap.Uint
	Duration = zap.Duration
	Bool     = zap.Bool
	ErrorF   = zap.Error
	Any      = zap.Any
)

type Field = zap.Field
