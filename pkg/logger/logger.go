package logger

import (
	"agritrade/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// InitLogger initializes the logger with configuration
func InitLogger(config *config.Config) {
	env := config.Server.Env

	var level zapcore.Level
	switch config.Log.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var err error
	if env == "production" {
		prodConfig := zap.NewProductionConfig()
		prodConfig.Level = zap.NewAtomicLevelAt(level)
		prodConfig.EncoderConfig.TimeKey = "timestamp"
		prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		prodConfig.OutputPaths = []string{"stdout"}

		log, err = prodConfig.Build(zap.Fields(
			zap.String("service", config.ServiceName),
		))
	} else {
		devConfig := zap.NewDevelopmentConfig()
		devConfig.Level = zap.NewAtomicLevelAt(level)

		log, err = devConfig.Build(zap.Fields(
			zap.String("service", config.ServiceName),
		))
	}

	if err != nil {
		// Can't use the logger here, so using a panic
		panic("failed to initialize logger: " + err.Error())
	}

	// Replace the global logger
	zap.ReplaceGlobals(log)
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if log == nil {
		return zap.L()
	}
	return log
}
