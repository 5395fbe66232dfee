package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger: JSON в production, консольный вывод в остальных окружениях.
// LOG_LEVEL переопределяет уровень
func NewLogger(environment string) (*zap.Logger, error) {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
		config.DisableCaller = false
		config.DisableStacktrace = false
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level, ok := levelFromEnv(); ok {
		config.Level.SetLevel(level)
	}

	return config.Build()
}

func levelFromEnv() (zapcore.Level, bool) {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zapcore.InfoLevel, false
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return zapcore.InfoLevel, false
	}
	return level, true
}
