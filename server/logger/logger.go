package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(devMode bool) *zap.SugaredLogger {
	config := zap.NewProductionConfig()
	if devMode {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build()
	if err != nil {
		log.Panic(err)
	}

	// flushes buffer, if any
	defer logger.Sync()

	return logger.Sugar()
}
