package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"prepnotify/internal/config"
)

// New builds the process logger. Release mode writes JSON to stdout and to a
// rotating file under logs/; anything else gets the zap development config.
func New(cfg *config.Config) (*zap.Logger, error) {
	service := zap.String("service", cfg.OTELServiceName)
	if cfg.Environment != "release" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return logger.With(service), nil
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return nil, err
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.NewMultiWriteSyncer(
			zapcore.AddSync(os.Stdout),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   "logs/prepnotify.log",
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     14,
				Compress:   true,
			}),
		),
		zap.InfoLevel,
	)
	return zap.New(core, zap.AddCaller(), zap.Fields(service)), nil
}
