package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger writes JSON logs to a rotating file under logDir and mirrors them to stderr.
// Unknown levels fall back to info.
func NewLogger(logDir, level string) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "livestatus.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	enc := zapcore.NewJSONEncoder(cfg)

	core := zapcore.NewTee(
		zapcore.NewCore(enc, file, lvl),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl),
	)
	return zap.New(core), nil
}
