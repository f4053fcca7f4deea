package player

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log rotation defaults for NewFileLogger, matched to a long-running
// playback session rather than a one-shot CLI invocation.
const (
	logMaxSizeMB  = 100
	logMaxBackups = 5
	logMaxAgeDays = 28
)

// NewFileLogger builds a SugaredLogger that writes JSON-encoded stall
// predictions and fetch diagnostics to path, rotating via lumberjack once
// the file passes logMaxSizeMB. Callers that only need in-process
// diagnostics (tests, short-lived tools) can pass nil to NewLoop/VideoMap
// instead and get a no-op logger.
func NewFileLogger(path string) *zap.SugaredLogger {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotator),
		zap.InfoLevel,
	)
	return zap.New(core).Sugar()
}
