package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"whatsapp-broadcaster/internal/config"
)

var fileSink *lumberjack.Logger

// InitLogger installs the global zap logger. Console output always goes to
// stdout; with an output file a JSON copy is written through lumberjack.
func InitLogger(cfg config.LoggingConfig) error {
	level := parseLevel(cfg.Level)

	consoleEncoder := zap.NewDevelopmentEncoderConfig()
	consoleEncoder.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoder),
			zapcore.AddSync(os.Stdout),
			level,
		),
	}

	if cfg.OutputFile != "" {
		fileSink = &lumberjack.Logger{
			Filename:   cfg.OutputFile,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     30,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(fileSink),
			level,
		))
	}

	lg := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(lg)
	return nil
}

func CloseLogger() {
	_ = zap.L().Sync()
	if fileSink != nil {
		_ = fileSink.Close()
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
