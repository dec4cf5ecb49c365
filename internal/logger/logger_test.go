package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"whatsapp-broadcaster/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "run.log")
	if err := InitLogger(config.LoggingConfig{Level: "info", OutputFile: out}); err != nil {
		t.Fatal(err)
	}
	zap.S().Infow("campaign started", "contacts", 3)
	zap.S().Debugw("hidden at info level")
	CloseLogger()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "campaign started") {
		t.Errorf("log file missing entry: %s", data)
	}
	if strings.Contains(string(data), "hidden at info level") {
		t.Errorf("debug entry written at info level")
	}
}
