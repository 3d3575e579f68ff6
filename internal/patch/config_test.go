package patch

import (
	"bytes"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		t.Fatalf("ParseAs failed: %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "text" {
		t.Errorf("defaults = %+v, want warn/text", cfg)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("UPDATE_TIMEOUTS_LOG_LEVEL", "debug")
	t.Setenv("UPDATE_TIMEOUTS_LOG_FORMAT", "json")

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		t.Fatalf("ParseAs failed: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("cfg = %+v, want debug/json", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel logrus.Level
		wantJSON  bool
		wantErr   bool
	}{
		{name: "defaults", cfg: Config{LogLevel: "warn", LogFormat: "text"}, wantLevel: logrus.WarnLevel},
		{name: "json debug", cfg: Config{LogLevel: "debug", LogFormat: "json"}, wantLevel: logrus.DebugLevel, wantJSON: true},
		{name: "empty format", cfg: Config{LogLevel: "info"}, wantLevel: logrus.InfoLevel},
		{name: "bad level", cfg: Config{LogLevel: "loud", LogFormat: "text"}, wantErr: true},
		{name: "bad format", cfg: Config{LogLevel: "info", LogFormat: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := tt.cfg.NewLogger(&buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if logger.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.wantLevel)
			}

			logger.WithField("file", "a.json").Error("boom")
			line := buf.String()
			if tt.wantJSON != strings.HasPrefix(line, "{") {
				t.Errorf("unexpected format: %q", line)
			}
			if !strings.Contains(line, "a.json") {
				t.Errorf("log line missing field: %q", line)
			}
		})
	}
}
