package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formengine/pkg/logging"
)

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.New("debug", logging.FormatJSON, &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("field mounted", zap.String("id", "email"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode entry %q: %v", buf.String(), err)
	}
	if entry["msg"] != "field mounted" || entry["id"] != "email" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.New("", "console", &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	if _, err := logging.New("loud", "", nil); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := logging.New("info", "xml", nil); err == nil {
		t.Fatalf("expected format error")
	}
	if lvl, _ := logging.ParseLevel("ERROR"); lvl != zapcore.ErrorLevel {
		t.Fatalf("level = %v", lvl)
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(logging.EnvLevel, "debug")
	if got := logging.LevelFromEnv("warn"); got != "debug" {
		t.Fatalf("LevelFromEnv = %q", got)
	}
}
