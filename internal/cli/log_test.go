package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokendeck/pkg/config"
	"github.com/matzehuels/tokendeck/pkg/errors"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestConfigureLoggerLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    log.Level
	}{
		{"empty defaults to info", "", false, log.InfoLevel},
		{"configured warn", "warn", false, log.WarnLevel},
		{"verbose overrides", "error", true, log.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLogger(&bytes.Buffer{}, log.InfoLevel)
			closer, err := configureLogger(l, &bytes.Buffer{}, config.LoggingConfig{Level: tt.level}, tt.verbose)
			if err != nil {
				t.Fatalf("configureLogger: %v", err)
			}
			if closer != nil {
				t.Error("closer should be nil without a log file")
			}
			if got := l.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigureLoggerInvalidLevel(t *testing.T) {
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	_, err := configureLogger(l, &bytes.Buffer{}, config.LoggingConfig{Level: "chatty"}, false)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestConfigureLoggerJSONFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "tokendeck.log")
	l := newLogger(&buf, log.InfoLevel)

	closer, err := configureLogger(l, &buf, config.LoggingConfig{Level: "info", Format: "json", File: path}, false)
	if err != nil {
		t.Fatalf("configureLogger: %v", err)
	}
	l.Info("deck written", "slides", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file line is not JSON: %v\n%s", err, data)
	}
	if entry["msg"] != "deck written" {
		t.Errorf("msg = %v, want %q", entry["msg"], "deck written")
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("writer and file differ:\n%s\n%s", buf.String(), data)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	if prog == nil {
		t.Fatal("newProgress() returned nil")
	}

	time.Sleep(10 * time.Millisecond)

	prog.done("test completed")

	output := buf.String()
	if !strings.Contains(output, "test completed") {
		t.Errorf("progress.done() output = %q, want the message", output)
	}
	if !strings.Contains(output, "ms)") && !strings.Contains(output, "s)") {
		t.Errorf("progress.done() output = %q, want an elapsed duration", output)
	}
}
