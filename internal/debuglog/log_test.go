package debuglog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel.String() = %q, want %q", got, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"info", LevelInfo},
		{"WARN", LevelWarn},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},
		{"error", LevelError},
		{"OFF", LevelOff},
		{" off ", LevelOff},
		{"INVALID", LevelInfo}, // Default to INFO
		{"", LevelOff},
		{"  ", LevelOff},
	}

	for _, test := range tests {
		if got := ParseLogLevel(test.input); got != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", test.input, got, test.expected)
		}
	}
}

func TestSetupWithLevel(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	if err := Setup(LevelInfo, logFile); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	out := string(content)

	if strings.Contains(out, "debug message") {
		t.Error("Debug message should not appear at INFO level")
	}
	for _, want := range []string{"info message", "warn message", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
	if !strings.Contains(out, `"app":"wscroll"`) {
		t.Error("log lines should carry the app field")
	}
}

func TestSetupLevelOff(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "off.log")

	if err := Setup(LevelOff, logFile); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	Errorf("should not be logged")

	if _, err := os.Stat(logFile); !os.IsNotExist(err) {
		t.Error("log file should not be created when logging is off")
	}
	if level() != LevelOff {
		t.Errorf("level() = %v, want OFF", level())
	}
}

func TestSetupWithBool(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bool.log")

	if err := SetupWithBool(true, logFile); err != nil {
		t.Fatalf("SetupWithBool(true) failed: %v", err)
	}
	if level() != LevelDebug {
		t.Errorf("level() = %v, want DEBUG", level())
	}

	if err := SetupWithBool(false); err != nil {
		t.Fatalf("SetupWithBool(false) failed: %v", err)
	}
	if level() != LevelOff {
		t.Errorf("level() = %v, want OFF", level())
	}
}

func TestFieldLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(LevelDebug, &buf)
	t.Cleanup(func() { SetupWriter(LevelOff, nil) })

	WithFields(map[string]interface{}{
		"component": "test",
		"count":     42,
	}).Infof("doing %s", "work")

	out := buf.String()
	for _, want := range []string{`"component":"test"`, `"count":42`, `"message":"doing work"`, `"level":"info"`} {
		if !strings.Contains(out, want) {
			t.Errorf("field logger output %q missing %s", out, want)
		}
	}
}

func TestSetupWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(LevelError, &buf)
	t.Cleanup(func() { SetupWriter(LevelOff, nil) })

	Warnf("hidden")
	if buf.Len() != 0 {
		t.Fatalf("warn should be filtered at ERROR level, got %q", buf.String())
	}

	Errorf("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("error should be logged at ERROR level")
	}
}

func level() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}
