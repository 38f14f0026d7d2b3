package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetOutputLevel(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	Info("hidden")
	Warn("shown", "term", "React")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "term=React") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	SetOutput(&buf, "loud")
	Debug("quiet")
	Info("normal")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "normal") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Logger = nil
	Info("x")
	Error("y")
	if WithPrefix("fetch") == nil {
		t.Error("WithPrefix should never return nil")
	}
}

func TestInitCreatesDailyFile(t *testing.T) {
	defer func() { Close(); Logger = nil }()

	dir := filepath.Join(t.TempDir(), "logs")
	if err := Init(dir, "debug"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("started")

	name := "hackerstories-" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "started") {
		t.Errorf("log file missing entry: %q", data)
	}
}
