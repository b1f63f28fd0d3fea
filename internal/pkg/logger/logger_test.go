package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestStdLoggerQuietHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, false)

	log.Debug("hidden", map[string]interface{}{"id": 1})
	log.Info("also hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	log.Warn("shown", map[string]interface{}{"id": 7})
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "id=7") {
		t.Fatalf("warn missing from output: %q", buf.String())
	}
}

func TestStdLoggerVerboseIncludesError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, true)

	log.Debug("debugging", nil)
	log.Error("failed", errors.New("boom"), nil)

	out := buf.String()
	if !strings.Contains(out, "debugging") {
		t.Fatalf("debug missing: %q", out)
	}
	if !strings.Contains(out, "error=boom") {
		t.Fatalf("error attr missing: %q", out)
	}
}
