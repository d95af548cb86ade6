package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogRespectsEnabled(t *testing.T) {
	var buf bytes.Buffer
	prev := Enabled()
	t.Cleanup(func() { SetEnabled(prev) })

	SetOutput(&buf)
	SetEnabled(false)
	Log("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output while disabled, got %q", buf.String())
	}

	SetEnabled(true)
	Log("shown %d", 2)
	LogIf(false, "skipped")
	LogIf(true, "kept")
	out := buf.String()
	if !strings.Contains(out, "[PHARMAMAP] ") || !strings.Contains(out, "shown 2") {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.Contains(out, "skipped") || !strings.Contains(out, "kept") {
		t.Fatalf("LogIf mismatch: %q", out)
	}
}
