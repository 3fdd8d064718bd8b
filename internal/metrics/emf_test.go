package metrics

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return buf.String()
}

func TestRecorderFlushEmitsOneLine(t *testing.T) {
	out := captureStdout(t, func() {
		New("imagealt.orchestrator").
			Dimension("Outcome", "success").
			Metric("DurationMs", 125, UnitMilliseconds).
			Count("Invocations").
			Flush()
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line, got %d: %q", len(lines), out)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &doc); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}

	if doc["Outcome"] != "success" {
		t.Errorf("Outcome = %v, want success", doc["Outcome"])
	}
	if doc["DurationMs"] != float64(125) {
		t.Errorf("DurationMs = %v, want 125", doc["DurationMs"])
	}
	if doc["Invocations"] != float64(1) {
		t.Errorf("Invocations = %v, want 1", doc["Invocations"])
	}
	if _, ok := doc["_metrics"]; !ok {
		t.Error("missing _metrics directive")
	}
}

func TestRecorderFlushNoMetricsEmitsNothing(t *testing.T) {
	out := captureStdout(t, func() {
		New("imagealt.orchestrator").Dimension("Outcome", "success").Flush()
	})
	if out != "" {
		t.Errorf("expected no output when no metrics recorded, got %q", out)
	}
}
