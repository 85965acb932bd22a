package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestGetBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("expected Get to panic before Init")
		}
	}()
	Get()
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithJSON(true)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	Named("engine").Info(context.Background(), "report assembled",
		String("player", "p1"), Int("season", 2023), Bool("estimated", false), Duration("took", time.Millisecond))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "report assembled" {
		t.Errorf("msg = %v", entry["msg"])
	}
	group, ok := entry["engine"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields grouped under engine, got %v", entry)
	}
	if group["player"] != "p1" || group["season"] != float64(2023) {
		t.Errorf("unexpected fields %v", group)
	}
	if src, _ := group["source"].(string); !strings.Contains(src, "logger_test.go:") {
		t.Errorf("source should point at the caller, got %q", src)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	batch := Get().With(String("batchId", "b-1"))
	batch.Info(context.Background(), "stored", Int("records", 3))
	batch.Warn(context.Background(), "slow")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for _, l := range lines {
		if !strings.Contains(l, "batchId=b-1") {
			t.Errorf("line %q is missing the bound field", l)
		}
	}
	if !strings.Contains(lines[0], "records=3") || !strings.Contains(lines[1], "level=WARN") {
		t.Errorf("unexpected lines %q", lines)
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	Get().Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}
	for _, level := range []string{"debug", "DEBUG", " debug "} {
		if err := SetLevelString(level); err != nil {
			t.Fatalf("SetLevelString(%q): %v", level, err)
		}
	}
	Get().Debug(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug should be emitted after SetLevelString(debug)")
	}

	buf.Reset()
	if err := SetLevelString("error"); err != nil {
		t.Fatal(err)
	}
	Get().Warn(context.Background(), "quiet")
	if buf.Len() != 0 {
		t.Errorf("warn should be filtered at error level, got %q", buf.String())
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "discarded", String("k", "v"))
	l.Named("x").With(Int("n", 1)).Warn(context.Background(), "discarded")
}
