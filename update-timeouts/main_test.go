package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/presbrey/update-timeouts/internal/patch"
)

func TestRun(t *testing.T) {
	tmpDir := t.TempDir()
	input := `[{"performance": {"status": "TIMEOUT_POSITIVE", "other": 1}}, {"performance": {"status": "LOSS"}}, {"no_perf": true}]`
	if err := os.WriteFile(filepath.Join(tmpDir, "signals_gemini_log.json"), []byte(input), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	cfg := &patch.Config{LogLevel: "info", LogFormat: "text"}
	if err := run(cfg, tmpDir, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != len(patch.DefaultFiles()) {
		t.Fatalf("expected one line per file, got:\n%s", stdout.String())
	}
	if last := lines[len(lines)-1]; last != "Updated file saved as signals_gemini_log_updated.json" {
		t.Errorf("last line = %q", last)
	}
	for _, line := range lines[:len(lines)-1] {
		if !strings.HasPrefix(line, "Error loading signals_") {
			t.Errorf("unexpected line %q", line)
		}
	}

	got, err := os.ReadFile(filepath.Join(tmpDir, "signals_gemini_log_updated.json"))
	if err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "performance": {
      "status": "WIN",
      "other": 1,
      "closed_by": "TP1"
    }
  },
  {
    "performance": {
      "status": "LOSS"
    }
  },
  {
    "no_perf": true
  }
]
`
	if string(got) != want {
		t.Errorf("Expected JSON:\n%s\nGot:\n%s", want, got)
	}

	if !strings.Contains(stderr.String(), "run complete") {
		t.Errorf("missing summary log:\n%s", stderr.String())
	}
}

func TestRunBadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	var stdout, stderr bytes.Buffer
	cfg := &patch.Config{LogLevel: "loud"}
	if err := run(cfg, tmpDir, &stdout, &stderr); err == nil {
		t.Fatal("run() expected error for bad log level")
	}
	if stdout.Len() != 0 {
		t.Errorf("no file should be processed on bad config, got:\n%s", stdout.String())
	}
}
