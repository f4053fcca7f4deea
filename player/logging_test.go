package player

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileLoggerWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player.log")

	log := NewFileLogger(path)
	log.Infow("predicted stall in 1.5s", "margin_deficit", 1.5)
	_ = log.Desugar().Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "predicted stall") {
		t.Fatalf("log file missing expected message: %q", data)
	}
	if !strings.Contains(string(data), `"margin_deficit":1.5`) {
		t.Fatalf("log file missing structured field: %q", data)
	}
}
