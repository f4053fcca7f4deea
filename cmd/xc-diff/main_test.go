package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/alfalfa/decoder"
)

func writeStateFixture(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	dec := decoder.NewDecoder(decoder.Options{})
	dec.ImportState(decoder.DecoderState{Width: w, Height: h})
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, dec.ExportState().Serialize(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunIdenticalStatesExitZero(t *testing.T) {
	dir := t.TempDir()
	a := writeStateFixture(t, dir, "a.state", 32, 16)
	b := writeStateFixture(t, dir, "b.state", 32, 16)

	if code := run([]string{a, b}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
}

func TestRunDifferingStatesExitOne(t *testing.T) {
	dir := t.TempDir()
	a := writeStateFixture(t, dir, "a.state", 32, 16)
	b := writeStateFixture(t, dir, "b.state", 64, 32)

	if code := run([]string{a, b}); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}

func TestRunMissingFileExitTwo(t *testing.T) {
	dir := t.TempDir()
	a := writeStateFixture(t, dir, "a.state", 32, 16)

	if code := run([]string{a, filepath.Join(dir, "missing.state")}); code != 2 {
		t.Fatalf("run() = %d, want 2", code)
	}
}

func TestRunWrongArgCountExitTwo(t *testing.T) {
	if code := run([]string{"onlyone"}); code != 2 {
		t.Fatalf("run() = %d, want 2", code)
	}
}
