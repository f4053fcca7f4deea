package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/alfalfa/encoder"
	"github.com/deepteams/alfalfa/ivf"
)

// writeFixtureIVF writes a tiny n-keyframe IVF stream directly (bypassing
// xc-enc's own binary) using the encoder package, mirroring how
// encoder_test.go builds fixtures.
func writeFixtureIVF(t *testing.T, dir string, w, h, frames int) string {
	t.Helper()
	path := filepath.Join(dir, "fixture.ivf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := ivf.WriteHeader(f, ivf.Header{Width: uint16(w), Height: uint16(h), FrameRate: 24, TimeScale: 1, FrameCount: uint32(frames)}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < frames; i++ {
		data, err := encoder.EncodeKeyframe(encoder.Options{Width: w, Height: h, YACQIndex: 40})
		if err != nil {
			t.Fatal(err)
		}
		if err := ivf.WriteFrame(f, ivf.Frame{PTS: uint64(i), Data: data}); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestRunDumpsStateAfterNFrames(t *testing.T) {
	dir := t.TempDir()
	in := writeFixtureIVF(t, dir, 32, 16, 4)
	out := filepath.Join(dir, "dump.state")

	if err := run([]string{"-f", "2", in, out}); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("empty state file")
	}
}

func TestRunDumpMissingArgs(t *testing.T) {
	if err := run([]string{"onlyone.ivf"}); err == nil {
		t.Fatal("expected error for missing OUT.state argument")
	}
}
