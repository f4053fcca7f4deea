package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/alfalfa/decoder"
	"github.com/deepteams/alfalfa/encoder"
	"github.com/deepteams/alfalfa/ivf"
)

func writeTerminateFixture(t *testing.T, dir string, w, h, frames int) string {
	t.Helper()
	path := filepath.Join(dir, "in.ivf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := ivf.WriteHeader(f, ivf.Header{Width: uint16(w), Height: uint16(h), FrameRate: 24, TimeScale: 1, FrameCount: uint32(frames)}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < frames; i++ {
		data, err := encoder.EncodeKeyframe(encoder.Options{Width: w, Height: h, YACQIndex: 50})
		if err != nil {
			t.Fatal(err)
		}
		if err := ivf.WriteFrame(f, ivf.Frame{PTS: uint64(i), Data: data}); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestRunReplacesFinalFrameAndDecodes(t *testing.T) {
	dir := t.TempDir()
	in := writeTerminateFixture(t, dir, 32, 16, 3)
	out := filepath.Join(dir, "out.ivf")
	outState := filepath.Join(dir, "out.state")

	if err := run([]string{in, out, outState}); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	h, err := ivf.ReadHeader(f)
	if err != nil {
		t.Fatal(err)
	}

	dec := decoder.NewDecoder(decoder.Options{})
	refs := &decoder.References{}
	count := 0
	for {
		frame, err := ivf.ReadFrame(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if _, err := dec.Decode(frame.Data, refs); err != nil {
			t.Fatalf("decoding rewritten frame %d: %v", count, err)
		}
		count++
	}
	if count != 3 {
		t.Fatalf("got %d frames, want 3", count)
	}
	if int(h.Width) != 32 || int(h.Height) != 16 {
		t.Fatalf("header dims = %dx%d, want 32x16", h.Width, h.Height)
	}

	if _, err := os.Stat(outState); err != nil {
		t.Fatalf("expected state file: %v", err)
	}
}

func TestRunMissingArgs(t *testing.T) {
	if err := run([]string{"onlyone.ivf"}); err == nil {
		t.Fatal("expected error for missing OUT.ivf argument")
	}
}
