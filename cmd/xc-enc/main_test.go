package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/deepteams/alfalfa/ivf"
)

func writeY4M(t *testing.T, dir string, w, h, frames int) string {
	t.Helper()
	path := filepath.Join(dir, "in.y4m")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	header := "YUV4MPEG2 W" + strconv.Itoa(w) + " H" + strconv.Itoa(h) + " F24:1 Ip A1:1\n"
	if _, err := f.WriteString(header); err != nil {
		t.Fatal(err)
	}
	frameSize := w*h + 2*((w+1)/2)*((h+1)/2)
	buf := make([]byte, frameSize)
	for i := 0; i < frames; i++ {
		if _, err := f.WriteString("FRAME\n"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write(buf); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestRunEncodesY4MToIVF(t *testing.T) {
	dir := t.TempDir()
	in := writeY4M(t, dir, 32, 16, 3)
	out := filepath.Join(dir, "out.ivf")
	stateOut := filepath.Join(dir, "out.state")

	if err := run([]string{"-o", out, "--input-format", "y4m", "--y-ac-qi", "40", "--output-state", stateOut, in}); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	h, frames, err := ivf.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if int(h.Width) != 32 || int(h.Height) != 16 {
		t.Fatalf("header dims = %dx%d, want 32x16", h.Width, h.Height)
	}
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}

	if _, err := os.Stat(stateOut); err != nil {
		t.Fatalf("expected state file: %v", err)
	}
}

func TestRunRejectsUnsupportedRateControl(t *testing.T) {
	dir := t.TempDir()
	in := writeY4M(t, dir, 16, 16, 1)
	out := filepath.Join(dir, "out.ivf")

	err := run([]string{"-o", out, "--ssim", "0.95", "--y-ac-qi", "40", in})
	if err == nil {
		t.Fatal("expected error for --ssim")
	}
}

func TestRunRejectsMissingQuantizer(t *testing.T) {
	dir := t.TempDir()
	in := writeY4M(t, dir, 16, 16, 1)
	out := filepath.Join(dir, "out.ivf")

	if err := run([]string{"-o", out, in}); err == nil {
		t.Fatal("expected error without --y-ac-qi")
	}
}
