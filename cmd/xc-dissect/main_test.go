package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/alfalfa/encoder"
	"github.com/deepteams/alfalfa/ivf"
)

func writeDissectFixture(t *testing.T, dir string, w, h, frames int) string {
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

func TestRunDissectTagOnly(t *testing.T) {
	dir := t.TempDir()
	in := writeDissectFixture(t, dir, 32, 16, 2)

	if err := run([]string{in}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunDissectFullDecode(t *testing.T) {
	dir := t.TempDir()
	in := writeDissectFixture(t, dir, 32, 16, 2)

	if err := run([]string{"-m", "-p", "-c", in}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunDissectFrameLimit(t *testing.T) {
	dir := t.TempDir()
	in := writeDissectFixture(t, dir, 32, 16, 4)

	if err := run([]string{"-f", "1", in}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestDissectTagParsesKeyframeHeader(t *testing.T) {
	data, err := encoder.EncodeKeyframe(encoder.Options{Width: 32, Height: 16, YACQIndex: 40})
	if err != nil {
		t.Fatal(err)
	}
	tag := dissectTag(data)
	if !tag.keyFrame {
		t.Error("keyFrame = false, want true")
	}
	if !tag.show {
		t.Error("show = false, want true")
	}
	if tag.partitionLength == 0 {
		t.Error("partitionLength = 0, want nonzero")
	}
}

func TestDissectTagShortData(t *testing.T) {
	if tag := dissectTag([]byte{0x01}); tag != (uncompressedTag{}) {
		t.Errorf("dissectTag(short) = %+v, want zero value", tag)
	}
}

func TestRunMissingInput(t *testing.T) {
	if err := run(nil); err == nil {
		t.Fatal("expected error for missing input file")
	}
}
