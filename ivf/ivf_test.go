package ivf

import (
	"bytes"
	"testing"
)

func TestHeaderRoundtrip(t *testing.T) {
	h := Header{Version: 0, Width: 320, Height: 240, FrameRate: 30, TimeScale: 1, FrameCount: 2}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("roundtrip mismatch: %+v != %+v", got, h)
	}
}

func TestFrameRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{Width: 16, Height: 16}); err != nil {
		t.Fatal(err)
	}
	want := []Frame{
		{PTS: 0, Data: []byte{1, 2, 3}},
		{PTS: 1, Data: []byte{4, 5, 6, 7}},
	}
	for _, f := range want {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatal(err)
		}
	}

	_, frames, err := ReadAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if !bytes.Equal(f.Data, want[i].Data) || f.PTS != want[i].PTS {
			t.Fatalf("frame %d mismatch: %+v != %+v", i, f, want[i])
		}
	}
}

func TestRejectsBadFourcc(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{}); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	copy(b[8:12], []byte("VP8L"))
	if _, err := ReadHeader(bytes.NewReader(b)); err == nil {
		t.Fatalf("expected error for non-VP80 fourcc")
	}
}
