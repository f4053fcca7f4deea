package encoder

import (
	"testing"

	"github.com/deepteams/alfalfa/decoder"
)

func TestEncodeKeyframeDecodes(t *testing.T) {
	data, err := EncodeKeyframe(Options{Width: 32, Height: 32, YACQIndex: 40})
	if err != nil {
		t.Fatal(err)
	}

	dec := decoder.NewDecoder(decoder.Options{})
	frame, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatalf("decoding encoded keyframe: %v", err)
	}
	if frame.Width != 32 || frame.Height != 32 {
		t.Fatalf("dimensions = %dx%d, want 32x32", frame.Width, frame.Height)
	}
	for _, v := range frame.Y[:frame.Width] {
		if v < 100 || v > 156 {
			t.Fatalf("expected near-gray luma, got %d", v)
		}
	}
}

func TestEncodeKeyframeRejectsBadQuantizer(t *testing.T) {
	if _, err := EncodeKeyframe(Options{Width: 16, Height: 16, YACQIndex: 200}); err == nil {
		t.Fatal("expected error for out-of-range y-ac-qi")
	}
}
