package raster

import "testing"

func TestImageRoundtrip(t *testing.T) {
	mh := NewMutable(32, 16)
	r := mh.Raster()
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			r.Y.Pix[r.Y.At(x, y)] = byte(x + y)
		}
	}
	for i := range r.U.Pix {
		r.U.Pix[i] = 90
	}
	for i := range r.V.Pix {
		r.V.Pix[i] = 200
	}

	img := ToImage(r)
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Fatalf("image bounds = %v, want 32x16", img.Bounds())
	}

	back := FromImage(img).Freeze()
	orig := mh.Freeze()
	if !back.Equal(orig) {
		t.Fatalf("roundtrip hash mismatch: %016x vs %016x", back.Hash(), orig.Hash())
	}
}

func TestThumbnailDimensions(t *testing.T) {
	h := Blank(64, 48)
	thumb := Thumbnail(h.Raster(), 16, 12)
	if thumb.Bounds().Dx() != 16 || thumb.Bounds().Dy() != 12 {
		t.Fatalf("thumbnail bounds = %v, want 16x12", thumb.Bounds())
	}
}
