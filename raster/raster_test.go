package raster

import "testing"

func TestBlankRasterUniform(t *testing.T) {
	h := Blank(16, 16)
	r := h.Raster()
	for _, b := range r.Y.Pix {
		if b != 0 {
			t.Fatalf("blank Y not zero: %d", b)
		}
	}
	for _, b := range r.U.Pix {
		if b != 128 {
			t.Fatalf("blank U not 128: %d", b)
		}
	}
}

func TestHandleHashStable(t *testing.T) {
	a := Blank(16, 16)
	b := Blank(16, 16)
	if a.Hash() != b.Hash() {
		t.Fatalf("equal-content rasters hashed differently: %d vs %d", a.Hash(), b.Hash())
	}
	if !a.Equal(b) {
		t.Fatalf("expected Equal for identical content")
	}
}

func TestHandleHashDiffers(t *testing.T) {
	a := Blank(16, 16)
	mb := NewMutable(16, 16)
	mb.Raster().Y.Pix[0] = 5
	b := mb.Freeze()
	if a.Hash() == b.Hash() {
		t.Fatalf("expected different hashes for different content")
	}
}

func TestSafeRasterEdgeReplication(t *testing.T) {
	mb := NewMutable(16, 16)
	r := mb.Raster()
	for i := range r.Y.Pix {
		r.Y.Pix[i] = 7
	}
	sr := NewSafeRaster(r)
	if sr.Y.Pix[sr.At(-5, -5)] != 7 {
		t.Fatalf("expected replicated edge value 7")
	}
	if sr.Y.Pix[sr.At(20, 20)] != 7 {
		t.Fatalf("expected replicated edge value 7 beyond bounds")
	}
}

func TestRefcount(t *testing.T) {
	h := Blank(16, 16)
	h2 := h.Clone()
	if h2.Release() != 1 {
		t.Fatalf("expected refcount 1 after one release of two")
	}
	if h.Release() != 0 {
		t.Fatalf("expected refcount 0 after final release")
	}
}
