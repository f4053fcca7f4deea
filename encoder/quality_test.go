package encoder

import (
	"testing"

	"github.com/deepteams/alfalfa/raster"
)

func gray(w, h int, y byte) *raster.Raster {
	mh := raster.NewMutable(w, h)
	r := mh.Raster()
	for i := range r.Y.Pix {
		r.Y.Pix[i] = y
	}
	for i := range r.U.Pix {
		r.U.Pix[i] = 128
	}
	for i := range r.V.Pix {
		r.V.Pix[i] = 128
	}
	return r
}

func TestSSIMIdenticalRasters(t *testing.T) {
	a := gray(32, 32, 128)
	b := gray(32, 32, 128)
	if s := SSIM(a, b); s != 1.0 {
		t.Fatalf("SSIM(identical) = %v, want 1.0", s)
	}
}

func TestSSIMPenalizesDifference(t *testing.T) {
	a := gray(32, 32, 0)
	b := gray(32, 32, 128)
	s := SSIM(a, b)
	if s >= 1.0 || s < 0 {
		t.Fatalf("SSIM(flat 0 vs flat 128) = %v, want in [0, 1)", s)
	}

	// A mild perturbation must score better than a gross one.
	c := gray(32, 32, 128)
	for i := 0; i < len(c.Y.Pix); i += 7 {
		c.Y.Pix[i] = 120
	}
	if mild := SSIM(b, c); mild <= s {
		t.Fatalf("mild distortion %v should outscore gross distortion %v", mild, s)
	}
}

func TestSSIMDimensionMismatch(t *testing.T) {
	if s := SSIM(gray(32, 32, 128), gray(16, 16, 128)); s != 0 {
		t.Fatalf("SSIM over mismatched dimensions = %v, want 0", s)
	}
}
