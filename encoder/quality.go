package encoder

import (
	"github.com/deepteams/alfalfa/decoder/dsp"
	"github.com/deepteams/alfalfa/raster"
)

// SSIM scores how closely approx reproduces original, as the catalog's
// quality table records it: the per-plane structural-similarity scores of
// Y, U, and V, averaged weighted by sample count. Both rasters must share
// dimensions; the score reads the planes directly, display-cropped.
func SSIM(original, approx *raster.Raster) float64 {
	if original.W != approx.W || original.H != approx.H {
		return 0
	}

	planes := []struct {
		a, b *raster.Plane
	}{
		{&original.Y, &approx.Y},
		{&original.U, &approx.U},
		{&original.V, &approx.V},
	}

	var sum float64
	var samples int
	for _, pl := range planes {
		n := pl.a.W * pl.a.H
		if n == 0 {
			continue
		}
		s := dsp.PlaneSSIM(pl.a.Pix, pl.a.Stride, pl.b.Pix, pl.b.Stride, pl.a.W, pl.a.H)
		sum += s * float64(n)
		samples += n
	}
	if samples == 0 {
		return 0
	}
	return sum / float64(samples)
}
