package decoder

import "github.com/deepteams/alfalfa/raster"

// ToRaster copies a decoded Frame's planes into a fresh raster.Handle,
// giving the explicit-state layer (state.DecoderHash, catalog.Store) a
// content-hashed, shared-ownership picture to hold onto independent of this
// Decoder's reusable internal buffers.
func (f *Frame) ToRaster() *raster.Handle {
	mh := raster.NewMutable(f.Width, f.Height)
	r := mh.Raster()
	copyPlane(&r.Y, f.Y, f.YStride)
	copyPlane(&r.U, f.U, f.UVStride)
	copyPlane(&r.V, f.V, f.UVStride)
	return mh.Freeze()
}

func copyPlane(dst *raster.Plane, src []byte, srcStride int) {
	for y := 0; y < dst.H; y++ {
		so := y * srcStride
		if so+dst.W > len(src) {
			break
		}
		copy(dst.Row(y), src[so:so+dst.W])
	}
}
