package raster

// LumaMargin is the number of edge-replicated pixels extended around the
// luma plane so that unsafe (branch-free) inter-prediction fetches never
// read out of bounds.
const LumaMargin = 256

// SafeRaster wraps a Raster with an extended luma margin, built once per
// reference so the 6-tap sub-pel motion compensation filter can run its
// branch-free fast path even when a motion vector's footprint would
// otherwise leave the plane.
type SafeRaster struct {
	Base *Raster

	// Y is the margin-extended luma plane: LumaMargin extra columns/rows
	// on every side, replicated from Base.Y's edge pixels.
	Y       Plane
	originX int
	originY int
}

// NewSafeRaster builds a SafeRaster view over r, replicating r.Y's edge
// pixels into a LumaMargin-pixel border.
func NewSafeRaster(r *Raster) *SafeRaster {
	m := LumaMargin
	w, h := r.Y.W, r.Y.H
	stride := w + 2*m
	pix := make([]byte, stride*(h+2*m))
	sr := &SafeRaster{Base: r, originX: m, originY: m}
	sr.Y = Plane{Pix: pix, Stride: stride, W: w + 2*m, H: h + 2*m}

	// Copy interior.
	for y := 0; y < h; y++ {
		dst := sr.Y.Pix[(y+m)*stride+m : (y+m)*stride+m+w]
		copy(dst, r.Y.Row(y))
	}
	// Extend left/right edges.
	for y := 0; y < h; y++ {
		rowOff := (y + m) * stride
		left := sr.Y.Pix[rowOff+m]
		right := sr.Y.Pix[rowOff+m+w-1]
		for x := 0; x < m; x++ {
			sr.Y.Pix[rowOff+x] = left
			sr.Y.Pix[rowOff+m+w+x] = right
		}
	}
	// Extend top/bottom edges (full rows, including the already-extended
	// left/right margins).
	topRow := sr.Y.Pix[m*stride : (m+1)*stride]
	botRow := sr.Y.Pix[(m+h-1)*stride : (m+h)*stride]
	for y := 0; y < m; y++ {
		copy(sr.Y.Pix[y*stride:(y+1)*stride], topRow)
		copy(sr.Y.Pix[(m+h+y)*stride:(m+h+y+1)*stride], botRow)
	}
	return sr
}

// At returns the byte offset within the margin-extended luma plane of the
// original raster's (x, y), which may be negative or beyond W/H by up to
// LumaMargin.
func (s *SafeRaster) At(x, y int) int {
	return (y+s.originY)*s.Y.Stride + (x + s.originX)
}

// InBounds reports whether the w x h footprint at (x, y) lies entirely
// within the original (unextended) raster, i.e. whether the fast
// non-margined path may be used instead.
func (s *SafeRaster) InBounds(x, y, w, h int) bool {
	return x >= 0 && y >= 0 && x+w <= s.Base.Y.W && y+h <= s.Base.Y.H
}
