// Package raster implements Alfalfa's decoded-picture store: planar YCbCr
// 4:2:0 images with shared-ownership handles and stable content hashes.
package raster

import (
	"hash/fnv"
	"sync/atomic"
)

// Plane is a strided row-major view into a byte buffer.
type Plane struct {
	Pix    []byte
	Stride int
	W, H   int
}

// At returns the byte offset of pixel (x, y) within Pix.
func (p *Plane) At(x, y int) int {
	return y*p.Stride + x
}

// Row returns the slice covering row y, W bytes wide.
func (p *Plane) Row(y int) []byte {
	off := y * p.Stride
	return p.Pix[off : off+p.W]
}

// SubRange returns a view of the rectangle [x0,y0)-[x0+w,y0+h) sharing the
// plane's stride, for macroblock- and 4x4-level access without copy.
func (p *Plane) SubRange(x0, y0, w, h int) Plane {
	return Plane{
		Pix:    p.Pix[p.At(x0, y0):],
		Stride: p.Stride,
		W:      w,
		H:      h,
	}
}

// Raster is a planar YCbCr 4:2:0 image at display width W and height H,
// internally padded to a macroblock grid. MBW/MBH are the macroblock grid
// dimensions (ceil(W/16) x ceil(H/16)).
type Raster struct {
	W, H     int
	MBW, MBH int
	Y, U, V  Plane

	// CreatedAt is a monotonic generation counter, not wall-clock time,
	// used only for pool-reuse diagnostics.
	CreatedAt uint64
}

var rasterGeneration uint64

// NewMutable allocates a fresh raster sized for W x H display pixels,
// padded to the macroblock grid, returned as a MutableHandle ready for a
// decoder to fill in.
func NewMutable(w, h int) *MutableHandle {
	mbw := (w + 15) / 16
	mbh := (h + 15) / 16
	yStride := mbw * 16
	uvStride := mbw * 8
	r := &Raster{
		W: w, H: h, MBW: mbw, MBH: mbh,
		Y: Plane{Pix: make([]byte, yStride*mbh*16), Stride: yStride, W: w, H: h},
		U: Plane{Pix: make([]byte, uvStride*mbh*8), Stride: uvStride, W: (w + 1) / 2, H: (h + 1) / 2},
		V: Plane{Pix: make([]byte, uvStride*mbh*8), Stride: uvStride, W: (w + 1) / 2, H: (h + 1) / 2},
		CreatedAt: atomic.AddUint64(&rasterGeneration, 1),
	}
	return &MutableHandle{r: r}
}

// Blank returns a raster of the given size filled with Y=0, U=V=128, the
// value used to seed a decoder's three references at construction.
func Blank(w, h int) *Handle {
	mh := NewMutable(w, h)
	for i := range mh.r.Y.Pix {
		mh.r.Y.Pix[i] = 0
	}
	for i := range mh.r.U.Pix {
		mh.r.U.Pix[i] = 128
	}
	for i := range mh.r.V.Pix {
		mh.r.V.Pix[i] = 128
	}
	return mh.Freeze()
}

// contentHash hashes a raster's pixel content with FNV-1a, which (unlike
// hash/maphash, whose seed is randomized per process by design) has no
// process-specific seed: two handles over identical pixel content hash
// equal both within a run and across separate xc-dump/xc-diff invocations,
// which the catalog's cross-run equality guarantees require.
func contentHash(r *Raster) uint64 {
	h := fnv.New64a()
	h.Write(r.Y.Pix)
	h.Write(r.U.Pix)
	h.Write(r.V.Pix)
	return h.Sum64()
}

// MutableHandle is a build-time alias with exclusive write access to a
// Raster. It converts to a shared immutable Handle via Freeze.
type MutableHandle struct {
	r *Raster
}

// Raster exposes the underlying raster for direct writes (decoder
// reconstruction, prediction, loop filter).
func (m *MutableHandle) Raster() *Raster { return m.r }

// Freeze computes the content hash and returns an immutable, refcounted
// Handle. The MutableHandle must not be used after Freeze.
func (m *MutableHandle) Freeze() *Handle {
	hv := contentHash(m.r)
	h := &Handle{r: m.r, hash: hv}
	h.refs.Store(1)
	return h
}

// Handle is an immutable, reference-counted shared owner of a Raster. Its
// content hash is computed once at Freeze and never changes; two handles
// over equal pixel content compare equal by Hash.
type Handle struct {
	r    *Raster
	hash uint64
	refs atomic.Int64
}

// Raster returns the underlying immutable raster. Callers must not mutate
// its planes.
func (h *Handle) Raster() *Raster { return h.r }

// Hash returns the handle's stable 64-bit content hash.
func (h *Handle) Hash() uint64 { return h.hash }

// Clone increments the refcount and returns h, giving the caller a second
// independent owner.
func (h *Handle) Clone() *Handle {
	h.refs.Add(1)
	return h
}

// Release decrements the refcount; when it reaches zero the underlying
// raster memory becomes eligible for collection. Alfalfa relies on the Go
// garbage collector for the actual free, so Release exists only to let
// callers assert balanced ownership in tests and pools.
func (h *Handle) Release() int64 {
	return h.refs.Add(-1)
}

// Equal reports whether two handles refer to content-identical rasters.
func (h *Handle) Equal(o *Handle) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.hash == o.hash
}
