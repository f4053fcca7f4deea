package raster

import (
	"image"

	"golang.org/x/image/draw"
)

// ToImage converts r's display-cropped planes into a standard
// image.YCbCr, for tooling that wants to feed a raster through the image package's ratio-aware helpers rather than
// reading Raster's strides directly.
func ToImage(r *Raster) *image.YCbCr {
	img := image.NewYCbCr(image.Rect(0, 0, r.W, r.H), image.YCbCrSubsampleRatio420)
	for y := 0; y < r.H; y++ {
		copy(img.Y[y*img.YStride:y*img.YStride+r.W], r.Y.Row(y))
	}
	cw, ch := (r.W+1)/2, (r.H+1)/2
	for y := 0; y < ch; y++ {
		copy(img.Cb[y*img.CStride:y*img.CStride+cw], r.U.Row(y))
		copy(img.Cr[y*img.CStride:y*img.CStride+cw], r.V.Row(y))
	}
	return img
}

// FromImage builds a Raster (via a MutableHandle, ready for Freeze) from a
// YCbCr image, padding to the macroblock grid as NewMutable does.
func FromImage(img *image.YCbCr) *MutableHandle {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mh := NewMutable(w, h)
	r := mh.Raster()
	for y := 0; y < h; y++ {
		copy(r.Y.Row(y), img.Y[(y)*img.YStride:(y)*img.YStride+w])
	}
	cw, ch := (w+1)/2, (h+1)/2
	for y := 0; y < ch; y++ {
		copy(r.U.Row(y), img.Cb[y*img.CStride:y*img.CStride+cw])
		copy(r.V.Row(y), img.Cr[y*img.CStride:y*img.CStride+cw])
	}
	return mh
}

// Thumbnail scales r's display-cropped planes to w x h using x/image's
// draw package, for preview dumps where a full-resolution pixel dump would
// be unwieldy. The result is RGBA since the scaler needs a settable
// destination.
func Thumbnail(r *Raster, w, h int) *image.RGBA {
	src := ToImage(r)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
