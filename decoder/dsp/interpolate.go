package dsp

// Sixtap holds the eight sub-pel phase filters used for VP8 inter
// prediction. Phase 0 is the identity (no filtering, straight copy);
// phases 1-7 are the six-tap interpolation kernels, matching the standard
// VP8 sub-pixel filter table.
var Sixtap = [8][6]int32{
	{0, 0, 128, 0, 0, 0},
	{0, -6, 123, 12, -1, 0},
	{2, -11, 108, 36, -8, 1},
	{0, -9, 93, 50, -6, 0},
	{3, -16, 77, 77, -16, 3},
	{0, -6, 50, 93, -9, 0},
	{1, -8, 36, 108, -11, 2},
	{0, -1, 12, 123, -6, 0},
}

// clip8 clamps v to [0, 255].
func clip8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// InterpolateBlock performs 6-tap, 8-phase sub-pel motion compensation of a
// w x h block. src/srcOff address the reference plane at the block's
// integer-pel origin; the filter reaches 2 samples before and 3 after that
// origin in each filtered dimension, so the reference must have margin on
// both sides. dst/dstOff/dstStride address the destination block.
// xFrac/yFrac are in [0,7], eighths of a pixel.
//
// The horizontal pass runs into a scratch buffer with five extra rows of
// margin (two above, three below, for the vertical pass's own taps), then
// the vertical pass reads
// from scratch into dst. A zero-zero phase degenerates to a straight copy.
func InterpolateBlock(dst []byte, dstOff, dstStride int, src []byte, srcOff, srcStride int, w, h, xFrac, yFrac int) {
	if xFrac == 0 && yFrac == 0 {
		for y := 0; y < h; y++ {
			copy(dst[dstOff+y*dstStride:dstOff+y*dstStride+w], src[srcOff+y*srcStride:srcOff+y*srcStride+w])
		}
		return
	}

	if yFrac == 0 {
		hFilter := Sixtap[xFrac]
		for y := 0; y < h; y++ {
			so := srcOff + y*srcStride
			do := dstOff + y*dstStride
			for x := 0; x < w; x++ {
				dst[do+x] = filterTap6(src, so+x-2, 1, hFilter)
			}
		}
		return
	}

	if xFrac == 0 {
		vFilter := Sixtap[yFrac]
		for y := 0; y < h; y++ {
			so := srcOff + y*srcStride
			do := dstOff + y*dstStride
			for x := 0; x < w; x++ {
				dst[do+x] = filterTap6(src, so+x-2*srcStride, srcStride, vFilter)
			}
		}
		return
	}

	// Two-pass: horizontal into scratch (h+5 rows, to cover the vertical
	// filter's own -2..+3 taps), then vertical into dst. Each pass rounds
	// and clamps independently: (acc+64)>>7, clipped to [0,255].
	hFilter := Sixtap[xFrac]
	vFilter := Sixtap[yFrac]
	scratch := make([]byte, (h+5)*w)
	for y := -2; y < h+3; y++ {
		so := srcOff + y*srcStride
		row := (y + 2) * w
		for x := 0; x < w; x++ {
			scratch[row+x] = filterTap6(src, so+x-2, 1, hFilter)
		}
	}
	for y := 0; y < h; y++ {
		do := dstOff + y*dstStride
		for x := 0; x < w; x++ {
			var acc int32
			for k := 0; k < 6; k++ {
				acc += vFilter[k] * int32(scratch[(y+k)*w+x])
			}
			dst[do+x] = clip8((acc + 64) >> 7)
		}
	}
}

// filterTap6 applies a 6-tap filter at a single sample position and rounds
// directly to a clipped byte: (acc+64)>>7.
func filterTap6(src []byte, off, step int, f [6]int32) byte {
	acc := filterTap6Raw(src, off, step, f)
	return clip8((acc + 64) >> 7)
}

// filterTap6Raw applies a 6-tap filter without rounding/clipping and returns
// the raw accumulator that filterTap6 then rounds and clips.
func filterTap6Raw(src []byte, off, step int, f [6]int32) int32 {
	var acc int32
	for k := 0; k < 6; k++ {
		acc += f[k] * int32(src[off+k*step])
	}
	return acc
}
