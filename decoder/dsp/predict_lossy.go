package dsp

// VP8 intra predictors.
//
// Every predictor receives the full reconstruction buffer and an offset
// such that buf[off] is the block's top-left pixel. Reference samples live
// before off: buf[off-BPS+i] is the above row, buf[off-1+j*BPS] the left
// column, buf[off-BPS-1] the corner. The explicit offset keeps every slice
// index non-negative, which Go's bounds checking requires.

// avg3 returns (a + 2*b + c + 2) >> 2.
func avg3(a, b, c uint8) uint8 {
	return uint8((int(a) + 2*int(b) + int(c) + 2) >> 2)
}

// avg2 returns (a + b + 1) >> 1.
func avg2(a, b uint8) uint8 {
	return uint8((int(a) + int(b) + 1) >> 1)
}

// fillBlock writes v to every pixel of a size x size block.
func fillBlock(dst []byte, off, size int, v uint8) {
	for j := 0; j < size; j++ {
		row := off + j*BPS
		for i := 0; i < size; i++ {
			dst[row+i] = v
		}
	}
}

// topSum sums n above-row samples; leftSum sums n left-column samples.
func topSum(dst []byte, off, n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += int(dst[off+i-BPS])
	}
	return s
}

func leftSum(dst []byte, off, n int) int {
	s := 0
	for j := 0; j < n; j++ {
		s += int(dst[off-1+j*BPS])
	}
	return s
}

// dcBlock is the shared whole-block DC predictor: average whichever of the
// above row and left column are available (shift picks the rounding for
// the sample count), or flat 128 when neither is.
func dcBlock(dst []byte, off, size int, haveTop, haveLeft bool) {
	var v uint8
	switch {
	case haveTop && haveLeft:
		sum := topSum(dst, off, size) + leftSum(dst, off, size)
		v = uint8((sum + size) >> shiftFor(2*size))
	case haveLeft:
		v = uint8((leftSum(dst, off, size) + size/2) >> shiftFor(size))
	case haveTop:
		v = uint8((topSum(dst, off, size) + size/2) >> shiftFor(size))
	default:
		v = 128
	}
	fillBlock(dst, off, size, v)
}

// shiftFor returns log2(n) for the power-of-two sample counts used here.
func shiftFor(n int) int {
	s := 0
	for n > 1 {
		n >>= 1
		s++
	}
	return s
}

// truemotion predicts each pixel as left + above - corner, clamped.
func truemotion(dst []byte, off, size int) {
	tl := int(dst[off-1-BPS])
	for j := 0; j < size; j++ {
		base := int(dst[off-1+j*BPS]) - tl
		row := off + j*BPS
		for i := 0; i < size; i++ {
			dst[row+i] = Clip8b(base + int(dst[off+i-BPS]))
		}
	}
}

// vertical copies the above row down; horizontal spreads the left column
// across.
func vertical(dst []byte, off, size int) {
	for j := 0; j < size; j++ {
		copy(dst[off+j*BPS:off+j*BPS+size], dst[off-BPS:off-BPS+size])
	}
}

func horizontal(dst []byte, off, size int) {
	for j := 0; j < size; j++ {
		row := off + j*BPS
		v := dst[row-1]
		for i := 0; i < size; i++ {
			dst[row+i] = v
		}
	}
}

// 16x16 luma and 8x8 chroma whole-block modes, in the dispatch-table order
// DC, TM, VE, HE followed by the three boundary DC variants.

func dc16(dst []byte, off int) { dcBlock(dst, off, 16, true, true) }

func tm16(dst []byte, off int) { truemotion(dst, off, 16) }

func ve16(dst []byte, off int) { vertical(dst, off, 16) }

func he16(dst []byte, off int) { horizontal(dst, off, 16) }

func dc16NoTop(dst []byte, off int) { dcBlock(dst, off, 16, false, true) }

func dc16NoLeft(dst []byte, off int) { dcBlock(dst, off, 16, true, false) }

func dc16NoTopLeft(dst []byte, off int) { dcBlock(dst, off, 16, false, false) }

func dc8uv(dst []byte, off int) { dcBlock(dst, off, 8, true, true) }

func tm8uv(dst []byte, off int) { truemotion(dst, off, 8) }

func ve8uv(dst []byte, off int) { vertical(dst, off, 8) }

func he8uv(dst []byte, off int) { horizontal(dst, off, 8) }

func dc8uvNoTop(dst []byte, off int) { dcBlock(dst, off, 8, false, true) }

func dc8uvNoLeft(dst []byte, off int) { dcBlock(dst, off, 8, true, false) }

func dc8uvNoTopLeft(dst []byte, off int) { dcBlock(dst, off, 8, false, false) }

// 4x4 luma submodes. Unlike the whole-block modes these smooth their
// border samples with the 3-tap averager, so each one is written out
// explicitly against named border samples: tl (corner), t0..t7 (above and
// above-right), l0..l3 (left).

func dc4(dst []byte, off int) {
	sum := topSum(dst, off, 4) + leftSum(dst, off, 4)
	fillBlock(dst, off, 4, uint8((sum+4)>>3))
}

func tm4(dst []byte, off int) { truemotion(dst, off, 4) }

func ve4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	t3 := dst[off+3-BPS]
	t4 := dst[off+4-BPS]
	vals := [4]uint8{
		avg3(tl, t0, t1),
		avg3(t0, t1, t2),
		avg3(t1, t2, t3),
		avg3(t2, t3, t4),
	}
	for j := 0; j < 4; j++ {
		copy(dst[off+j*BPS:off+j*BPS+4], vals[:])
	}
}

func he4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]
	vals := [4]uint8{
		avg3(tl, l0, l1),
		avg3(l0, l1, l2),
		avg3(l1, l2, l3),
		avg3(l2, l3, l3),
	}
	for j := 0; j < 4; j++ {
		v := vals[j]
		row := off + j*BPS
		dst[row+0] = v
		dst[row+1] = v
		dst[row+2] = v
		dst[row+3] = v
	}
}

func ld4(dst []byte, off int) {
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	t3 := dst[off+3-BPS]
	t4 := dst[off+4-BPS]
	t5 := dst[off+5-BPS]
	t6 := dst[off+6-BPS]
	t7 := dst[off+7-BPS]

	// Anti-diagonals share one smoothed value; diag d covers all (i, j)
	// with i+j == d.
	diag := [7]uint8{
		avg3(t0, t1, t2),
		avg3(t1, t2, t3),
		avg3(t2, t3, t4),
		avg3(t3, t4, t5),
		avg3(t4, t5, t6),
		avg3(t5, t6, t7),
		avg3(t6, t7, t7),
	}
	for j := 0; j < 4; j++ {
		row := off + j*BPS
		dst[row+0] = diag[j+0]
		dst[row+1] = diag[j+1]
		dst[row+2] = diag[j+2]
		dst[row+3] = diag[j+3]
	}
}

func rd4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	t3 := dst[off+3-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]

	// Diagonals run down-right; diag d covers all (i, j) with i-j == d-3,
	// walking the border from the deepest left sample around to the
	// rightmost top sample.
	diag := [7]uint8{
		avg3(l3, l2, l1),
		avg3(l2, l1, l0),
		avg3(l1, l0, tl),
		avg3(l0, tl, t0),
		avg3(tl, t0, t1),
		avg3(t0, t1, t2),
		avg3(t1, t2, t3),
	}
	for j := 0; j < 4; j++ {
		row := off + j*BPS
		dst[row+0] = diag[3-j+0]
		dst[row+1] = diag[3-j+1]
		dst[row+2] = diag[3-j+2]
		dst[row+3] = diag[3-j+3]
	}
}

func vr4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	t3 := dst[off+3-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]

	dst[off+0+0*BPS] = avg2(tl, t0)
	dst[off+1+0*BPS] = avg2(t0, t1)
	dst[off+2+0*BPS] = avg2(t1, t2)
	dst[off+3+0*BPS] = avg2(t2, t3)

	dst[off+0+1*BPS] = avg3(l0, tl, t0)
	dst[off+1+1*BPS] = avg3(tl, t0, t1)
	dst[off+2+1*BPS] = avg3(t0, t1, t2)
	dst[off+3+1*BPS] = avg3(t1, t2, t3)

	// Rows 2 and 3 repeat the rows above them shifted right by one, with
	// fresh left-derived samples in column 0.
	dst[off+0+2*BPS] = avg3(l1, l0, tl)
	dst[off+1+2*BPS] = dst[off+0+0*BPS]
	dst[off+2+2*BPS] = dst[off+1+0*BPS]
	dst[off+3+2*BPS] = dst[off+2+0*BPS]

	dst[off+0+3*BPS] = avg3(l2, l1, l0)
	dst[off+1+3*BPS] = dst[off+0+1*BPS]
	dst[off+2+3*BPS] = dst[off+1+1*BPS]
	dst[off+3+3*BPS] = dst[off+2+1*BPS]
}

func vl4(dst []byte, off int) {
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	t3 := dst[off+3-BPS]
	t4 := dst[off+4-BPS]
	t5 := dst[off+5-BPS]
	t6 := dst[off+6-BPS]
	t7 := dst[off+7-BPS]

	dst[off+0+0*BPS] = avg2(t0, t1)
	dst[off+1+0*BPS] = avg2(t1, t2)
	dst[off+0+2*BPS] = avg2(t1, t2)
	dst[off+2+0*BPS] = avg2(t2, t3)
	dst[off+1+2*BPS] = avg2(t2, t3)
	dst[off+3+0*BPS] = avg2(t3, t4)
	dst[off+2+2*BPS] = avg2(t3, t4)

	dst[off+0+1*BPS] = avg3(t0, t1, t2)
	dst[off+1+1*BPS] = avg3(t1, t2, t3)
	dst[off+0+3*BPS] = avg3(t1, t2, t3)
	dst[off+2+1*BPS] = avg3(t2, t3, t4)
	dst[off+1+3*BPS] = avg3(t2, t3, t4)
	dst[off+3+1*BPS] = avg3(t3, t4, t5)
	dst[off+2+3*BPS] = avg3(t3, t4, t5)
	dst[off+3+2*BPS] = avg3(t4, t5, t6)
	dst[off+3+3*BPS] = avg3(t5, t6, t7)
}

func hd4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]

	dst[off+0+0*BPS] = avg2(tl, l0)
	dst[off+1+0*BPS] = avg3(l0, tl, t0)
	dst[off+2+0*BPS] = avg3(tl, t0, t1)
	dst[off+3+0*BPS] = avg3(t0, t1, t2)

	// Each lower row starts with a fresh left-column pair, then repeats
	// the row above shifted right by two.
	dst[off+0+1*BPS] = avg2(l0, l1)
	dst[off+1+1*BPS] = avg3(tl, l0, l1)
	dst[off+2+1*BPS] = dst[off+0+0*BPS]
	dst[off+3+1*BPS] = dst[off+1+0*BPS]

	dst[off+0+2*BPS] = avg2(l1, l2)
	dst[off+1+2*BPS] = avg3(l0, l1, l2)
	dst[off+2+2*BPS] = dst[off+0+1*BPS]
	dst[off+3+2*BPS] = dst[off+1+1*BPS]

	dst[off+0+3*BPS] = avg2(l2, l3)
	dst[off+1+3*BPS] = avg3(l1, l2, l3)
	dst[off+2+3*BPS] = dst[off+0+2*BPS]
	dst[off+3+3*BPS] = dst[off+1+2*BPS]
}

func hu4(dst []byte, off int) {
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]

	dst[off+0+0*BPS] = avg2(l0, l1)
	dst[off+1+0*BPS] = avg3(l0, l1, l2)
	dst[off+2+0*BPS] = avg2(l1, l2)
	dst[off+3+0*BPS] = avg3(l1, l2, l3)

	dst[off+0+1*BPS] = dst[off+2+0*BPS]
	dst[off+1+1*BPS] = dst[off+3+0*BPS]
	dst[off+2+1*BPS] = avg2(l2, l3)
	dst[off+3+1*BPS] = avg3(l2, l3, l3)

	// Below the reachable border everything saturates to the deepest
	// left sample.
	dst[off+0+2*BPS] = dst[off+2+1*BPS]
	dst[off+1+2*BPS] = dst[off+3+1*BPS]
	dst[off+2+2*BPS] = l3
	dst[off+3+2*BPS] = l3

	dst[off+0+3*BPS] = l3
	dst[off+1+3*BPS] = l3
	dst[off+2+3*BPS] = l3
	dst[off+3+3*BPS] = l3
}

// initPredictors fills the dispatch tables in mode order.
func initPredictors() {
	PredLuma16 = [7]PredFunc{dc16, tm16, ve16, he16, dc16NoTop, dc16NoLeft, dc16NoTopLeft}
	PredChroma8 = [7]PredFunc{dc8uv, tm8uv, ve8uv, he8uv, dc8uvNoTop, dc8uvNoLeft, dc8uvNoTopLeft}
	PredLuma4 = [10]PredFunc{dc4, tm4, ve4, he4, rd4, vr4, ld4, vl4, hd4, hu4}
}
