package dsp

// Inverse transforms for the VP8 decoder: the 4x4 integer IDCT with its
// DC-only and three-coefficient shortcuts, and the inverse Walsh-Hadamard
// transform that redistributes a Y2 block's outputs into the luma DCs.

// 16-bit fixed-point butterfly constants: c1/2^16 approximates
// sqrt(2)*cos(pi/8)-1, c2/2^16 approximates sqrt(2)*sin(pi/8).
const (
	c1 = 20091
	c2 = 35468
)

func mul1(a int) int { return ((a * c1) >> 16) + a }

func mul2(a int) int { return (a * c2) >> 16 }

// store adds x, rounded down by 3 bits and clamped, into the prediction
// already sitting in dst at off.
func store(dst []byte, off, x int) {
	dst[off] = Clip8b(int(dst[off]) + (x >> 3))
}

// transformOne applies a single 4x4 inverse DCT. in holds 16 dequantized
// coefficients in raster order; dst is the BPS-strided block the residual
// is added into.
func transformOne(in []int16, dst []byte) {
	_ = in[15]
	_ = dst[3+3*BPS]

	var tmp [16]int

	// Vertical pass: columns of in into rows of tmp.
	for i := 0; i < 4; i++ {
		a := int(in[i]) + int(in[8+i])
		b := int(in[i]) - int(in[8+i])
		c := mul2(int(in[4+i])) - mul1(int(in[12+i]))
		d := mul1(int(in[4+i])) + mul2(int(in[12+i]))
		tmp[i] = a + d
		tmp[4+i] = b + c
		tmp[8+i] = b - c
		tmp[12+i] = a - d
	}

	// Horizontal pass, with the +4 rounding bias folded into the DC term.
	for i := 0; i < 4; i++ {
		row := i * 4
		dc := tmp[row] + 4
		a := dc + tmp[row+2]
		b := dc - tmp[row+2]
		c := mul2(tmp[row+1]) - mul1(tmp[row+3])
		d := mul1(tmp[row+1]) + mul2(tmp[row+3])
		off := i * BPS
		store(dst, off+0, a+d)
		store(dst, off+1, b+c)
		store(dst, off+2, b-c)
		store(dst, off+3, a-d)
	}
}

// transformTwo applies one or two 4x4 IDCTs on horizontally adjacent
// blocks.
func transformTwo(in []int16, dst []byte, doTwo bool) {
	transformOne(in, dst)
	if doTwo {
		transformOne(in[16:], dst[4:])
	}
}

// transformDC adds a DC-only inverse transform (all AC coefficients zero)
// into the block.
func transformDC(in []int16, dst []byte) {
	dc := int(in[0]) + 4
	for j := 0; j < 4; j++ {
		off := j * BPS
		store(dst, off+0, dc)
		store(dst, off+1, dc)
		store(dst, off+2, dc)
		store(dst, off+3, dc)
	}
}

// transformAC3 applies the inverse transform when only coefficients 0, 1,
// and 4 (in raster order) are non-zero, skipping the full butterfly.
func transformAC3(in []int16, dst []byte) {
	a := int(in[0]) + 4
	c4 := mul2(int(in[4]))
	d4 := mul1(int(in[4]))
	c1v := mul2(int(in[1]))
	d1v := mul1(int(in[1]))

	vert := [4]int{a + d4, a + c4, a - c4, a - d4}
	for j := 0; j < 4; j++ {
		off := j * BPS
		store(dst, off+0, vert[j]+d1v)
		store(dst, off+1, vert[j]+c1v)
		store(dst, off+2, vert[j]-c1v)
		store(dst, off+3, vert[j]-d1v)
	}
}

// transformUV applies the full inverse transform to a chroma plane's four
// 4x4 blocks (two pairs, the second pair 4 rows down).
func transformUV(in []int16, dst []byte) {
	transformTwo(in[0:], dst[0:], true)
	transformTwo(in[32:], dst[4*BPS:], true)
}

// transformWHT applies the inverse Walsh-Hadamard transform to a decoded
// Y2 block. in holds its 16 coefficients; each of the 16 outputs becomes
// the DC (position 0) of one luma block in out, whose layout is sixteen
// consecutive 16-coefficient blocks.
func transformWHT(in []int16, out []int16) {
	var tmp [16]int

	for i := 0; i < 4; i++ {
		a0 := int(in[i]) + int(in[12+i])
		a1 := int(in[4+i]) + int(in[8+i])
		a2 := int(in[4+i]) - int(in[8+i])
		a3 := int(in[i]) - int(in[12+i])
		tmp[i] = a0 + a1
		tmp[8+i] = a0 - a1
		tmp[4+i] = a3 + a2
		tmp[12+i] = a3 - a2
	}

	for i := 0; i < 4; i++ {
		row := i * 4
		dc := tmp[row] + 3
		a0 := dc + tmp[row+3]
		a1 := tmp[row+1] + tmp[row+2]
		a2 := tmp[row+1] - tmp[row+2]
		a3 := dc - tmp[row+3]
		base := row * 16
		out[base+0*16] = int16((a0 + a1) >> 3)
		out[base+1*16] = int16((a3 + a2) >> 3)
		out[base+2*16] = int16((a0 - a1) >> 3)
		out[base+3*16] = int16((a3 - a2) >> 3)
	}
}
