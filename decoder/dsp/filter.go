package dsp

// The VP8 normal loop filter: 2-, 4-, and 6-tap edge filters selected per
// sample by edge-variance masks, applied along macroblock and sub-block
// boundaries.
//
// Every exported filter takes a full buffer plus a base offset so that
// "negative-context" access (p[off-2*stride] and friends) always resolves
// to a valid non-negative index.

// needsFilter reports whether the two samples on either side of the edge
// differ enough to be worth filtering but not enough to be a real edge:
// 4*|p0-q0| + |p1-q1| <= thresh.
func needsFilter(p1, p0, q0, q1 int, thresh int) bool {
	return 4*int(Kabs0(p0-q0))+int(Kabs0(p1-q1)) <= thresh
}

// needsFilter2 extends needsFilter for the complex (6-tap) filter.
func needsFilter2(p3, p2, p1, p0, q0, q1, q2, q3 int, thresh, ithresh int) bool {
	if !needsFilter(p1, p0, q0, q1, thresh) {
		return false
	}
	return int(Kabs0(p3-p2)) <= ithresh &&
		int(Kabs0(p2-p1)) <= ithresh &&
		int(Kabs0(p1-p0)) <= ithresh &&
		int(Kabs0(q3-q2)) <= ithresh &&
		int(Kabs0(q2-q1)) <= ithresh &&
		int(Kabs0(q1-q0)) <= ithresh
}

// hev returns true if there is a high edge variance between p1-p0 and q1-q0.
func hev(p1, p0, q0, q1 int, hevThresh int) bool {
	return int(Kabs0(p1-p0)) > hevThresh || int(Kabs0(q1-q0)) > hevThresh
}

// doFilter2 applies the 2-tap filter to a single edge sample, adjusting
// only p0 and q0 by a = 3*(q0-p0) + sclip1(p1-q1).
func doFilter2(p []byte, off, step int) {
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])

	a := 3*(q0-p0) + int(Ksclip1(int(p1)-int(q1)))
	a1 := int(Ksclip2((a + 4) >> 3))
	a2 := int(Ksclip2((a + 3) >> 3))
	p[off-step] = Kclip1(int(p0) + a2)
	p[off] = Kclip1(int(q0) - a1)
}

// doFilter4 applies the 4-tap filter to a single edge sample, adjusting
// p1, p0, q0, and q1 from a = 3*(q0-p0) with no p1-q1 term.
func doFilter4(p []byte, off, step int) {
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])

	a := 3 * (q0 - p0)
	a1 := int(Ksclip2((a + 4) >> 3))
	a2 := int(Ksclip2((a + 3) >> 3))
	a3 := (a1 + 1) >> 1
	p[off-2*step] = Kclip1(p1 + a3)
	p[off-step] = Kclip1(p0 + a2)
	p[off] = Kclip1(q0 - a1)
	p[off+step] = Kclip1(q1 - a3)
}

// doFilter6 applies the 6-tap complex filter to a single edge sample.
func doFilter6(p []byte, off, step int) {
	p2 := int(p[off-3*step])
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])
	q2 := int(p[off+2*step])

	a := int(Ksclip1(3*(q0-p0) + int(Ksclip1(p1-q1))))
	a1 := (27*a + 63) >> 7
	a2 := (18*a + 63) >> 7
	a3 := (9*a + 63) >> 7
	p[off-3*step] = Kclip1(p2 + a3)
	p[off-2*step] = Kclip1(p1 + a2)
	p[off-step] = Kclip1(p0 + a1)
	p[off] = Kclip1(q0 - a1)
	p[off+step] = Kclip1(q1 - a2)
	p[off+2*step] = Kclip1(q2 - a3)
}

// filterLoop26 walks a macroblock edge: high-edge-variance samples take
// the 2-tap filter, the rest the 6-tap.
func filterLoop26(p []byte, base, hstride, vstride, size, thresh, ithresh, hevT int) {
	thresh2 := 2*thresh + 1
	off := base
	for i := 0; i < size; i++ {
		p3 := int(p[off-4*hstride])
		p2 := int(p[off-3*hstride])
		p1 := int(p[off-2*hstride])
		p0 := int(p[off-hstride])
		q0 := int(p[off])
		q1 := int(p[off+hstride])
		q2 := int(p[off+2*hstride])
		q3 := int(p[off+3*hstride])
		if needsFilter2(p3, p2, p1, p0, q0, q1, q2, q3, thresh2, ithresh) {
			if hev(p1, p0, q0, q1, hevT) {
				doFilter2(p, off, hstride)
			} else {
				doFilter6(p, off, hstride)
			}
		}
		off += vstride
	}
}

// filterLoop24 walks an interior sub-block edge: high-edge-variance
// samples take the 2-tap filter, the rest the 4-tap.
func filterLoop24(p []byte, base, hstride, vstride, size, thresh, ithresh, hevT int) {
	thresh2 := 2*thresh + 1
	off := base
	for i := 0; i < size; i++ {
		p3 := int(p[off-4*hstride])
		p2 := int(p[off-3*hstride])
		p1 := int(p[off-2*hstride])
		p0 := int(p[off-hstride])
		q0 := int(p[off])
		q1 := int(p[off+hstride])
		q2 := int(p[off+2*hstride])
		q3 := int(p[off+3*hstride])
		if needsFilter2(p3, p2, p1, p0, q0, q1, q2, q3, thresh2, ithresh) {
			if hev(p1, p0, q0, q1, hevT) {
				doFilter2(p, off, hstride)
			} else {
				doFilter4(p, off, hstride)
			}
		}
		off += vstride
	}
}

// VFilter16 filters a macroblock's 16-wide top edge.
// p is the full buffer, base is the offset of the edge row.
func VFilter16(p []byte, base, stride, thresh, ithresh, hevT int) {
	filterLoop26(p, base, stride, 1, 16, thresh, ithresh, hevT)
}

// HFilter16 filters a macroblock's 16-high left edge.
// p is the full buffer, base is the offset of the edge column.
func HFilter16(p []byte, base, stride, thresh, ithresh, hevT int) {
	filterLoop26(p, base, 1, stride, 16, thresh, ithresh, hevT)
}

// VFilter8 filters both chroma planes' 8-wide top edges.
func VFilter8(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop26(u, uBase, stride, 1, 8, thresh, ithresh, hevT)
	filterLoop26(v, vBase, stride, 1, 8, thresh, ithresh, hevT)
}

// HFilter8 filters both chroma planes' 8-high left edges.
func HFilter8(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop26(u, uBase, 1, stride, 8, thresh, ithresh, hevT)
	filterLoop26(v, vBase, 1, stride, 8, thresh, ithresh, hevT)
}

// VFilter16i filters the three interior horizontal sub-block edges of a
// luma macroblock.
func VFilter16i(p []byte, base, stride, thresh, ithresh, hevT int) {
	for k := 1; k <= 3; k++ {
		filterLoop24(p, base+k*4*stride, stride, 1, 16, thresh, ithresh, hevT)
	}
}

// HFilter16i filters the three interior vertical sub-block edges of a
// luma macroblock.
func HFilter16i(p []byte, base, stride, thresh, ithresh, hevT int) {
	for k := 1; k <= 3; k++ {
		filterLoop24(p, base+k*4, 1, stride, 16, thresh, ithresh, hevT)
	}
}

// VFilter8i filters the single interior horizontal edge of both 8x8
// chroma blocks.
func VFilter8i(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop24(u, uBase+4*stride, stride, 1, 8, thresh, ithresh, hevT)
	filterLoop24(v, vBase+4*stride, stride, 1, 8, thresh, ithresh, hevT)
}

// HFilter8i filters the single interior vertical edge of both 8x8 chroma
// blocks.
func HFilter8i(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop24(u, uBase+4, 1, stride, 8, thresh, ithresh, hevT)
	filterLoop24(v, vBase+4, 1, stride, 8, thresh, ithresh, hevT)
}
