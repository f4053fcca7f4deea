package dsp

// Structural-similarity scoring between a source plane and its decoded
// approximation, used to populate the catalog's quality table. The metric
// runs in integer arithmetic over a 7x7 hat-weighted window per pixel,
// with clipped windows at the plane borders.

// ssimKernel is the window half-width; the full window spans
// 2*ssimKernel+1 samples in each dimension.
const ssimKernel = 3

// ssimWeight is the hat-shaped kernel (sum 16); the per-sample weight is
// the product of the horizontal and vertical entries, so a full window's
// total weight is 16*16.
var ssimWeight = [2*ssimKernel + 1]uint32{1, 2, 3, 4, 3, 2, 1}

const fullWindowWeight = 16 * 16

// DistoStats accumulates the moment sums SSIM needs over one window.
type DistoStats struct {
	W             uint32 // total weight
	Xm, Ym        uint32 // weighted sums of x and y
	Xxm, Xym, Yym uint32 // weighted sums of x*x, x*y, y*y
}

// Accumulate adds one sample pair with weight w.
func (s *DistoStats) Accumulate(x, y uint8, w uint32) {
	s.W += w
	s.Xm += w * uint32(x)
	s.Ym += w * uint32(y)
	s.Xxm += w * uint32(x) * uint32(x)
	s.Xym += w * uint32(x) * uint32(y)
	s.Yym += w * uint32(y) * uint32(y)
}

// ssimCalculation evaluates the SSIM formula from accumulated moments, at
// total weight N, entirely in integer arithmetic until the final divide.
func ssimCalculation(s *DistoStats, N uint32) float64 {
	w2 := uint64(N) * uint64(N)
	c1 := 20 * w2
	c2 := 60 * w2
	c3 := 8 * 8 * w2 // below this both signals count as dark

	xmxm := uint64(s.Xm) * uint64(s.Xm)
	ymym := uint64(s.Ym) * uint64(s.Ym)

	if xmxm+ymym < c3 {
		return 1.0
	}

	xmym := int64(s.Xm) * int64(s.Ym)
	sxy := int64(s.Xym)*int64(N) - xmym // covariance, may be negative
	sxx := uint64(s.Xxm)*uint64(N) - xmxm
	syy := uint64(s.Yym)*uint64(N) - ymym

	var sxyPos uint64
	if sxy > 0 {
		sxyPos = uint64(sxy)
	}

	// Descale before the cross-multiply so the products stay in 64 bits.
	numS := (2*sxyPos + c2) >> 8
	denS := (sxx + syy + c2) >> 8
	fnum := (2*uint64(xmym) + c1) * numS
	fden := (xmxm + ymym + c1) * denS

	if fden == 0 {
		return 1.0
	}
	return float64(fnum) / float64(fden)
}

// SSIMFromStats scores a full (unclipped) window.
func SSIMFromStats(s *DistoStats) float64 {
	if s.W == 0 {
		return 0
	}
	return ssimCalculation(s, fullWindowWeight)
}

// SSIMFromStatsClipped scores a border window using its actual total
// weight.
func SSIMFromStatsClipped(s *DistoStats) float64 {
	if s.W == 0 {
		return 0
	}
	return ssimCalculation(s, s.W)
}

// SSIMGet scores the full window whose top-left sample is src1[0]/src2[0];
// both planes must have 2*ssimKernel+1 accessible rows and columns.
func SSIMGet(src1 []byte, stride1 int, src2 []byte, stride2 int) float64 {
	var s DistoStats
	for y := 0; y <= 2*ssimKernel; y++ {
		for x := 0; x <= 2*ssimKernel; x++ {
			s.Accumulate(src1[x+y*stride1], src2[x+y*stride2], ssimWeight[x]*ssimWeight[y])
		}
	}
	return SSIMFromStats(&s)
}

// SSIMGetClipped scores the window centered on (xo, yo) of a W x H plane,
// clipping the window at the borders.
func SSIMGetClipped(src1 []byte, stride1 int, src2 []byte, stride2 int, xo, yo, W, H int) float64 {
	var s DistoStats
	ymin, ymax := clampWindow(yo, H)
	xmin, xmax := clampWindow(xo, W)
	for y := ymin; y <= ymax; y++ {
		for x := xmin; x <= xmax; x++ {
			w := ssimWeight[ssimKernel+x-xo] * ssimWeight[ssimKernel+y-yo]
			s.Accumulate(src1[x+y*stride1], src2[x+y*stride2], w)
		}
	}
	return SSIMFromStatsClipped(&s)
}

func clampWindow(center, limit int) (lo, hi int) {
	lo = center - ssimKernel
	if lo < 0 {
		lo = 0
	}
	hi = center + ssimKernel
	if hi > limit-1 {
		hi = limit - 1
	}
	return lo, hi
}

// PlaneSSIM averages the per-pixel SSIM over a whole W x H plane, taking
// the fast unclipped path for interior windows and the clipped path along
// the borders.
func PlaneSSIM(src1 []byte, stride1 int, src2 []byte, stride2 int, W, H int) float64 {
	if W == 0 || H == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			if x >= ssimKernel && x < W-ssimKernel && y >= ssimKernel && y < H-ssimKernel {
				o1 := (x - ssimKernel) + (y-ssimKernel)*stride1
				o2 := (x - ssimKernel) + (y-ssimKernel)*stride2
				sum += SSIMGet(src1[o1:], stride1, src2[o2:], stride2)
			} else {
				sum += SSIMGetClipped(src1, stride1, src2, stride2, x, y, W, H)
			}
		}
	}
	return sum / float64(W*H)
}
