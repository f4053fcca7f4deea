package decoder

import (
	"github.com/deepteams/alfalfa/decoder/dsp"
	"github.com/deepteams/alfalfa/raster"
)

// checkMode adjusts a whole-block DC prediction mode for boundary
// macroblocks, which are missing their above and/or left neighbor.
func checkMode(mbX, mbY, mode int) int {
	if mode == BDCPred {
		if mbX == 0 {
			if mbY == 0 {
				return BDCPredNoTopLeft
			}
			return BDCPredNoLeft
		}
		if mbY == 0 {
			return BDCPredNoTop
		}
	}
	return mode
}

// doTransform applies the inverse transform selected by the top two bits of
// a per-block non-zero code: 3 means a full transform, 2 means the 3-AC
// shortcut, 1 an inlined DC-only add, 0 nothing.
func doTransform(bits uint32, src []int16, dst []byte) {
	switch bits >> 30 {
	case 3:
		dsp.Transform(src, dst, false)
	case 2:
		dsp.TransformAC3(src, dst)
	case 1:
		doTransformDCBlock(src, dst)
	default:
	}
}

// doUVTransform applies the chroma inverse transform for one plane's four
// 4x4 blocks, using the inlined DC-only path when no block has AC energy.
func doUVTransform(bits uint32, src []int16, dst []byte) {
	if bits&0xff == 0 {
		return
	}
	if bits&0xaa != 0 {
		dsp.TransformUV(src, dst)
		return
	}
	if src[0] != 0 {
		doTransformDCBlock(src[0:], dst[0:])
	}
	if src[16] != 0 {
		doTransformDCBlock(src[16:], dst[4:])
	}
	if src[32] != 0 {
		doTransformDCBlock(src[32:], dst[4*bps:])
	}
	if src[48] != 0 {
		doTransformDCBlock(src[48:], dst[4*bps+4:])
	}
}

// doTransformDCBlock adds a single DC value to all 16 samples of a 4x4
// block, equivalent to a full IDCT of a coefficient block with only
// coeffs[0] set.
func doTransformDCBlock(src []int16, dst []byte) {
	add := (int(src[0]) + 4) >> 3
	for j := 0; j < 4; j++ {
		off := j * bps
		dst[off+0] = dsp.Clip8b(int(dst[off+0]) + add)
		dst[off+1] = dsp.Clip8b(int(dst[off+1]) + add)
		dst[off+2] = dsp.Clip8b(int(dst[off+2]) + add)
		dst[off+3] = dsp.Clip8b(int(dst[off+3]) + add)
	}
}

// fillBytes fills n bytes of dst with v.
func fillBytes(dst []byte, v byte, n int) {
	for i := 0; i < n; i++ {
		dst[i] = v
	}
}

// reconstructRow predicts (intra or motion-compensated) and reconstructs
// every macroblock in row mbY, writing finished samples into the frame's
// output caches and stashing the row's bottom samples for the row below.
func (dec *Decoder) reconstructRow(mbY int, refs *References, safe *safeRefSet) {
	buf := dec.yuvB
	yBase := yOff
	uBase := uOff
	vBase := vOff

	for j := 0; j < 16; j++ {
		buf[yBase+j*bps-1] = 129
	}
	for j := 0; j < 8; j++ {
		buf[uBase+j*bps-1] = 129
		buf[vBase+j*bps-1] = 129
	}

	if mbY > 0 {
		buf[yBase-1-bps] = 129
		buf[uBase-1-bps] = 129
		buf[vBase-1-bps] = 129
	} else {
		fillBytes(buf[yBase-bps-1:], 127, 16+4+1)
		fillBytes(buf[uBase-bps-1:], 127, 8+1)
		fillBytes(buf[vBase-bps-1:], 127, 8+1)
	}

	for mbX := 0; mbX < dec.mbW; mbX++ {
		block := &dec.mbData[mbX]

		yDst := buf[yBase:]
		uDst := buf[uBase:]
		vDst := buf[vBase:]

		if mbX > 0 {
			for j := -1; j < 16; j++ {
				copy(buf[yBase+j*bps-4:yBase+j*bps], buf[yBase+j*bps+12:yBase+j*bps+16])
			}
			for j := -1; j < 8; j++ {
				copy(buf[uBase+j*bps-4:uBase+j*bps], buf[uBase+j*bps+4:uBase+j*bps+8])
				copy(buf[vBase+j*bps-4:vBase+j*bps], buf[vBase+j*bps+4:vBase+j*bps+8])
			}
		}

		topYUV := &dec.yuvT[mbX]
		coeffs := block.Coeffs[:]
		bits := block.NonZeroY

		if mbY > 0 {
			copy(buf[yBase-bps:], topYUV.Y[:])
			copy(buf[uBase-bps:], topYUV.U[:])
			copy(buf[vBase-bps:], topYUV.V[:])
		}

		switch {
		case block.IsInter():
			dec.touched[block.RefFrame] = true
			dec.predictInterLuma(block, buf, yBase, mbX, mbY, refs, safe)
			if bits != 0 {
				for n := 0; n < 16; n++ {
					doTransform(bits, coeffs[n*16:], buf[yBase+dsp.DspScan[n]:])
					bits <<= 2
				}
			}
		case block.IsI4x4:
			topRight := buf[yBase-bps+16:]
			if mbY > 0 {
				if mbX >= dec.mbW-1 {
					fillBytes(topRight, topYUV.Y[15], 4)
				} else {
					copy(topRight[:4], dec.yuvT[mbX+1].Y[:4])
				}
			}
			for r := 1; r <= 3; r++ {
				off := r * 4 * bps
				copy(topRight[off:off+4], topRight[:4])
			}

			for n := 0; n < 16; n++ {
				blockOff := yBase + dsp.DspScan[n]
				dsp.PredLuma4[block.IModes[n]](buf, blockOff)
				doTransform(bits, coeffs[n*16:], buf[blockOff:])
				bits <<= 2
			}
		default:
			predFunc := checkMode(mbX, mbY, int(block.IModes[0]))
			dsp.PredLuma16[predFunc](buf, yBase)
			if bits != 0 {
				for n := 0; n < 16; n++ {
					doTransform(bits, coeffs[n*16:], buf[yBase+dsp.DspScan[n]:])
					bits <<= 2
				}
			}
		}

		bitsUV := block.NonZeroUV
		if block.IsInter() {
			dec.predictInterChroma(block, buf, uBase, vBase, mbX, mbY, refs)
		} else {
			predFunc := checkMode(mbX, mbY, int(block.UVMode))
			dsp.PredChroma8[predFunc](buf, uBase)
			dsp.PredChroma8[predFunc](buf, vBase)
		}
		doUVTransform(bitsUV>>0, coeffs[16*16:], uDst)
		doUVTransform(bitsUV>>8, coeffs[20*16:], vDst)

		if mbY < dec.mbH-1 {
			copy(topYUV.Y[:], yDst[15*bps:15*bps+16])
			copy(topYUV.U[:], uDst[7*bps:7*bps+8])
			copy(topYUV.V[:], vDst[7*bps:7*bps+8])
		}

		yOffset := mbY * 16 * dec.cacheYStride
		uvOffset := mbY * 8 * dec.cacheUVStride
		yOut := dec.cacheY[mbX*16+yOffset:]
		uOut := dec.cacheU[mbX*8+uvOffset:]
		vOut := dec.cacheV[mbX*8+uvOffset:]
		for j := 0; j < 16; j++ {
			copy(yOut[j*dec.cacheYStride:j*dec.cacheYStride+16], yDst[j*bps:j*bps+16])
		}
		for j := 0; j < 8; j++ {
			copy(uOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], uDst[j*bps:j*bps+8])
			copy(vOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], vDst[j*bps:j*bps+8])
		}
	}
}

// precomputeFilterStrengths resolves each segment's base loop filter level
// once per frame. Per-macroblock reference/mode lf-deltas vary with parsed
// mode data and are applied on top of these in filterStrengthFor.
func (dec *Decoder) precomputeFilterStrengths() {
	if dec.filterMode == FilterNone {
		return
	}
	for s := 0; s < NumMBSegments; s++ {
		level := dec.filterHdr.Level
		if dec.segHdr.UseSegment {
			if dec.segHdr.AbsoluteDelta {
				level = int(dec.segHdr.FilterStrength[s])
			} else {
				level += int(dec.segHdr.FilterStrength[s])
			}
		}
		dec.segLevels[s] = level
	}
}

// lfDeltaRefIndex maps a macroblock's reference selector to its
// ref_lf_deltas slot: intra, last, golden, altref.
func lfDeltaRefIndex(ref uint8) int {
	switch ref {
	case LastFrame:
		return 1
	case GoldenFrame:
		return 2
	case AltRefFrame:
		return 3
	default:
		return 0
	}
}

// lfDeltaModeIndex maps a macroblock's coding mode to its mode_lf_deltas
// slot. Slots are B_PRED, ZEROMV, all other whole-block MV modes, and
// SPLITMV; whole-block intra modes take no mode delta.
func lfDeltaModeIndex(block *MBData) (int, bool) {
	if !block.IsInter() {
		return 0, block.IsI4x4
	}
	switch block.MVMode {
	case ZeroMV:
		return 1, true
	case SplitMV:
		return 3, true
	default:
		return 2, true
	}
}

// filterStrengthFor derives one macroblock's loop filter parameters: the
// segment's base level adjusted by the reference/mode lf-deltas, clamped to
// [0, 63], then converted to the interior level, edge limit, and high-edge-
// variance threshold. FInner starts as "this macroblock has no Y2", the
// subblock-edge rule's mode half; the caller ORs in the residue half.
func (dec *Decoder) filterStrengthFor(block *MBData) FInfo {
	hdr := &dec.filterHdr
	level := dec.segLevels[block.Segment]
	if hdr.UseLFDelta {
		level += hdr.RefLFDelta[lfDeltaRefIndex(block.RefFrame)]
		if idx, ok := lfDeltaModeIndex(block); ok {
			level += hdr.ModeLFDelta[idx]
		}
	}
	if level < 0 {
		level = 0
	} else if level > 63 {
		level = 63
	}

	var info FInfo
	info.FInner = !block.HasY2()
	if level == 0 {
		return info
	}

	ilevel := level
	if hdr.Sharpness > 0 {
		if hdr.Sharpness > 4 {
			ilevel >>= 2
		} else {
			ilevel >>= 1
		}
		if ilevel > 9-hdr.Sharpness {
			ilevel = 9 - hdr.Sharpness
		}
	}
	if ilevel < 1 {
		ilevel = 1
	}
	info.FILevel = uint8(ilevel)
	info.FLimit = uint8(2*level + ilevel)

	if dec.frmHdr.KeyFrame {
		switch {
		case level >= 40:
			info.HevThresh = 2
		case level >= 15:
			info.HevThresh = 1
		}
	} else {
		switch {
		case level >= 40:
			info.HevThresh = 3
		case level >= 20:
			info.HevThresh = 2
		case level >= 15:
			info.HevThresh = 1
		}
	}
	return info
}

// filterRow applies the normal loop filter to every macroblock in row mbY.
// A Simple filter stream never reaches here: parseFilterHeader rejects it
// at parse time, so FilterMode only ever carries FilterNone or
// FilterNormal.
func (dec *Decoder) filterRow(mbY int) {
	for mbX := 0; mbX < dec.mbW; mbX++ {
		dec.doFilter(mbX, mbY)
	}
}

// doFilter applies the four normal-filter edge passes to one macroblock,
// wired directly to decoder/dsp's exported complex-filter primitives.
func (dec *Decoder) doFilter(mbX, mbY int) {
	finfo := &dec.fInfo[mbX]
	limit := int(finfo.FLimit)
	if limit == 0 {
		return
	}
	ilevel := int(finfo.FILevel)
	hevT := int(finfo.HevThresh)

	yBPS := dec.cacheYStride
	uvBPS := dec.cacheUVStride
	yOff := mbY*16*yBPS + mbX*16
	uvOff := mbY*8*uvBPS + mbX*8

	if mbX > 0 {
		dsp.HFilter16(dec.cacheY, yOff, yBPS, limit+4, ilevel, hevT)
		dsp.HFilter8(dec.cacheU, dec.cacheV, uvOff, uvOff, uvBPS, limit+4, ilevel, hevT)
	}
	if finfo.FInner {
		dsp.HFilter16i(dec.cacheY, yOff, yBPS, limit, ilevel, hevT)
		dsp.HFilter8i(dec.cacheU, dec.cacheV, uvOff, uvOff, uvBPS, limit, ilevel, hevT)
	}
	if mbY > 0 {
		dsp.VFilter16(dec.cacheY, yOff, yBPS, limit+4, ilevel, hevT)
		dsp.VFilter8(dec.cacheU, dec.cacheV, uvOff, uvOff, uvBPS, limit+4, ilevel, hevT)
	}
	if finfo.FInner {
		dsp.VFilter16i(dec.cacheY, yOff, yBPS, limit, ilevel, hevT)
		dsp.VFilter8i(dec.cacheU, dec.cacheV, uvOff, uvOff, uvBPS, limit, ilevel, hevT)
	}
}

// safeRefSet holds a margin-extended luma view of each distinct reference
// picture an interframe may predict from, built once per Decode call so
// the 6-tap sub-pel filter can run its branch-free path for motion vectors
// that reach outside the picture.
type safeRefSet struct {
	last, golden, alt *raster.SafeRaster
}

// buildSafeRefs constructs (or reuses, when two slots alias the same
// picture) a SafeRaster for each of refs' three reference slots.
func (dec *Decoder) buildSafeRefs(refs *References) *safeRefSet {
	if refs == nil {
		return nil
	}
	built := make(map[*Reference]*raster.SafeRaster, 3)
	resolve := func(r *Reference) *raster.SafeRaster {
		if r == nil {
			return nil
		}
		if sr, ok := built[r]; ok {
			return sr
		}
		sr := raster.NewSafeRaster(&raster.Raster{
			Y: raster.Plane{Pix: r.Y, Stride: r.YStride, W: r.Width, H: r.Height},
		})
		built[r] = sr
		return sr
	}
	return &safeRefSet{
		last:   resolve(refs.Last),
		golden: resolve(refs.Golden),
		alt:    resolve(refs.Alt),
	}
}

func (s *safeRefSet) pick(ref uint8) *raster.SafeRaster {
	if s == nil {
		return nil
	}
	switch ref {
	case GoldenFrame:
		return s.golden
	case AltRefFrame:
		return s.alt
	default:
		return s.last
	}
}

// predictInterLuma motion-compensates a macroblock's 16x16 luma block,
// writing directly into the reconstruction buffer at yBase. A SplitMV
// macroblock predicts each of its sixteen 4x4 sub-blocks independently.
func (dec *Decoder) predictInterLuma(block *MBData, buf []byte, yBase, mbX, mbY int, refs *References, safe *safeRefSet) {
	sr := safe.pick(block.RefFrame)

	if block.MVMode != SplitMV {
		mv := block.MV
		px := mbX*16 + int(mv.X>>3)
		py := mbY*16 + int(mv.Y>>3)
		so := sr.At(px, py)
		dsp.InterpolateBlock(buf, yBase, bps, sr.Y.Pix, so, sr.Y.Stride, 16, 16, int(mv.X&7), int(mv.Y&7))
		return
	}

	for n := 0; n < 16; n++ {
		mv := block.SubMVs[n]
		row, col := n/4, n%4
		px := mbX*16 + col*4 + int(mv.X>>3)
		py := mbY*16 + row*4 + int(mv.Y>>3)
		so := sr.At(px, py)
		dst := yBase + dsp.DspScan[n]
		dsp.InterpolateBlock(buf, dst, bps, sr.Y.Pix, so, sr.Y.Stride, 4, 4, int(mv.X&7), int(mv.Y&7))
	}
}

// predictInterChroma motion-compensates a macroblock's two 8x8 chroma
// blocks. The chroma motion vector is derived from the covering luma
// vector(s) by halving (RFC 6386 section 18.3: sum of four covering
// sub-block vectors, rounded, divided by eight). Reference chroma samples
// are small enough that an edge-clamped per-block gather replaces the
// luma path's SafeRaster margin.
func (dec *Decoder) predictInterChroma(block *MBData, buf []byte, uBase, vBase, mbX, mbY int, refs *References) {
	ref := refs.pick(block.RefFrame)

	if block.MVMode != SplitMV {
		mv := chromaMVFromLuma(block.MV, block.MV, block.MV, block.MV)
		dec.predictChromaBlock(ref, buf, uBase, 0, mbX*8, mbY*8, 8, 8, mv)
		dec.predictChromaBlock(ref, buf, vBase, 1, mbX*8, mbY*8, 8, 8, mv)
		return
	}

	for cr := 0; cr < 2; cr++ {
		for cc := 0; cc < 2; cc++ {
			lr, lc := 2*cr, 2*cc
			mv := chromaMVFromLuma(
				block.SubMVs[lr*4+lc], block.SubMVs[lr*4+lc+1],
				block.SubMVs[(lr+1)*4+lc], block.SubMVs[(lr+1)*4+lc+1],
			)
			px := mbX*8 + cc*4
			py := mbY*8 + cr*4
			uOff := uBase + cc*4 + cr*4*bps
			vOff := vBase + cc*4 + cr*4*bps
			dec.predictChromaBlock(ref, buf, uOff, 0, px, py, 4, 4, mv)
			dec.predictChromaBlock(ref, buf, vOff, 1, px, py, 4, 4, mv)
		}
	}
}

// predictChromaBlock motion-compensates one w x h chroma block (plane 0 =
// U, 1 = V) from ref at (px, py) + mv into buf at dstOff, clamping
// out-of-bounds reference samples to the plane edge.
func (dec *Decoder) predictChromaBlock(ref *Reference, buf []byte, dstOff, plane, px, py, w, h int, mv MotionVector) {
	px += int(mv.X >> 3)
	py += int(mv.Y >> 3)
	scratch, stride := dec.gatherClampedChroma(ref, plane, px, py, w, h)
	dsp.InterpolateBlock(buf, dstOff, bps, scratch, 2*stride+2, stride, w, h, int(mv.X&7), int(mv.Y&7))
}

// gatherClampedChroma copies an edge-clamped (w+5) x (h+5) neighborhood of
// one chroma plane (2 pixels of margin before the block, 3 after, enough
// for the 6-tap filter's taps) into dec's reusable scratch buffer.
func (dec *Decoder) gatherClampedChroma(ref *Reference, plane, px, py, w, h int) ([]byte, int) {
	pix, stride := ref.U, ref.UVStride
	if plane == 1 {
		pix = ref.V
	}
	pw, ph := (ref.Width+1)/2, (ref.Height+1)/2

	outStride := w + 5
	need := outStride * (h + 5)
	if cap(dec.chromaScratch) < need {
		dec.chromaScratch = make([]byte, need)
	}
	out := dec.chromaScratch[:need]

	for y := -2; y < h+3; y++ {
		sy := clampInt(py+y, 0, ph-1)
		row := (y + 2) * outStride
		srow := sy * stride
		for x := -2; x < w+3; x++ {
			sx := clampInt(px+x, 0, pw-1)
			out[row+x+2] = pix[srow+sx]
		}
	}
	return out, outStride
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// chromaMVFromLuma derives one chroma motion vector from the (up to four)
// luma vectors covering the chroma block's footprint, per RFC 6386 section
// 18.3: sum the components, round, and divide by eight.
func chromaMVFromLuma(a, b, c, d MotionVector) MotionVector {
	sx := int(a.X) + int(b.X) + int(c.X) + int(d.X)
	sy := int(a.Y) + int(b.Y) + int(c.Y) + int(d.Y)
	return MotionVector{X: int16(roundDiv8(sx)), Y: int16(roundDiv8(sy))}
}

func roundDiv8(v int) int {
	if v >= 0 {
		return (v + 4) >> 3
	}
	return -((-v + 4) >> 3)
}
