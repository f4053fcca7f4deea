package decoder

// Default probabilities for the short motion vector component tree and its
// long-vector escape, and for the interframe Y/UV mode trees. These are the
// RFC 6386 section 17.2 / 16.1 defaults; the bitstream may replace any of
// them via the per-frame update pass in parseMVProbUpdates and friends, and
// the replacements persist across frames iff refresh_entropy_probs was set.
var kDefaultMVContexts = [2]MVContext{
	{
		IsShort: 162,
		Sign:    128,
		Short:   [7]uint8{225, 146, 172, 147, 214, 39, 156},
		Bits:    [10]uint8{128, 129, 132, 75, 145, 178, 206, 239, 254, 254},
	},
	{
		IsShort: 164,
		Sign:    128,
		Short:   [7]uint8{204, 170, 119, 235, 140, 230, 228},
		Bits:    [10]uint8{128, 130, 130, 74, 148, 180, 203, 236, 254, 254},
	},
}

var kDefaultYModeProba = [4]uint8{112, 86, 140, 37}
var kDefaultUVModeProba = [3]uint8{162, 101, 204}

// kMVUpdateProba gates each motion-vector probability's per-frame update
// flag (RFC 6386 section 17.2), in the same row/column component order and
// IsShort, Sign, Short[7], Bits[10] field order as MVContext.
var kMVUpdateProba = [2][19]uint8{
	{
		237, 246,
		253, 253, 254, 254, 254, 254, 254,
		254, 254, 254, 254, 254, 250, 250, 252, 254, 254,
	},
	{
		231, 243,
		245, 253, 254, 254, 254, 254, 254,
		254, 254, 254, 254, 254, 251, 251, 254, 254, 254,
	},
}

// MVContext holds one component's (row or column) motion vector
// probability set. Exported because it is part of DecoderState.
type MVContext struct {
	IsShort uint8
	Sign    uint8
	Short   [7]uint8
	Bits    [10]uint8
}

// probs returns the context's 19 probabilities as an ordered array of
// field pointers, for the update pass.
func (c *MVContext) probs() [19]*uint8 {
	var out [19]*uint8
	out[0] = &c.IsShort
	out[1] = &c.Sign
	for i := range c.Short {
		out[2+i] = &c.Short[i]
	}
	for i := range c.Bits {
		out[9+i] = &c.Bits[i]
	}
	return out
}

// parseMVProbUpdates reads the per-frame motion-vector probability update
// pass from the header partition: one flag bit per probability (coded
// against kMVUpdateProba), then a 7-bit replacement doubled (a raw zero
// maps to 1, since a zero probability is not representable).
func parseMVProbUpdates(br *BoolReader, contexts *[2]MVContext) {
	for c := 0; c < 2; c++ {
		fields := contexts[c].probs()
		for i, p := range fields {
			if br.GetBit(kMVUpdateProba[c][i]) != 0 {
				v := uint8(br.GetValue(7))
				if v != 0 {
					*p = v << 1
				} else {
					*p = 1
				}
			}
		}
	}
}

// longBits is the number of escape bits encoded for each magnitude class
// above the short-vector range, with bit 3 decoded last (RFC 6386 section
// 17.2's read_mvcomponent order).
const longBits = 10

// readMVComponent decodes one signed motion-vector component using ctx's
// probabilities, returning it in the bitstream's eighth-pel units doubled
// to the quarter-pel scale the reconstruction code uses.
func readMVComponent(br *BoolReader, ctx *MVContext) int16 {
	var mag int
	if br.GetBit(ctx.IsShort) != 0 {
		// Long vector: bits 0-2 first, then 9 down to 4, with bit 3 last,
		// and implicit when no higher bit is set, since a long vector is
		// by definition >= 8.
		for i := 0; i < 3; i++ {
			mag |= int(br.GetBit(ctx.Bits[i])) << uint(i)
		}
		for i := longBits - 1; i > 3; i-- {
			mag |= int(br.GetBit(ctx.Bits[i])) << uint(i)
		}
		if mag&0xfff0 == 0 || br.GetBit(ctx.Bits[3]) != 0 {
			mag |= 1 << 3
		}
	} else {
		mag = br.GetTree(kSmallMVTree, ctx.Short[:])
	}
	if mag == 0 {
		return 0
	}
	if br.GetBit(ctx.Sign) != 0 {
		mag = -mag
	}
	return int16(mag * 2)
}

// readMV decodes a full (row, column) motion vector delta and adds it to
// best, the predicted base vector.
func readMV(br *BoolReader, contexts *[2]MVContext, best MotionVector) MotionVector {
	dy := readMVComponent(br, &contexts[0])
	dx := readMVComponent(br, &contexts[1])
	return MotionVector{X: best.X + dx, Y: best.Y + dy}
}

// mvRefCandidates computes the NEAREST and NEAR candidate vectors and the
// "best" predictor used both for mv_ref_tree probability selection and as
// the base vector NEWMV deltas are added to, by inspecting the above, left,
// and above-left macroblocks' motion (RFC 6386 section 18.2). above/left
// carry weight 2, above-left weight 1; intraCount tallies neighbors that
// were intra-coded or outside the frame, which biases mode-probability
// selection toward ZEROMV.
func mvRefCandidates(above, left, aboveLeft *MBData, haveAbove, haveLeft, haveAboveLeft bool) (nearest, near, best MotionVector, intraCount int) {
	type cand struct {
		mv  MotionVector
		cnt int
	}
	var cands []cand

	consider := func(mb *MBData, have bool, weight int) {
		if !have || mb == nil || mb.RefFrame == CurrentFrame {
			intraCount++
			return
		}
		mv := mb.MV
		for i := range cands {
			if cands[i].mv == mv {
				cands[i].cnt += weight
				return
			}
		}
		cands = append(cands, cand{mv: mv, cnt: weight})
	}

	consider(above, haveAbove, 2)
	consider(left, haveLeft, 2)
	consider(aboveLeft, haveAboveLeft, 1)

	switch len(cands) {
	case 0:
		return MotionVector{}, MotionVector{}, MotionVector{}, intraCount
	case 1:
		return cands[0].mv, MotionVector{}, cands[0].mv, intraCount
	default:
		if cands[0].cnt < cands[1].cnt {
			cands[0], cands[1] = cands[1], cands[0]
		}
		return cands[0].mv, cands[1].mv, cands[0].mv, intraCount
	}
}
