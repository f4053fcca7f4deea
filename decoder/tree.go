package decoder

// parseSegment reads the optional per-macroblock segment-id update, shared
// by key- and interframe mode parsing.
func parseSegment(br *BoolReader, segHdr *SegmentHeader, proba *Proba, block *MBData) {
	if segHdr.UpdateMap {
		if br.GetBit(proba.Segments[0]) == 0 {
			block.Segment = uint8(br.GetBit(proba.Segments[1]))
		} else {
			block.Segment = uint8(br.GetBit(proba.Segments[2])) + 2
		}
	} else {
		block.Segment = 0
	}
}

// parseKeyFrameIntraMode parses one macroblock's intra prediction mode on a
// keyframe, where whole-block Y/UV modes use fixed bitstream-defined
// probabilities (RFC 6386 section 11.2) and 4x4 submodes are contextual on
// the already-decoded above/left submodes (section 11.3).
func parseKeyFrameIntraMode(br *BoolReader, segHdr *SegmentHeader, proba *Proba, useSkipProba bool, skipP uint8, top []uint8, left []uint8, block *MBData) {
	parseSegment(br, segHdr, proba, block)

	if useSkipProba {
		block.Skip = br.GetBit(skipP) != 0
	}

	block.RefFrame = CurrentFrame

	block.IsI4x4 = br.GetBit(145) == 0
	if !block.IsI4x4 {
		var ymode uint8
		if br.GetBit(156) != 0 {
			if br.GetBit(128) != 0 {
				ymode = TMPred
			} else {
				ymode = HPred
			}
		} else {
			if br.GetBit(163) != 0 {
				ymode = VPred
			} else {
				ymode = DCPred
			}
		}
		block.IModes[0] = ymode
		for i := 0; i < 4; i++ {
			top[i] = ymode
			left[i] = ymode
		}
	} else {
		modes := block.IModes[:]
		for y := 0; y < 4; y++ {
			ymode := left[y]
			for x := 0; x < 4; x++ {
				prob := KBModesProba[top[x]][ymode][:]
				sym := br.GetTree(KYModesIntra4, prob)
				ymode = uint8(sym)
				top[x] = ymode
				modes[y*4+x] = ymode
			}
			left[y] = ymode
		}
	}

	if br.GetBit(142) == 0 {
		block.UVMode = DCPred
	} else if br.GetBit(114) == 0 {
		block.UVMode = VPred
	} else if br.GetBit(183) != 0 {
		block.UVMode = TMPred
	} else {
		block.UVMode = HPred
	}
}

// refSelectProbs holds the per-frame intra/inter and reference-frame
// selection probabilities parsed from an interframe's header (RFC 6386
// section 9.11). Unlike the mode and MV probabilities these never persist
// across frames.
type refSelectProbs struct {
	Intra  uint8 // P(inter) for the intra/inter flag
	Last   uint8 // P(not last) for the last-vs-rest flag
	Golden uint8 // P(altref) for the golden-vs-altref flag
}

// parseInterFrameMBMode parses one macroblock's mode on an interframe: an
// intra/inter flag, reference frame (when inter), and either an intra mode
// (reusing the keyframe's B_PRED 4x4 submode tree, since interframes keep
// the same intra fallback) or an mv_ref_tree walk selecting among
// NEAREST/NEAR/ZERO/NEW/SPLIT, with SPLITMV recursing into per-partition
// submv decisions.
func parseInterFrameMBMode(br *BoolReader, segHdr *SegmentHeader, proba *Proba, useSkipProba bool, skipP uint8, refSel refSelectProbs, top []uint8, left []uint8, block *MBData, above, leftMB, aboveLeft *MBData, haveAbove, haveLeft, haveAboveLeft bool, mvContexts *[2]MVContext) {
	parseSegment(br, segHdr, proba, block)

	if useSkipProba {
		block.Skip = br.GetBit(skipP) != 0
	}

	if br.GetBit(refSel.Intra) == 0 {
		block.RefFrame = CurrentFrame
		ymode := uint8(br.GetTree(kYModeTree, proba.YMode[:]))
		block.IsI4x4 = ymode == BPred
		if !block.IsI4x4 {
			block.IModes[0] = ymode
			for i := 0; i < 4; i++ {
				top[i] = ymode
				left[i] = ymode
			}
		} else {
			modes := block.IModes[:]
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					sub := uint8(br.GetTree(KYModesIntra4, kInterBModesProba[:]))
					top[x] = sub
					modes[y*4+x] = sub
				}
			}
		}
		block.UVMode = uint8(br.GetTree(kUVModeTree, proba.UVMode[:]))
		return
	}

	if br.GetBit(refSel.Last) == 0 {
		block.RefFrame = LastFrame
	} else if br.GetBit(refSel.Golden) == 0 {
		block.RefFrame = GoldenFrame
	} else {
		block.RefFrame = AltRefFrame
	}

	nearest, near, best, intraCount := mvRefCandidates(above, leftMB, aboveLeft, haveAbove, haveLeft, haveAboveLeft)
	refProbs := mvRefProbsForCount(intraCount)

	block.MVMode = uint8(br.GetTree(kMVRefTree, refProbs[:]))
	for i := range top {
		top[i] = DCPred
	}
	for i := range left {
		left[i] = DCPred
	}

	switch block.MVMode {
	case ZeroMV:
		block.MV = MotionVector{}
	case NearestMV:
		block.MV = nearest
	case NearMV:
		block.MV = near
	case NewMV:
		block.MV = readMV(br, mvContexts, best)
	case SplitMV:
		parseSplitMV(br, block, leftMB, above, mvContexts, best)
	}

	if block.MVMode != SplitMV {
		for i := range block.SubMVs {
			block.SubMVs[i] = block.MV
		}
	}
}

// mvRefProbsForCount returns the mv_ref_tree probabilities selected by how
// many neighbors were intra/out-of-frame, approximating RFC 6386 section
// 16.1's per-context probability table with the single most load-bearing
// axis (more intra neighbors biases strongly toward ZEROMV).
func mvRefProbsForCount(intraCount int) [4]uint8 {
	switch intraCount {
	case 0:
		return [4]uint8{7, 1, 1, 143}
	case 1:
		return [4]uint8{14, 18, 14, 107}
	case 2:
		return [4]uint8{135, 64, 57, 68}
	default:
		return [4]uint8{213, 120, 100, 28}
	}
}

// parseSplitMV parses a SPLITMV macroblock's partition layout and the
// per-partition submv modes/vectors (RFC 6386 section 16.3).
func parseSplitMV(br *BoolReader, block *MBData, leftMB, above *MBData, mvContexts *[2]MVContext, best MotionVector) {
	part := uint8(br.GetTree(kSplitMVPartitionTree, kSplitMVPartitionProbs))
	block.Partition = part

	blocks := splitPartitionBlocks(part)
	for _, grp := range blocks {
		leftIdx := grp[0]
		var predLeft, predAbove MotionVector
		row, col := leftIdx/4, leftIdx%4
		if col > 0 {
			predLeft = block.SubMVs[leftIdx-1]
		} else if leftMB != nil {
			predLeft = leftMB.SubMVs[row*4+3]
		}
		if row > 0 {
			predAbove = block.SubMVs[leftIdx-4]
		} else if above != nil {
			predAbove = above.SubMVs[12+col]
		}

		mode := uint8(br.GetTree(kSubMVRefTree, kSubMVRefProbs))
		var mv MotionVector
		switch mode {
		case Left4x4:
			mv = predLeft
		case Above4x4:
			mv = predAbove
		case Zero4x4:
			mv = MotionVector{}
		case New4x4:
			mv = readMV(br, mvContexts, best)
		}
		for _, idx := range grp {
			block.SubMVs[idx] = mv
			block.SubModes[idx] = mode
		}
	}
	// The macroblock-level MV used for neighbor prediction is the last
	// decoded partition's vector (bottom-right sub-block), matching the
	// value libvpx leaves in mi->mv after a split decode.
	block.MV = block.SubMVs[15]
}

// splitPartitionBlocks returns, for each of the four partition layouts, the
// list of 4x4-block-index groups that share one decoded submv.
func splitPartitionBlocks(part uint8) [][]int {
	switch part {
	case PartTwoHorizontal:
		return [][]int{{0, 1, 2, 3, 4, 5, 6, 7}, {8, 9, 10, 11, 12, 13, 14, 15}}
	case PartTwoVertical:
		return [][]int{{0, 1, 4, 5, 8, 9, 12, 13}, {2, 3, 6, 7, 10, 11, 14, 15}}
	case PartQuarters:
		return [][]int{{0, 1, 4, 5}, {2, 3, 6, 7}, {8, 9, 12, 13}, {10, 11, 14, 15}}
	default: // PartSixteenths
		groups := make([][]int, 16)
		for i := 0; i < 16; i++ {
			groups[i] = []int{i}
		}
		return groups
	}
}
