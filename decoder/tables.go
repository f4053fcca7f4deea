package decoder

// VP8 bitstream constants (RFC 6386). These are fixed, publicly specified
// values shared by every conforming VP8 decoder.

const (
	NumMBSegments      = 4
	MBFeatureTreeProbs = 3
	NumRefLFDeltas     = 4
	NumModeLFDeltas    = 4
	MaxNumPartitions   = 8

	NumTypes  = 4
	NumBands  = 8
	NumCTX    = 3
	NumProbas = 11
)

// Y/UV intra prediction modes, numbered to index the 16x16/8x8 predictor
// dispatch tables in decoder/dsp directly. BPred (4) signals
// macroblock-local 4x4 submodes rather than a whole-block predictor.
const (
	DCPred = iota
	TMPred
	VPred
	HPred
	BPred
)

// Boundary-adjusted DC predictor indices, used when a 16x16 or 8x8 block is
// missing its above and/or left neighbor.
const (
	BDCPred            = DCPred
	BDCPredNoTop       = 4
	BDCPredNoLeft      = 5
	BDCPredNoTopLeft   = 6
)

// 4x4 luma ("B") intra modes, numbered to index dsp.PredLuma4 directly.
const (
	BDCPred4 = iota
	BTMPred4
	BVEPred4
	BHEPred4
	BRDPred4
	BVRPred4
	BLDPred4
	BVLPred4
	BHDPred4
	BHUPred4
	NumBModes = BHUPred4 + 1
)

// Inter macroblock modes (mbmode enum order continues after the intra set).
const (
	NearestMV = iota
	NearMV
	ZeroMV
	NewMV
	SplitMV
	NumMVRefs = SplitMV + 1
)

// Sub-block ("submv") modes used only inside a SplitMV macroblock.
const (
	Left4x4 = iota
	Above4x4
	Zero4x4
	New4x4
)

// Reference frame selector.
const (
	CurrentFrame = iota
	LastFrame
	GoldenFrame
	AltRefFrame
	NumReferenceFrames = AltRefFrame + 1
)

// KZigzag maps a linear coefficient index [0..15] to its position in
// raster order within a 4x4 block.
var KZigzag = [16]int{0, 1, 4, 8, 5, 2, 3, 6, 9, 12, 13, 10, 7, 11, 14, 15}

// KBands maps a coefficient's zig-zag position (plus one sentinel past the
// end) to its probability "band" for context modeling.
var KBands = [17]int{0, 1, 2, 3, 6, 4, 5, 6, 6, 6, 6, 6, 6, 6, 6, 6, 7}

// KCat3..KCat6 are the extra-bit probability tables for the four "large
// value" token categories (values 11-18, 19-34, 35-66, 67 and up).
var (
	KCat3 = []uint8{173, 148, 140, 0}
	KCat4 = []uint8{176, 155, 140, 135, 0}
	KCat5 = []uint8{180, 157, 141, 134, 130, 0}
	KCat6 = []uint8{254, 254, 243, 230, 196, 177, 153, 140, 133, 130, 129, 0}
)

// KDcTable and KAcTable are the DC/AC dequantization lookup tables indexed
// by a clipped quantizer index in [0, 127].
var KDcTable = [128]uint16{
	4, 5, 6, 7, 8, 9, 10, 10, 11, 12, 13, 14, 15, 16, 17, 17,
	18, 19, 20, 20, 21, 21, 22, 22, 23, 23, 24, 25, 25, 26, 27, 28,
	29, 30, 31, 32, 33, 34, 35, 36, 37, 37, 38, 39, 40, 41, 42, 43,
	44, 45, 46, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58,
	59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71, 72, 73, 74,
	75, 76, 76, 77, 78, 79, 80, 81, 82, 83, 84, 85, 86, 87, 88, 89,
	91, 93, 95, 96, 98, 100, 101, 102, 104, 106, 108, 110, 112, 114, 116, 118,
	122, 124, 126, 128, 130, 132, 134, 136, 138, 140, 143, 145, 148, 151, 154, 157,
}

var KAcTable = [128]uint16{
	4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19,
	20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35,
	36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51,
	52, 53, 54, 55, 56, 57, 58, 60, 62, 64, 66, 68, 70, 72, 74, 76,
	78, 80, 82, 84, 86, 88, 90, 92, 94, 96, 98, 100, 102, 104, 106, 108,
	110, 112, 114, 116, 119, 122, 125, 128, 131, 134, 137, 140, 143, 146, 149, 152,
	155, 158, 161, 164, 167, 170, 173, 177, 181, 185, 189, 193, 197, 201, 205, 209,
	213, 217, 221, 225, 229, 234, 239, 245, 249, 254, 259, 264, 269, 274, 279, 284,
}

// KYModesIntra4 is the flat signed-byte tree for the ten 4x4 luma intra
// modes, walked with BoolReader.GetTree against a context-selected KBModesProba row.
var KYModesIntra4 = []int8{
	-BDCPred4, 2,
	-BTMPred4, 4,
	-BVEPred4, 6,
	8, 12,
	-BHEPred4, 10,
	-BRDPred4, -BVRPred4,
	-BLDPred4, 14,
	-BVLPred4, 16,
	-BHDPred4, -BHUPred4,
}

// kYModeTree is the flat tree for the four whole-block luma intra modes
// plus B_PRED, used for interframe macroblock mode parsing (keyframes use
// the specialised bit layout in tree.go's parseKeyFrameIntraMode instead).
var kYModeTree = []int8{
	-DCPred, 2,
	4, 6,
	-VPred, -HPred,
	-TMPred, -BPred,
}

// kInterBModesProba are the fixed (non-contextual) probabilities used for
// 4x4 submodes inside an interframe's intra macroblocks; only keyframes
// use the above/left-contextual KBModesProba table.
var kInterBModesProba = [9]uint8{120, 90, 79, 133, 87, 85, 80, 111, 151}

// kUVModeTree is the flat tree for the four chroma intra modes.
var kUVModeTree = []int8{
	-DCPred, 2,
	-VPred, 4,
	-HPred, -TMPred,
}

// kMVRefTree selects among the five inter macroblock modes.
var kMVRefTree = []int8{
	-ZeroMV, 2,
	-NearestMV, 4,
	-NearMV, 6,
	-NewMV, -SplitMV,
}

// kSubMVRefTree selects among the four split-MV submodes.
var kSubMVRefTree = []int8{
	-Left4x4, 2,
	-Above4x4, 4,
	-Zero4x4, -New4x4,
}

// kSubMVRefProbs are the (non-contextual) probabilities for kSubMVRefTree.
var kSubMVRefProbs = []uint8{180, 162, 25}

// kSplitMVPartitionTree selects among the four macroblock partitionings
// used by SPLITMV (2 horizontal halves, 2 vertical halves, 4 quadrants, or
// 16 individual 4x4 blocks).
var kSplitMVPartitionTree = []int8{
	-PartSixteenths, 2,
	-PartQuarters, 4,
	-PartTwoHorizontal, -PartTwoVertical,
}

const (
	PartTwoHorizontal = iota // top 8 rows / bottom 8 rows
	PartTwoVertical          // left 8 cols / right 8 cols
	PartQuarters             // four 8x8 quadrants
	PartSixteenths           // all sixteen 4x4 blocks independently
	NumSplitPartitions = PartSixteenths + 1
)

// kSplitMVPartitionProbs are the probabilities for kSplitMVPartitionTree.
var kSplitMVPartitionProbs = []uint8{110, 111, 150}

// kSmallMVTree is the flat tree for the short (0-7) motion vector
// component magnitude, used below the "long vector" escape threshold.
var kSmallMVTree = []int8{
	2, 8,
	4, 6,
	0, -1,
	-2, -3,
	10, 12,
	-4, -5,
	-6, -7,
}

// kMVPartitionCounts gives the partition count for each kSplitMVPartitionTree leaf.
var kMVPartitionCounts = [NumSplitPartitions]int{2, 2, 4, 16}
