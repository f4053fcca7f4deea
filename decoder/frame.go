package decoder

import (
	"github.com/pkg/errors"

	"github.com/deepteams/alfalfa/decoder/dsp"
)

const bps = dsp.BPS

// Buffer layout offsets within the per-row reconstruction slab: 17 rows of
// luma (one margin row above the 16 reconstruction rows), then 9 rows
// shared by U and V side by side, 16 columns apart so each keeps its own
// left margin.
const (
	yOff    = 1*bps + 8
	uOff    = yOff + 16*bps + bps
	vOff    = uOff + 16
	yuvSize = 26 * bps
)

// Reference is one decoded-and-stored reference picture (last, golden, or
// altref), kept in caller-owned plane buffers so References can be backed by
// the raster store's reference-counted handles.
type Reference struct {
	Y, U, V           []byte
	YStride, UVStride int
	Width, Height     int

	contentHash uint64
	hashDone    bool
}

// References holds the three reference slots an interframe may predict
// from and whose contents it may refresh.
type References struct {
	Last, Golden, Alt *Reference
}

// pick returns the reference plane set named by ref.
func (r *References) pick(ref uint8) *Reference {
	switch ref {
	case GoldenFrame:
		return r.Golden
	case AltRefFrame:
		return r.Alt
	default:
		return r.Last
	}
}

// Update applies an interframe's copy-then-refresh sequence to the
// reference set: buffer copies happen first, then the slots marked
// refresh_* are overwritten with the newly decoded frame. The copies are
// sequential: the altref copy lands before the golden copy reads, so
// copy_to_alt=last combined with copy_to_golden=alt leaves golden holding
// last, not the original altref.
func (r *References) Update(h InterHeader, decoded *Reference) {
	switch h.CopyBufferToAlternate {
	case 1:
		r.Alt = r.Last
	case 2:
		r.Alt = r.Golden
	}
	switch h.CopyBufferToGolden {
	case 1:
		r.Golden = r.Last
	case 2:
		r.Golden = r.Alt
	}

	if h.RefreshGolden {
		r.Golden = decoded
	}
	if h.RefreshAlternate {
		r.Alt = decoded
	}
	if h.RefreshLast {
		r.Last = decoded
	}
}

// Frame is a fully decoded VP8 picture: a keyframe carries no reference
// dependency, an interframe's semantics depend on whichever References were
// passed to Decode.
type Frame struct {
	KeyFrame bool
	Shown    bool
	Width    int
	Height   int
	Y, U, V  []byte
	YStride  int
	UVStride int
}

// Options controls decode-time behavior not determined by the bitstream
// itself.
type Options struct {
	// Concealment, when true, turns a truncated token partition into a
	// degraded decode instead of a hard error: macroblocks whose mode data
	// could not be parsed become inter ZEROMV against the last reference,
	// and macroblocks whose residues could not be parsed get zero
	// coefficients for the affected blocks.
	Concealment bool
}

// Decoder holds all per-frame working state for VP8 bitstream decoding.
// A single Decoder may be reused across frames (acquire via NewDecoder,
// call Decode repeatedly) since its buffers are grown, never shrunk.
type Decoder struct {
	frmHdr     FrameHeader
	picHdr     PictureHeader
	segHdr     SegmentHeader
	filterHdr  FilterHeader
	interHdr   InterHeader
	filterMode FilterMode

	mbW, mbH int

	br               *BoolReader
	parts            [MaxNumPartitions]*BoolReader
	numPartsMinusOne uint32

	proba        Proba
	useSkipProba bool
	skipP        uint8

	dqm [NumMBSegments]QuantMatrix

	segLevels [NumMBSegments]int

	intraT     []uint8
	intraL     [4]uint8
	yuvT       []TopSamples
	mbInfo     []MB
	fInfo      []FInfo
	yuvB       []byte
	mbData     []MBData
	mbDataPrev []MBData

	// segMap is the persistent macroblock-to-segment map, carried across
	// frames when segmentation is enabled but the frame does not update it.
	segMap []uint8

	cacheY, cacheU, cacheV      []byte
	cacheYStride, cacheUVStride int

	chromaScratch []byte

	slab []byte

	refSel refSelectProbs

	// touched records which reference slots the most recent decode
	// predicted from; lastOut is the picture it produced. Together they
	// feed FrameName's source/target construction.
	touched [NumReferenceFrames]bool
	lastOut *Reference

	opts Options
}

// NewDecoder constructs a Decoder with the given options. Its internal
// buffers grow lazily on first Decode; its probability tables start at the
// bitstream defaults, as if a keyframe had just reset them.
func NewDecoder(opts Options) *Decoder {
	d := &Decoder{opts: opts}
	ResetProba(&d.proba)
	return d
}

// Decode parses and reconstructs one VP8 frame from data. refs supplies the
// last/golden/altref pictures an interframe predicts from; a keyframe
// predicts from none of them. On success, Decode may mutate refs via
// References.Update
// according to the frame's refresh/copy flags; callers decoding a sequence
// should pass the same References value through in dependency order.
func (dec *Decoder) Decode(data []byte, refs *References) (*Frame, error) {
	hdr, rest, err := parseUncompressedTag(data)
	if err != nil {
		return nil, err
	}
	dec.frmHdr = hdr

	if hdr.Experimental {
		if hdr.KeyFrame {
			return nil, errors.Wrap(ErrInvalid, "experimental key frame")
		}
		return nil, errors.Wrap(ErrUnsupported, "experimental")
	}

	if hdr.KeyFrame {
		pic, body, err := parsePictureHeader(rest)
		if err != nil {
			return nil, err
		}
		dec.picHdr = pic
		dec.mbW = (pic.Width + 15) >> 4
		dec.mbH = (pic.Height + 15) >> 4
		rest = body

		ResetProba(&dec.proba)
		dec.segHdr = SegmentHeader{AbsoluteDelta: true}
	} else {
		if refs == nil || refs.Last == nil {
			return nil, errors.Wrap(ErrLogicError, "interframe decoded with no reference set")
		}
		dec.picHdr.Width = refs.Last.Width
		dec.picHdr.Height = refs.Last.Height
		dec.mbW = (dec.picHdr.Width + 15) >> 4
		dec.mbH = (dec.picHdr.Height + 15) >> 4
	}

	partLen := int(hdr.PartitionLength)
	if partLen > len(rest) {
		return nil, errors.Wrap(ErrTruncated, "partition 0 length")
	}
	dec.br = NewBoolReader(rest[:partLen])
	tokenBuf := rest[partLen:]
	br := dec.br

	if hdr.KeyFrame {
		dec.picHdr.Colorspace = uint8(br.GetBit(0x80))
		dec.picHdr.ClampType = uint8(br.GetBit(0x80))
		if dec.picHdr.Colorspace != 0 || dec.picHdr.ClampType != 0 {
			return nil, errors.Wrapf(ErrUnsupported, "color_space %d clamping_type %d",
				dec.picHdr.Colorspace, dec.picHdr.ClampType)
		}
	}

	if err := parseSegmentHeader(br, &dec.segHdr, &dec.proba); err != nil {
		return nil, err
	}

	mode, err := parseFilterHeader(br, &dec.filterHdr)
	if err != nil {
		return nil, err
	}
	dec.filterMode = mode

	parts, numPartsMinusOne, err := parsePartitions(br, tokenBuf)
	if err != nil {
		return nil, err
	}
	dec.parts = parts
	dec.numPartsMinusOne = numPartsMinusOne

	ParseQuant(br, &dec.segHdr, dec.dqm[:])

	if !hdr.KeyFrame {
		dec.interHdr = parseInterRefHeader(br)
	} else {
		dec.interHdr = InterHeader{RefreshGolden: true, RefreshAlternate: true}
	}

	// refresh_entropy_probs is common to both frame types; refresh_last is
	// interframe-only. Neither gates whether this frame's own probability
	// updates apply below (they always do), only whether those updates
	// persist into the entropy context carried forward to whatever frame
	// decodes next.
	dec.interHdr.RefreshEntropyProbs = br.GetBit(0x80) != 0
	if !hdr.KeyFrame {
		dec.interHdr.RefreshLast = br.GetBit(0x80) != 0
	} else {
		dec.interHdr.RefreshLast = true
	}

	savedBands := dec.proba.Bands
	savedYMode := dec.proba.YMode
	savedUVMode := dec.proba.UVMode
	savedMV := dec.proba.MVContexts
	parseCoeffProba(br, &dec.proba)

	dec.useSkipProba = br.GetBit(0x80) != 0
	if dec.useSkipProba {
		dec.skipP = uint8(br.GetValue(8))
	}

	if !hdr.KeyFrame {
		dec.refSel.Intra = uint8(br.GetValue(8))
		dec.refSel.Last = uint8(br.GetValue(8))
		dec.refSel.Golden = uint8(br.GetValue(8))
		if br.GetBit(0x80) != 0 { // intra_16x16_prob_update_flag
			for i := range dec.proba.YMode {
				dec.proba.YMode[i] = uint8(br.GetValue(8))
			}
		}
		if br.GetBit(0x80) != 0 { // intra_chroma_prob_update_flag
			for i := range dec.proba.UVMode {
				dec.proba.UVMode[i] = uint8(br.GetValue(8))
			}
		}
		parseMVProbUpdates(br, &dec.proba.MVContexts)
	}

	if !dec.interHdr.RefreshEntropyProbs {
		defer func() {
			dec.proba.Bands = savedBands
			dec.proba.YMode = savedYMode
			dec.proba.UVMode = savedUVMode
			dec.proba.MVContexts = savedMV
		}()
	}

	if err := dec.initFrame(); err != nil {
		return nil, err
	}
	dec.precomputeFilterStrengths()
	dec.touched = [NumReferenceFrames]bool{}

	if err := dec.parseFrame(refs); err != nil {
		if !dec.opts.Concealment || !errors.Is(err, ErrTruncated) {
			return nil, err
		}
	}

	out := &Reference{
		Y: append([]byte(nil), dec.cacheY[:dec.picHdr.Height*dec.cacheYStride]...),
		U: append([]byte(nil), dec.cacheU[:((dec.picHdr.Height+1)/2)*dec.cacheUVStride]...),
		V: append([]byte(nil), dec.cacheV[:((dec.picHdr.Height+1)/2)*dec.cacheUVStride]...),
		YStride: dec.cacheYStride, UVStride: dec.cacheUVStride,
		Width: dec.picHdr.Width, Height: dec.picHdr.Height,
	}
	dec.lastOut = out
	if refs != nil {
		refs.Update(dec.interHdr, out)
	}

	return &Frame{
		KeyFrame: hdr.KeyFrame,
		Shown:    hdr.Show,
		Width:    dec.picHdr.Width,
		Height:   dec.picHdr.Height,
		Y:        out.Y,
		U:        out.U,
		V:        out.V,
		YStride:  out.YStride,
		UVStride: out.UVStride,
	}, nil
}

func (dec *Decoder) initFrame() error {
	mbW := dec.mbW

	if cap(dec.yuvT) >= mbW {
		dec.yuvT = dec.yuvT[:mbW]
		clear(dec.yuvT)
	} else {
		dec.yuvT = make([]TopSamples, mbW)
	}
	if cap(dec.mbInfo) >= mbW+1 {
		dec.mbInfo = dec.mbInfo[:mbW+1]
		clear(dec.mbInfo)
	} else {
		dec.mbInfo = make([]MB, mbW+1)
	}
	if cap(dec.fInfo) >= mbW {
		dec.fInfo = dec.fInfo[:mbW]
		clear(dec.fInfo)
	} else {
		dec.fInfo = make([]FInfo, mbW)
	}
	if cap(dec.mbData) >= mbW {
		dec.mbData = dec.mbData[:mbW]
		clear(dec.mbData)
	} else {
		dec.mbData = make([]MBData, mbW)
	}
	if cap(dec.mbDataPrev) >= mbW {
		dec.mbDataPrev = dec.mbDataPrev[:mbW]
		clear(dec.mbDataPrev)
	} else {
		dec.mbDataPrev = make([]MBData, mbW)
	}
	if len(dec.segMap) != mbW*dec.mbH {
		dec.segMap = make([]uint8, mbW*dec.mbH)
	}

	dec.cacheYStride = 16 * mbW
	dec.cacheUVStride = 8 * mbW
	totalRows := dec.mbH

	intraTSize := 4 * mbW
	cacheYSize := totalRows * 16 * dec.cacheYStride
	cacheUSize := totalRows * 8 * dec.cacheUVStride
	cacheVSize := cacheUSize

	if uint64(totalRows)*16*uint64(dec.cacheYStride) > 1<<28 {
		return errors.Wrap(ErrInvalid, "frame too large")
	}

	slabSize := intraTSize + yuvSize + cacheYSize + cacheUSize + cacheVSize
	if cap(dec.slab) >= slabSize {
		dec.slab = dec.slab[:slabSize]
		clear(dec.slab)
	} else {
		dec.slab = make([]byte, slabSize)
	}
	slab := dec.slab

	off := 0
	dec.intraT = slab[off : off+intraTSize]
	for i := range dec.intraT {
		dec.intraT[i] = BDCPred
	}
	off += intraTSize

	dec.yuvB = slab[off : off+yuvSize]
	off += yuvSize

	dec.cacheY = slab[off : off+cacheYSize]
	off += cacheYSize
	dec.cacheU = slab[off : off+cacheUSize]
	off += cacheUSize
	dec.cacheV = slab[off : off+cacheVSize]

	return nil
}

func (dec *Decoder) parseFrame(refs *References) error {
	safeRefs := dec.buildSafeRefs(refs)
	for y := 0; y < dec.mbH; y++ {
		tokenBR := dec.parts[y&int(dec.numPartsMinusOne)]

		if err := dec.parseModeRow(y); err != nil {
			if dec.opts.Concealment {
				dec.concealModeRow(y)
			} else {
				return err
			}
		}

		for mbX := 0; mbX < dec.mbW; mbX++ {
			if err := dec.decodeMBResiduals(mbX, tokenBR); err != nil {
				if !dec.opts.Concealment {
					return err
				}
				dec.concealResiduals(mbX)
			}
		}

		dec.initScanline()
		dec.reconstructRow(y, refs, safeRefs)

		if dec.filterMode != FilterNone {
			dec.filterRow(y)
		}

		dec.mbData, dec.mbDataPrev = dec.mbDataPrev, dec.mbData
	}
	return nil
}

func (dec *Decoder) parseModeRow(mbY int) error {
	for mbX := 0; mbX < dec.mbW; mbX++ {
		top := dec.intraT[4*mbX : 4*mbX+4]
		left := dec.intraL[:]
		block := &dec.mbData[mbX]
		*block = MBData{}

		if dec.frmHdr.KeyFrame {
			parseKeyFrameIntraMode(dec.br, &dec.segHdr, &dec.proba, dec.useSkipProba, dec.skipP, top, left, block)
		} else {
			var above, leftBlk, aboveLeft *MBData
			haveAbove, haveLeft := mbY > 0, mbX > 0
			haveAboveLeft := haveAbove && haveLeft
			if haveLeft {
				leftBlk = &dec.mbData[mbX-1]
			}
			if haveAbove {
				above = &dec.mbDataPrev[mbX]
			}
			if haveAboveLeft {
				aboveLeft = &dec.mbDataPrev[mbX-1]
			}
			parseInterFrameMBMode(dec.br, &dec.segHdr, &dec.proba, dec.useSkipProba, dec.skipP, dec.refSel, top, left, block, above, leftBlk, aboveLeft, haveAbove, haveLeft, haveAboveLeft, &dec.proba.MVContexts)
		}

		if dec.segHdr.UseSegment {
			idx := mbY*dec.mbW + mbX
			if dec.segHdr.UpdateMap {
				dec.segMap[idx] = block.Segment
			} else {
				block.Segment = dec.segMap[idx]
			}
		}
	}
	if dec.br.EOF() {
		return errors.Wrap(ErrTruncated, "mode partition")
	}
	return nil
}

// concealModeRow degrades every macroblock in a row whose mode data could
// not be parsed to inter ZEROMV against the last reference; on a
// keyframe (which has no references to predict from), to a skipped intra
// DC block.
func (dec *Decoder) concealModeRow(mbY int) {
	for mbX := 0; mbX < dec.mbW; mbX++ {
		block := &dec.mbData[mbX]
		if dec.frmHdr.KeyFrame {
			*block = MBData{RefFrame: CurrentFrame, Skip: true}
		} else {
			*block = MBData{RefFrame: LastFrame, MVMode: ZeroMV, Skip: true}
		}
	}
}

func (dec *Decoder) decodeMBResiduals(mbX int, tokenBR *BoolReader) error {
	left := &dec.mbInfo[0]
	mb := &dec.mbInfo[mbX+1]
	block := &dec.mbData[mbX]

	skip := false
	if dec.useSkipProba {
		skip = block.Skip
	}

	if !skip {
		parseResiduals(&dec.proba, &dec.dqm[block.Segment], mb, left, block, tokenBR)
	} else {
		left.Nz = 0
		mb.Nz = 0
		if block.HasY2() {
			left.NzDC = 0
			mb.NzDC = 0
		}
		block.NonZeroY = 0
		block.NonZeroUV = 0
		block.Dither = 0
	}

	if dec.filterMode != FilterNone {
		finfo := &dec.fInfo[mbX]
		*finfo = dec.filterStrengthFor(block)
		finfo.FInner = finfo.FInner || block.NonZeroY != 0 || block.NonZeroUV != 0
	}

	if tokenBR.EOF() {
		return errors.Wrap(ErrTruncated, "token partition")
	}
	return nil
}

// concealResiduals zeroes the affected macroblock's coefficients, leaving
// prediction (intra or motion-compensated) as the sole reconstruction.
func (dec *Decoder) concealResiduals(mbX int) {
	block := &dec.mbData[mbX]
	for i := range block.Coeffs {
		block.Coeffs[i] = 0
	}
	block.NonZeroY = 0
	block.NonZeroUV = 0
}

func (dec *Decoder) initScanline() {
	left := &dec.mbInfo[0]
	left.Nz = 0
	left.NzDC = 0
	for i := range dec.intraL {
		dec.intraL[i] = BDCPred
	}
}
