package decoder

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// FrameHeader is the 3-byte uncompressed frame tag that precedes every VP8
// frame's compressed payload.
type FrameHeader struct {
	KeyFrame        bool
	Version         uint8
	Experimental    bool
	Show            bool
	PartitionLength uint32
}

// PictureHeader carries picture dimensions and scaling, present only on
// keyframes (interframes inherit dimensions from the decoder state).
type PictureHeader struct {
	Width      int
	Height     int
	XScale     uint8
	YScale     uint8
	Colorspace uint8
	ClampType  uint8
}

// SegmentHeader describes per-segment quantizer/filter overrides.
type SegmentHeader struct {
	UseSegment     bool
	UpdateMap      bool
	AbsoluteDelta  bool
	Quantizer      [NumMBSegments]int8
	FilterStrength [NumMBSegments]int8
}

// FilterHeader describes the loop filter parameters for a frame. Only
// Normal (complex) filtering and NoFilter are supported for decode; a
// Simple header value is rejected at parse time rather than silently
// approximated.
type FilterHeader struct {
	Level       int
	Sharpness   int
	UseLFDelta  bool
	RefLFDelta  [NumRefLFDeltas]int
	ModeLFDelta [NumModeLFDeltas]int
}

// InterHeader carries the additional header fields present only on
// interframes: reference-frame sign biases and the buffer copy/refresh
// flags that govern how last/golden/altref are updated after this frame.
// RefreshEntropyProbs and RefreshLast are parsed separately in Decode since
// the former is common to both frame types.
type InterHeader struct {
	RefreshGolden         bool
	RefreshAlternate      bool
	CopyBufferToGolden    int // 0=none, 1=copy last, 2=copy altref
	CopyBufferToAlternate int // 0=none, 1=copy last, 2=copy golden
	SignBiasGolden        bool
	SignBiasAlternate     bool
	RefreshEntropyProbs   bool
	RefreshLast           bool
}

// parseUncompressedTag parses the 3-byte uncompressed frame tag at the
// start of a VP8 frame payload and returns the
// remaining bytes (the compressed payload, starting with the picture header
// on keyframes).
func parseUncompressedTag(data []byte) (hdr FrameHeader, rest []byte, err error) {
	if len(data) < 3 {
		return hdr, nil, errors.Wrap(ErrTruncated, "uncompressed frame tag")
	}
	bits := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	hdr.KeyFrame = (bits & 1) == 0
	hdr.Version = uint8((bits >> 1) & 7)
	hdr.Show = ((bits >> 4) & 1) != 0
	hdr.PartitionLength = bits >> 5

	// Versions 4 and 6 mark the experimental bitstream profile, which the
	// decode path rejects; everything outside {0, 4, 6}, including the
	// simple-filter profiles 1-3, is rejected outright.
	switch hdr.Version {
	case 0:
	case 4, 6:
		hdr.Experimental = true
	default:
		return hdr, nil, errors.Wrapf(ErrUnsupported, "VP8 version %d", hdr.Version)
	}
	return hdr, data[3:], nil
}

// parsePictureHeader parses the 7-byte keyframe picture header (start code,
// dimensions, scale factors).
func parsePictureHeader(buf []byte) (hdr PictureHeader, rest []byte, err error) {
	if len(buf) < 7 {
		return hdr, nil, errors.Wrap(ErrTruncated, "picture header")
	}
	if buf[0] != 0x9d || buf[1] != 0x01 || buf[2] != 0x2a {
		return hdr, nil, errors.Wrap(ErrInvalid, "bad start code")
	}
	hdr.Width = int(binary.LittleEndian.Uint16(buf[3:5])) & 0x3fff
	hdr.XScale = buf[4] >> 6
	hdr.Height = int(binary.LittleEndian.Uint16(buf[5:7])) & 0x3fff
	hdr.YScale = buf[6] >> 6
	rest = buf[7:]

	if hdr.Width == 0 || hdr.Height == 0 {
		return hdr, nil, errors.Wrap(ErrInvalid, "zero dimensions")
	}
	if hdr.XScale != 0 || hdr.YScale != 0 {
		return hdr, nil, errors.Wrap(ErrUnsupported, "upscaling")
	}
	return hdr, rest, nil
}

// parseSegmentHeader reads the segment-based quantizer/filter override
// block from partition 0. Layout is identical for key- and interframes.
func parseSegmentHeader(br *BoolReader, hdr *SegmentHeader, proba *Proba) error {
	hdr.UseSegment = br.GetBit(0x80) != 0
	if hdr.UseSegment {
		hdr.UpdateMap = br.GetBit(0x80) != 0
		if br.GetBit(0x80) != 0 { // update_segment_feature_data
			hdr.AbsoluteDelta = br.GetBit(0x80) != 0
			for s := 0; s < NumMBSegments; s++ {
				if br.GetBit(0x80) != 0 {
					hdr.Quantizer[s] = int8(br.GetSignedValue(7))
				} else {
					hdr.Quantizer[s] = 0
				}
			}
			for s := 0; s < NumMBSegments; s++ {
				if br.GetBit(0x80) != 0 {
					hdr.FilterStrength[s] = int8(br.GetSignedValue(6))
				} else {
					hdr.FilterStrength[s] = 0
				}
			}
		}
		if hdr.UpdateMap {
			for s := 0; s < MBFeatureTreeProbs; s++ {
				if br.GetBit(0x80) != 0 {
					proba.Segments[s] = uint8(br.GetValue(8))
				} else {
					proba.Segments[s] = 255
				}
			}
		}
	} else {
		hdr.UpdateMap = false
	}
	if br.EOF() {
		return errors.Wrap(ErrTruncated, "segment header")
	}
	return nil
}

// parseFilterHeader reads the loop filter parameters from partition 0 and
// returns the resolved filter mode. A Simple-filter stream is rejected:
// Alfalfa's catalog only stores frames decoded with Normal or NoFilter, so a
// Simple header is a hard parse error rather than a silently-downgraded
// decode.
func parseFilterHeader(br *BoolReader, hdr *FilterHeader) (mode FilterMode, err error) {
	simple := br.GetBit(0x80) != 0
	hdr.Level = int(br.GetValue(6))
	hdr.Sharpness = int(br.GetValue(3))
	hdr.UseLFDelta = br.GetBit(0x80) != 0
	if hdr.UseLFDelta {
		if br.GetBit(0x80) != 0 { // update lf-deltas
			for i := 0; i < NumRefLFDeltas; i++ {
				if br.GetBit(0x80) != 0 {
					hdr.RefLFDelta[i] = int(br.GetSignedValue(6))
				}
			}
			for i := 0; i < NumModeLFDeltas; i++ {
				if br.GetBit(0x80) != 0 {
					hdr.ModeLFDelta[i] = int(br.GetSignedValue(6))
				}
			}
		}
	}

	switch {
	case hdr.Level == 0:
		mode = FilterNone
	case simple:
		return mode, errors.Wrap(ErrUnsupported, "simple loop filter")
	default:
		mode = FilterNormal
	}
	return mode, nil
}

// FilterMode selects which loop filter a frame was encoded to use.
type FilterMode int

const (
	FilterNone FilterMode = iota
	FilterNormal
)

// parsePartitions splits buf into the token/residue partitions described by
// partition 0's 2-bit log2(count) field followed by (count-1) 3-byte sizes.
func parsePartitions(headerBR *BoolReader, buf []byte) (parts [MaxNumPartitions]*BoolReader, numPartsMinusOne uint32, err error) {
	numPartsMinusOne = (1 << headerBR.GetValue(2)) - 1
	lastPart := int(numPartsMinusOne)

	if len(buf) < 3*lastPart {
		return parts, 0, errors.Wrap(ErrTruncated, "partition size table")
	}

	partStart := buf[lastPart*3:]
	sizeLeft := len(partStart)
	sz := buf

	for p := 0; p < lastPart; p++ {
		psize := int(sz[0]) | int(sz[1])<<8 | int(sz[2])<<16
		if psize > sizeLeft {
			return parts, 0, errors.Wrapf(ErrTruncated, "partition %d size %d exceeds remaining %d", p, psize, sizeLeft)
		}
		parts[p] = NewBoolReader(partStart[:psize])
		partStart = partStart[psize:]
		sizeLeft -= psize
		sz = sz[3:]
	}
	parts[lastPart] = NewBoolReader(partStart[:sizeLeft])
	return parts, numPartsMinusOne, nil
}

// parseInterRefHeader reads the interframe-only reference-buffer flags that
// follow the quantizer header on non-keyframes: golden/altref
// refresh-or-copy and sign bias. RefreshEntropyProbs and RefreshLast are
// parsed by the caller afterward, since the former is common to both frame
// types.
func parseInterRefHeader(br *BoolReader) InterHeader {
	var h InterHeader
	h.RefreshGolden = br.GetBit(0x80) != 0
	h.RefreshAlternate = br.GetBit(0x80) != 0
	if !h.RefreshGolden {
		h.CopyBufferToGolden = int(br.GetValue(2))
	}
	if !h.RefreshAlternate {
		h.CopyBufferToAlternate = int(br.GetValue(2))
	}
	h.SignBiasGolden = br.GetBit(0x80) != 0
	h.SignBiasAlternate = br.GetBit(0x80) != 0
	return h
}
