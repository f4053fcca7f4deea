package decoder

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/pkg/errors"
)

// DecoderState is the full persistent, non-raster decoder state:
// dimensions plus every entropy/segmentation/filter table that
// survives from one frame to the next. It is what xc-dump extracts and
// xc-diff compares; importing a DecoderState into a fresh Decoder and
// continuing decode must reach the same raster-hash sequence as decoding
// the same bytes from scratch.
type DecoderState struct {
	Width, Height int
	Proba         Proba
	SegHdr        SegmentHeader
	FilterHdr     FilterHeader

	// SegmentMap is the persistent macroblock-to-segment assignment, one
	// byte per macroblock in raster order (all zero when the stream never
	// updated it).
	SegmentMap []uint8
}

// ExportState snapshots dec's persistent state, typically called right
// after a successful Decode.
func (dec *Decoder) ExportState() DecoderState {
	return DecoderState{
		Width:      dec.picHdr.Width,
		Height:     dec.picHdr.Height,
		Proba:      dec.proba,
		SegHdr:     dec.segHdr,
		FilterHdr:  dec.filterHdr,
		SegmentMap: append([]uint8(nil), dec.segMap...),
	}
}

// ImportState primes dec with a previously exported state so that the next
// Decode call (necessarily an interframe, since only interframes carry
// state forward) behaves as if dec had just finished decoding the frame s
// was captured from.
func (dec *Decoder) ImportState(s DecoderState) {
	dec.picHdr.Width = s.Width
	dec.picHdr.Height = s.Height
	dec.mbW = (s.Width + 15) >> 4
	dec.mbH = (s.Height + 15) >> 4
	dec.proba = s.Proba
	dec.segHdr = s.SegHdr
	dec.filterHdr = s.FilterHdr
	dec.segMap = append([]uint8(nil), s.SegmentMap...)
}

// Hash returns the same persistent-state content hash as Decoder.StateHash,
// computed directly from the snapshot instead of a live decoder. Used by
// xc-diff and xc-dump to report the hash of a loaded or exported state.
func (s DecoderState) Hash() uint64 {
	h := fnv.New64a()
	hashState(h, s.Width, s.Height, &s.Proba, &s.SegHdr, &s.FilterHdr, s.SegmentMap)
	return h.Sum64()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Serialize encodes s as a fixed-layout binary record: dimensions, every
// coefficient-probability band, segment-tree probabilities, the interframe
// mode-tree and motion-vector probabilities, the segment header's
// quantizer/filter deltas, and the filter header's level, sharpness, and
// ref/mode lf-deltas. This is the ".state" file format xc-dump and
// xc-terminate-chunk write and xc-diff reads.
func (s DecoderState) Serialize() []byte {
	buf := make([]byte, 0, 4096)
	var tmp [4]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}

	putU32(uint32(s.Width))
	putU32(uint32(s.Height))

	for t := 0; t < NumTypes; t++ {
		for b := 0; b < NumBands; b++ {
			for c := 0; c < NumCTX; c++ {
				buf = append(buf, s.Proba.Bands[t][b].Probas[c][:]...)
			}
		}
	}
	buf = append(buf, s.Proba.Segments[:]...)
	buf = append(buf, s.Proba.YMode[:]...)
	buf = append(buf, s.Proba.UVMode[:]...)
	for c := range s.Proba.MVContexts {
		ctx := &s.Proba.MVContexts[c]
		buf = append(buf, ctx.IsShort, ctx.Sign)
		buf = append(buf, ctx.Short[:]...)
		buf = append(buf, ctx.Bits[:]...)
	}

	buf = append(buf, boolByte(s.SegHdr.UseSegment), boolByte(s.SegHdr.AbsoluteDelta))
	for i := 0; i < NumMBSegments; i++ {
		buf = append(buf, byte(s.SegHdr.Quantizer[i]))
	}
	for i := 0; i < NumMBSegments; i++ {
		buf = append(buf, byte(s.SegHdr.FilterStrength[i]))
	}

	putU32(uint32(s.FilterHdr.Level))
	putU32(uint32(s.FilterHdr.Sharpness))
	buf = append(buf, boolByte(s.FilterHdr.UseLFDelta))
	for i := 0; i < NumRefLFDeltas; i++ {
		buf = append(buf, byte(int8(s.FilterHdr.RefLFDelta[i])))
	}
	for i := 0; i < NumModeLFDeltas; i++ {
		buf = append(buf, byte(int8(s.FilterHdr.ModeLFDelta[i])))
	}

	putU32(uint32(len(s.SegmentMap)))
	buf = append(buf, s.SegmentMap...)

	return buf
}

// DeserializeState parses the record Serialize produces.
func DeserializeState(data []byte) (DecoderState, error) {
	var s DecoderState
	r := data

	readU32 := func() (uint32, error) {
		if len(r) < 4 {
			return 0, errors.Wrap(ErrInvalid, "truncated decoder state")
		}
		v := binary.LittleEndian.Uint32(r[:4])
		r = r[4:]
		return v, nil
	}

	w, err := readU32()
	if err != nil {
		return s, err
	}
	h, err := readU32()
	if err != nil {
		return s, err
	}
	s.Width, s.Height = int(w), int(h)

	for t := 0; t < NumTypes; t++ {
		for b := 0; b < NumBands; b++ {
			for c := 0; c < NumCTX; c++ {
				if len(r) < NumProbas {
					return s, errors.Wrap(ErrInvalid, "truncated decoder state probas")
				}
				copy(s.Proba.Bands[t][b].Probas[c][:], r[:NumProbas])
				r = r[NumProbas:]
			}
		}
		for b := 0; b < 16+1; b++ {
			s.Proba.BandsPtr[t][b] = &s.Proba.Bands[t][KBands[b]]
		}
	}
	if len(r) < MBFeatureTreeProbs {
		return s, errors.Wrap(ErrInvalid, "truncated decoder state segments")
	}
	copy(s.Proba.Segments[:], r[:MBFeatureTreeProbs])
	r = r[MBFeatureTreeProbs:]

	if len(r) < len(s.Proba.YMode)+len(s.Proba.UVMode)+2*19 {
		return s, errors.Wrap(ErrInvalid, "truncated decoder state mode probas")
	}
	copy(s.Proba.YMode[:], r[:len(s.Proba.YMode)])
	r = r[len(s.Proba.YMode):]
	copy(s.Proba.UVMode[:], r[:len(s.Proba.UVMode)])
	r = r[len(s.Proba.UVMode):]
	for c := range s.Proba.MVContexts {
		ctx := &s.Proba.MVContexts[c]
		ctx.IsShort, ctx.Sign = r[0], r[1]
		r = r[2:]
		copy(ctx.Short[:], r[:len(ctx.Short)])
		r = r[len(ctx.Short):]
		copy(ctx.Bits[:], r[:len(ctx.Bits)])
		r = r[len(ctx.Bits):]
	}

	if len(r) < 2+2*NumMBSegments {
		return s, errors.Wrap(ErrInvalid, "truncated decoder state segment header")
	}
	s.SegHdr.UseSegment = r[0] != 0
	s.SegHdr.AbsoluteDelta = r[1] != 0
	r = r[2:]
	for i := 0; i < NumMBSegments; i++ {
		s.SegHdr.Quantizer[i] = int8(r[i])
	}
	r = r[NumMBSegments:]
	for i := 0; i < NumMBSegments; i++ {
		s.SegHdr.FilterStrength[i] = int8(r[i])
	}
	r = r[NumMBSegments:]

	level, err := readU32()
	if err != nil {
		return s, err
	}
	sharp, err := readU32()
	if err != nil {
		return s, err
	}
	s.FilterHdr.Level = int(level)
	s.FilterHdr.Sharpness = int(sharp)

	if len(r) < 1+NumRefLFDeltas+NumModeLFDeltas {
		return s, errors.Wrap(ErrInvalid, "truncated decoder state filter header")
	}
	s.FilterHdr.UseLFDelta = r[0] != 0
	r = r[1:]
	for i := 0; i < NumRefLFDeltas; i++ {
		s.FilterHdr.RefLFDelta[i] = int(int8(r[i]))
	}
	r = r[NumRefLFDeltas:]
	for i := 0; i < NumModeLFDeltas; i++ {
		s.FilterHdr.ModeLFDelta[i] = int(int8(r[i]))
	}
	r = r[NumModeLFDeltas:]

	mapLen, err := readU32()
	if err != nil {
		return s, err
	}
	if uint32(len(r)) < mapLen {
		return s, errors.Wrap(ErrInvalid, "truncated decoder state segment map")
	}
	s.SegmentMap = append([]uint8(nil), r[:mapLen]...)

	return s, nil
}
