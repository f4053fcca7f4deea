package decoder

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// hashProba feeds every persistent probability table (coefficient bands,
// segment tree, interframe mode trees, and motion-vector contexts) into h
// in a fixed order.
func hashProba(h hash.Hash64, p *Proba) {
	for t := 0; t < NumTypes; t++ {
		for b := 0; b < NumBands; b++ {
			for c := 0; c < NumCTX; c++ {
				h.Write(p.Bands[t][b].Probas[c][:])
			}
		}
	}
	h.Write(p.Segments[:])
	h.Write(p.YMode[:])
	h.Write(p.UVMode[:])
	for c := range p.MVContexts {
		ctx := &p.MVContexts[c]
		h.Write([]byte{ctx.IsShort, ctx.Sign})
		h.Write(ctx.Short[:])
		h.Write(ctx.Bits[:])
	}
}

// hashState feeds every persistent decoder state field (dimensions,
// probability tables, segmentation (header and macroblock map), and filter
// adjustments) into h in a fixed order shared by Decoder.StateHash and
// DecoderState.Hash.
func hashState(h hash.Hash64, width, height int, p *Proba, seg *SegmentHeader, f *FilterHeader, segMap []uint8) {
	var tmp [8]byte
	binary.LittleEndian.PutUint32(tmp[0:4], uint32(width))
	binary.LittleEndian.PutUint32(tmp[4:8], uint32(height))
	h.Write(tmp[:])

	hashProba(h, p)

	h.Write([]byte{boolByte(seg.UseSegment), boolByte(seg.AbsoluteDelta)})
	for i := 0; i < NumMBSegments; i++ {
		h.Write([]byte{byte(seg.Quantizer[i]), byte(seg.FilterStrength[i])})
	}

	h.Write([]byte{byte(f.Level), byte(f.Sharpness), boolByte(f.UseLFDelta)})
	for i := 0; i < NumRefLFDeltas; i++ {
		h.Write([]byte{byte(int8(f.RefLFDelta[i]))})
	}
	for i := 0; i < NumModeLFDeltas; i++ {
		h.Write([]byte{byte(int8(f.ModeLFDelta[i]))})
	}

	h.Write(segMap)
}

// StateHash returns a stable content hash of the decoder's persistent
// state: the entropy tables carried across frames, the segmentation header
// and macroblock map, and the filter adjustments. It is exported for
// callers outside this package, such as xc-dissect, that report the state
// hash of a live decoder.
func (dec *Decoder) StateHash() uint64 {
	h := fnv.New64a()
	hashState(h, dec.picHdr.Width, dec.picHdr.Height, &dec.proba, &dec.segHdr, &dec.filterHdr, dec.segMap)
	return h.Sum64()
}
