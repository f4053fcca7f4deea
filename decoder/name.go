package decoder

import (
	"hash/fnv"

	"github.com/deepteams/alfalfa/state"
)

// Hash returns the reference picture's 64-bit content hash, computed once
// on first use. References are immutable after the decode that produced
// them, so the cache never goes stale.
func (r *Reference) Hash() uint64 {
	if r == nil {
		return 0
	}
	if !r.hashDone {
		h := fnv.New64a()
		h.Write(r.Y)
		h.Write(r.U)
		h.Write(r.V)
		r.contentHash = h.Sum64()
		r.hashDone = true
	}
	return r.contentHash
}

// NewReferences returns a reference set whose three slots share one blank
// picture (Y=0, U=V=128), the state every decoder starts from.
func NewReferences(w, h int) *References {
	mbw := (w + 15) >> 4
	yStride := mbw * 16
	uvStride := mbw * 8
	uvH := (h + 1) / 2
	blank := &Reference{
		Y: make([]byte, h*yStride),
		U: make([]byte, uvH*uvStride),
		V: make([]byte, uvH*uvStride),
		YStride: yStride, UVStride: uvStride,
		Width: w, Height: h,
	}
	for i := range blank.U {
		blank.U[i] = 128
	}
	for i := range blank.V {
		blank.V[i] = 128
	}
	return &References{Last: blank, Golden: blank, Alt: blank}
}

// GetHash returns the compact identifier of the decoder's observable state:
// its persistent state hash plus the content hashes of refs' three slots.
// O(1) except for the first hash of a freshly decoded reference.
func (dec *Decoder) GetHash(refs *References) state.DecoderHash {
	dh := state.DecoderHash{State: dec.StateHash()}
	if refs != nil {
		dh.Last = refs.Last.Hash()
		dh.Golden = refs.Golden.Hash()
		dh.Alt = refs.Alt.Hash()
	}
	return dh
}

// FrameName builds the explicit-state name of the most recently decoded
// frame: the source from the dependencies the decode actually touched
// (keyframes touch nothing; interframes touch the persistent state plus
// whichever reference slots their macroblocks predicted from), the target
// from the decode's observed effects on state and references.
func (dec *Decoder) FrameName(before state.DecoderHash) state.Name {
	tracker := state.NewDependencyTracker(before)
	if !dec.frmHdr.KeyFrame {
		tracker.TouchState()
		for ref, touched := range dec.touched {
			if touched {
				tracker.TouchReference(uint8(ref))
			}
		}
	}

	return state.Name{
		Source: tracker.Source(),
		Target: state.Target{
			State:        dec.StateHash(),
			Output:       dec.lastOut.Hash(),
			Shown:        dec.frmHdr.Show,
			UpdateLast:   dec.interHdr.RefreshLast,
			UpdateGolden: dec.interHdr.RefreshGolden,
			UpdateAlt:    dec.interHdr.RefreshAlternate,
			LastToGolden: dec.interHdr.CopyBufferToGolden == 1,
			AltToGolden:  dec.interHdr.CopyBufferToGolden == 2,
			LastToAlt:    dec.interHdr.CopyBufferToAlternate == 1,
			GoldenToAlt:  dec.interHdr.CopyBufferToAlternate == 2,
		},
	}
}
