package decoder

// NumTokenPartitions returns the number of DCT token partitions the most
// recently decoded frame was split into (1 << log2_dct_partitions).
// Exported for diagnostic tools (xc-dissect) that report per-frame
// bitstream structure without duplicating header-parsing logic.
func (dec *Decoder) NumTokenPartitions() int {
	return int(dec.numPartsMinusOne) + 1
}

// MacroblockGrid returns the most recently decoded frame's macroblock grid
// dimensions (ceil(width/16) x ceil(height/16)).
func (dec *Decoder) MacroblockGrid() (w, h int) {
	return dec.mbW, dec.mbH
}

// FilterMode returns the loop filter mode selected by the most recently
// decoded frame's header.
func (dec *Decoder) FilterMode() FilterMode {
	return dec.filterMode
}

// FilterLevel returns the most recently decoded frame's base loop filter
// level and sharpness.
func (dec *Decoder) FilterLevel() (level, sharpness int) {
	return dec.filterHdr.Level, dec.filterHdr.Sharpness
}

// UsesSegmentation reports whether the most recently decoded frame enabled
// per-macroblock segmentation.
func (dec *Decoder) UsesSegmentation() bool {
	return dec.segHdr.UseSegment
}
