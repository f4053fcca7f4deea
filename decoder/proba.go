package decoder

// BandProbas holds one coefficient-probability-band's three context rows of
// eleven tree probabilities each (RFC 6386 section 13.2).
type BandProbas struct {
	Probas [NumCTX][NumProbas]uint8
}

// Proba holds all adaptive probabilities carried across a frame's token
// partition, plus the tree probabilities used for segment-id assignment.
// A keyframe resets it to the RFC 6386 defaults; an interframe starts from
// the carried-forward values, applies its own header updates, and keeps
// them past the frame only if it set refresh_entropy_probs.
type Proba struct {
	Bands    [NumTypes][NumBands]BandProbas
	BandsPtr [NumTypes][16 + 1]*BandProbas
	Segments [MBFeatureTreeProbs]uint8

	// Interframe mode and motion-vector probabilities. Like the
	// coefficient bands these persist across frames only when
	// refresh_entropy_probs is set; a keyframe resets them.
	YMode      [4]uint8
	UVMode     [3]uint8
	MVContexts [2]MVContext
}

// ResetProba restores p to the bitstream's default coefficient
// probabilities and clears segment-tree probabilities to "always segment 0".
func ResetProba(p *Proba) {
	for t := 0; t < NumTypes; t++ {
		for b := 0; b < NumBands; b++ {
			p.Bands[t][b].Probas = CoeffsProba0[t][b]
		}
		for b := 0; b < 16+1; b++ {
			p.BandsPtr[t][b] = &p.Bands[t][KBands[b]]
		}
	}
	for s := range p.Segments {
		p.Segments[s] = 255
	}
	p.YMode = kDefaultYModeProba
	p.UVMode = kDefaultUVModeProba
	p.MVContexts = kDefaultMVContexts
}

// parseCoeffProba reads the per-frame coefficient-probability update pass
// (RFC 6386 section 13.4) from the header partition and rebuilds BandsPtr.
func parseCoeffProba(br *BoolReader, p *Proba) {
	for t := 0; t < NumTypes; t++ {
		for b := 0; b < NumBands; b++ {
			for c := 0; c < NumCTX; c++ {
				for pp := 0; pp < NumProbas; pp++ {
					if br.GetBit(CoeffsUpdateProba[t][b][c][pp]) != 0 {
						p.Bands[t][b].Probas[c][pp] = uint8(br.GetValue(8))
					}
				}
			}
		}
		for b := 0; b < 16+1; b++ {
			p.BandsPtr[t][b] = &p.Bands[t][KBands[b]]
		}
	}
}
