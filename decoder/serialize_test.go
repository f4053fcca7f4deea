package decoder

import "testing"

func TestDecoderStateSerializeRoundTrip(t *testing.T) {
	dec := NewDecoder(Options{})
	dec.picHdr.Width = 176
	dec.picHdr.Height = 144
	ResetProba(&dec.proba)
	dec.segHdr.UseSegment = true
	dec.segHdr.AbsoluteDelta = true
	dec.segHdr.Quantizer[0] = -12
	dec.segHdr.Quantizer[3] = 30
	dec.filterHdr.Level = 20
	dec.filterHdr.Sharpness = 3
	dec.filterHdr.UseLFDelta = true
	dec.filterHdr.RefLFDelta[1] = -5
	dec.filterHdr.ModeLFDelta[2] = 7

	want := dec.ExportState()
	got, err := DeserializeState(want.Serialize())
	if err != nil {
		t.Fatalf("DeserializeState: %v", err)
	}

	if got.Width != want.Width || got.Height != want.Height {
		t.Errorf("dims = %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	if got.SegHdr != want.SegHdr {
		t.Errorf("SegHdr = %+v, want %+v", got.SegHdr, want.SegHdr)
	}
	if got.FilterHdr != want.FilterHdr {
		t.Errorf("FilterHdr = %+v, want %+v", got.FilterHdr, want.FilterHdr)
	}
	if got.Hash() != want.Hash() {
		t.Errorf("Hash() = %016x, want %016x", got.Hash(), want.Hash())
	}
}

func TestDecoderStateHashMatchesLiveDecoderStateHash(t *testing.T) {
	dec := NewDecoder(Options{})
	ResetProba(&dec.proba)

	if got, want := dec.ExportState().Hash(), dec.StateHash(); got != want {
		t.Errorf("ExportState().Hash() = %016x, want StateHash() = %016x", got, want)
	}
}

func TestDeserializeStateTruncated(t *testing.T) {
	full := NewDecoder(Options{}).ExportState().Serialize()
	if _, err := DeserializeState(full[:len(full)-1]); err == nil {
		t.Fatal("expected error decoding truncated state")
	}
	if _, err := DeserializeState(nil); err == nil {
		t.Fatal("expected error decoding empty state")
	}
}

func TestImportStateRestoresMacroblockGrid(t *testing.T) {
	dec := NewDecoder(Options{})
	dec.ImportState(DecoderState{Width: 175, Height: 143})

	w, h := dec.MacroblockGrid()
	if w != 11 || h != 9 {
		t.Errorf("MacroblockGrid() = (%d,%d), want (11,9)", w, h)
	}
}
