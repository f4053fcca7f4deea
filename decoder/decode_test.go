package decoder_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/deepteams/alfalfa/decoder"
	"github.com/deepteams/alfalfa/encoder"
	"github.com/deepteams/alfalfa/state"
)

func encodeFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	data, err := encoder.EncodeKeyframe(encoder.Options{Width: w, Height: h, YACQIndex: 40})
	if err != nil {
		t.Fatalf("EncodeKeyframe: %v", err)
	}
	return data
}

func TestDecodeKeyframeUniform(t *testing.T) {
	data := encodeFixture(t, 48, 32)

	dec := decoder.NewDecoder(decoder.Options{})
	frame, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !frame.KeyFrame || !frame.Shown {
		t.Fatalf("KeyFrame=%v Shown=%v, want both true", frame.KeyFrame, frame.Shown)
	}
	if frame.Width != 48 || frame.Height != 32 {
		t.Fatalf("dimensions = %dx%d, want 48x32", frame.Width, frame.Height)
	}

	// DC prediction with no usable neighbors and no residual: every plane
	// must come out flat at 128.
	for y := 0; y < frame.Height; y++ {
		row := frame.Y[y*frame.YStride : y*frame.YStride+frame.Width]
		for x, v := range row {
			if v != 128 {
				t.Fatalf("Y[%d,%d] = %d, want 128", x, y, v)
			}
		}
	}
	for y := 0; y < (frame.Height+1)/2; y++ {
		row := frame.U[y*frame.UVStride : y*frame.UVStride+(frame.Width+1)/2]
		for x, v := range row {
			if v != 128 {
				t.Fatalf("U[%d,%d] = %d, want 128", x, y, v)
			}
		}
	}
}

func TestDecodeDeterministic(t *testing.T) {
	data := encodeFixture(t, 32, 32)

	a := decoder.NewDecoder(decoder.Options{})
	b := decoder.NewDecoder(decoder.Options{})
	fa, err := a.Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := b.Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(fa.Y, fb.Y) || !bytes.Equal(fa.U, fb.U) || !bytes.Equal(fa.V, fb.V) {
		t.Fatal("two decoders over identical bytes produced different rasters")
	}
	if a.StateHash() != b.StateHash() {
		t.Fatalf("state hashes differ: %016x vs %016x", a.StateHash(), b.StateHash())
	}
}

func TestDecodeKeyframeUpdatesAllReferences(t *testing.T) {
	data := encodeFixture(t, 32, 32)

	dec := decoder.NewDecoder(decoder.Options{})
	refs := &decoder.References{}
	if _, err := dec.Decode(data, refs); err != nil {
		t.Fatal(err)
	}
	if refs.Last == nil || refs.Golden == nil || refs.Alt == nil {
		t.Fatalf("keyframe left references unset: %+v", refs)
	}
	if refs.Last != refs.Golden || refs.Last != refs.Alt {
		t.Fatal("keyframe must refresh all three references with the same picture")
	}
}

func TestDecodeNonShownFrame(t *testing.T) {
	data := encodeFixture(t, 32, 32)
	data = append([]byte(nil), data...)
	data[0] &^= 0x10 // clear show_frame

	dec := decoder.NewDecoder(decoder.Options{})
	frame, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode of non-shown frame: %v", err)
	}
	if frame.Shown {
		t.Fatal("expected Shown=false")
	}
}

func TestDecodeRejectsBadStartCode(t *testing.T) {
	data := encodeFixture(t, 32, 32)
	data = append([]byte(nil), data...)
	data[3] = 0x00 // clobber the 9D 01 2A start code

	dec := decoder.NewDecoder(decoder.Options{})
	if _, err := dec.Decode(data, nil); !errors.Is(err, decoder.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	data := encodeFixture(t, 32, 32)
	data = append([]byte(nil), data...)
	data[0] |= 1 << 1 // version 1: simple-filter profile, unsupported

	dec := decoder.NewDecoder(decoder.Options{})
	if _, err := dec.Decode(data, nil); !errors.Is(err, decoder.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestDecodeTruncatedWithoutConcealment(t *testing.T) {
	data := encodeFixture(t, 32, 32)

	dec := decoder.NewDecoder(decoder.Options{})
	if _, err := dec.Decode(data[:8], nil); !errors.Is(err, decoder.ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeConcealsMissingTokenPartition(t *testing.T) {
	data := encodeFixture(t, 32, 32)

	// Drop the trailing token partition entirely; partition 0 (ending at
	// the declared first-partition length, after the 10-byte keyframe
	// prefix) stays intact.
	tagBits := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	cut := data[:10+int(tagBits>>5)]

	strict := decoder.NewDecoder(decoder.Options{})
	if _, err := strict.Decode(cut, nil); !errors.Is(err, decoder.ErrTruncated) {
		t.Fatalf("strict decode err = %v, want ErrTruncated", err)
	}

	lenient := decoder.NewDecoder(decoder.Options{Concealment: true})
	frame, err := lenient.Decode(cut, nil)
	if err != nil {
		t.Fatalf("concealed decode: %v", err)
	}
	if frame.Width != 32 || frame.Height != 32 {
		t.Fatalf("concealed frame dimensions = %dx%d", frame.Width, frame.Height)
	}
}

func TestImportedStateMatchesLiveState(t *testing.T) {
	data := encodeFixture(t, 32, 32)

	live := decoder.NewDecoder(decoder.Options{})
	if _, err := live.Decode(data, nil); err != nil {
		t.Fatal(err)
	}

	resumed := decoder.NewDecoder(decoder.Options{})
	resumed.ImportState(live.ExportState())
	if resumed.StateHash() != live.StateHash() {
		t.Fatalf("imported state hash %016x != live %016x", resumed.StateHash(), live.StateHash())
	}
}

func TestDecodeRejectsExperimentalKeyframe(t *testing.T) {
	for _, version := range []uint8{4, 6} {
		data := encodeFixture(t, 32, 32)
		data = append([]byte(nil), data...)
		data[0] |= version << 1

		dec := decoder.NewDecoder(decoder.Options{})
		if _, err := dec.Decode(data, nil); !errors.Is(err, decoder.ErrInvalid) {
			t.Fatalf("version %d keyframe: err = %v, want ErrInvalid", version, err)
		}
	}
}

func TestDecodeRejectsExperimentalInterframe(t *testing.T) {
	// A bare interframe tag (low bit set) carrying the experimental
	// version; rejection must come before any reference-set handling.
	tag := []byte{1 | 4<<1 | 1<<4, 0, 0}

	dec := decoder.NewDecoder(decoder.Options{})
	if _, err := dec.Decode(tag, nil); !errors.Is(err, decoder.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestKeyframeNameAndHash(t *testing.T) {
	data := encodeFixture(t, 32, 32)

	dec := decoder.NewDecoder(decoder.Options{})
	refs := decoder.NewReferences(32, 32)
	before := dec.GetHash(refs)
	if before.Last != before.Golden || before.Last != before.Alt {
		t.Fatal("fresh reference slots must share one blank picture")
	}

	frame, err := dec.Decode(data, refs)
	if err != nil {
		t.Fatal(err)
	}

	name := dec.FrameName(before)
	if !name.IsKeyFrame() {
		t.Fatalf("keyframe name %s carries a source dependency", name)
	}
	if !name.Target.UpdateLast || !name.Target.UpdateGolden || !name.Target.UpdateAlt {
		t.Fatalf("keyframe target must refresh all references: %s", name)
	}
	if name.Target.Shown != frame.Shown {
		t.Fatalf("Shown = %v, want %v", name.Target.Shown, frame.Shown)
	}

	// The predicted hash update must agree with the decoder's observed
	// hash after the decode.
	after := dec.GetHash(refs)
	if got := before.Update(name.Target); got != after {
		t.Fatalf("Update(target) = %s, want %s", got, after)
	}
	if !after.CanDecode(name.Source) {
		// A keyframe's empty source matches any decoder.
		t.Fatal("empty source must match any decoder hash")
	}

	roundtrip, err := state.ParseName(name.String())
	if err != nil {
		t.Fatalf("ParseName(%s): %v", name, err)
	}
	if roundtrip.String() != name.String() {
		t.Fatalf("name roundtrip mismatch: %s != %s", roundtrip, name)
	}
}

func TestReferencesUpdateSequentialCopies(t *testing.T) {
	last := &decoder.Reference{Width: 1}
	golden := &decoder.Reference{Width: 2}
	alt := &decoder.Reference{Width: 3}

	// alt := last runs before golden := alt, so golden observes the
	// freshly copied alt (= last), not the original one.
	refs := &decoder.References{Last: last, Golden: golden, Alt: alt}
	refs.Update(decoder.InterHeader{CopyBufferToAlternate: 1, CopyBufferToGolden: 2}, nil)
	if refs.Alt != last {
		t.Fatalf("Alt = %+v, want last", refs.Alt)
	}
	if refs.Golden != last {
		t.Fatalf("Golden = %+v, want last (via the updated alt)", refs.Golden)
	}

	// Copies happen before refreshes; a refresh overwrites the copy.
	decoded := &decoder.Reference{Width: 4}
	refs = &decoder.References{Last: last, Golden: golden, Alt: alt}
	refs.Update(decoder.InterHeader{CopyBufferToGolden: 1, RefreshGolden: true, RefreshLast: true}, decoded)
	if refs.Golden != decoded || refs.Last != decoded {
		t.Fatalf("refresh must win over copy: golden=%+v last=%+v", refs.Golden, refs.Last)
	}
	if refs.Alt != alt {
		t.Fatalf("Alt = %+v, want untouched", refs.Alt)
	}
}
