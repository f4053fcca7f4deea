// Package encoder implements the minimal single-quantizer, intra-only VP8
// keyframe encoder used by xc-enc to manufacture fixture frames for the
// catalog and player tests in this repo. It does not implement rate
// control, trellis quantization search, or motion search: every
// macroblock is encoded as a skipped 16x16 DC-predicted intra block, so
// the reconstructed picture is the flat mid-gray VP8 produces when no
// residual and no usable neighbor samples are present.
package encoder

import (
	"github.com/pkg/errors"

	"github.com/deepteams/alfalfa/decoder"
	"github.com/deepteams/alfalfa/decoder/bitio"
)

// ErrUnsupported marks an encode request this package does not implement
// (anything other than a fixed quantizer index).
var ErrUnsupported = errors.New("encoder: unsupported option")

// skipProb is the per-macroblock mb_skip_coeff probability byte this
// encoder always emits: every macroblock is skipped, so the exact value
// only has to be self-consistent between the header field and the
// per-macroblock bit coded against it.
const skipProb = 1

// Options controls keyframe encoding.
type Options struct {
	Width, Height int
	YACQIndex     int // 0-127, RFC 6386 base_q0
}

// EncodeKeyframe produces one self-contained VP8 keyframe payload (the
// uncompressed tag, picture header, and compressed partitions) at the
// given quantizer index. Every macroblock is intra 16x16 DC-predicted and
// skipped, so the partition-0 bitstream alone determines the
// reconstruction; the token partition is present but empty.
func EncodeKeyframe(opts Options) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.Wrap(ErrUnsupported, "zero dimensions")
	}
	if opts.YACQIndex < 0 || opts.YACQIndex > 127 {
		return nil, errors.Wrapf(ErrUnsupported, "y-ac-qi %d out of range", opts.YACQIndex)
	}

	mbW := (opts.Width + 15) >> 4
	mbH := (opts.Height + 15) >> 4

	bw := bitio.NewBoolWriter(1024)

	// color_space = 0, clamping_type = 0 (the only values the decoder
	// accepts).
	bw.PutBit(0, 0x80)
	bw.PutBit(0, 0x80)

	// segmentation_enabled = 0
	bw.PutBit(0, 0x80)
	// filter_type = 0 (normal), loop_filter_level = 0 (disabled),
	// sharpness = 0, no lf-delta update.
	bw.PutBitUniform(0)
	bw.PutBits(0, 6)
	bw.PutBits(0, 3)
	bw.PutBit(0, 0x80)

	// log2_nbr_of_DCT_partitions = 0: exactly one token partition.
	bw.PutBits(0, 2)

	// Quantizer header: base_q0, then five "no delta" flags.
	bw.PutBits(uint32(opts.YACQIndex), 7)
	for i := 0; i < 5; i++ {
		bw.PutBit(0, 0x80)
	}

	// refresh_entropy_probs = 0: this keyframe's (default) probabilities
	// do not persist past itself.
	bw.PutBit(0, 0x80)

	writeDefaultCoeffProbaUpdates(bw)

	// mb_no_skip_coeff = 1, with the per-macroblock skip probability
	// byte set to skipProb so every macroblock's skip bit below is
	// coded against that same value.
	bw.PutBit(1, 0x80)
	bw.PutBits(skipProb, 8)

	for i := 0; i < mbW*mbH; i++ {
		writeSkippedDCMacroblock(bw)
	}

	partition0 := bw.Finish()

	tokenBW := bitio.NewBoolWriter(16)
	tokenPartition := tokenBW.Finish()

	return assembleKeyframe(opts.Width, opts.Height, partition0, tokenPartition), nil
}

// writeDefaultCoeffProbaUpdates writes the "no update" flag for every
// coefficient probability context, so the decoder keeps RFC 6386's
// default table for this frame (the same table ResetProba installs).
func writeDefaultCoeffProbaUpdates(bw *bitio.BoolWriter) {
	for t := 0; t < decoder.NumTypes; t++ {
		for b := 0; b < decoder.NumBands; b++ {
			for c := 0; c < decoder.NumCTX; c++ {
				for p := 0; p < decoder.NumProbas; p++ {
					bw.PutBit(0, int(decoder.CoeffsUpdateProba[t][b][c][p]))
				}
			}
		}
	}
}

// writeSkippedDCMacroblock writes one macroblock's mode data matching
// parseKeyFrameIntraMode's bit layout for a 16x16 DC_PRED, DC_PRED-chroma,
// skipped macroblock: no segment-id bits (segmentation is disabled), the
// skip flag, "not i4x4", the luma mode tree's DC branch, and the chroma
// mode tree's DC branch.
func writeSkippedDCMacroblock(bw *bitio.BoolWriter) {
	// skip = true, coded against skipProb (matching the header's
	// mb_skip_coeff probability byte, not a fixed literal).
	bw.PutBit(1, skipProb)
	bw.PutBit(1, 145)  // is_i4x4 = false (16x16 whole-block mode)
	bw.PutBit(0, 156)  // ymode low branch
	bw.PutBit(0, 163)  // -> DC_PRED
	bw.PutBit(0, 142)  // uvmode -> DC_PRED
}

// assembleKeyframe builds the full uncompressed-tag + picture-header +
// partitions byte stream around an already-encoded partition 0 and a
// (possibly empty) token partition.
func assembleKeyframe(width, height int, partition0, tokenPartition []byte) []byte {
	pictureHeader := []byte{
		0x9d, 0x01, 0x2a,
		byte(width & 0xff), byte((width >> 8) & 0x3f),
		byte(height & 0xff), byte((height >> 8) & 0x3f),
	}

	body := make([]byte, 0, len(pictureHeader)+len(partition0)+len(tokenPartition))
	body = append(body, pictureHeader...)
	body = append(body, partition0...)
	body = append(body, tokenPartition...)

	tagBits := uint32(0) // key_frame=0 (0 means keyframe per the 3-byte tag's inverted bit)
	tagBits |= 0 << 1    // version/profile = 0
	tagBits |= 1 << 4    // show_frame = 1
	tagBits |= uint32(len(partition0)) << 5

	tag := []byte{
		byte(tagBits & 0xff),
		byte((tagBits >> 8) & 0xff),
		byte((tagBits >> 16) & 0xff),
	}

	out := make([]byte, 0, len(tag)+len(body))
	out = append(out, tag...)
	out = append(out, body...)
	return out
}
