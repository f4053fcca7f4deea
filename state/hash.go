// Package state implements Alfalfa's explicit-state naming scheme: frame
// names of the form source#target, decoder-state hashing, and dependency
// tracking that builds a frame's source hash from the references it
// actually touched while decoding.
package state

import (
	"fmt"
	"strconv"
	"strings"
)

// DecoderHash is a compact identifier of a decoder's observable state: the
// persistent entropy/segmentation/filter state hash plus the three
// reference picture hashes.
type DecoderHash struct {
	State  uint64
	Last   uint64
	Golden uint64
	Alt    uint64
}

// String renders the hash as four dash-joined hex fields, the form
// ParseDecoderHash reads back.
func (h DecoderHash) String() string {
	return fmt.Sprintf("%016x-%016x-%016x-%016x", h.State, h.Last, h.Golden, h.Alt)
}

// ParseDecoderHash parses the dash-joined hex form String produces.
func ParseDecoderHash(s string) (DecoderHash, error) {
	fields := strings.Split(s, "-")
	if len(fields) != 4 {
		return DecoderHash{}, fmt.Errorf("state: decoder hash has %d fields, want 4", len(fields))
	}
	vals := make([]uint64, 4)
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 64)
		if err != nil {
			return DecoderHash{}, fmt.Errorf("state: decoder hash field %d: %w", i, err)
		}
		vals[i] = v
	}
	return DecoderHash{State: vals[0], Last: vals[1], Golden: vals[2], Alt: vals[3]}, nil
}

// CanDecode reports whether a decoder with hash h can decode a frame whose
// source is src: every present component of src must equal the
// corresponding component of h. Absent components are wildcards.
func (h DecoderHash) CanDecode(src Source) bool {
	if src.State != nil && *src.State != h.State {
		return false
	}
	if src.Last != nil && *src.Last != h.Last {
		return false
	}
	if src.Golden != nil && *src.Golden != h.Golden {
		return false
	}
	if src.Alt != nil && *src.Alt != h.Alt {
		return false
	}
	return true
}

// Update returns the decoder hash that results from applying target to h:
// first the copy transitions (last->alt, golden->alt, last->golden,
// alt->golden) as present, then the update_* flags overwrite with the
// frame's output hash. The copies apply sequentially, so a later copy
// reads the result of an earlier one: alt->golden after last->alt yields
// golden = last, matching the decoder's reference update order.
func (h DecoderHash) Update(t Target) DecoderHash {
	out := h
	if t.LastToAlt {
		out.Alt = out.Last
	}
	if t.GoldenToAlt {
		out.Alt = out.Golden
	}
	if t.LastToGolden {
		out.Golden = out.Last
	}
	if t.AltToGolden {
		out.Golden = out.Alt
	}
	out.State = t.State
	if t.UpdateLast {
		out.Last = t.Output
	}
	if t.UpdateGolden {
		out.Golden = t.Output
	}
	if t.UpdateAlt {
		out.Alt = t.Output
	}
	return out
}
