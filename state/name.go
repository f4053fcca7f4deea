package state

import (
	"fmt"
	"strconv"
	"strings"
)

// Source names the decoder-state components a frame depends on. A nil
// field means "I do not depend on this component" (a wildcard on decode).
type Source struct {
	State  *uint64
	Last   *uint64
	Golden *uint64
	Alt    *uint64
}

// Target names how a frame's decode mutates the reference set and what
// output it produces.
type Target struct {
	State  uint64
	Output uint64
	Shown  bool

	UpdateLast   bool
	UpdateGolden bool
	UpdateAlt    bool

	LastToGolden bool
	LastToAlt    bool
	GoldenToAlt  bool
	AltToGolden  bool
}

// Name is a frame's explicit-state identifier: source#target.
type Name struct {
	Source Source
	Target Target
}

func formatOptional(v *uint64) string {
	if v == nil {
		return "x"
	}
	return strconv.FormatUint(*v, 16)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// IsKeyFrame reports whether n names a keyframe: a frame with no source
// dependency at all, since a VP8 keyframe resets entropy/segmentation
// state unconditionally and never reads the prior decoder's references.
func (n Name) IsKeyFrame() bool {
	return n.Source.State == nil && n.Source.Last == nil && n.Source.Golden == nil && n.Source.Alt == nil
}

// String renders n in the s_l_g_a#state_output_shown_updL_updG_updA_lg_la_gA_aG
// grammar.
func (n Name) String() string {
	src := strings.Join([]string{
		formatOptional(n.Source.State),
		formatOptional(n.Source.Last),
		formatOptional(n.Source.Golden),
		formatOptional(n.Source.Alt),
	}, "_")

	tgt := strings.Join([]string{
		strconv.FormatUint(n.Target.State, 16),
		strconv.FormatUint(n.Target.Output, 16),
		formatBool(n.Target.Shown),
		formatBool(n.Target.UpdateLast),
		formatBool(n.Target.UpdateGolden),
		formatBool(n.Target.UpdateAlt),
		formatBool(n.Target.LastToGolden),
		formatBool(n.Target.LastToAlt),
		formatBool(n.Target.GoldenToAlt),
		formatBool(n.Target.AltToGolden),
	}, "_")

	return src + "#" + tgt
}

func parseOptional(s string) (*uint64, error) {
	if s == "x" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("state: bad bool field %q", s)
	}
}

// ParseName parses the source#target string form back into a Name. Parsing
// is lossless: ParseName(n.String()) reproduces n field-for-field.
func ParseName(s string) (Name, error) {
	var n Name

	parts := strings.SplitN(s, "#", 2)
	if len(parts) != 2 {
		return n, fmt.Errorf("state: missing '#' separator in %q", s)
	}

	srcFields := strings.Split(parts[0], "_")
	if len(srcFields) != 4 {
		return n, fmt.Errorf("state: source has %d fields, want 4", len(srcFields))
	}
	var err error
	if n.Source.State, err = parseOptional(srcFields[0]); err != nil {
		return n, fmt.Errorf("state: source.state: %w", err)
	}
	if n.Source.Last, err = parseOptional(srcFields[1]); err != nil {
		return n, fmt.Errorf("state: source.last: %w", err)
	}
	if n.Source.Golden, err = parseOptional(srcFields[2]); err != nil {
		return n, fmt.Errorf("state: source.golden: %w", err)
	}
	if n.Source.Alt, err = parseOptional(srcFields[3]); err != nil {
		return n, fmt.Errorf("state: source.alt: %w", err)
	}

	tgtFields := strings.Split(parts[1], "_")
	if len(tgtFields) != 10 {
		return n, fmt.Errorf("state: target has %d fields, want 10", len(tgtFields))
	}
	if n.Target.State, err = strconv.ParseUint(tgtFields[0], 16, 64); err != nil {
		return n, fmt.Errorf("state: target.state: %w", err)
	}
	if n.Target.Output, err = strconv.ParseUint(tgtFields[1], 16, 64); err != nil {
		return n, fmt.Errorf("state: target.output: %w", err)
	}
	boolFields := []*bool{
		&n.Target.Shown, &n.Target.UpdateLast, &n.Target.UpdateGolden, &n.Target.UpdateAlt,
		&n.Target.LastToGolden, &n.Target.LastToAlt, &n.Target.GoldenToAlt, &n.Target.AltToGolden,
	}
	for i, dst := range boolFields {
		v, err := parseBool(tgtFields[2+i])
		if err != nil {
			return n, err
		}
		*dst = v
	}
	return n, nil
}
