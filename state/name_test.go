package state

import "testing"

func u64(v uint64) *uint64 { return &v }

func TestNameRoundtrip(t *testing.T) {
	n := Name{
		Source: Source{State: u64(1), Last: u64(2), Golden: nil, Alt: u64(4)},
		Target: Target{
			State: 5, Output: 6, Shown: true,
			UpdateLast: true, UpdateGolden: false, UpdateAlt: true,
			LastToGolden: true, LastToAlt: false, GoldenToAlt: true, AltToGolden: false,
		},
	}
	s := n.String()
	got, err := ParseName(s)
	if err != nil {
		t.Fatalf("ParseName(%q): %v", s, err)
	}
	if got.String() != s {
		t.Fatalf("roundtrip mismatch: %q != %q", got.String(), s)
	}
}

func TestNameAllAbsentSource(t *testing.T) {
	n := Name{Source: Source{}, Target: Target{State: 1, Output: 2}}
	s := n.String()
	if s != "x_x_x_x#1_2_0_0_0_0_0_0_0_0" {
		t.Fatalf("unexpected rendering: %q", s)
	}
	got, err := ParseName(s)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source.State != nil || got.Source.Last != nil {
		t.Fatalf("expected nil optional fields, got %+v", got.Source)
	}
}

func TestCanDecodeWildcard(t *testing.T) {
	h := DecoderHash{State: 1, Last: 2, Golden: 3, Alt: 4}
	src := Source{State: u64(1)}
	if !h.CanDecode(src) {
		t.Fatalf("expected CanDecode true with only state pinned")
	}
	bad := Source{State: u64(99)}
	if h.CanDecode(bad) {
		t.Fatalf("expected CanDecode false with mismatched state")
	}
}

func TestUpdateOrdering(t *testing.T) {
	h := DecoderHash{State: 1, Last: 10, Golden: 20, Alt: 30}
	tgt := Target{
		State: 2, Output: 99,
		LastToGolden: true, // golden becomes old last (10) before refresh
		UpdateGolden: true, // then golden is overwritten with output
	}
	out := h.Update(tgt)
	if out.Golden != 99 {
		t.Fatalf("expected golden=output after copy-then-refresh, got %d", out.Golden)
	}
	if out.Last != 10 {
		t.Fatalf("expected last unchanged, got %d", out.Last)
	}
}

func TestDependencyTrackerSource(t *testing.T) {
	before := DecoderHash{State: 1, Last: 2, Golden: 3, Alt: 4}
	d := NewDependencyTracker(before)
	d.TouchState()
	d.TouchReference(RefLast)
	src := d.Source()
	if src.State == nil || *src.State != 1 {
		t.Fatalf("expected state touched, got %+v", src)
	}
	if src.Last == nil || *src.Last != 2 {
		t.Fatalf("expected last touched, got %+v", src)
	}
	if src.Golden != nil || src.Alt != nil {
		t.Fatalf("expected golden/alt untouched, got %+v", src)
	}
}
