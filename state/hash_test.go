package state

import "testing"

func hp(v uint64) *uint64 { return &v }

func TestCanDecodeWildcards(t *testing.T) {
	h := DecoderHash{State: 1, Last: 2, Golden: 3, Alt: 4}

	cases := []struct {
		name string
		src  Source
		want bool
	}{
		{"empty source matches anything", Source{}, true},
		{"full exact match", Source{State: hp(1), Last: hp(2), Golden: hp(3), Alt: hp(4)}, true},
		{"state mismatch", Source{State: hp(9)}, false},
		{"last mismatch, rest wildcard", Source{Last: hp(9)}, false},
		{"golden exact, rest wildcard", Source{Golden: hp(3)}, true},
		{"alt mismatch among matches", Source{State: hp(1), Alt: hp(9)}, false},
	}
	for _, tc := range cases {
		if got := h.CanDecode(tc.src); got != tc.want {
			t.Errorf("%s: CanDecode = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestUpdateCopiesBeforeRefreshes(t *testing.T) {
	h := DecoderHash{State: 1, Last: 10, Golden: 20, Alt: 30}

	// last->golden runs before update_golden would overwrite, and the
	// copy reads the pre-update last.
	got := h.Update(Target{State: 2, Output: 99, LastToGolden: true, UpdateLast: true})
	want := DecoderHash{State: 2, Last: 99, Golden: 10, Alt: 30}
	if got != want {
		t.Fatalf("Update = %+v, want %+v", got, want)
	}

	// golden->alt then update_alt: the refresh wins.
	got = h.Update(Target{State: 2, Output: 99, GoldenToAlt: true, UpdateAlt: true})
	if got.Alt != 99 {
		t.Fatalf("Alt = %d, want refresh output 99", got.Alt)
	}

	// Copy only: alt->golden with no refreshes.
	got = h.Update(Target{State: 5, AltToGolden: true})
	want = DecoderHash{State: 5, Last: 10, Golden: 30, Alt: 30}
	if got != want {
		t.Fatalf("Update = %+v, want %+v", got, want)
	}

	// Copies chain sequentially: alt->golden after last->alt reads the
	// freshly copied alt, so both end up holding last.
	got = h.Update(Target{State: 5, LastToAlt: true, AltToGolden: true})
	want = DecoderHash{State: 5, Last: 10, Golden: 10, Alt: 10}
	if got != want {
		t.Fatalf("Update = %+v, want %+v", got, want)
	}
}

func TestDecoderHashStringRoundtrip(t *testing.T) {
	h := DecoderHash{State: 0xdeadbeef, Last: 1, Golden: 0xffffffffffffffff, Alt: 0}
	parsed, err := ParseDecoderHash(h.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != h {
		t.Fatalf("roundtrip mismatch: %+v != %+v", parsed, h)
	}

	if _, err := ParseDecoderHash("1-2-3"); err == nil {
		t.Fatal("expected error for 3-field hash")
	}
	if _, err := ParseDecoderHash("x-2-3-4"); err == nil {
		t.Fatal("expected error for non-hex field")
	}
}

func TestDependencyTrackerBuildsSource(t *testing.T) {
	before := DecoderHash{State: 1, Last: 2, Golden: 3, Alt: 4}

	d := NewDependencyTracker(before)
	d.TouchState()
	d.TouchReference(RefLast)
	d.TouchReference(RefAlt)

	src := d.Source()
	if src.State == nil || *src.State != 1 {
		t.Fatalf("State = %v, want 1", src.State)
	}
	if src.Last == nil || *src.Last != 2 {
		t.Fatalf("Last = %v, want 2", src.Last)
	}
	if src.Golden != nil {
		t.Fatalf("Golden = %v, want wildcard (untouched)", *src.Golden)
	}
	if src.Alt == nil || *src.Alt != 4 {
		t.Fatalf("Alt = %v, want 4", src.Alt)
	}

	if !before.CanDecode(src) {
		t.Fatal("a tracker-built source must be decodable by the decoder it observed")
	}
}

func TestKeyframeNameHasNoSource(t *testing.T) {
	n := Name{Target: Target{State: 1, Output: 2, Shown: true, UpdateLast: true, UpdateGolden: true, UpdateAlt: true}}
	if !n.IsKeyFrame() {
		t.Fatal("empty source must classify as keyframe")
	}
	n.Source.Last = hp(7)
	if n.IsKeyFrame() {
		t.Fatal("source dependency must disqualify keyframe")
	}
}
