package player

import (
	"testing"

	"github.com/deepteams/alfalfa/catalog"
	"github.com/deepteams/alfalfa/state"
)

func mkFrame(trackID uint64, idx, timestamp int, keyframe bool, quality float64) AnnotatedFrameInfo {
	src := state.Source{}
	if !keyframe {
		v := uint64(1)
		src = state.Source{State: &v, Last: &v}
	}
	return AnnotatedFrameInfo{
		TrackID: trackID,
		FrameInfo: catalog.FrameInfo{
			FrameID: uint64(trackID)*1000 + uint64(idx),
			Offset:  int64(idx) * 100,
			Length:  100,
			Name: state.Name{
				Source: src,
				Target: state.Target{Shown: true},
			},
		},
		FrameIndex:         idx,
		TimestampIndex:     timestamp,
		MeanQuality:        quality,
		StddevQuality:      0,
		TimeMarginRequired: 0,
	}
}

func TestPlannerPrefersFeasibleTrack(t *testing.T) {
	vmap := NewVideoMap(nil, func() float64 { return 1 << 30 }, nil)

	var lowTrack, highTrack []AnnotatedFrameInfo
	for i := 0; i < 10; i++ {
		lowTrack = append(lowTrack, mkFrame(0, i, i, i == 0, 0.5))
		hf := mkFrame(1, i, i, i == 0, 0.95)
		// Nothing of track 1 is downloaded: each frame still needs a
		// fetch, so the stall penalty makes it unplayable at zero margin.
		hf.TimeToFetch = 0.5
		hf.TimeMarginRequired = 0.5
		highTrack = append(highTrack, hf)
	}
	vmap.mu.Lock()
	vmap.tracks[0] = &trackState{frames: lowTrack}
	vmap.tracks[1] = &trackState{frames: highTrack}
	vmap.mu.Unlock()

	p := NewPlanner(vmap)
	plan := p.Plan(Position{TrackID: 0, FrameIndex: 0}, []uint64{0, 1}, 5)

	for _, f := range plan {
		if f.TrackID != 0 {
			t.Fatalf("expected plan to stay on track 0 when only it is feasible, got track %d", f.TrackID)
		}
	}
}

func TestPlannerSwitchesAtKeyframe(t *testing.T) {
	vmap := NewVideoMap(nil, func() float64 { return 1 << 30 }, nil)

	var lowTrack, highTrack []AnnotatedFrameInfo
	for i := 0; i < 60; i++ {
		lowTrack = append(lowTrack, mkFrame(0, i, i, i == 0, 0.5))
	}
	for i := 48; i < 60; i++ {
		highTrack = append(highTrack, mkFrame(1, i-48, i, i == 48, 0.95))
	}
	vmap.mu.Lock()
	vmap.tracks[0] = &trackState{frames: lowTrack}
	vmap.tracks[1] = &trackState{frames: highTrack}
	vmap.mu.Unlock()

	p := NewPlanner(vmap)
	plan := p.Plan(Position{TrackID: 0, FrameIndex: 46}, []uint64{0, 1}, 4)

	found := false
	for _, f := range plan {
		if f.TrackID == 1 && f.TimestampIndex == 48 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected plan to switch to track 1 at timestamp 48, got %+v", plan)
	}
}

func TestWishlistForPreservesOrder(t *testing.T) {
	plan := []AnnotatedFrameInfo{
		mkFrame(0, 3, 3, false, 0.5),
		mkFrame(0, 4, 4, false, 0.5),
	}
	wl := WishlistFor(plan)
	if len(wl) != 2 {
		t.Fatalf("len = %d, want 2", len(wl))
	}
	if wl[0].FrameID != plan[0].FrameID || wl[1].Offset != plan[1].Offset {
		t.Fatalf("wishlist out of order: %+v", wl)
	}
	if !wl[0].Shown {
		t.Fatal("shown flag not carried over")
	}
}
