package player

import (
	"math"
	"testing"

	"github.com/deepteams/alfalfa/catalog"
	"github.com/deepteams/alfalfa/state"
)

func annotated(idx int, length int64, shown bool, quality float64) AnnotatedFrameInfo {
	return AnnotatedFrameInfo{
		FrameInfo: catalog.FrameInfo{
			FrameID: uint64(idx),
			Offset:  int64(idx) * 1000,
			Length:  length,
			Name:    state.Name{Target: state.Target{Shown: shown}},
		},
		FrameIndex: idx,
		Quality:    quality,
	}
}

func TestAnalyzeTrackSuffixMargin(t *testing.T) {
	// Throughput 2400 B/s, frames of 100 bytes: each fetch costs 1/24 s,
	// exactly one frame interval. A track of shown, not-yet-fetched frames
	// therefore needs no accumulated margin beyond a single fetch.
	frames := []AnnotatedFrameInfo{
		annotated(0, 100, true, 0.9),
		annotated(1, 100, true, 0.9),
		annotated(2, 100, true, 0.9),
	}
	analyzeTrackSuffix(frames, 2400, func(int64) bool { return false })

	for i, f := range frames {
		if math.Abs(f.TimeToFetch-1.0/24.0) > 1e-9 {
			t.Fatalf("frame %d TimeToFetch = %v, want 1/24", i, f.TimeToFetch)
		}
		if f.TimeMarginRequired < 0 {
			t.Fatalf("frame %d TimeMarginRequired negative: %v", i, f.TimeMarginRequired)
		}
	}

	// Doubling one frame's size makes everything before it require margin:
	// its fetch costs 2/24 s against 1/24 s of display budget.
	frames = []AnnotatedFrameInfo{
		annotated(0, 100, true, 0.9),
		annotated(1, 200, true, 0.9),
		annotated(2, 100, true, 0.9),
	}
	analyzeTrackSuffix(frames, 2400, func(int64) bool { return false })
	if frames[0].TimeMarginRequired <= 0 {
		t.Fatalf("expected positive required margin before an oversized frame, got %v", frames[0].TimeMarginRequired)
	}
}

func TestAnalyzeTrackSuffixLocalStore(t *testing.T) {
	frames := []AnnotatedFrameInfo{
		annotated(0, 100, true, 0.9),
		annotated(1, 100, true, 0.9),
	}
	analyzeTrackSuffix(frames, 2400, func(offset int64) bool { return offset == 0 })

	if frames[0].TimeToFetch != 0 {
		t.Fatalf("frame present in store must have TimeToFetch 0, got %v", frames[0].TimeToFetch)
	}
	if frames[1].TimeToFetch == 0 {
		t.Fatal("absent frame must have nonzero TimeToFetch")
	}
}

func TestAnalyzeTrackSuffixQualityStats(t *testing.T) {
	frames := []AnnotatedFrameInfo{
		annotated(0, 100, true, 0.5),
		annotated(1, 100, true, 0.7),
		annotated(2, 100, true, 0.9),
	}
	analyzeTrackSuffix(frames, 1<<30, func(int64) bool { return true })

	// The first frame's suffix covers all three qualities.
	if math.Abs(frames[0].MeanQuality-0.7) > 1e-9 {
		t.Fatalf("suffix mean = %v, want 0.7", frames[0].MeanQuality)
	}
	if frames[0].MinQuality != 0.5 {
		t.Fatalf("suffix min = %v, want 0.5", frames[0].MinQuality)
	}
	if frames[0].StddevQuality == 0 {
		t.Fatal("expected nonzero suffix stddev over distinct qualities")
	}
	// The last frame's suffix is itself alone.
	if frames[2].MinQuality != 0.9 || frames[2].StddevQuality != 0 {
		t.Fatalf("tail suffix stats = mean %v stddev %v min %v", frames[2].MeanQuality, frames[2].StddevQuality, frames[2].MinQuality)
	}
}

func TestVideoMapGenerationBumps(t *testing.T) {
	vmap := NewVideoMap(nil, func() float64 { return 1 << 20 }, nil)
	vmap.mu.Lock()
	vmap.tracks[0] = &trackState{frames: []AnnotatedFrameInfo{annotated(0, 100, true, 0.9)}}
	vmap.mu.Unlock()

	before := vmap.Generation()
	vmap.MaybeAnalyze(nil)
	if vmap.Generation() != before+1 {
		t.Fatalf("generation = %d, want %d", vmap.Generation(), before+1)
	}

	// A second run inside the 250ms window is dropped.
	vmap.MaybeAnalyze(nil)
	if vmap.Generation() != before+1 {
		t.Fatalf("generation bumped by rate-limited run: %d", vmap.Generation())
	}
}