// Package player implements the adaptive-playback client: per-track frame
// annotation ingest (VideoMap), the track/switch planner, and the
// real-time playback loop.
package player

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/deepteams/alfalfa/catalog"
)

// AnnotatedFrameInfo is one track frame together with the suffix
// statistics the planner needs to judge playability and quality.
type AnnotatedFrameInfo struct {
	TrackID uint64
	catalog.FrameInfo

	FrameIndex     int // ordinal position within the track
	TimestampIndex int // displayed-raster index at this frame, if shown

	// Quality is this frame's own SSIM-derived score (0 = not yet
	// measured); the Mean/Stddev/Min fields below are suffix statistics
	// over Quality from this frame to the end of its track, rewritten on
	// every analysis pass.
	Quality float64

	MeanQuality   float64
	StddevQuality float64
	MinQuality    float64

	TimeToFetch        float64 // seconds, 0 if already in the local store
	TimeMarginRequired float64 // cumulative seconds of slack needed from here to track end
}

// FigureOfMerit returns mean_quality - stddev_quality, the planner's
// preference metric among playable candidates.
func (a AnnotatedFrameInfo) FigureOfMerit() float64 {
	return a.MeanQuality - a.StddevQuality
}

type trackState struct {
	frames     []AnnotatedFrameInfo
	shownCount int
}

// VideoMap tracks every track's abridged frame list and keeps suffix
// statistics (mean/stddev/min quality, time_margin_required) up to date.
// One background fetcher goroutine runs per track (consuming the
// catalog's streaming RPC). Analysis runs in the goroutine that calls
// MaybeAnalyze, at most once per 250ms, guarded by a try-lock so redundant
// runs are dropped; no separate analysis goroutine is started.
type VideoMap struct {
	client *catalog.Client
	log    *zap.SugaredLogger

	throughput func() float64 // bytes/sec estimate, supplied by the fetcher

	mu     sync.Mutex
	tracks map[uint64]*trackState

	analysisGeneration atomic.Uint64
	analysisBusy       atomic.Bool
	lastAnalysis       time.Time
}

// NewVideoMap constructs an empty VideoMap. throughput supplies the
// fetcher's current bytes/sec estimate for TimeToFetch computation.
func NewVideoMap(client *catalog.Client, throughput func() float64, log *zap.SugaredLogger) *VideoMap {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &VideoMap{
		client:     client,
		log:        log,
		throughput: throughput,
		tracks:     make(map[uint64]*trackState),
	}
}

// IngestTrack starts a goroutine that consumes trackID's abridged frames
// from the catalog's streaming RPC in windows of up to
// catalog.MaxFramesPerIterator frames/s, overlapping startup with
// first-frame playback.
func (v *VideoMap) IngestTrack(trackID uint64, totalFrames int) {
	v.mu.Lock()
	if _, ok := v.tracks[trackID]; !ok {
		v.tracks[trackID] = &trackState{}
	}
	v.mu.Unlock()

	go func() {
		const batch = catalog.MaxFramesPerIterator
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for start := 0; start < totalFrames; start += batch {
			end := start + batch
			if end > totalFrames {
				end = totalFrames
			}
			frames, err := v.client.GetAbridgedFrames(trackID, start, end)
			if err != nil {
				v.log.Warnw("player: ingesting track range", "track", trackID, "error", err)
				<-ticker.C
				continue
			}
			v.appendFrames(trackID, start, frames)
			if end < totalFrames {
				<-ticker.C
			}
		}
	}()
}

func (v *VideoMap) appendFrames(trackID uint64, start int, frames []catalog.FrameInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ts := v.tracks[trackID]
	shown := ts.shownCount
	for i, fi := range frames {
		if fi.Name.Target.Shown {
			shown++
		}
		ts.frames = append(ts.frames, AnnotatedFrameInfo{
			TrackID:        trackID,
			FrameInfo:      fi,
			FrameIndex:     start + i,
			TimestampIndex: shown - 1,
		})
	}
	ts.shownCount = shown
}

// Frames returns a snapshot of trackID's currently ingested, annotated
// frames.
func (v *VideoMap) Frames(trackID uint64) []AnnotatedFrameInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	ts, ok := v.tracks[trackID]
	if !ok {
		return nil
	}
	out := make([]AnnotatedFrameInfo, len(ts.frames))
	copy(out, ts.frames)
	return out
}

// Generation returns the current analysis_generation counter, which bumps
// every time MaybeAnalyze completes a run, so clients can detect new
// annotations.
func (v *VideoMap) Generation() uint64 { return v.analysisGeneration.Load() }

// MaybeAnalyze runs the per-track suffix analysis if at least 250ms have
// passed since the last run and no analysis is already in flight;
// redundant concurrent calls are dropped rather than queued.
func (v *VideoMap) MaybeAnalyze(localStoreHas func(offset int64) bool) {
	if !v.analysisBusy.CompareAndSwap(false, true) {
		return
	}
	defer v.analysisBusy.Store(false)

	v.mu.Lock()
	if time.Since(v.lastAnalysis) < 250*time.Millisecond {
		v.mu.Unlock()
		return
	}
	v.lastAnalysis = time.Now()

	throughput := v.throughput()
	if throughput <= 0 {
		throughput = 1 << 20
	}

	for _, ts := range v.tracks {
		analyzeTrackSuffix(ts.frames, throughput, localStoreHas)
	}
	v.mu.Unlock()

	v.analysisGeneration.Add(1)
}

// analyzeTrackSuffix traverses frames in reverse, computing per-frame
// running mean/stddev/min quality from here to end, time_to_fetch, and
// cumulative time_margin_required (decremented by 1/24s per shown frame,
// clamped >= 0).
func analyzeTrackSuffix(frames []AnnotatedFrameInfo, throughput float64, localStoreHas func(int64) bool) {
	var qualities []float64
	margin := 0.0

	for i := len(frames) - 1; i >= 0; i-- {
		f := &frames[i]

		// Frames with no quality measured yet contribute nothing to the
		// running statistics; callers attach scores via SetQuality ahead
		// of the next analysis pass.
		if f.Quality != 0 {
			qualities = append(qualities, f.Quality)
		}
		switch len(qualities) {
		case 0:
		case 1:
			f.MeanQuality, f.StddevQuality, f.MinQuality = qualities[0], 0, qualities[0]
		default:
			mean, stddev := stat.MeanStdDev(qualities, nil)
			min := qualities[0]
			for _, q := range qualities {
				if q < min {
					min = q
				}
			}
			f.MeanQuality, f.StddevQuality, f.MinQuality = mean, stddev, min
		}

		if localStoreHas != nil && localStoreHas(f.Offset) {
			f.TimeToFetch = 0
		} else {
			f.TimeToFetch = float64(f.Length) / throughput
		}

		margin += f.TimeToFetch
		if f.Name.Target.Shown {
			margin -= frameInterval
		}
		if margin < 0 {
			margin = 0
		}
		f.TimeMarginRequired = margin
	}
}

// SetQuality records the observed SSIM-derived quality figure for frame i
// of trackID ahead of the next MaybeAnalyze pass.
func (v *VideoMap) SetQuality(trackID uint64, frameIndex int, quality float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ts, ok := v.tracks[trackID]
	if !ok {
		return
	}
	for i := range ts.frames {
		if ts.frames[i].FrameIndex == frameIndex {
			ts.frames[i].Quality = quality
			return
		}
	}
}
