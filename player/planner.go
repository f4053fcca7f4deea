package player

import (
	"context"
	"time"

	"github.com/deepteams/alfalfa/fetcher"
)

// stallPenalty is the margin surcharge applied to a candidate that still
// needs fetching, biasing the planner away from choices that require new
// network round-trips when an already-downloaded alternative exists.
const stallPenalty = 2.0

// frameInterval is the fixed 24fps presentation interval the planner and
// playback loop both assume; it must match the fetcher's feasibility math.
const frameInterval = 1.0 / 24.0

// Position names a decoder's place in explicit-state space: the track it
// is currently following and the frame index it has just applied.
type Position struct {
	TrackID    uint64
	FrameIndex int
}

// Planner produces an ordered plan of upcoming frames starting from the
// player's current position, choosing at each step among eligible
// successors.
type Planner struct {
	vmap *VideoMap
}

// NewPlanner constructs a Planner reading frame annotations from vmap.
func NewPlanner(vmap *VideoMap) *Planner {
	return &Planner{vmap: vmap}
}

// keyframeAt returns the keyframe in frames (a track other than current)
// at the given timestamp, if any: an eligible successor for switching
// tracks.
func keyframeAt(frames []AnnotatedFrameInfo, timestamp int) (AnnotatedFrameInfo, bool) {
	for _, f := range frames {
		if f.TimestampIndex == timestamp && f.Name.IsKeyFrame() {
			return f, true
		}
	}
	return AnnotatedFrameInfo{}, false
}

func nextInTrack(frames []AnnotatedFrameInfo, frameIndex int) (AnnotatedFrameInfo, bool) {
	for _, f := range frames {
		if f.FrameIndex == frameIndex+1 {
			return f, true
		}
	}
	return AnnotatedFrameInfo{}, false
}

func frameTimestamp(frames []AnnotatedFrameInfo, frameIndex int) int {
	for _, f := range frames {
		if f.FrameIndex == frameIndex {
			return f.TimestampIndex
		}
	}
	return -1
}

// playable reports whether candidate fits within availableMargin,
// including the stall penalty if it still needs fetching.
func playable(candidate AnnotatedFrameInfo, availableMargin float64) bool {
	required := candidate.TimeMarginRequired
	if candidate.TimeToFetch > 0 {
		required += stallPenalty
	}
	return required <= availableMargin
}

// Plan builds an ordered sequence of up to maxSteps frames starting from
// pos, picking at each step: prefer playable over unplayable; among
// unplayable, smaller required margin wins; among playable, higher
// suffix figure of merit wins.
func (p *Planner) Plan(pos Position, trackIDs []uint64, maxSteps int) []AnnotatedFrameInfo {
	var plan []AnnotatedFrameInfo
	margin := 0.0

	byTrack := make(map[uint64][]AnnotatedFrameInfo, len(trackIDs))
	for _, id := range trackIDs {
		byTrack[id] = p.vmap.Frames(id)
	}

	cur := pos
	for step := 0; step < maxSteps; step++ {
		var candidates []AnnotatedFrameInfo

		if next, ok := nextInTrack(byTrack[cur.TrackID], cur.FrameIndex); ok {
			candidates = append(candidates, next)
		}

		ts := frameTimestamp(byTrack[cur.TrackID], cur.FrameIndex)
		for _, id := range trackIDs {
			if id == cur.TrackID {
				continue
			}
			if kf, ok := keyframeAt(byTrack[id], ts); ok {
				candidates = append(candidates, kf)
			}
		}

		if len(candidates) == 0 {
			break
		}

		best := candidates[0]
		bestPlayable := playable(best, margin)
		for _, c := range candidates[1:] {
			cPlayable := playable(c, margin)
			switch {
			case cPlayable && !bestPlayable:
				best, bestPlayable = c, true
			case !cPlayable && !bestPlayable:
				if c.TimeMarginRequired < best.TimeMarginRequired {
					best = c
				}
			case cPlayable && bestPlayable:
				if c.FigureOfMerit() > best.FigureOfMerit() {
					best = c
				}
			}
		}

		plan = append(plan, best)
		margin -= best.TimeToFetch
		if best.Name.Target.Shown {
			margin += frameInterval
		}
		cur = Position{TrackID: best.TrackID, FrameIndex: best.FrameIndex}
	}

	return plan
}

// WishlistFor converts a plan into the fetcher's wishlist form, preserving
// plan order so the fetcher's front-of-queue batching follows playback
// order.
func WishlistFor(plan []AnnotatedFrameInfo) []fetcher.WishlistEntry {
	out := make([]fetcher.WishlistEntry, len(plan))
	for i, af := range plan {
		out[i] = fetcher.WishlistEntry{
			FrameID: af.FrameID,
			Offset:  af.Offset,
			Length:  af.Length,
			Shown:   af.Name.Target.Shown,
			Quality: af.Quality,
		}
	}
	return out
}

// Replan recomputes the plan from pos against the freshest annotations and
// seeds f's wishlist with it, returning the plan for the playback loop to
// consume. Callers watching VideoMap.Generation invoke this whenever a new
// analysis lands.
func (p *Planner) Replan(f *fetcher.FrameFetcher, pos Position, trackIDs []uint64, maxSteps int) []AnnotatedFrameInfo {
	plan := p.Plan(pos, trackIDs, maxSteps)
	f.SetWishlist(WishlistFor(plan))
	return plan
}

// WatchGenerations polls vmap's analysis generation until ctx ends,
// invoking onNew with each newly published generation. The poll interval
// is coarse; analyses themselves are rate-limited to one per 250ms.
func WatchGenerations(ctx context.Context, vmap *VideoMap, onNew func(generation uint64)) {
	last := vmap.Generation()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if g := vmap.Generation(); g != last {
				last = g
				onNew(g)
			}
		}
	}
}
