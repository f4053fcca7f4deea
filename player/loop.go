package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deepteams/alfalfa/decoder"
	"github.com/deepteams/alfalfa/fetcher"
)

// State names the playback loop's two externally visible states.
type State int

const (
	Playing State = iota
	Stalled
)

// Loop drives playback against a plan, waiting until each frame's
// next_raster_time, decoding it, and advancing by 1/24s. On a missing
// required byte range it transitions to Stalled and resumes once the
// fetcher's feasibility check passes again.
type Loop struct {
	fetcher *fetcher.FrameFetcher
	dec     *decoder.Decoder
	log     *zap.SugaredLogger

	mu    sync.Mutex
	state State

	nextRasterTime time.Time
	onFrame        func(*decoder.Frame)
}

// NewLoop constructs a playback loop pulling compressed bytes from f and
// decoding with dec. onFrame is called with every shown frame's decoded
// output.
func NewLoop(f *fetcher.FrameFetcher, dec *decoder.Decoder, onFrame func(*decoder.Frame), log *zap.SugaredLogger) *Loop {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Loop{fetcher: f, dec: dec, onFrame: onFrame, log: log, nextRasterTime: time.Now()}
}

// State returns the loop's current Playing/Stalled state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Run drives plan to completion (or until ctx is canceled), decoding each
// frame in order against refs.
func (l *Loop) Run(ctx context.Context, plan []AnnotatedFrameInfo, refs *decoder.References) error {
	for _, af := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !l.fetcher.Feasible([]fetcher.WishlistEntry{{
			FrameID: af.FrameID, Offset: af.Offset, Length: af.Length, Shown: af.Name.Target.Shown,
		}}) {
			l.enterStalled(af.TimeMarginRequired)
			if err := l.waitUntilFeasible(ctx, af); err != nil {
				return err
			}
		}

		wait := time.Until(l.nextRasterTime)
		if wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		data, err := l.fetcher.WaitForFrame(ctx, af.Offset)
		if err != nil {
			return fmt.Errorf("player: waiting for frame %d: %w", af.FrameID, err)
		}

		frame, err := l.dec.Decode(data, refs)
		if err != nil {
			return fmt.Errorf("player: decoding frame %d: %w", af.FrameID, err)
		}

		if af.Name.Target.Shown && l.onFrame != nil {
			l.onFrame(frame)
		}

		l.mu.Lock()
		l.state = Playing
		intervalSeconds := frameInterval
		l.nextRasterTime = l.nextRasterTime.Add(time.Duration(intervalSeconds * float64(time.Second)))
		l.mu.Unlock()
	}
	return nil
}

func (l *Loop) enterStalled(marginDeficit float64) {
	l.mu.Lock()
	l.state = Stalled
	l.mu.Unlock()
	l.log.Warnw(fmt.Sprintf("predicted stall in %.1fs", marginDeficit), "margin_deficit", marginDeficit)
}

// waitUntilFeasible polls the fetcher's feasibility check for af until it
// passes or ctx ends. Playback pauses are cooperative: there is no
// preemptive cancellation of the in-flight range GET the fetcher may be
// running.
func (l *Loop) waitUntilFeasible(ctx context.Context, af AnnotatedFrameInfo) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if l.fetcher.Feasible([]fetcher.WishlistEntry{{
			FrameID: af.FrameID, Offset: af.Offset, Length: af.Length, Shown: af.Name.Target.Shown,
		}}) {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
