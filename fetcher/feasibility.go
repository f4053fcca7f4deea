package fetcher

// frameInterval is the fixed 24fps presentation interval assumed
// throughout the feasibility/planning math.
const frameInterval = 1.0 / 24.0

// throughputDiscount derates the estimated throughput by 20% when checking
// feasibility, a safety margin against the EWMA overestimating sustained
// bandwidth.
const throughputDiscount = 0.8

// Feasible reports whether entries (in playback order) can be fetched and
// shown without stalling given the fetcher's current local store and
// throughput estimate: for every not-yet-downloaded entry, add
// length/(0.8*throughput) to an arrival clock; after each shown frame,
// advance a presentation clock by 1/24s. The plan stalls if arrival ever
// exceeds presentation.
func (f *FrameFetcher) Feasible(entries []WishlistEntry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	throughput := f.throughput

	var arrival, presentation float64
	for _, e := range entries {
		if _, ok := f.store[e.Offset]; !ok {
			arrival += float64(e.Length) / (throughputDiscount * throughput)
		}
		if e.Shown {
			presentation += frameInterval
		}
		if arrival > presentation {
			return false
		}
	}
	return true
}
