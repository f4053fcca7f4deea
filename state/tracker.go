package state

// DependencyTracker records which reference hashes a decode actually
// consumed, so the decoder's entry point can build the frame's source hash
// from observed reads rather than from a conservative "depends on
// everything" assumption. Grounded on the stash-then-resolve shape of a
// temporal-layer reference finder: touches are recorded as they're seen,
// and a frame's final source is only fixed once decode completes.
type DependencyTracker struct {
	touchedState  bool
	touchedLast   bool
	touchedGolden bool
	touchedAlt    bool

	before DecoderHash
}

// NewDependencyTracker starts tracking dependencies against a decoder
// currently at hash before.
func NewDependencyTracker(before DecoderHash) *DependencyTracker {
	return &DependencyTracker{before: before}
}

// TouchState marks that the decode read the persistent entropy/segmentation
// state (true for every frame whose header parses against carried-forward
// probabilities; effectively always, except a keyframe that resets state
// unconditionally and so does not depend on what came before).
func (d *DependencyTracker) TouchState() { d.touchedState = true }

// TouchReference marks that the decode read pixels from the named
// reference slot (LastFrame, GoldenFrame, or AltRefFrame).
func (d *DependencyTracker) TouchReference(ref uint8) {
	switch ref {
	case 1:
		d.touchedLast = true
	case 2:
		d.touchedGolden = true
	case 3:
		d.touchedAlt = true
	}
}

// Reference slot identifiers, matching decoder.LastFrame/GoldenFrame/AltRefFrame.
const (
	RefLast   = 1
	RefGolden = 2
	RefAlt    = 3
)

// Source builds the frame's source hash from exactly the components this
// tracker observed being touched; untouched components are left nil
// (wildcard), since a frame that never read e.g. the golden reference can
// be replayed against a decoder whose golden differs.
func (d *DependencyTracker) Source() Source {
	var src Source
	if d.touchedState {
		v := d.before.State
		src.State = &v
	}
	if d.touchedLast {
		v := d.before.Last
		src.Last = &v
	}
	if d.touchedGolden {
		v := d.before.Golden
		src.Golden = &v
	}
	if d.touchedAlt {
		v := d.before.Alt
		src.Alt = &v
	}
	return src
}
