package catalog

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/deepteams/alfalfa/state"
)

// ErrMiss is returned (wrapped with context via github.com/pkg/errors) when
// a requested frame id, hash, or track/switch position is absent from the
// catalog.
var ErrMiss = errors.New("catalog: not found")

// Store is a process-wide, read-mostly index over frames, tracks,
// switches, the displayed-raster sequence, and quality measurements. All
// methods are safe for concurrent use; reads take the shared lock, writes
// take it exclusively.
type Store struct {
	mu sync.RWMutex

	frames map[uint64]FrameInfo

	byOutputHash map[uint64][]uint64 // target.output -> frame ids
	byStateHash  map[uint64][]uint64 // target.state -> frame ids

	// Per-component source indices for CompatibleFrames: value -> frame
	// ids pinning that component to value, built so a four-way lookup
	// plus set-intersection answers "frames decodable from this
	// DecoderHash" as a hash join rather than a linear scan. Frames that
	// leave a component a wildcard are not indexed on that axis; they
	// are folded in by wildcardFrames.
	bySrcState  map[uint64][]uint64
	bySrcLast   map[uint64][]uint64
	bySrcGolden map[uint64][]uint64
	bySrcAlt    map[uint64][]uint64

	// wildcardFrames[i] holds frame ids whose Source component i (in
	// State,Last,Golden,Alt order) is absent, i.e. matches any decoder.
	wildcardFrames [4][]uint64

	tracks   map[uint64][]TrackData // ordered by FrameIndex
	switches map[SwitchKey][]SwitchData

	rasters []uint64 // ordered displayed-raster hashes (the "truth" sequence)

	quality []QualityRow
}

// NewStore returns an empty catalog.
func NewStore() *Store {
	return &Store{
		frames:       make(map[uint64]FrameInfo),
		byOutputHash: make(map[uint64][]uint64),
		byStateHash:  make(map[uint64][]uint64),
		bySrcState:   make(map[uint64][]uint64),
		bySrcLast:    make(map[uint64][]uint64),
		bySrcGolden:  make(map[uint64][]uint64),
		bySrcAlt:     make(map[uint64][]uint64),
		tracks:       make(map[uint64][]TrackData),
		switches:     make(map[SwitchKey][]SwitchData),
	}
}

// AddFrame inserts or replaces a frame's catalog entry and updates its
// secondary indices.
func (s *Store) AddFrame(fi FrameInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[fi.FrameID] = fi
	s.byOutputHash[fi.Name.Target.Output] = append(s.byOutputHash[fi.Name.Target.Output], fi.FrameID)
	s.byStateHash[fi.Name.Target.State] = append(s.byStateHash[fi.Name.Target.State], fi.FrameID)

	index := func(v *uint64, idx map[uint64][]uint64, wc int) {
		if v == nil {
			s.wildcardFrames[wc] = append(s.wildcardFrames[wc], fi.FrameID)
			return
		}
		idx[*v] = append(idx[*v], fi.FrameID)
	}
	index(fi.Name.Source.State, s.bySrcState, 0)
	index(fi.Name.Source.Last, s.bySrcLast, 1)
	index(fi.Name.Source.Golden, s.bySrcGolden, 2)
	index(fi.Name.Source.Alt, s.bySrcAlt, 3)
}

// FrameByID returns the frame with the given id.
func (s *Store) FrameByID(id uint64) (FrameInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fi, ok := s.frames[id]
	if !ok {
		return FrameInfo{}, errors.Wrapf(ErrMiss, "frame id %d", id)
	}
	return fi, nil
}

// FramesByOutputHash returns all frames whose target output hash equals h.
func (s *Store) FramesByOutputHash(h uint64) []FrameInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byOutputHash[h])
}

// CompatibleFrames returns all frames whose source is satisfied by dh:
// every present source component must equal the corresponding component of
// dh; wildcard components match unconditionally. Implemented as an
// intersection over the per-component indices (matching-value ∪ wildcard)
// rather than a scan over every catalog frame.
func (s *Store) CompatibleFrames(dh state.DecoderHash) []FrameInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidateSets := [][]uint64{
		append(append([]uint64{}, s.bySrcState[dh.State]...), s.wildcardFrames[0]...),
		append(append([]uint64{}, s.bySrcLast[dh.Last]...), s.wildcardFrames[1]...),
		append(append([]uint64{}, s.bySrcGolden[dh.Golden]...), s.wildcardFrames[2]...),
		append(append([]uint64{}, s.bySrcAlt[dh.Alt]...), s.wildcardFrames[3]...),
	}

	counts := make(map[uint64]int)
	for _, set := range candidateSets {
		seen := make(map[uint64]bool, len(set))
		for _, id := range set {
			if !seen[id] {
				seen[id] = true
				counts[id]++
			}
		}
	}

	var out []FrameInfo
	for id, c := range counts {
		if c == len(candidateSets) {
			if fi, ok := s.frames[id]; ok {
				out = append(out, fi)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FrameID < out[j].FrameID })
	return out
}

func (s *Store) resolve(ids []uint64) []FrameInfo {
	out := make([]FrameInfo, 0, len(ids))
	for _, id := range ids {
		if fi, ok := s.frames[id]; ok {
			out = append(out, fi)
		}
	}
	return out
}

// AddTrackFrame appends a frame to a track at the given position, keeping
// the track's per-frame_index ordering.
func (s *Store) AddTrackFrame(td TrackData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.tracks[td.TrackID]
	list = append(list, td)
	sort.Slice(list, func(i, j int) bool { return list[i].FrameIndex < list[j].FrameIndex })
	s.tracks[td.TrackID] = list
}

// TrackFrame returns the frame at (trackID, frameIndex).
func (s *Store) TrackFrame(trackID uint64, frameIndex int) (FrameInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, td := range s.tracks[trackID] {
		if td.FrameIndex == frameIndex {
			fi, ok := s.frames[td.FrameID]
			if !ok {
				return FrameInfo{}, errors.Wrapf(ErrMiss, "track %d frame_index %d -> missing frame %d", trackID, frameIndex, td.FrameID)
			}
			return fi, nil
		}
	}
	return FrameInfo{}, errors.Wrapf(ErrMiss, "track %d frame_index %d", trackID, frameIndex)
}

// TrackRange iterates frames of track trackID between [from, to), forward
// if from <= to or reverse if from > to (half-open at the end furthest
// from the traversal direction's start), capped at MaxFramesPerIterator
// entries.
func (s *Store) TrackRange(trackID uint64, from, to int) ([]FrameInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.tracks[trackID]
	byIndex := make(map[int]uint64, len(list))
	for _, td := range list {
		byIndex[td.FrameIndex] = td.FrameID
	}

	var out []FrameInfo
	step := 1
	if from > to {
		step = -1
	}
	for i := from; i != to && len(out) < MaxFramesPerIterator; i += step {
		id, ok := byIndex[i]
		if !ok {
			continue
		}
		fi, ok := s.frames[id]
		if !ok {
			return nil, errors.Wrapf(ErrMiss, "track %d frame_index %d -> missing frame %d", trackID, i, id)
		}
		out = append(out, fi)
	}
	return out, nil
}

// AddSwitchFrame appends a frame to a switch path at the given switch_index.
func (s *Store) AddSwitchFrame(sd SwitchData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := SwitchKey{FromTrack: sd.FromTrack, FromFrameIndex: sd.FromFrameIndex, ToTrack: sd.ToTrack, ToFrameIndex: sd.ToFrameIndex}
	list := s.switches[key]
	list = append(list, sd)
	sort.Slice(list, func(i, j int) bool { return list[i].SwitchIndex < list[j].SwitchIndex })
	s.switches[key] = list
}

// SwitchRange iterates a switch's frames between [switchStart, switchEnd)
// (half-open at the upper end), capped at MaxFramesPerIterator entries.
func (s *Store) SwitchRange(key SwitchKey, switchStart, switchEnd int) ([]FrameInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.switches[key]
	var out []FrameInfo
	for _, sd := range list {
		if sd.SwitchIndex < switchStart || sd.SwitchIndex >= switchEnd {
			continue
		}
		if len(out) >= MaxFramesPerIterator {
			break
		}
		fi, ok := s.frames[sd.FrameID]
		if !ok {
			return nil, errors.Wrapf(ErrMiss, "switch frame_index %d -> missing frame %d", sd.SwitchIndex, sd.FrameID)
		}
		out = append(out, fi)
	}
	return out, nil
}

// SwitchesEndingAt returns the keys of every switch whose path contains
// frameID as its final entry.
func (s *Store) SwitchesEndingAt(frameID uint64) []SwitchKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []SwitchKey
	for key, list := range s.switches {
		if len(list) > 0 && list[len(list)-1].FrameID == frameID {
			out = append(out, key)
		}
	}
	return out
}

// AddRaster appends hash to the displayed-raster sequence.
func (s *Store) AddRaster(hash uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rasters = append(s.rasters, hash)
}

// RasterIndex resolves a track's displayed-raster index (a position in
// this global playback truth sequence) to the local track frame index:
// the i-th entry of rasters whose hash matches track[frameIndex]'s output
// hash, searched from the track's start.
func (s *Store) RasterIndex(trackID uint64, displayedIndex int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if displayedIndex < 0 || displayedIndex >= len(s.rasters) {
		return 0, errors.Wrapf(ErrMiss, "raster index %d out of range", displayedIndex)
	}
	target := s.rasters[displayedIndex]
	for _, td := range s.tracks[trackID] {
		fi, ok := s.frames[td.FrameID]
		if !ok || !fi.Name.Target.Shown {
			continue
		}
		if fi.Name.Target.Output == target {
			return td.FrameIndex, nil
		}
	}
	return 0, errors.Wrapf(ErrMiss, "track %d has no frame producing raster %d", trackID, displayedIndex)
}

// AddQuality appends a quality measurement row.
func (s *Store) AddQuality(row QualityRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quality = append(s.quality, row)
}

// QualityFor returns every quality row recorded for the given original
// raster hash.
func (s *Store) QualityFor(originalHash uint64) []QualityRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []QualityRow
	for _, q := range s.quality {
		if q.OriginalHash == originalHash {
			out = append(out, q)
		}
	}
	return out
}
