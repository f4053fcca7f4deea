// Package catalog implements Alfalfa's persistent, process-wide frame
// index: frames, tracks, switches, the displayed-raster sequence, and
// per-raster quality measurements, served locally or over RPC.
package catalog

import "github.com/deepteams/alfalfa/state"

// FrameInfo is the byte range of one compressed frame within a frame
// store, its assigned sequential id, and its source/target name.
type FrameInfo struct {
	FrameID uint64
	Offset  int64
	Length  int64
	Name    state.Name
}

// TrackData positions a frame within a track: its ordinal frame_index and
// the frame_id it refers to.
type TrackData struct {
	TrackID    uint64
	FrameIndex int
	FrameID    uint64
}

// SwitchData positions a frame within a switch transitioning between two
// track positions.
type SwitchData struct {
	FromTrack      uint64
	FromFrameIndex int
	ToTrack        uint64
	ToFrameIndex   int
	SwitchIndex    int
	FrameID        uint64
}

// SwitchKey identifies one (from, to) switch path.
type SwitchKey struct {
	FromTrack      uint64
	FromFrameIndex int
	ToTrack        uint64
	ToFrameIndex   int
}

// QualityRow is one (original, approximate) raster-pair SSIM measurement.
type QualityRow struct {
	OriginalHash    uint64
	ApproximateHash uint64
	SSIM            float64
}

// MaxFramesPerIterator bounds every query response so that no single RPC
// reply exceeds reasonable message limits; larger ranges are requested in
// successive windows.
const MaxFramesPerIterator = 1000
