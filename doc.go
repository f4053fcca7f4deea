// Package alfalfa is an infrastructure for explicit-state VP8 video
// decoding and adaptive playback: every compressed frame is addressable by
// the exact decoder state it requires and produces, so clients can seek,
// switch bitrate tracks, and resume decoding at arbitrary points without
// replaying from the nearest keyframe.
//
// The module is organised as a set of subpackages:
//
//   - raster: decoded-picture store (shared-ownership YCbCr rasters with
//     stable content hashes)
//   - decoder: the VP8 decoder core (bitstream parsing, entropy decoding,
//     intra/inter prediction, inverse transforms, loop filter)
//   - state: explicit-state frame naming, decoder-state hashing, and
//     dependency tracking
//   - catalog: the persistent index of frames, tracks, switches, rasters,
//     and quality measurements, served locally or over RPC
//   - fetcher: the range-HTTP frame prefetcher with throughput estimation
//   - player: per-track annotation ingest, the track/switch planner, and
//     the real-time playback loop
//   - ivf: the IVF container codec wrapping raw VP8 streams
//   - encoder: a minimal intra-only keyframe encoder for fixtures
//
// The cmd directory holds the xc-* command line tools built on these
// packages.
package alfalfa
