package catalog

import (
	"bufio"
	"encoding/gob"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/deepteams/alfalfa/state"
)

// RPC request/response pairs, named <Verb>Args/<Verb>Reply after net/rpc's
// convention even though the transport below is plain net/http (so the
// streaming endpoint can flush incrementally, which net/rpc cannot do).

type FrameByIDArgs struct{ FrameID uint64 }
type FrameByIDReply struct{ Frame FrameInfo }

type TrackFrameArgs struct {
	TrackID    uint64
	FrameIndex int
}
type TrackFrameReply struct{ Frame FrameInfo }

type TrackRangeArgs struct {
	TrackID  uint64
	From, To int
}
type TrackRangeReply struct{ Frames []FrameInfo }

type SwitchRangeArgs struct {
	Key                    SwitchKey
	SwitchStart, SwitchEnd int
}
type SwitchRangeReply struct{ Frames []FrameInfo }

type FramesByOutputHashArgs struct{ Hash uint64 }
type FramesByOutputHashReply struct{ Frames []FrameInfo }

type CompatibleFramesArgs struct{ Hash state.DecoderHash }
type CompatibleFramesReply struct{ Frames []FrameInfo }

type SwitchesEndingAtArgs struct{ FrameID uint64 }
type SwitchesEndingAtReply struct{ Keys []SwitchKey }

type RasterIndexArgs struct {
	TrackID        uint64
	DisplayedIndex int
}
type RasterIndexReply struct{ FrameIndex int }

type QualityForArgs struct{ OriginalHash uint64 }
type QualityForReply struct{ Rows []QualityRow }

// FrameBytesArgs addresses a compressed frame inside the frame store blob
// by the (offset, length) recorded in its FrameInfo.
type FrameBytesArgs struct {
	Offset int64
	Length int64
}
type FrameBytesReply struct{ Data []byte }

// GetAbridgedFramesArgs parameterizes the one streaming endpoint: a
// contiguous range of one track's frames, used by player.VideoMap's
// incremental ingest.
type GetAbridgedFramesArgs struct {
	TrackID    uint64
	Start, End int
}

// Server exposes a Store's queries over HTTP, one endpoint per RPC pair
// plus the streaming GetAbridgedFrames endpoint. When Layout is set the
// server additionally answers FrameBytes requests from the directory's
// frame store blob and serves the blob itself at /frame_store, where a
// fetcher.FrameFetcher can issue range GETs against it.
type Server struct {
	Store  *Store
	Layout *Layout
}

// Handler returns an http.Handler routing each RPC verb to its endpoint,
// suitable for http.ListenAndServe or httptest.NewServer in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/FrameByID", s.handleFrameByID)
	mux.HandleFunc("/rpc/TrackFrame", s.handleTrackFrame)
	mux.HandleFunc("/rpc/TrackRange", s.handleTrackRange)
	mux.HandleFunc("/rpc/SwitchRange", s.handleSwitchRange)
	mux.HandleFunc("/rpc/FramesByOutputHash", s.handleFramesByOutputHash)
	mux.HandleFunc("/rpc/CompatibleFrames", s.handleCompatibleFrames)
	mux.HandleFunc("/rpc/SwitchesEndingAt", s.handleSwitchesEndingAt)
	mux.HandleFunc("/rpc/RasterIndex", s.handleRasterIndex)
	mux.HandleFunc("/rpc/QualityFor", s.handleQualityFor)
	mux.HandleFunc("/rpc/GetAbridgedFrames", s.handleGetAbridgedFrames)
	if s.Layout != nil {
		mux.HandleFunc("/rpc/FrameBytes", s.handleFrameBytes)
		mux.HandleFunc("/frame_store", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, s.Layout.FrameStorePath())
		})
	}
	return mux
}

func decodeRequest(r *http.Request, v interface{}) error {
	return gob.NewDecoder(r.Body).Decode(v)
}

func writeReply(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/octet-stream")
	_ = gob.NewEncoder(w).Encode(v)
}

func writeRPCError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) handleFrameByID(w http.ResponseWriter, r *http.Request) {
	var args FrameByIDArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	fi, err := s.Store.FrameByID(args.FrameID)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, FrameByIDReply{Frame: fi})
}

func (s *Server) handleTrackFrame(w http.ResponseWriter, r *http.Request) {
	var args TrackFrameArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	fi, err := s.Store.TrackFrame(args.TrackID, args.FrameIndex)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, TrackFrameReply{Frame: fi})
}

func (s *Server) handleTrackRange(w http.ResponseWriter, r *http.Request) {
	var args TrackRangeArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	frames, err := s.Store.TrackRange(args.TrackID, args.From, args.To)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, TrackRangeReply{Frames: frames})
}

func (s *Server) handleSwitchRange(w http.ResponseWriter, r *http.Request) {
	var args SwitchRangeArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	frames, err := s.Store.SwitchRange(args.Key, args.SwitchStart, args.SwitchEnd)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, SwitchRangeReply{Frames: frames})
}

func (s *Server) handleFramesByOutputHash(w http.ResponseWriter, r *http.Request) {
	var args FramesByOutputHashArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, FramesByOutputHashReply{Frames: s.Store.FramesByOutputHash(args.Hash)})
}

func (s *Server) handleCompatibleFrames(w http.ResponseWriter, r *http.Request) {
	var args CompatibleFramesArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, CompatibleFramesReply{Frames: s.Store.CompatibleFrames(args.Hash)})
}

func (s *Server) handleSwitchesEndingAt(w http.ResponseWriter, r *http.Request) {
	var args SwitchesEndingAtArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, SwitchesEndingAtReply{Keys: s.Store.SwitchesEndingAt(args.FrameID)})
}

func (s *Server) handleRasterIndex(w http.ResponseWriter, r *http.Request) {
	var args RasterIndexArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	idx, err := s.Store.RasterIndex(args.TrackID, args.DisplayedIndex)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, RasterIndexReply{FrameIndex: idx})
}

func (s *Server) handleQualityFor(w http.ResponseWriter, r *http.Request) {
	var args QualityForArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, QualityForReply{Rows: s.Store.QualityFor(args.OriginalHash)})
}

// handleFrameBytes answers a FrameBytes request with the bytes at the
// requested offset and length, read through s.Layout.FrameBytes.
func (s *Server) handleFrameBytes(w http.ResponseWriter, r *http.Request) {
	var args FrameBytesArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	data, err := s.Layout.FrameBytes(FrameInfo{Offset: args.Offset, Length: args.Length})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeReply(w, FrameBytesReply{Data: data})
}

// handleGetAbridgedFrames streams a track's frames in ascending order,
// flushing one encoded FrameInfo at a time so a client (player.VideoMap)
// can begin consuming before the whole range has been produced.
func (s *Server) handleGetAbridgedFrames(w http.ResponseWriter, r *http.Request) {
	var args GetAbridgedFramesArgs
	if err := decodeRequest(r, &args); err != nil {
		writeRPCError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	flusher, _ := w.(http.Flusher)
	enc := gob.NewEncoder(w)

	for start := args.Start; start < args.End; start += MaxFramesPerIterator {
		end := start + MaxFramesPerIterator
		if end > args.End {
			end = args.End
		}
		frames, err := s.Store.TrackRange(args.TrackID, start, end)
		if err != nil {
			return
		}
		for _, fi := range frames {
			if err := enc.Encode(fi); err != nil {
				return
			}
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Client calls a Store RPC server over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) call(endpoint string, args, reply interface{}) error {
	pr, pw := io.Pipe()
	go func() {
		_ = gob.NewEncoder(pw).Encode(args)
		pw.Close()
	}()
	resp, err := c.httpClient().Post(c.BaseURL+"/rpc/"+endpoint, "application/octet-stream", pr)
	if err != nil {
		return errors.Wrap(err, "catalog: rpc transport")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("catalog: rpc %s: status %d", endpoint, resp.StatusCode)
	}
	return gob.NewDecoder(resp.Body).Decode(reply)
}

// GetAbridgedFrames calls the streaming endpoint and returns every frame
// in [start, end) for trackID, reading incrementally as the server flushes.
func (c *Client) GetAbridgedFrames(trackID uint64, start, end int) ([]FrameInfo, error) {
	pr, pw := io.Pipe()
	go func() {
		_ = gob.NewEncoder(pw).Encode(GetAbridgedFramesArgs{TrackID: trackID, Start: start, End: end})
		pw.Close()
	}()
	resp, err := c.httpClient().Post(c.BaseURL+"/rpc/GetAbridgedFrames", "application/octet-stream", pr)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: rpc transport")
	}
	defer resp.Body.Close()

	dec := gob.NewDecoder(bufio.NewReader(resp.Body))
	var out []FrameInfo
	for {
		var fi FrameInfo
		if err := dec.Decode(&fi); err != nil {
			break
		}
		out = append(out, fi)
	}
	return out, nil
}

func (c *Client) FrameByID(id uint64) (FrameInfo, error) {
	var reply FrameByIDReply
	err := c.call("FrameByID", FrameByIDArgs{FrameID: id}, &reply)
	return reply.Frame, err
}

func (c *Client) TrackFrame(trackID uint64, frameIndex int) (FrameInfo, error) {
	var reply TrackFrameReply
	err := c.call("TrackFrame", TrackFrameArgs{TrackID: trackID, FrameIndex: frameIndex}, &reply)
	return reply.Frame, err
}

func (c *Client) TrackRange(trackID uint64, from, to int) ([]FrameInfo, error) {
	var reply TrackRangeReply
	err := c.call("TrackRange", TrackRangeArgs{TrackID: trackID, From: from, To: to}, &reply)
	return reply.Frames, err
}

func (c *Client) CompatibleFrames(h state.DecoderHash) ([]FrameInfo, error) {
	var reply CompatibleFramesReply
	err := c.call("CompatibleFrames", CompatibleFramesArgs{Hash: h}, &reply)
	return reply.Frames, err
}

func (c *Client) SwitchRange(key SwitchKey, switchStart, switchEnd int) ([]FrameInfo, error) {
	var reply SwitchRangeReply
	err := c.call("SwitchRange", SwitchRangeArgs{Key: key, SwitchStart: switchStart, SwitchEnd: switchEnd}, &reply)
	return reply.Frames, err
}

func (c *Client) FramesByOutputHash(hash uint64) ([]FrameInfo, error) {
	var reply FramesByOutputHashReply
	err := c.call("FramesByOutputHash", FramesByOutputHashArgs{Hash: hash}, &reply)
	return reply.Frames, err
}

func (c *Client) SwitchesEndingAt(frameID uint64) ([]SwitchKey, error) {
	var reply SwitchesEndingAtReply
	err := c.call("SwitchesEndingAt", SwitchesEndingAtArgs{FrameID: frameID}, &reply)
	return reply.Keys, err
}

func (c *Client) RasterIndex(trackID uint64, displayedIndex int) (int, error) {
	var reply RasterIndexReply
	err := c.call("RasterIndex", RasterIndexArgs{TrackID: trackID, DisplayedIndex: displayedIndex}, &reply)
	return reply.FrameIndex, err
}

func (c *Client) QualityFor(originalHash uint64) ([]QualityRow, error) {
	var reply QualityForReply
	err := c.call("QualityFor", QualityForArgs{OriginalHash: originalHash}, &reply)
	return reply.Rows, err
}

// FrameBytes fetches one compressed frame's bytes from the server's frame
// store by (offset, length).
func (c *Client) FrameBytes(offset, length int64) ([]byte, error) {
	var reply FrameBytesReply
	err := c.call("FrameBytes", FrameBytesArgs{Offset: offset, Length: length}, &reply)
	return reply.Data, err
}
