package catalog

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/deepteams/alfalfa/state"
)

// SchemaVersion is written as a byte following each table's magic string,
// so tooling can detect format drift without breaking the length-prefixed
// record framing itself.
const SchemaVersion = 1

// Table magic strings, one per persisted file.
const (
	magicFrames   = "ALFAFRM"
	magicTracks   = "ALFATRK"
	magicSwitches = "ALFASWT"
	magicRasters  = "ALFARAS"
	magicQuality  = "ALFAQAL"
)

// writeMagic writes the short ASCII magic string and schema version byte
// that identifies a table file.
func writeMagic(w io.Writer, magic string) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	_, err := w.Write([]byte{SchemaVersion})
	return err
}

// readMagic reads and validates a table file's magic string and schema
// version.
func readMagic(r io.Reader, want string) error {
	buf := make([]byte, len(want)+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return errors.Wrap(err, "catalog: reading table magic")
	}
	if string(buf[:len(want)]) != want {
		return errors.Errorf("catalog: bad magic %q, want %q", buf[:len(want)], want)
	}
	if buf[len(want)] > SchemaVersion {
		return errors.Errorf("catalog: table schema version %d newer than supported %d", buf[len(want)], SchemaVersion)
	}
	return nil
}

// writeRecord writes one length-prefixed record: a 4-byte little-endian
// byte length followed by payload.
func writeRecord(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readRecord reads one length-prefixed record, returning io.EOF when the
// stream is exhausted exactly at a record boundary.
func readRecord(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated record payload")
	}
	return payload, nil
}

// Layout names the files that make up one video's persisted catalog
// directory.
type Layout struct {
	Dir string
}

func (l Layout) path(name string) string { return filepath.Join(l.Dir, name) }

// FrameStorePath is the blob concatenating compressed frame bytes,
// addressed by (offset, length) from the frames table.
func (l Layout) FrameStorePath() string { return l.path("frame_store") }

// Write persists every table in s to files under l.Dir, creating the
// directory if needed. Tables are immutable once written; callers that
// need to update the catalog read it back, modify in memory, and call
// Write again to produce a new file.
func (s *Store) Write(l Layout) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return errors.Wrap(err, "catalog: creating directory")
	}

	if err := s.writeFrames(l.path("frames")); err != nil {
		return err
	}
	if err := s.writeTracks(l.path("tracks")); err != nil {
		return err
	}
	if err := s.writeSwitches(l.path("switches")); err != nil {
		return err
	}
	if err := s.writeRasters(l.path("rasters")); err != nil {
		return err
	}
	if err := s.writeQuality(l.path("quality")); err != nil {
		return err
	}
	return nil
}

func createFile(path, magic string) (*os.File, *bufio.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "catalog: creating %s", path)
	}
	bw := bufio.NewWriter(f)
	if err := writeMagic(bw, magic); err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, bw, nil
}

func (s *Store) writeFrames(path string) error {
	f, bw, err := createFile(path, magicFrames)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, fi := range s.frames {
		if err := writeRecord(bw, encodeFrameInfo(fi)); err != nil {
			return errors.Wrap(err, "catalog: writing frame record")
		}
	}
	return bw.Flush()
}

func (s *Store) writeTracks(path string) error {
	f, bw, err := createFile(path, magicTracks)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, list := range s.tracks {
		for _, td := range list {
			if err := writeRecord(bw, encodeTrackData(td)); err != nil {
				return errors.Wrap(err, "catalog: writing track record")
			}
		}
	}
	return bw.Flush()
}

func (s *Store) writeSwitches(path string) error {
	f, bw, err := createFile(path, magicSwitches)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, list := range s.switches {
		for _, sd := range list {
			if err := writeRecord(bw, encodeSwitchData(sd)); err != nil {
				return errors.Wrap(err, "catalog: writing switch record")
			}
		}
	}
	return bw.Flush()
}

func (s *Store) writeRasters(path string) error {
	f, bw, err := createFile(path, magicRasters)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, h := range s.rasters {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], h)
		if err := writeRecord(bw, buf[:]); err != nil {
			return errors.Wrap(err, "catalog: writing raster record")
		}
	}
	return bw.Flush()
}

func (s *Store) writeQuality(path string) error {
	f, bw, err := createFile(path, magicQuality)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, q := range s.quality {
		if err := writeRecord(bw, encodeQualityRow(q)); err != nil {
			return errors.Wrap(err, "catalog: writing quality record")
		}
	}
	return bw.Flush()
}

// Load reads every table file under l.Dir into a fresh Store.
func Load(l Layout) (*Store, error) {
	s := NewStore()

	if err := loadTable(l.path("frames"), magicFrames, func(rec []byte) error {
		fi, err := decodeFrameInfo(rec)
		if err != nil {
			return err
		}
		s.AddFrame(fi)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadTable(l.path("tracks"), magicTracks, func(rec []byte) error {
		td, err := decodeTrackData(rec)
		if err != nil {
			return err
		}
		s.AddTrackFrame(td)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadTable(l.path("switches"), magicSwitches, func(rec []byte) error {
		sd, err := decodeSwitchData(rec)
		if err != nil {
			return err
		}
		s.AddSwitchFrame(sd)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadTable(l.path("rasters"), magicRasters, func(rec []byte) error {
		if len(rec) != 8 {
			return errors.New("catalog: malformed raster record")
		}
		s.AddRaster(binary.LittleEndian.Uint64(rec))
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadTable(l.path("quality"), magicQuality, func(rec []byte) error {
		q, err := decodeQualityRow(rec)
		if err != nil {
			return err
		}
		s.AddQuality(q)
		return nil
	}); err != nil {
		return nil, err
	}

	return s, nil
}

func loadTable(path, magic string, each func([]byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "catalog: opening %s", path)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	if err := readMagic(br, magic); err != nil {
		return err
	}
	for {
		rec, err := readRecord(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := each(rec); err != nil {
			return err
		}
	}
}

// --- record codecs: fixed-order field reads/writes, no reflection ---

func encodeFrameInfo(fi FrameInfo) []byte {
	name := []byte(fi.Name.String())
	buf := make([]byte, 8+8+8+2+len(name))
	binary.LittleEndian.PutUint64(buf[0:], fi.FrameID)
	binary.LittleEndian.PutUint64(buf[8:], uint64(fi.Offset))
	binary.LittleEndian.PutUint64(buf[16:], uint64(fi.Length))
	binary.LittleEndian.PutUint16(buf[24:], uint16(len(name)))
	copy(buf[26:], name)
	return buf
}

func decodeFrameInfo(rec []byte) (FrameInfo, error) {
	if len(rec) < 26 {
		return FrameInfo{}, errors.New("catalog: truncated frame record")
	}
	fi := FrameInfo{
		FrameID: binary.LittleEndian.Uint64(rec[0:]),
		Offset:  int64(binary.LittleEndian.Uint64(rec[8:])),
		Length:  int64(binary.LittleEndian.Uint64(rec[16:])),
	}
	nameLen := int(binary.LittleEndian.Uint16(rec[24:]))
	if len(rec) < 26+nameLen {
		return FrameInfo{}, errors.New("catalog: truncated frame name")
	}
	name, err := state.ParseName(string(rec[26 : 26+nameLen]))
	if err != nil {
		return FrameInfo{}, errors.Wrap(err, "catalog: parsing frame name")
	}
	fi.Name = name
	return fi, nil
}

func encodeTrackData(td TrackData) []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint64(buf[0:], td.TrackID)
	binary.LittleEndian.PutUint32(buf[8:], uint32(td.FrameIndex))
	binary.LittleEndian.PutUint64(buf[12:], td.FrameID)
	return buf
}

func decodeTrackData(rec []byte) (TrackData, error) {
	if len(rec) != 20 {
		return TrackData{}, errors.New("catalog: malformed track record")
	}
	return TrackData{
		TrackID:    binary.LittleEndian.Uint64(rec[0:]),
		FrameIndex: int(binary.LittleEndian.Uint32(rec[8:])),
		FrameID:    binary.LittleEndian.Uint64(rec[12:]),
	}, nil
}

func encodeSwitchData(sd SwitchData) []byte {
	buf := make([]byte, 40)
	binary.LittleEndian.PutUint64(buf[0:], sd.FromTrack)
	binary.LittleEndian.PutUint32(buf[8:], uint32(sd.FromFrameIndex))
	binary.LittleEndian.PutUint64(buf[12:], sd.ToTrack)
	binary.LittleEndian.PutUint32(buf[20:], uint32(sd.ToFrameIndex))
	binary.LittleEndian.PutUint32(buf[24:], uint32(sd.SwitchIndex))
	binary.LittleEndian.PutUint64(buf[28:], sd.FrameID)
	return buf
}

func decodeSwitchData(rec []byte) (SwitchData, error) {
	if len(rec) != 40 {
		return SwitchData{}, errors.New("catalog: malformed switch record")
	}
	return SwitchData{
		FromTrack:      binary.LittleEndian.Uint64(rec[0:]),
		FromFrameIndex: int(binary.LittleEndian.Uint32(rec[8:])),
		ToTrack:        binary.LittleEndian.Uint64(rec[12:]),
		ToFrameIndex:   int(binary.LittleEndian.Uint32(rec[20:])),
		SwitchIndex:    int(binary.LittleEndian.Uint32(rec[24:])),
		FrameID:        binary.LittleEndian.Uint64(rec[28:]),
	}, nil
}

func encodeQualityRow(q QualityRow) []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:], q.OriginalHash)
	binary.LittleEndian.PutUint64(buf[8:], q.ApproximateHash)
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(q.SSIM))
	return buf
}

func decodeQualityRow(rec []byte) (QualityRow, error) {
	if len(rec) != 24 {
		return QualityRow{}, errors.New("catalog: malformed quality record")
	}
	return QualityRow{
		OriginalHash:    binary.LittleEndian.Uint64(rec[0:]),
		ApproximateHash: binary.LittleEndian.Uint64(rec[8:]),
		SSIM:            math.Float64frombits(binary.LittleEndian.Uint64(rec[16:])),
	}, nil
}

// FrameBytes reads a compressed frame's bytes from the frame store given
// its (offset, length).
func (l Layout) FrameBytes(fi FrameInfo) ([]byte, error) {
	f, err := os.Open(l.FrameStorePath())
	if err != nil {
		return nil, errors.Wrap(err, "catalog: opening frame store")
	}
	defer f.Close()
	buf := make([]byte, fi.Length)
	if _, err := f.ReadAt(buf, fi.Offset); err != nil {
		return nil, errors.Wrapf(err, "catalog: reading frame %d at offset %d", fi.FrameID, fi.Offset)
	}
	return buf, nil
}
