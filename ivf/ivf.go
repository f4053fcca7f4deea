// Package ivf implements the IVF container codec used to wrap a raw VP8
// bitstream for file-based input and output.
package ivf

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed size of an IVF file header.
const HeaderSize = 32

// Fourcc is the four-byte codec tag this package accepts; any other value
// is rejected as unsupported.
var Fourcc = [4]byte{'V', 'P', '8', '0'}

var magic = [4]byte{'D', 'K', 'I', 'F'}

// ErrUnsupported marks a structurally valid IVF header this package does
// not decode (a non-"VP80" fourcc).
var ErrUnsupported = errors.New("ivf: unsupported fourcc")

// ErrInvalid marks a malformed IVF header or frame record.
var ErrInvalid = errors.New("ivf: invalid container data")

// Header is the 32-byte IVF file header.
type Header struct {
	Version              uint16
	Width, Height        uint16
	FrameRate, TimeScale uint32
	FrameCount           uint32
	// ExpectedMinihash is the low 32 bits of the DecoderHash required to
	// start decoding the first frame; 0 means "any".
	ExpectedMinihash uint32
}

// Frame is one IVF frame record: its presentation timestamp and payload.
type Frame struct {
	PTS  uint64
	Data []byte
}

// ReadHeader parses the 32-byte IVF header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, errors.Wrap(ErrInvalid, "reading header: "+err.Error())
	}
	if string(buf[0:4]) != string(magic[:]) {
		return Header{}, errors.Wrap(ErrInvalid, "bad DKIF magic")
	}
	var h Header
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	headerLen := binary.LittleEndian.Uint16(buf[6:8])
	if headerLen != HeaderSize {
		return Header{}, errors.Wrapf(ErrInvalid, "unexpected header_len %d", headerLen)
	}
	var fourcc [4]byte
	copy(fourcc[:], buf[8:12])
	if fourcc != Fourcc {
		return Header{}, errors.Wrapf(ErrUnsupported, "fourcc %q", fourcc)
	}
	h.Width = binary.LittleEndian.Uint16(buf[12:14])
	h.Height = binary.LittleEndian.Uint16(buf[14:16])
	h.FrameRate = binary.LittleEndian.Uint32(buf[16:20])
	h.TimeScale = binary.LittleEndian.Uint32(buf[20:24])
	h.FrameCount = binary.LittleEndian.Uint32(buf[24:28])
	h.ExpectedMinihash = binary.LittleEndian.Uint32(buf[28:32])
	return h, nil
}

// WriteHeader writes a 32-byte IVF header to w.
func WriteHeader(w io.Writer, h Header) error {
	var buf [HeaderSize]byte
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], HeaderSize)
	copy(buf[8:12], Fourcc[:])
	binary.LittleEndian.PutUint16(buf[12:14], h.Width)
	binary.LittleEndian.PutUint16(buf[14:16], h.Height)
	binary.LittleEndian.PutUint32(buf[16:20], h.FrameRate)
	binary.LittleEndian.PutUint32(buf[20:24], h.TimeScale)
	binary.LittleEndian.PutUint32(buf[24:28], h.FrameCount)
	binary.LittleEndian.PutUint32(buf[28:32], h.ExpectedMinihash)
	_, err := w.Write(buf[:])
	return err
}

// ReadFrame reads one frame record: a 4-byte size, an 8-byte pts, and
// size bytes of payload.
func ReadFrame(r io.Reader) (Frame, error) {
	var prefix [12]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Frame{}, io.EOF
		}
		return Frame{}, errors.Wrap(ErrInvalid, "reading frame prefix: "+err.Error())
	}
	size := binary.LittleEndian.Uint32(prefix[0:4])
	pts := binary.LittleEndian.Uint64(prefix[4:12])
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return Frame{}, errors.Wrap(ErrInvalid, "reading frame payload: "+err.Error())
	}
	return Frame{PTS: pts, Data: data}, nil
}

// WriteFrame writes one frame record to w.
func WriteFrame(w io.Writer, f Frame) error {
	var prefix [12]byte
	binary.LittleEndian.PutUint32(prefix[0:4], uint32(len(f.Data)))
	binary.LittleEndian.PutUint64(prefix[4:12], f.PTS)
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(f.Data)
	return err
}

// ReadAll reads a complete IVF stream: its header and every frame.
func ReadAll(r io.Reader) (Header, []Frame, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return Header{}, nil, err
	}
	var frames []Frame
	for {
		f, err := ReadFrame(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return h, frames, err
		}
		frames = append(frames, f)
	}
	return h, frames, nil
}
