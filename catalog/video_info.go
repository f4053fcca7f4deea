package catalog

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

const magicVideoInfo = "ALFAVID"

// VideoInfo is the short header file present in every persisted catalog
// directory: magic, width, height, fourcc (always "VP80").
type VideoInfo struct {
	Width  int
	Height int
	Fourcc [4]byte
}

// WriteVideoInfo writes the video_info header file for l's directory.
func (l Layout) WriteVideoInfo(vi VideoInfo) error {
	f, err := os.Create(l.path("video_info"))
	if err != nil {
		return errors.Wrap(err, "catalog: creating video_info")
	}
	defer f.Close()
	if err := writeMagic(f, magicVideoInfo); err != nil {
		return err
	}
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(vi.Width))
	binary.LittleEndian.PutUint32(buf[4:], uint32(vi.Height))
	copy(buf[8:12], vi.Fourcc[:])
	_, err = f.Write(buf[:])
	return err
}

// ReadVideoInfo reads the video_info header file from l's directory.
func (l Layout) ReadVideoInfo() (VideoInfo, error) {
	f, err := os.Open(l.path("video_info"))
	if err != nil {
		return VideoInfo{}, errors.Wrap(err, "catalog: opening video_info")
	}
	defer f.Close()
	if err := readMagic(f, magicVideoInfo); err != nil {
		return VideoInfo{}, err
	}
	var buf [12]byte
	if _, err := f.Read(buf[:]); err != nil {
		return VideoInfo{}, errors.Wrap(err, "catalog: reading video_info body")
	}
	var vi VideoInfo
	vi.Width = int(binary.LittleEndian.Uint32(buf[0:]))
	vi.Height = int(binary.LittleEndian.Uint32(buf[4:]))
	copy(vi.Fourcc[:], buf[8:12])
	return vi, nil
}
