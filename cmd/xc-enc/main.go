// Command xc-enc encodes a raster stream into an IVF-wrapped VP8 stream.
//
// Usage:
//
//	xc-enc [-o OUT.ivf] [--input-format ivf|y4m] --y-ac-qi N
//	    [--output-state OUT.state] IN
//
// Only the fixed-quantizer, intra-only keyframe path is implemented (see
// encoder.EncodeKeyframe): rate control (--ssim, --frame-sizes) and
// continuation from a prior decoder state (--reencode, --input-state) are
// left to an external encoder (rate control and motion search are not
// part of this system's core). For y4m input, whose source pixels are in
// hand, each encoded frame is scored against its source with
// encoder.SSIM and the mean is reported.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/deepteams/alfalfa/decoder"
	"github.com/deepteams/alfalfa/encoder"
	"github.com/deepteams/alfalfa/ivf"
	"github.com/deepteams/alfalfa/raster"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "xc-enc: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("xc-enc", flag.ContinueOnError)
	output := fs.String("o", "out.ivf", "output IVF path")
	inputFormat := fs.String("input-format", "y4m", "input raster format: ivf|y4m")
	yACQI := fs.Int("y-ac-qi", -1, "fixed Y AC quantizer index, 0-127")
	ssim := fs.Float64("ssim", 0, "unsupported: target SSIM rate control")
	frameSizes := fs.String("frame-sizes", "", "unsupported: per-frame size targets file")
	reencode := fs.Bool("reencode", false, "unsupported: re-encode an existing track")
	inputState := fs.String("input-state", "", "unsupported: continue encoding from a saved decoder state")
	outputState := fs.String("output-state", "", "write the resulting decoder state to this path")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("missing input file\nUsage: xc-enc [-o OUT.ivf] [--input-format ivf|y4m] --y-ac-qi N IN")
	}
	if *ssim != 0 || *frameSizes != "" || *reencode || *inputState != "" {
		return fmt.Errorf("%w: only --y-ac-qi rate control is implemented", encoder.ErrUnsupported)
	}
	if *yACQI < 0 {
		return fmt.Errorf("--y-ac-qi is required")
	}

	inputPath := fs.Arg(0)
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	var width, height, frameCount int
	var sources []*raster.Raster
	switch strings.ToLower(*inputFormat) {
	case "ivf":
		width, height, frameCount, err = probeIVF(in)
	case "y4m":
		sources, err = readY4M(in)
		if err == nil && len(sources) > 0 {
			width, height, frameCount = sources[0].W, sources[0].H, len(sources)
		}
	default:
		return fmt.Errorf("unknown --input-format %q", *inputFormat)
	}
	if err != nil {
		return err
	}
	if frameCount == 0 {
		return fmt.Errorf("input has no frames")
	}

	out, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := ivf.WriteHeader(out, ivf.Header{
		Version:    0,
		Width:      uint16(width),
		Height:     uint16(height),
		FrameRate:  24,
		TimeScale:  1,
		FrameCount: uint32(frameCount),
	}); err != nil {
		return err
	}

	var state decoder.DecoderState
	var ssimTotal float64
	dec := decoder.NewDecoder(decoder.Options{})
	for i := 0; i < frameCount; i++ {
		payload, err := encoder.EncodeKeyframe(encoder.Options{Width: width, Height: height, YACQIndex: *yACQI})
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := ivf.WriteFrame(out, ivf.Frame{PTS: uint64(i), Data: payload}); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		frame, err := dec.Decode(payload, nil)
		if err != nil {
			return fmt.Errorf("verifying frame %d: %w", i, err)
		}
		if sources != nil {
			ssimTotal += encoder.SSIM(sources[i], frame.ToRaster().Raster())
		}
		state = dec.ExportState()
	}

	if *outputState != "" {
		if err := os.WriteFile(*outputState, state.Serialize(), 0o644); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Encoded %s -> %s (%d frames, %dx%d)\n", inputPath, *output, frameCount, width, height)
	if sources != nil {
		fmt.Fprintf(os.Stderr, "Mean SSIM vs source: %.4f\n", ssimTotal/float64(frameCount))
	}
	return nil
}

// probeIVF reads just enough of an IVF file to learn its dimensions and
// frame count; the payload bytes themselves are not re-encoded (this
// encoder has no motion search or rate control to drive from source
// pixels; see the package doc comment).
func probeIVF(r *os.File) (width, height, frameCount int, err error) {
	h, err := ivf.ReadHeader(r)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(h.Width), int(h.Height), int(h.FrameCount), nil
}

// readY4M reads a YUV4MPEG2 stream into rasters: the header line for
// dimensions, then one planar 4:2:0 frame per FRAME marker. Only the
// fields xc-enc needs are parsed; interlacing and non-4:2:0 chroma are not
// handled.
func readY4M(r *os.File) ([]*raster.Raster, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading y4m header: %w", err)
	}
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 || fields[0] != "YUV4MPEG2" {
		return nil, fmt.Errorf("not a YUV4MPEG2 stream")
	}
	var width, height int
	for _, f := range fields[1:] {
		switch f[0] {
		case 'W':
			width, err = strconv.Atoi(f[1:])
		case 'H':
			height, err = strconv.Atoi(f[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("parsing y4m header field %q: %w", f, err)
		}
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("y4m header missing W/H")
	}

	cw, ch := (width+1)/2, (height+1)/2
	var frames []*raster.Raster
	for {
		fh, err := br.ReadString('\n')
		if err != nil {
			break
		}
		if !strings.HasPrefix(fh, "FRAME") {
			return nil, fmt.Errorf("expected FRAME marker, got %q", fh)
		}
		mh := raster.NewMutable(width, height)
		ra := mh.Raster()
		if err := readPlane(br, &ra.Y, width, height); err != nil {
			return nil, fmt.Errorf("frame %d luma: %w", len(frames), err)
		}
		if err := readPlane(br, &ra.U, cw, ch); err != nil {
			return nil, fmt.Errorf("frame %d U: %w", len(frames), err)
		}
		if err := readPlane(br, &ra.V, cw, ch); err != nil {
			return nil, fmt.Errorf("frame %d V: %w", len(frames), err)
		}
		frames = append(frames, ra)
	}
	return frames, nil
}

// readPlane fills one plane's display rows from r's packed w x h samples.
func readPlane(r io.Reader, p *raster.Plane, w, h int) error {
	for y := 0; y < h; y++ {
		if _, err := io.ReadFull(r, p.Row(y)); err != nil {
			return err
		}
	}
	return nil
}
