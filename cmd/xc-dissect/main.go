// Command xc-dissect prints per-frame diagnostics for a VP8/IVF stream:
// the uncompressed tag fields always, and, when any of -m, -p or -c is
// given, a full decode reporting the macroblock grid (-m), the token
// partition count (-p), and the filter settings with the resulting state
// and raster hashes (-c).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/deepteams/alfalfa/decoder"
	"github.com/deepteams/alfalfa/ivf"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "xc-dissect: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("xc-dissect", flag.ContinueOnError)
	showMB := fs.Bool("m", false, "print macroblock grid dimensions")
	showPartitions := fs.Bool("p", false, "print token partition count")
	showCoeffs := fs.Bool("c", false, "fully decode each frame and print state/raster hashes")
	maxFrames := fs.Int("f", 0, "stop after N frames (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("missing input file\nUsage: xc-dissect [-m -p -c -f N] IN.ivf")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := ivf.ReadHeader(f)
	if err != nil {
		return err
	}
	fmt.Printf("IVF: %dx%d, %d frames declared, fourcc VP80\n", h.Width, h.Height, h.FrameCount)

	dec := decoder.NewDecoder(decoder.Options{})
	refs := &decoder.References{}
	for i := 0; *maxFrames == 0 || i < *maxFrames; i++ {
		frame, err := ivf.ReadFrame(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		tag := dissectTag(frame.Data)
		fmt.Printf("frame %d: pts=%d bytes=%d key=%v version=%d show=%v part0_len=%d\n",
			i, frame.PTS, len(frame.Data), tag.keyFrame, tag.version, tag.show, tag.partitionLength)

		if !*showCoeffs && !*showMB && !*showPartitions {
			continue
		}

		out, err := dec.Decode(frame.Data, refs)
		if err != nil {
			fmt.Printf("  decode error: %v\n", err)
			continue
		}

		if *showMB {
			mbW, mbH := dec.MacroblockGrid()
			fmt.Printf("  macroblocks: %dx%d\n", mbW, mbH)
		}
		if *showPartitions {
			fmt.Printf("  token partitions: %d\n", dec.NumTokenPartitions())
		}
		if *showCoeffs {
			level, sharp := dec.FilterLevel()
			fmt.Printf("  filter: mode=%v level=%d sharpness=%d segmented=%v\n",
				dec.FilterMode(), level, sharp, dec.UsesSegmentation())
			fmt.Printf("  state_hash=%016x\n", dec.StateHash())
			fmt.Printf("  raster_hash=%016x\n", out.ToRaster().Hash())
		}
	}
	return nil
}

type uncompressedTag struct {
	keyFrame        bool
	version         uint8
	show            bool
	partitionLength uint32
}

// dissectTag decodes the 3-byte uncompressed frame tag without going
// through the full parser, reading the tag's bit layout directly so
// this tool works even on frames the decoder itself rejects.
func dissectTag(data []byte) uncompressedTag {
	if len(data) < 3 {
		return uncompressedTag{}
	}
	bits := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	return uncompressedTag{
		keyFrame:        (bits & 1) == 0,
		version:         uint8((bits >> 1) & 7),
		show:            ((bits >> 4) & 1) != 0,
		partitionLength: bits >> 5,
	}
}
