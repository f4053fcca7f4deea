// Command xc-dump extracts the decoder state reached after decoding N
// frames of an IVF stream, writing it as a .state file xc-diff and
// xc-terminate-chunk can read.
//
// Usage:
//
//	xc-dump [-f N] [-S STATE] IN.ivf OUT.state
//
// With -S, decoding starts by importing a previously dumped state instead
// of from a blank decoder; IN.ivf must then begin with the interframe that
// continues from that state (this tool does not persist reference
// rasters, only the persistent entropy/segmentation/filter state; see
// decoder.DecoderState).
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
		fmt.Fprintf(os.Stderr, "xc-dump: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("xc-dump", flag.ContinueOnError)
	numFrames := fs.Int("f", 0, "stop after N frames (0 = all)")
	inputState := fs.String("S", "", "resume from this previously dumped state")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("missing arguments\nUsage: xc-dump [-f N] [-S state] IN.ivf OUT.state")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := ivf.ReadHeader(f); err != nil {
		return err
	}

	dec := decoder.NewDecoder(decoder.Options{})
	if *inputState != "" {
		raw, err := os.ReadFile(*inputState)
		if err != nil {
			return err
		}
		s, err := decoder.DeserializeState(raw)
		if err != nil {
			return fmt.Errorf("parsing input state: %w", err)
		}
		dec.ImportState(s)
	}

	refs := &decoder.References{}
	var state decoder.DecoderState
	decoded := 0
	for *numFrames == 0 || decoded < *numFrames {
		frame, err := ivf.ReadFrame(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if _, err := dec.Decode(frame.Data, refs); err != nil {
			return fmt.Errorf("frame %d: %w", decoded, err)
		}
		state = dec.ExportState()
		decoded++
	}
	if decoded == 0 {
		return fmt.Errorf("decoded zero frames")
	}

	if err := os.WriteFile(fs.Arg(1), state.Serialize(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Dumped state after %d frames to %s (hash=%016x)\n", decoded, fs.Arg(1), state.Hash())
	return nil
}
