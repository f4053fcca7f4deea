// Command xc-terminate-chunk rewrites the final frame of an IVF stream so
// that, after decoding it, all three references (last, golden, altref) are
// refreshed to its output: the property a track's closing frame needs so
// that a switch landing on it can treat its state as a fresh restart point.
//
// Usage:
//
//	xc-terminate-chunk IN.ivf OUT.ivf [OUT.state]
//
// This encoder has no interframe-refresh-flag rewrite path (see
// encoder.EncodeKeyframe's doc comment); a keyframe decode always
// refreshes all three references unconditionally (decoder.Decoder.Decode
// sets RefreshGolden/RefreshAlternate/RefreshLast on every keyframe), so
// the final frame is replaced by a freshly encoded keyframe at the same
// dimensions rather than having its interframe refresh bits patched in
// place.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/deepteams/alfalfa/decoder"
	"github.com/deepteams/alfalfa/encoder"
	"github.com/deepteams/alfalfa/ivf"
)

// terminatingQI is the fixed quantizer used for the replacement keyframe;
// this tool only needs the frame's reference-refresh behavior to match,
// not its visual quality.
const terminatingQI = 32

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "xc-terminate-chunk: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("xc-terminate-chunk", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("missing arguments\nUsage: xc-terminate-chunk IN.ivf OUT.ivf [OUT.state]")
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)
	var outStatePath string
	if fs.NArg() >= 3 {
		outStatePath = fs.Arg(2)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	h, err := ivf.ReadHeader(in)
	if err != nil {
		return err
	}

	var frames []ivf.Frame
	for {
		f, err := ivf.ReadFrame(in)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return fmt.Errorf("input has no frames")
	}

	replacement, err := encoder.EncodeKeyframe(encoder.Options{
		Width:     int(h.Width),
		Height:    int(h.Height),
		YACQIndex: terminatingQI,
	})
	if err != nil {
		return fmt.Errorf("encoding replacement keyframe: %w", err)
	}
	frames[len(frames)-1].Data = replacement

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := ivf.WriteHeader(out, h); err != nil {
		return err
	}
	for _, f := range frames {
		if err := ivf.WriteFrame(out, f); err != nil {
			return err
		}
	}

	if outStatePath != "" {
		dec := decoder.NewDecoder(decoder.Options{})
		refs := &decoder.References{}
		for _, f := range frames {
			if _, err := dec.Decode(f.Data, refs); err != nil {
				return fmt.Errorf("verifying rewritten stream: %w", err)
			}
		}
		if err := os.WriteFile(outStatePath, dec.ExportState().Serialize(), 0o644); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Terminated %s -> %s (%d frames)\n", inPath, outPath, len(frames))
	return nil
}
