// Command xc-diff compares two decoder state files written by xc-dump or
// xc-terminate-chunk, exiting nonzero if they differ.
//
// Usage:
//
//	xc-diff state1 state2
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/deepteams/alfalfa/decoder"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: xc-diff state1 state2")
		return 2
	}

	s1, err := loadState(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "xc-diff: %v\n", err)
		return 2
	}
	s2, err := loadState(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "xc-diff: %v\n", err)
		return 2
	}

	if cmp.Equal(s1, s2) {
		fmt.Println("identical")
		return 0
	}

	fmt.Printf("%s and %s differ\n", args[0], args[1])
	if s1.Width != s2.Width || s1.Height != s2.Height {
		fmt.Printf("  dimensions: %dx%d vs %dx%d\n", s1.Width, s1.Height, s2.Width, s2.Height)
	}
	if s1.Hash() != s2.Hash() {
		fmt.Printf("  state hash: %016x vs %016x\n", s1.Hash(), s2.Hash())
	}
	if s1.SegHdr != s2.SegHdr {
		fmt.Println("  segment header differs")
	}
	if s1.FilterHdr != s2.FilterHdr {
		fmt.Println("  filter header differs")
	}
	if diff := cmp.Diff(s1, s2); diff != "" {
		fmt.Println("  field diff:")
		for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
			fmt.Println("   " + line)
		}
	}
	return 1
}

func loadState(path string) (decoder.DecoderState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return decoder.DecoderState{}, err
	}
	return decoder.DeserializeState(raw)
}
