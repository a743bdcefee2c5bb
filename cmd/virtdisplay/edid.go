package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/virtdisplay/internal/edid"
)

func runEDID(args []string) int {
	fs := flag.NewFlagSet("edid", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: virtdisplay edid [--width N] [--height N] [--out FILE]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Encode a 128-byte EDID base block for a resolution. Output is a hex")
		fmt.Fprintln(os.Stderr, "dump on a terminal and raw bytes when redirected or written to a file.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	width := fs.Int("width", 1920, "Horizontal resolution in pixels")
	height := fs.Int("height", 1080, "Vertical resolution in pixels")
	out := fs.String("out", "", "Write raw EDID bytes to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "edid takes no arguments")
		fs.Usage()
		return 2
	}

	block, err := edid.Encode(*width, *height)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *out != "" {
		if err := os.WriteFile(*out, block, 0644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("wrote %d bytes to %s\n", len(block), *out)
		return 0
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		for i := 0; i < len(block); i += 16 {
			fmt.Printf("%03x:", i)
			for j := i; j < i+16; j++ {
				fmt.Printf(" %02x", block[j])
			}
			fmt.Println()
		}
		return 0
	}

	if _, err := os.Stdout.Write(block); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
