// Package edid synthesizes the 128-byte EDID base block a virtual monitor
// reports to the host. The host's mode validator consumes the block
// byte-for-byte, so every constant here is contract data.
package edid

import (
	"errors"
	"fmt"
)

// Size is the length of an EDID base block in bytes.
const Size = 128

// productName is written into the display product name descriptor. It must
// fit the descriptor's 13-byte payload.
const productName = "VirtDisplay"

// ErrInvalidArgument reports a malformed encode request.
var ErrInvalidArgument = errors.New("edid: invalid argument")

// Encode builds the EDID base block for a monitor with the given active
// size in pixels.
//
// The preferred-timing descriptor always assumes 60 Hz regardless of the
// refresh rate the monitor later negotiates; the pixel clock field is
// derived from that fixed rate. Dimensions large enough to overflow the
// byte-truncated size fields wrap rather than fail.
func Encode(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidArgument, width, height)
	}

	b := make([]byte, Size)

	// Fixed header pattern.
	copy(b[0:8], []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00})

	// Manufacturer ID (compressed ASCII) and product code.
	b[8] = 0x15
	b[9] = 0x30
	b[10] = 0x01
	b[11] = 0x00

	// Serial number, week and year of manufacture.
	b[12] = 0x01
	b[16] = 0x01
	b[17] = 0x24

	// EDID version 1.4.
	b[18] = 0x01
	b[19] = 0x04

	// Digital input, 8-bit color.
	b[20] = 0x95

	// Physical size in cm, assuming 96 DPI. Integer truncation matches
	// what mode validators were calibrated against; do not round.
	b[21] = byte(width * 254 / 960 / 10)
	b[22] = byte(height * 254 / 960 / 10)

	// Gamma 2.2 and feature support bits.
	b[23] = 0x78
	b[24] = 0x2A

	// Color characteristics: sRGB primaries.
	copy(b[25:35], []byte{0x0D, 0xC9, 0xA0, 0x57, 0x47, 0x98, 0x27, 0x12, 0x48, 0x4C})

	// Established and standard timings stay empty; the preferred timing
	// descriptor below is the only advertised timing.

	// Detailed timing descriptor 1: preferred timing.
	pixelClock := width * height * 60 / 10000 // 10 kHz units
	b[54] = byte(pixelClock)
	b[55] = byte(pixelClock >> 8)

	b[56] = byte(width)                        // horizontal active, low byte
	b[57] = 0x30                               // horizontal blanking, low byte
	b[58] = byte(((width >> 8) & 0x0F) << 4)   // horizontal active, high nibble

	b[59] = byte(height)                       // vertical active, low byte
	b[60] = 0x1E                               // vertical blanking, low byte
	b[61] = byte(((height >> 8) & 0x0F) << 4)  // vertical active, high nibble

	// Detailed timing descriptor 2: display product name.
	b[75] = 0xFC
	name := productName
	if len(name) > 13 {
		name = name[:13]
	}
	copy(b[77:], name)
	if len(name) < 13 {
		b[77+len(name)] = 0x0A
	}

	// Descriptors 3 and 4 stay empty; no extension blocks follow.

	// Checksum: the 128-byte block must sum to 0 mod 256.
	var sum byte
	for _, v := range b[:Size-1] {
		sum += v
	}
	b[Size-1] = byte(256 - int(sum))

	return b, nil
}
