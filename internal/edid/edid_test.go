package edid

import (
	"bytes"
	"testing"
)

func TestEncode_ChecksumZeroMod256(t *testing.T) {
	sizes := []struct{ w, h int }{
		{640, 480},
		{1280, 720},
		{1920, 1080},
		{2560, 1600},
		{3840, 2160},
		{7680, 4320},
		{1, 1},
	}

	for _, s := range sizes {
		block, err := Encode(s.w, s.h)
		if err != nil {
			t.Fatalf("Encode(%d, %d): %v", s.w, s.h, err)
		}
		if len(block) != Size {
			t.Fatalf("Encode(%d, %d): got %d bytes, want %d", s.w, s.h, len(block), Size)
		}

		var sum byte
		for _, b := range block {
			sum += b
		}
		if sum != 0 {
			t.Errorf("Encode(%d, %d): block sums to %d mod 256, want 0", s.w, s.h, sum)
		}
	}
}

func TestEncode_FixedHeader(t *testing.T) {
	block, err := Encode(1920, 1080)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	wantHeader := []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	if !bytes.Equal(block[:8], wantHeader) {
		t.Errorf("header = % X, want % X", block[:8], wantHeader)
	}
	if block[18] != 0x01 || block[19] != 0x04 {
		t.Errorf("version bytes = %X.%X, want 1.4", block[18], block[19])
	}
	if block[23] != 0x78 {
		t.Errorf("gamma byte = %#x, want 0x78", block[23])
	}
}

func TestEncode_PreferredTiming1080p(t *testing.T) {
	block, err := Encode(1920, 1080)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// 1920*1080*60/10000 = 12441 in 10 kHz units, little-endian.
	clock := int(block[54]) | int(block[55])<<8
	if clock != 12441 {
		t.Errorf("pixel clock = %d, want 12441", clock)
	}

	if block[21] != 50 {
		t.Errorf("horizontal size = %d cm, want 50", block[21])
	}
	if block[22] != 28 {
		t.Errorf("vertical size = %d cm, want 28", block[22])
	}

	hActive := int(block[56]) | int(block[58]>>4)<<8
	vActive := int(block[59]) | int(block[61]>>4)<<8
	if hActive != 1920 || vActive != 1080 {
		t.Errorf("active size = %dx%d, want 1920x1080", hActive, vActive)
	}
	if block[57] != 0x30 || block[60] != 0x1E {
		t.Errorf("blanking bytes = %#x/%#x, want 0x30/0x1e", block[57], block[60])
	}
}

func TestEncode_ProductNameDescriptor(t *testing.T) {
	block, err := Encode(1280, 720)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if block[75] != 0xFC {
		t.Fatalf("descriptor tag = %#x, want 0xfc", block[75])
	}

	name := productName
	got := string(block[77 : 77+len(name)])
	if got != name {
		t.Errorf("product name = %q, want %q", got, name)
	}
	if block[77+len(name)] != 0x0A {
		t.Errorf("name terminator = %#x, want 0x0a", block[77+len(name)])
	}
}

func TestEncode_RejectsNonPositiveSize(t *testing.T) {
	for _, s := range []struct{ w, h int }{{0, 1080}, {1920, 0}, {-1, -1}} {
		if _, err := Encode(s.w, s.h); err == nil {
			t.Errorf("Encode(%d, %d): expected error", s.w, s.h)
		}
	}
}
