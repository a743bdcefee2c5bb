package display

import "github.com/1broseidon/virtdisplay/internal/host"

// Mode is one displayable timing: a width/height/refresh triple.
type Mode struct {
	Width     int
	Height    int
	RefreshHz int
}

// Catalog is an ordered table of supported display modes. Index 0 is the
// preferred mode. Catalogs are shared read-only data; nothing mutates one
// after construction.
type Catalog []Mode

// DefaultCatalog returns the built-in mode table.
func DefaultCatalog() Catalog {
	return Catalog{
		{1920, 1080, 60},
		{1920, 1080, 120},
		{2560, 1600, 60},
		{1280, 720, 60},
		{3840, 2160, 60},
	}
}

// Clamp bounds a requested mode count to the catalog size.
func (c Catalog) Clamp(n int) int {
	if n > len(c) {
		return len(c)
	}
	if n < 0 {
		return 0
	}
	return n
}

// Preferred returns the catalog's preferred mode.
func (c Catalog) Preferred() Mode {
	return c[0]
}

// Signal derives the timing fields the host matches modes against. The
// arithmetic is exact: the host compares these values verbatim, so no
// rounding is permitted.
func (m Mode) Signal() host.VideoSignal {
	return host.VideoSignal{
		ActiveWidth:  m.Width,
		ActiveHeight: m.Height,
		VSyncHz:      m.RefreshHz,
		HSyncHz:      m.RefreshHz * m.Height,
		PixelRate:    uint64(m.Width) * uint64(m.Height) * uint64(m.RefreshHz),
		Progressive:  true,
	}
}

// Valid reports whether the mode has positive dimensions and refresh.
func (m Mode) Valid() bool {
	return m.Width > 0 && m.Height > 0 && m.RefreshHz > 0
}
