package model

// ImageSample is an immutable decoded raster image plus the compression
// metadata that survived decoding. It is created once per analysis
// request and never mutated by any probe.
type ImageSample struct {
	// Pixels holds 8-bit RGB intensities, interleaved row-major:
	// index = (y*Width + x) * 3.
	Pixels []uint8

	Width  int
	Height int

	// SourceIsJPEG reports whether the original encoding was JPEG.
	SourceIsJPEG bool

	// QuantizationTables maps table id to its 64 coefficients in the
	// order they appeared in the DQT segment. Nil unless the source was
	// JPEG and the tables survived decoding.
	QuantizationTables map[int][]int

	// IsRemoteOrigin is true when the image was fetched from a URL
	// rather than read from a local upload. Remote and small images
	// naturally show lower ELA variance, so thresholds are adjusted.
	IsRemoteOrigin bool
}

// RGBAt returns the channel intensities at (x, y). Callers must stay
// within bounds.
func (s *ImageSample) RGBAt(x, y int) (r, g, b uint8) {
	i := (y*s.Width + x) * 3
	return s.Pixels[i], s.Pixels[i+1], s.Pixels[i+2]
}

// TotalPixels returns Width*Height.
func (s *ImageSample) TotalPixels() int {
	return s.Width * s.Height
}

// Valid reports whether the sample has a well-formed pixel buffer.
func (s *ImageSample) Valid() bool {
	if s == nil || s.Width <= 0 || s.Height <= 0 {
		return false
	}
	return len(s.Pixels) == s.Width*s.Height*3
}
