package imaging

import (
	"bytes"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/veriscope/veriscope/internal/model"
)

// DecodeBytes decodes raw image bytes into an ImageSample. Decode
// errors fail fast with a descriptive error before any probe runs.
// remote marks the sample as URL-sourced, which loosens ELA thresholds
// downstream.
func DecodeBytes(data []byte, remote bool) (*model.ImageSample, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("decode image: empty bounds %dx%d", w, h)
	}

	pixels := make([]uint8, w*h*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixels[i] = uint8(r >> 8)
			pixels[i+1] = uint8(g >> 8)
			pixels[i+2] = uint8(b >> 8)
			i += 3
		}
	}

	sample := &model.ImageSample{
		Pixels:         pixels,
		Width:          w,
		Height:         h,
		SourceIsJPEG:   format == "jpeg",
		IsRemoteOrigin: remote,
	}

	if sample.SourceIsJPEG {
		// Quantization tables are not exposed by image/jpeg; recover
		// them from the raw DQT segments.
		if tables := ParseQuantTables(data); len(tables) > 0 {
			sample.QuantizationTables = tables
		}
	}

	return sample, nil
}

// LoadFile reads and decodes a local image file.
func LoadFile(path string) (*model.ImageSample, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read image file: %w", err)
	}
	sample, err := DecodeBytes(data, false)
	if err != nil {
		return nil, nil, err
	}
	return sample, data, nil
}

// ToRGBA converts a sample to an *image.RGBA for use with the x/image
// scalers. The sample is not modified.
func ToRGBA(s *model.ImageSample) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			r, g, b := s.RGBAt(x, y)
			o := img.PixOffset(x, y)
			img.Pix[o] = r
			img.Pix[o+1] = g
			img.Pix[o+2] = b
			img.Pix[o+3] = 0xff
		}
	}
	return img
}
