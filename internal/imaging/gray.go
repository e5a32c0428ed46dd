package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/veriscope/veriscope/internal/model"
)

// Gray is a float64 grayscale matrix. Probes operate on float values to
// avoid repeated integer/float conversions in the arithmetic-heavy
// paths.
type Gray struct {
	Pix []float64
	W   int
	H   int
}

// NewGray allocates a zeroed grayscale matrix.
func NewGray(w, h int) *Gray {
	return &Gray{Pix: make([]float64, w*h), W: w, H: h}
}

// At returns the intensity at (x, y).
func (g *Gray) At(x, y int) float64 {
	return g.Pix[y*g.W+x]
}

// Set stores an intensity at (x, y).
func (g *Gray) Set(x, y int, v float64) {
	g.Pix[y*g.W+x] = v
}

// GrayFromSample converts a sample to grayscale using the Rec. 601 luma
// weights, matching the common L-mode conversion.
func GrayFromSample(s *model.ImageSample) *Gray {
	g := NewGray(s.Width, s.Height)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			r, gr, b := s.RGBAt(x, y)
			g.Set(x, y, 0.299*float64(r)+0.587*float64(gr)+0.114*float64(b))
		}
	}
	return g
}

// Crop returns a copy of the region [x0,x0+w) x [y0,y0+h).
func (g *Gray) Crop(x0, y0, w, h int) *Gray {
	out := NewGray(w, h)
	for y := 0; y < h; y++ {
		copy(out.Pix[y*w:(y+1)*w], g.Pix[(y0+y)*g.W+x0:(y0+y)*g.W+x0+w])
	}
	return out
}

// ScaleToMaxDim downscales so the longer side is at most maxDim, using
// the Catmull-Rom scaler. Returns the receiver unchanged if it already
// fits.
func (g *Gray) ScaleToMaxDim(maxDim int) *Gray {
	longer := g.W
	if g.H > longer {
		longer = g.H
	}
	if longer <= maxDim {
		return g
	}
	scale := float64(maxDim) / float64(longer)
	nw := int(float64(g.W) * scale)
	nh := int(float64(g.H) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	src := g.toImage()
	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return grayFromImage(dst)
}

func (g *Gray) toImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.W, g.H))
	for i, v := range g.Pix {
		img.Pix[i] = clampByte(v)
	}
	return img
}

func grayFromImage(img *image.Gray) *Gray {
	b := img.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	for y := 0; y < g.H; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+g.W]
		for x, v := range row {
			g.Pix[y*g.W+x] = float64(v)
		}
	}
	return g
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// GaussianBlur returns a blurred copy using a separable kernel with the
// given sigma. Edges are clamped.
func (g *Gray) GaussianBlur(sigma float64) *Gray {
	radius := int(2*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := gaussianKernel(sigma, radius)

	// Horizontal pass
	tmp := NewGray(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				xx := clampInt(x+k, 0, g.W-1)
				sum += g.At(xx, y) * kernel[k+radius]
			}
			tmp.Set(x, y, sum)
		}
	}

	// Vertical pass
	out := NewGray(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				yy := clampInt(y+k, 0, g.H-1)
				sum += tmp.At(x, yy) * kernel[k+radius]
			}
			out.Set(x, y, sum)
		}
	}
	return out
}

func gaussianKernel(sigma float64, radius int) []float64 {
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := gaussian(float64(i), sigma)
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func gaussian(x, sigma float64) float64 {
	return math.Exp(-(x * x) / (2 * sigma * sigma))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
