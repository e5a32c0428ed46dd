package forensic

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// dcExclusionRadius is the half-size of the low-frequency block zeroed
// around the spectrum center before peak analysis.
const dcExclusionRadius = 5

// topPeakCount is how many of the strongest off-center bins are
// averaged against the spectrum median.
const topPeakCount = 50

// runResamplingDetection looks for periodic peaks in the frequency
// spectrum. Uniform resizing imprints such peaks; unmodified captures
// do not. The image is downscaled first to bound the transform cost.
func runResamplingDetection(gray *imaging.Gray, th model.Thresholds) *probeOutcome {
	small := gray.ScaleToMaxDim(th.ResamplingMaxDim)
	if small.W < 2*dcExclusionRadius+2 || small.H < 2*dcExclusionRadius+2 {
		return &probeOutcome{order: 2, note: "resampling: image too small for spectrum analysis"}
	}

	magnitude := spectrumMagnitude(small)

	// Zero the low-frequency block around the shifted center.
	cy, cx := small.H/2, small.W/2
	for y := cy - dcExclusionRadius; y <= cy+dcExclusionRadius; y++ {
		for x := cx - dcExclusionRadius; x <= cx+dcExclusionRadius; x++ {
			if y >= 0 && y < small.H && x >= 0 && x < small.W {
				magnitude[y*small.W+x] = 0
			}
		}
	}

	sorted := make([]float64, len(magnitude))
	copy(sorted, magnitude)
	sort.Float64s(sorted)

	median := sorted[len(sorted)/2]
	if median <= 0 {
		return &probeOutcome{order: 2, apply: func(f *model.ForensicFindings) {
			f.IsResampled = false
		}}
	}

	n := topPeakCount
	if len(sorted) < n {
		n = len(sorted)
	}
	topMean := imaging.Mean(sorted[len(sorted)-n:])

	resampled := topMean/(median+1e-8) > th.ResamplingPeakRatio
	return &probeOutcome{order: 2, apply: func(f *model.ForensicFindings) {
		f.IsResampled = resampled
		if resampled {
			f.AddTag(model.TagResampling)
		}
	}}
}

// spectrumMagnitude computes the centered 2D FFT magnitude of a
// grayscale matrix: rows first, then columns, then a fftshift so the
// zero frequency sits at the center.
func spectrumMagnitude(g *imaging.Gray) []float64 {
	w, h := g.W, g.H

	grid := make([]complex128, w*h)
	for i, v := range g.Pix {
		grid[i] = complex(v, 0)
	}

	rowFFT := fourier.NewCmplxFFT(w)
	rowIn := make([]complex128, w)
	rowOut := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(rowIn, grid[y*w:(y+1)*w])
		rowFFT.Coefficients(rowOut, rowIn)
		copy(grid[y*w:(y+1)*w], rowOut)
	}

	colFFT := fourier.NewCmplxFFT(h)
	colIn := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colIn[y] = grid[y*w+x]
		}
		colFFT.Coefficients(colOut, colIn)
		for y := 0; y < h; y++ {
			grid[y*w+x] = colOut[y]
		}
	}

	// fftshift while taking magnitudes.
	magnitude := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sy := (y + h/2) % h
			sx := (x + w/2) % w
			magnitude[sy*w+sx] = cmplxAbs(grid[y*w+x])
		}
	}
	return magnitude
}

func cmplxAbs(c complex128) float64 {
	re, im := real(c), imag(c)
	return math.Sqrt(re*re + im*im)
}
