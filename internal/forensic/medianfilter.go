package forensic

import (
	"sort"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// runMedianFilterDetection applies a small-radius median filter and
// compares it to the original. An already-smoothed image barely changes
// under the filter, so a very small mean difference indicates prior
// median filtering or denoising.
func runMedianFilterDetection(gray *imaging.Gray, th model.Thresholds) *probeOutcome {
	// A texture-less image trivially survives median filtering; the
	// check is inconclusive there.
	if imaging.Variance(gray.Pix) < 1.0 {
		return &probeOutcome{order: 3, note: "median filter: image has no texture, check inconclusive"}
	}

	filtered := medianFilter3x3(gray)
	diff := imaging.MeanAbsDiff(gray, filtered)

	filteredLikely := diff < th.MedianFilterMaxDiff
	return &probeOutcome{order: 3, apply: func(f *model.ForensicFindings) {
		f.IsMedianFiltered = filteredLikely
		if filteredLikely {
			f.AddTag(model.TagMedianFilter)
		}
	}}
}

// medianFilter3x3 returns a median-filtered copy with clamped edges.
func medianFilter3x3(g *imaging.Gray) *imaging.Gray {
	out := imaging.NewGray(g.W, g.H)
	window := make([]float64, 0, 9)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					yy := clamp(y+dy, 0, g.H-1)
					xx := clamp(x+dx, 0, g.W-1)
					window = append(window, g.At(xx, yy))
				}
			}
			sort.Float64s(window)
			out.Set(x, y, window[4])
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
