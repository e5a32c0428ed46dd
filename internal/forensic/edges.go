package forensic

import (
	"math"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// runEdgeConsistency compares two independent edge operators over the
// same image. On an untouched capture both respond to the same
// structure and their mean responses stay close; pasted or blended
// regions pull them apart.
func runEdgeConsistency(gray *imaging.Gray, th model.Thresholds) *probeOutcome {
	if gray.W < 3 || gray.H < 3 {
		return &probeOutcome{order: 7, note: "edges: image too small for edge analysis"}
	}

	lap := laplacianMagnitude(gray)
	sob := sobelMagnitude(gray)

	diff := math.Abs(imaging.Mean(lap) - imaging.Mean(sob))

	issue := diff > th.EdgeConsistencyDiff
	return &probeOutcome{order: 7, apply: func(f *model.ForensicFindings) {
		f.EdgeConsistencyIssue = issue
		if issue {
			f.AddTag(model.TagEdgeInconsistency)
		}
	}}
}

// laplacianMagnitude applies the 8-connected Laplacian over the image
// interior and returns absolute responses.
func laplacianMagnitude(g *imaging.Gray) []float64 {
	out := make([]float64, 0, (g.W-2)*(g.H-2))
	for y := 1; y < g.H-1; y++ {
		for x := 1; x < g.W-1; x++ {
			v := 8*g.At(x, y) -
				g.At(x-1, y-1) - g.At(x, y-1) - g.At(x+1, y-1) -
				g.At(x-1, y) - g.At(x+1, y) -
				g.At(x-1, y+1) - g.At(x, y+1) - g.At(x+1, y+1)
			out = append(out, math.Abs(v))
		}
	}
	return out
}

// sobelMagnitude applies the Sobel gradient operator over the image
// interior and returns gradient magnitudes.
func sobelMagnitude(g *imaging.Gray) []float64 {
	out := make([]float64, 0, (g.W-2)*(g.H-2))
	for y := 1; y < g.H-1; y++ {
		for x := 1; x < g.W-1; x++ {
			gx := -g.At(x-1, y-1) + g.At(x+1, y-1) -
				2*g.At(x-1, y) + 2*g.At(x+1, y) -
				g.At(x-1, y+1) + g.At(x+1, y+1)
			gy := -g.At(x-1, y-1) - 2*g.At(x, y-1) - g.At(x+1, y-1) +
				g.At(x-1, y+1) + 2*g.At(x, y+1) + g.At(x+1, y+1)
			out = append(out, math.Hypot(gx, gy))
		}
	}
	return out
}
