package forensic

import (
	"math"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// runNoiseAnalysis estimates the local noise level on a grid of regions
// and compares the strongest region to the weakest. A single capture
// shows roughly uniform sensor noise; spliced content does not.
func runNoiseAnalysis(gray *imaging.Gray, th model.Thresholds) *probeOutcome {
	regionSize := th.NoiseRegionSize
	if gray.W/4 < regionSize {
		regionSize = gray.W / 4
	}
	if gray.H/4 < regionSize {
		regionSize = gray.H / 4
	}
	if regionSize < 1 {
		regionSize = 1
	}

	blurred := gray.GaussianBlur(2.0)

	var variances []float64
	for y := 0; y+regionSize <= gray.H; y += regionSize {
		for x := 0; x+regionSize <= gray.W; x += regionSize {
			residual := make([]float64, 0, regionSize*regionSize)
			for yy := y; yy < y+regionSize; yy++ {
				for xx := x; xx < x+regionSize; xx++ {
					residual = append(residual, gray.At(xx, yy)-blurred.At(xx, yy))
				}
			}
			variances = append(variances, imaging.Variance(residual))
		}
	}

	if len(variances) == 0 {
		return &probeOutcome{order: 6, note: "noise: image too small for region analysis"}
	}

	minVar, maxVar := variances[0], variances[0]
	for _, v := range variances[1:] {
		minVar = math.Min(minVar, v)
		maxVar = math.Max(maxVar, v)
	}

	ratio := maxVar / math.Max(minVar, 1e-5)
	if ratio < 1 {
		ratio = 1
	}

	inconsistent := ratio > th.NoiseRatioMax
	return &probeOutcome{order: 6, apply: func(f *model.ForensicFindings) {
		f.NoiseRatio = ratio
		if inconsistent {
			f.AddTag(model.TagNoiseInconsistency)
		}
	}}
}
