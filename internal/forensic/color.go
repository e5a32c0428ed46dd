package forensic

import (
	"math"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// runColorCorrelation computes the mean pairwise Pearson correlation
// between the color channels. Natural photographs show strongly
// correlated channels; low correlation suggests channel-level
// manipulation.
func runColorCorrelation(sample *model.ImageSample, th model.Thresholds) *probeOutcome {
	r, g, b := channelVectors(sample)

	rg := imaging.Correlation(r, g)
	rb := imaging.Correlation(r, b)
	gb := imaging.Correlation(g, b)
	corr := (rg + rb + gb) / 3

	low := corr < th.ColorCorrLow
	return &probeOutcome{order: 4, apply: func(f *model.ForensicFindings) {
		f.ColorCorrelation = corr
		if low {
			f.AddTag(model.TagLowColorCorrelation)
		}
	}}
}

// runColorTemperature compares the channel mean ratios. A strong red
// shift against green or blue indicates lighting inconsistent with a
// single capture.
func runColorTemperature(sample *model.ImageSample, th model.Thresholds) *probeOutcome {
	r, g, b := channelVectors(sample)

	rm := imaging.Mean(r)
	gm := imaging.Mean(g)
	bm := imaging.Mean(b)

	rg := rm / math.Max(gm, 1e-5)
	rb := rm / math.Max(bm, 1e-5)

	issue := math.Abs(rg-1.0) > th.ColorTempRatioDiff || math.Abs(rb-1.0) > th.ColorTempRatioDiff
	return &probeOutcome{order: 5, apply: func(f *model.ForensicFindings) {
		f.ColorTemperatureIssue = issue
		if issue {
			f.AddTag(model.TagColorTemperature)
		}
	}}
}

func channelVectors(sample *model.ImageSample) (r, g, b []float64) {
	n := sample.TotalPixels()
	r = make([]float64, n)
	g = make([]float64, n)
	b = make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = float64(sample.Pixels[i*3])
		g[i] = float64(sample.Pixels[i*3+1])
		b[i] = float64(sample.Pixels[i*3+2])
	}
	return r, g, b
}
