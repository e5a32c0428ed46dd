package forensic

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// elaBrightnessScale amplifies the recompression difference map before
// the variance is taken. The ELA variance bands are calibrated against
// the amplified map.
const elaBrightnessScale = 20

// runELA re-encodes the image at a fixed moderate JPEG quality and
// measures the variance of the amplified difference map. Inconsistent
// compression history shows up as localized high error levels.
func runELA(sample *model.ImageSample, rgba *image.RGBA, th model.Thresholds) *probeOutcome {
	variance, err := elaVariance(rgba, th.ELAQuality)
	if err != nil {
		return &probeOutcome{order: 0, note: fmt.Sprintf("ela: %v", err)}
	}

	interp := interpretELA(variance, sample, th)
	return &probeOutcome{order: 0, apply: func(f *model.ForensicFindings) {
		f.ELAVariance = variance
		f.ELAInterpretation = interp
	}}
}

// elaVariance computes the error-level variance for an RGBA image.
func elaVariance(rgba *image.RGBA, quality int) (float64, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: quality}); err != nil {
		return 0, fmt.Errorf("re-encode: %w", err)
	}

	recompressed, err := jpeg.Decode(&buf)
	if err != nil {
		return 0, fmt.Errorf("decode re-encoded: %w", err)
	}

	bounds := rgba.Bounds()
	diffs := make([]float64, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			o := rgba.PixOffset(x, y)
			r2, g2, b2, _ := recompressed.At(x, y).RGBA()
			diffs = append(diffs,
				amplify(absDiff(rgba.Pix[o], uint8(r2>>8))),
				amplify(absDiff(rgba.Pix[o+1], uint8(g2>>8))),
				amplify(absDiff(rgba.Pix[o+2], uint8(b2>>8))))
		}
	}

	return imaging.Variance(diffs), nil
}

func absDiff(a, b uint8) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}

func amplify(d float64) float64 {
	v := d * elaBrightnessScale
	if v > 255 {
		return 255
	}
	return v
}

// interpretELA maps the variance to a risk band. Web-sourced and small
// images naturally show lower ELA variance, so the lower bands are
// loosened for them.
func interpretELA(variance float64, sample *model.ImageSample, th model.Thresholds) model.ELAInterpretation {
	veryLow := th.ELAVeryLow
	low := th.ELALow

	if sample.IsRemoteOrigin || sample.TotalPixels() < th.SmallImagePixels {
		veryLow *= th.ELARemoteVeryLowAdj
		low *= th.ELARemoteLowAdj
	}

	switch {
	case variance < veryLow:
		return model.ELAInterpretation{
			Level:     model.ELAHighRisk,
			Message:   "EXTREMELY_LOW_ELA: possible synthetic or over-smoothed image",
			RiskBoost: 12,
		}
	case variance < low:
		return model.ELAInterpretation{
			Level:     model.ELALowRisk,
			Message:   "LOW_ELA: likely recompressed/web image or slight processing",
			RiskBoost: 1,
		}
	case variance > th.ELAVeryHigh:
		return model.ELAInterpretation{
			Level:     model.ELAHighRisk,
			Message:   "VERY_HIGH_ELA: strong manipulation signal (multiple edits)",
			RiskBoost: 12,
		}
	case variance > th.ELAHigh:
		return model.ELAInterpretation{
			Level:     model.ELAMediumRisk,
			Message:   "HIGH_ELA_VARIANCE: inconsistent compression patterns",
			RiskBoost: 6,
		}
	default:
		return model.ELAInterpretation{
			Level:     model.ELANormal,
			Message:   "Normal compression pattern",
			RiskBoost: 0,
		}
	}
}
