package imaging

import "gonum.org/v1/gonum/stat"

// Mean returns the arithmetic mean of vs, or 0 for empty input.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return stat.Mean(vs, nil)
}

// Variance returns the population variance of vs, matching the
// convention of the calibration corpus (divisor n, not n-1).
func Variance(vs []float64) float64 {
	n := len(vs)
	if n < 2 {
		return 0
	}
	// stat.Variance uses the unbiased n-1 divisor; rescale.
	return stat.Variance(vs, nil) * float64(n-1) / float64(n)
}

// Correlation returns the Pearson correlation of two equal-length
// vectors. Near-constant inputs yield 1.0: correlation is not
// meaningful there and flat channels should not read as anomalous.
func Correlation(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1.0
	}
	if stat.StdDev(a, nil) < 1e-5 || stat.StdDev(b, nil) < 1e-5 {
		return 1.0
	}
	return stat.Correlation(a, b, nil)
}

// MeanAbsDiff returns the mean absolute difference between two
// equal-size grayscale matrices.
func MeanAbsDiff(a, b *Gray) float64 {
	if len(a.Pix) == 0 || len(a.Pix) != len(b.Pix) {
		return 0
	}
	var sum float64
	for i := range a.Pix {
		d := a.Pix[i] - b.Pix[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(a.Pix))
}
