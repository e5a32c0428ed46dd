package forensic

import (
	"sort"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// runQuantizationAnalysis reads the JPEG quantization tables that
// survived decoding. Unusually high coefficients mean aggressive
// recompression; an unusually uniform table does not match any common
// encoder and suggests the file was rebuilt by a tool.
func runQuantizationAnalysis(sample *model.ImageSample, th model.Thresholds) *probeOutcome {
	if len(sample.QuantizationTables) == 0 {
		if sample.SourceIsJPEG {
			return &probeOutcome{order: 8, note: "quantization: tables not recoverable from stream"}
		}
		return &probeOutcome{order: 8, note: "quantization: not a JPEG source, check skipped"}
	}

	var coeffs []float64
	ids := make([]int, 0, len(sample.QuantizationTables))
	for id := range sample.QuantizationTables {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		for _, c := range sample.QuantizationTables[id] {
			coeffs = append(coeffs, float64(c))
		}
	}

	avg := imaging.Mean(coeffs)
	variance := imaging.Variance(coeffs)

	var signal *model.QuantizationSignal
	var tag model.IndicatorTag
	switch {
	case avg > th.QuantAvgHigh:
		signal = &model.QuantizationSignal{Average: avg, Variance: variance, Label: "HIGH_QUANTIZATION"}
		tag = model.TagHighQuantization
	case variance < th.QuantVarLow && avg > th.QuantAvgModerate:
		signal = &model.QuantizationSignal{Average: avg, Variance: variance, Label: "UNIFORM_QUANTIZATION_LOW_VAR"}
		tag = model.TagUniformQuantization
	}

	return &probeOutcome{order: 8, apply: func(f *model.ForensicFindings) {
		if signal != nil {
			f.QuantizationSignal = signal
			f.AddTag(tag)
		}
	}}
}
