package model

// ELALevel classifies the error-level-analysis variance band.
type ELALevel string

const (
	ELANormal     ELALevel = "NORMAL"
	ELALowRisk    ELALevel = "LOW_RISK"
	ELAMediumRisk ELALevel = "MEDIUM_RISK"
	ELAHighRisk   ELALevel = "HIGH_RISK"
)

// ELAInterpretation is the contextual reading of the ELA variance.
type ELAInterpretation struct {
	Level     ELALevel `json:"level"`
	Message   string   `json:"message"`
	RiskBoost int      `json:"risk_boost"`
}

// IndicatorTag is a normalized machine-readable forensic indicator.
type IndicatorTag string

const (
	TagClone               IndicatorTag = "CLONE"
	TagResampling          IndicatorTag = "RESAMPLING_DETECTED"
	TagMedianFilter        IndicatorTag = "MEDIAN_FILTER_DETECTED"
	TagColorTemperature    IndicatorTag = "COLOR_TEMPERATURE"
	TagNoiseInconsistency  IndicatorTag = "NOISE_INCONSISTENCY"
	TagLowColorCorrelation IndicatorTag = "COLOR_CHANNEL_LOW_CORR"
	TagEdgeInconsistency   IndicatorTag = "EDGE_CONSISTENCY"
	TagHighQuantization    IndicatorTag = "HIGH_QUANTIZATION"
	TagUniformQuantization IndicatorTag = "UNIFORM_QUANTIZATION_LOW_VAR"
)

// TamperTags are the indicators that count as independent tamper
// evidence. The normalization step never reduces a score while any of
// these is present.
var TamperTags = []IndicatorTag{
	TagClone,
	TagResampling,
	TagMedianFilter,
	TagColorTemperature,
	TagNoiseInconsistency,
}

// QuantizationSignal summarizes the JPEG quantization tables when they
// survived decoding.
type QuantizationSignal struct {
	Average  float64 `json:"average"`
	Variance float64 `json:"variance"`
	Label    string  `json:"label"`
}

// ForensicFindings is the aggregate result of all tampering probes for
// one image. Probes that could not run leave their zero value and add a
// diagnostic note instead of failing the analysis.
type ForensicFindings struct {
	ELAVariance       float64           `json:"ela_variance"`
	ELAInterpretation ELAInterpretation `json:"ela_interpretation"`

	CloneMatches     int  `json:"clone_matches"`
	IsResampled      bool `json:"is_resampled"`
	IsMedianFiltered bool `json:"is_median_filtered"`

	ColorCorrelation      float64 `json:"color_correlation"`
	ColorTemperatureIssue bool    `json:"color_temperature_issue"`
	NoiseRatio            float64 `json:"noise_ratio"`
	EdgeConsistencyIssue  bool    `json:"edge_consistency_issue"`

	QuantizationSignal *QuantizationSignal `json:"quantization_signal,omitempty"`

	// IndicatorTags lists triggered indicators in canonical probe order,
	// deduplicated, so repeated analyses are bit-identical.
	IndicatorTags []IndicatorTag `json:"indicator_tags"`

	// Notes records probes that degraded gracefully and why.
	Notes []string `json:"notes,omitempty"`
}

// HasTag reports whether the given indicator was triggered.
func (f *ForensicFindings) HasTag(tag IndicatorTag) bool {
	for _, t := range f.IndicatorTags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasTamperEvidence reports whether any independent tamper indicator is
// present.
func (f *ForensicFindings) HasTamperEvidence() bool {
	for _, t := range TamperTags {
		if f.HasTag(t) {
			return true
		}
	}
	return false
}

// AddTag appends a tag if not already present, preserving order.
func (f *ForensicFindings) AddTag(tag IndicatorTag) {
	if !f.HasTag(tag) {
		f.IndicatorTags = append(f.IndicatorTags, tag)
	}
}
