package model

// RiskLevel classifies an overall risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelForScore maps a clamped score to its level. The mapping is
// deterministic and monotonic: <=40 LOW, <=70 MEDIUM, <=85 HIGH,
// above CRITICAL.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score <= 40:
		return RiskLow
	case score <= 70:
		return RiskMedium
	case score <= 85:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ContributingFactor is one signal that moved the risk score, recorded
// in the order it was applied so the result is auditable.
type ContributingFactor struct {
	Component string                 `json:"component"`
	Factor    string                 `json:"factor"`
	Severity  Severity               `json:"severity"`
	Impact    float64                `json:"impact"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// RiskScore is the externally visible risk assessment.
type RiskScore struct {
	OverallScore        float64              `json:"overall_score"`
	RiskLevel           RiskLevel            `json:"risk_level"`
	Confidence          float64              `json:"confidence"`
	ContributingFactors []ContributingFactor `json:"contributing_factors"`
	Recommendations     []string             `json:"recommendations"`
	NormalizationNote   string               `json:"normalization_note,omitempty"`
}
