package model

// Severity levels for validation issues and risk classification
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityPoints maps a severity to its base point contribution.
// Values mirror the scoring table used by the risk scorer.
func SeverityPoints(s Severity) float64 {
	switch s {
	case SeverityLow:
		return 10
	case SeverityMedium:
		return 30
	case SeverityHigh:
		return 60
	case SeverityCritical:
		return 100
	default:
		return 10
	}
}

// ValidationIssue is a single issue reported by a validation domain.
// Issues produced by the forensic engine use category "forensic" or
// "metadata"; external collaborators (format, structure, content
// validators) supply their own categories.
type ValidationIssue struct {
	Category    string                 `json:"category"`
	Severity    Severity               `json:"severity"`
	Description string                 `json:"description"`
	Location    string                 `json:"location,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}
