package model

import "time"

// Report is the complete corroboration result for one image. Field
// names are stable across versions: the report crosses a process
// boundary to dashboard and audit-log collaborators.
type Report struct {
	DocumentID string    `json:"document_id"`
	Source     string    `json:"source"`      // file path or URL
	AnalyzedAt time.Time `json:"analyzed_at"` // UTC

	// Engine outputs
	Forensic       *ForensicFindings         `json:"forensic,omitempty"`
	ProfileMatches []CompressionProfileMatch `json:"profile_matches"`
	Risk           RiskScore                 `json:"risk"`

	// ForensicFindings fields flattened into issue-shaped entries for
	// uniform downstream handling.
	MetadataIssues []ValidationIssue `json:"metadata_issues"`
	ForensicIssues []ValidationIssue `json:"forensic_findings"`
	ExternalIssues []ValidationIssue `json:"external_issues,omitempty"`

	// Top-level verdict flags. AI generation and reverse search are
	// populated by external collaborators and passed through unchanged.
	IsAuthentic           bool    `json:"is_authentic"`
	IsTampered            bool    `json:"is_tampered"`
	TamperingConfidence   float64 `json:"tampering_confidence"`
	IsAIGenerated         bool    `json:"is_ai_generated"`
	AIDetectionConfidence float64 `json:"ai_detection_confidence"`
	ReverseImageMatches   int     `json:"reverse_image_matches"`

	Summary ReportSummary `json:"summary"`

	ProcessingSeconds float64  `json:"processing_seconds"`
	EnginesUsed       []string `json:"engines_used"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional narrative; never affects scoring
}

// ReportSummary aggregates issue counts for quick triage.
type ReportSummary struct {
	TotalIssues          int  `json:"total_issues"`
	CriticalIssues       int  `json:"critical_issues"`
	RequiresManualReview bool `json:"requires_manual_review"`
}

// ExternalInput carries results supplied by out-of-scope collaborators:
// text/structure/content validators, AI detection and reverse image
// search. All fields are optional.
type ExternalInput struct {
	Issues                []ValidationIssue `json:"issues,omitempty"`
	IsAIGenerated         bool              `json:"is_ai_generated,omitempty"`
	AIDetectionConfidence float64           `json:"ai_detection_confidence,omitempty"`
	ReverseImageMatches   int               `json:"reverse_image_matches,omitempty"`
}

// LLMSummary contains an optional LLM-generated narrative summary.
// It is generated after scoring and never feeds back into the score.
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
