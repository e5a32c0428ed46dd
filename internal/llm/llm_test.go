package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/veriscope/veriscope/internal/model"
)

func sampleReport() model.Report {
	return model.Report{
		Source: "statement.jpg",
		Risk: model.RiskScore{
			OverallScore: 62,
			RiskLevel:    model.RiskMedium,
			Confidence:   0.75,
			ContributingFactors: []model.ContributingFactor{
				{Component: "forensic", Factor: "CLONE_DETECTION", Severity: model.SeverityHigh, Impact: 20},
				{Component: "forensic", Factor: "NOISE_INCONSISTENCY", Severity: model.SeverityMedium, Impact: 10},
			},
			NormalizationNote: "score reduced to 50%: compression consistent with messaging-low and no independent tamper evidence",
		},
		Forensic: &model.ForensicFindings{
			IndicatorTags: []model.IndicatorTag{model.TagClone, model.TagNoiseInconsistency},
		},
		Summary: model.ReportSummary{TotalIssues: 3, CriticalIssues: 1},
	}
}

func TestBuildPrompt_ContainsSignalsAndRules(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	for _, want := range []string{
		"statement.jpg",
		"62/100",
		"MEDIUM",
		"CLONE_DETECTION",
		"Tamper indicators: 2",
		"3 (1 critical)",
		"Never declare",
		"score reduced to 50%",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_CapsContributingFactors(t *testing.T) {
	report := sampleReport()
	report.Risk.ContributingFactors = nil
	for i := 0; i < 8; i++ {
		report.Risk.ContributingFactors = append(report.Risk.ContributingFactors,
			model.ContributingFactor{Component: "forensic", Factor: "FACTOR_" + strings.Repeat("X", i+1), Impact: 5})
	}

	prompt := BuildPrompt(report)
	if strings.Contains(prompt, "FACTOR_XXXXXX") {
		t.Error("prompt should list at most five factors")
	}
	if !strings.Contains(prompt, "FACTOR_XXXXX") {
		t.Error("fifth factor should still be listed")
	}
}

func TestVerdictWarnings(t *testing.T) {
	clean := "The error-level analysis shows elevated variance in two regions. No clone-stamp evidence was found."
	if warnings := verdictWarnings(clean); len(warnings) != 0 {
		t.Errorf("descriptive summary flagged: %v", warnings)
	}

	verdict := "The compression history is unremarkable, so the document is authentic."
	warnings := verdictWarnings(verdict)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if !strings.Contains(warnings[0], "is authentic") {
		t.Errorf("warning should name the phrase: %s", warnings[0])
	}
}

func TestNewProvider_DisabledAndUnknown(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil || p != nil {
		t.Error("empty provider must disable summarization without error")
	}

	if _, err := NewProvider(Config{Provider: "local-magic"}); err == nil {
		t.Error("unknown provider must error")
	}
}

func TestSummarizer_IsEnabled(t *testing.T) {
	var s *Summarizer
	if s.IsEnabled() {
		t.Error("nil summarizer must report disabled")
	}

	disabled, err := NewSummarizer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}
	if disabled.IsEnabled() {
		t.Error("summarizer without provider must report disabled")
	}

	summary, err := disabled.GenerateSummary(context.Background(), sampleReport())
	if err != nil || summary != nil {
		t.Error("disabled summarizer must return no summary and no error")
	}
}
