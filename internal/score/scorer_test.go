package score

import (
	"math"
	"reflect"
	"testing"

	"github.com/veriscope/veriscope/internal/model"
)

func cleanFindings() *model.ForensicFindings {
	return &model.ForensicFindings{
		ELAVariance:       300,
		ELAInterpretation: model.ELAInterpretation{Level: model.ELANormal, Message: "Normal compression pattern"},
		ColorCorrelation:  0.95,
		NoiseRatio:        1.2,
	}
}

func tamperedFindings() *model.ForensicFindings {
	f := cleanFindings()
	f.CloneMatches = 3
	f.AddTag(model.TagClone)
	f.AddTag(model.TagResampling)
	f.IsResampled = true
	return f
}

func TestScorer_Score_NoDomains(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	_, err := scorer.Score(nil, nil, nil)
	if err == nil {
		t.Fatal("expected error when no analysis domains contributed")
	}
}

func TestScorer_Score_CleanImage(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	risk, err := scorer.Score(cleanFindings(), nil, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if risk.OverallScore != 0 {
		t.Errorf("expected zero score for clean findings, got %.1f", risk.OverallScore)
	}
	if risk.RiskLevel != model.RiskLow {
		t.Errorf("expected LOW risk level, got %s", risk.RiskLevel)
	}
	if len(risk.Recommendations) == 0 {
		t.Error("expected at least the ACCEPT recommendation")
	}
}

func TestScorer_Score_TamperEvidenceRaisesScore(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	clean, err := scorer.Score(cleanFindings(), nil, nil)
	if err != nil {
		t.Fatalf("Score clean: %v", err)
	}
	tampered, err := scorer.Score(tamperedFindings(), nil, nil)
	if err != nil {
		t.Fatalf("Score tampered: %v", err)
	}

	if tampered.OverallScore <= clean.OverallScore {
		t.Errorf("tampered score %.1f should exceed clean score %.1f",
			tampered.OverallScore, clean.OverallScore)
	}
	if len(tampered.ContributingFactors) == 0 {
		t.Error("expected contributing factors for tampered findings")
	}
}

func TestScorer_Score_FactorsSumToImageScore(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	f := tamperedFindings()
	risk, err := scorer.Score(f, nil, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// One domain present, weight renormalizes to 1, so the overall
	// score is exactly the sum of the image factor impacts.
	var sum float64
	for _, factor := range risk.ContributingFactors {
		if factor.Component != "image_forensics" {
			t.Fatalf("unexpected component %s", factor.Component)
		}
		sum += factor.Impact
	}
	if math.Abs(risk.OverallScore-sum) > 1e-9 {
		t.Errorf("overall score %.1f does not match factor sum %.1f", risk.OverallScore, sum)
	}
}

func TestScorer_Score_NormalizationForKnownChannel(t *testing.T) {
	th := model.DefaultThresholds()
	scorer := NewScorer(th)

	f := cleanFindings()
	f.ELAVariance = 30
	f.ELAInterpretation = model.ELAInterpretation{Level: model.ELALowRisk, Message: "LOW_ELA", RiskBoost: 1}

	profiles := []model.CompressionProfileMatch{
		{ProfileID: model.ProfileMessagingLow, Label: "Messaging app recompression (heavy)", Confidence: model.MatchHigh},
	}

	withChannel, err := scorer.Score(f, profiles, nil)
	if err != nil {
		t.Fatalf("Score with channel: %v", err)
	}
	withoutChannel, err := scorer.Score(f, nil, nil)
	if err != nil {
		t.Fatalf("Score without channel: %v", err)
	}

	want := withoutChannel.OverallScore * th.NormKeepLow
	if math.Abs(withChannel.OverallScore-want) > 1e-9 {
		t.Errorf("expected normalized score %.2f, got %.2f", want, withChannel.OverallScore)
	}
	if withChannel.NormalizationNote == "" {
		t.Error("expected normalization note naming the channel")
	}
}

func TestScorer_Score_NormalizationNeverAppliesWithTamperEvidence(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	f := tamperedFindings()
	f.ELAVariance = 30

	profiles := []model.CompressionProfileMatch{
		{ProfileID: model.ProfileMessagingLow, Label: "Messaging app recompression (heavy)"},
	}

	withChannel, err := scorer.Score(f, profiles, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	withoutChannel, err := scorer.Score(f, nil, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if withChannel.OverallScore != withoutChannel.OverallScore {
		t.Errorf("normalization must not apply with tamper evidence: %.1f != %.1f",
			withChannel.OverallScore, withoutChannel.OverallScore)
	}
	if withChannel.NormalizationNote != "" {
		t.Errorf("unexpected normalization note: %s", withChannel.NormalizationNote)
	}
}

func TestScorer_Score_CameraOriginalDoesNotNormalize(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	f := cleanFindings()
	f.ELAVariance = 200
	f.ELAInterpretation = model.ELAInterpretation{Level: model.ELANormal}

	profiles := []model.CompressionProfileMatch{
		{ProfileID: model.ProfileCameraOriginal, Label: "Camera original (lightly compressed)"},
	}

	risk, err := scorer.Score(f, profiles, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if risk.NormalizationNote != "" {
		t.Error("camera-original profile must not trigger normalization")
	}
}

func TestScorer_Score_ExternalIssuesContribute(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	issues := []model.ValidationIssue{
		{Category: "structure", Severity: model.SeverityCritical, Description: "page count mismatch"},
	}

	risk, err := scorer.Score(nil, nil, issues)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// Single structure domain, weight renormalizes to 1, critical = 100.
	if risk.OverallScore != 100 {
		t.Errorf("expected score 100, got %.1f", risk.OverallScore)
	}
	if risk.RiskLevel != model.RiskCritical {
		t.Errorf("expected CRITICAL, got %s", risk.RiskLevel)
	}
}

func TestScorer_Score_ConfidenceGrowsWithDomains(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	one, err := scorer.Score(cleanFindings(), nil, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	issues := []model.ValidationIssue{
		{Category: "format", Severity: model.SeverityLow, Description: "nonstandard marker order"},
		{Category: "structure", Severity: model.SeverityLow, Description: "trailing bytes after EOI"},
	}
	three, err := scorer.Score(cleanFindings(), nil, issues)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if three.Confidence <= one.Confidence {
		t.Errorf("confidence should grow with domains: %.2f <= %.2f", three.Confidence, one.Confidence)
	}
}

func TestScorer_Score_Deterministic(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	issues := []model.ValidationIssue{
		{Category: "format", Severity: model.SeverityMedium, Description: "double-saved JPEG"},
		{Category: "content", Severity: model.SeverityHigh, Description: "font inconsistency"},
	}

	first, err := scorer.Score(tamperedFindings(), nil, issues)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := scorer.Score(tamperedFindings(), nil, issues)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("repeated scoring produced different results")
		}
	}
}

func TestScorer_Score_RecommendationsCapped(t *testing.T) {
	scorer := NewScorer(model.DefaultThresholds())

	var issues []model.ValidationIssue
	for i := 0; i < 20; i++ {
		issues = append(issues, model.ValidationIssue{
			Category:    "content",
			Severity:    model.SeverityCritical,
			Description: "critical content issue",
		})
	}

	risk, err := scorer.Score(tamperedFindings(), nil, issues)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(risk.Recommendations) > 10 {
		t.Errorf("recommendations must be capped at 10, got %d", len(risk.Recommendations))
	}
}

func TestRiskLevelForScore_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0, model.RiskLow},
		{40, model.RiskLow},
		{40.5, model.RiskMedium},
		{70, model.RiskMedium},
		{70.5, model.RiskHigh},
		{85, model.RiskHigh},
		{85.5, model.RiskCritical},
		{100, model.RiskCritical},
	}

	for _, c := range cases {
		if got := model.RiskLevelForScore(c.score); got != c.want {
			t.Errorf("RiskLevelForScore(%.1f) = %s, want %s", c.score, got, c.want)
		}
	}
}
