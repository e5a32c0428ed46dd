// Package score turns forensic findings, compression profile matches
// and external validation issues into a single normalized risk score.
// Every point that moves the score is recorded as a contributing
// factor, so a reviewer can re-derive the number by hand.
package score

import (
	"fmt"
	"math"

	"github.com/veriscope/veriscope/internal/model"
)

// Domain weights for the weighted base score. Absent domains are
// excluded and the remaining weights renormalized, so a partial
// analysis still lands on the same 0-100 scale.
const (
	weightImage     = 0.40
	weightFormat    = 0.15
	weightStructure = 0.25
	weightContent   = 0.20
)

// Fixed per-indicator impacts, applied in canonical probe order.
const (
	impactClone        = 20
	impactResampling   = 15
	impactMedianFilter = 12
	impactNoise        = 10
	impactColorTemp    = 10
	impactEdge         = 8
	impactQuantization = 6
	impactLowCorr      = 6
	impactExtremeELA   = 5
)

const maxRecommendations = 10

// Scorer computes risk scores from a fixed calibration. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	thresholds model.Thresholds
}

// NewScorer creates a scorer over the given calibration.
func NewScorer(th model.Thresholds) *Scorer {
	return &Scorer{thresholds: th}
}

// Score aggregates all available domains into a risk score. It returns
// an error when no domain contributed at all; a zero score must mean
// "analyzed and clean", never "nothing was analyzed".
func (s *Scorer) Score(findings *model.ForensicFindings, profiles []model.CompressionProfileMatch, issues []model.ValidationIssue) (*model.RiskScore, error) {
	var factors []model.ContributingFactor
	domainScores := make(map[string]float64)

	if findings != nil {
		imageScore, imageFactors := s.scoreImageDomain(findings)
		domainScores["image_forensics"] = imageScore
		factors = append(factors, imageFactors...)
	}

	issueFactors := s.scoreIssueDomains(issues, domainScores)
	factors = append(factors, issueFactors...)

	if len(domainScores) == 0 {
		return nil, fmt.Errorf("score: no analysis domains contributed, refusing to emit a score")
	}

	base := weightedScore(domainScores)

	score := base
	note := ""
	if findings != nil {
		score, note = s.normalizeForChannel(base, findings, profiles)
	}
	score = clampScore(score)

	level := model.RiskLevelForScore(score)

	return &model.RiskScore{
		OverallScore:        score,
		RiskLevel:           level,
		Confidence:          confidenceFor(len(domainScores)),
		ContributingFactors: factors,
		Recommendations:     s.recommendations(level, findings, issues),
		NormalizationNote:   note,
	}, nil
}

// scoreImageDomain converts the forensic findings into a 0-100 domain
// score plus the per-signal factors, in canonical probe order.
func (s *Scorer) scoreImageDomain(f *model.ForensicFindings) (float64, []model.ContributingFactor) {
	var factors []model.ContributingFactor
	total := 0.0

	add := func(factor string, severity model.Severity, impact float64, details map[string]interface{}) {
		total += impact
		factors = append(factors, model.ContributingFactor{
			Component: "image_forensics",
			Factor:    factor,
			Severity:  severity,
			Impact:    impact,
			Details:   details,
		})
	}

	if boost := f.ELAInterpretation.RiskBoost; boost > 0 {
		add(string(f.ELAInterpretation.Level), severityForImpact(float64(boost)), float64(boost), map[string]interface{}{
			"ela_variance": f.ELAVariance,
			"message":      f.ELAInterpretation.Message,
		})
	}
	if f.HasTag(model.TagClone) {
		add(string(model.TagClone), model.SeverityHigh, impactClone, map[string]interface{}{
			"clone_matches": f.CloneMatches,
		})
	}
	if f.HasTag(model.TagResampling) {
		add(string(model.TagResampling), model.SeverityHigh, impactResampling, nil)
	}
	if f.HasTag(model.TagMedianFilter) {
		add(string(model.TagMedianFilter), model.SeverityMedium, impactMedianFilter, nil)
	}
	if f.HasTag(model.TagNoiseInconsistency) {
		add(string(model.TagNoiseInconsistency), model.SeverityMedium, impactNoise, map[string]interface{}{
			"noise_ratio": f.NoiseRatio,
		})
	}
	if f.HasTag(model.TagColorTemperature) {
		add(string(model.TagColorTemperature), model.SeverityMedium, impactColorTemp, nil)
	}
	if f.HasTag(model.TagEdgeInconsistency) {
		add(string(model.TagEdgeInconsistency), model.SeverityMedium, impactEdge, nil)
	}
	if f.QuantizationSignal != nil {
		add(f.QuantizationSignal.Label, model.SeverityLow, impactQuantization, map[string]interface{}{
			"average":  f.QuantizationSignal.Average,
			"variance": f.QuantizationSignal.Variance,
		})
	}
	if f.HasTag(model.TagLowColorCorrelation) {
		add(string(model.TagLowColorCorrelation), model.SeverityLow, impactLowCorr, map[string]interface{}{
			"color_correlation": f.ColorCorrelation,
		})
	}
	if f.ELAVariance < s.thresholds.ELAVeryLow || f.ELAVariance > s.thresholds.ELAVeryHigh {
		add("EXTREME_ELA_VARIANCE", model.SeverityLow, impactExtremeELA, map[string]interface{}{
			"ela_variance": f.ELAVariance,
		})
	}

	if total > 100 {
		total = 100
	}
	return total, factors
}

// scoreIssueDomains folds external validation issues into per-category
// domain scores and records one factor per issue.
func (s *Scorer) scoreIssueDomains(issues []model.ValidationIssue, domainScores map[string]float64) []model.ContributingFactor {
	var factors []model.ContributingFactor
	for _, issue := range issues {
		domain := issueDomain(issue.Category)
		points := model.SeverityPoints(issue.Severity)

		domainScores[domain] = math.Min(100, domainScores[domain]+points)

		factors = append(factors, model.ContributingFactor{
			Component: domain,
			Factor:    issue.Description,
			Severity:  issue.Severity,
			Impact:    points * domainWeight(domain),
			Details:   issue.Details,
		})
	}
	return factors
}

// normalizeForChannel reduces the score when the image's compression
// history matches a known lossy re-distribution channel and no
// independent tamper evidence exists. Recompression artifacts alone
// should not escalate a routine social-media image.
func (s *Scorer) normalizeForChannel(base float64, f *model.ForensicFindings, profiles []model.CompressionProfileMatch) (float64, string) {
	var channel *model.CompressionProfileMatch
	for i := range profiles {
		if profiles[i].IsLossyChannel() {
			channel = &profiles[i]
			break
		}
	}
	if channel == nil || f.HasTamperEvidence() {
		return base, ""
	}

	th := s.thresholds
	keep := th.NormKeepHigh
	switch {
	case f.ELAVariance < th.NormELALowBound:
		keep = th.NormKeepLow
	case f.ELAVariance < th.NormELAMidBound:
		keep = th.NormKeepMid
	}

	note := fmt.Sprintf("score reduced to %.0f%%: compression consistent with %s and no independent tamper evidence",
		keep*100, channel.Label)
	return base * keep, note
}

// recommendations builds the ordered action list for the score's level,
// then appends finding-specific follow-ups.
func (s *Scorer) recommendations(level model.RiskLevel, findings *model.ForensicFindings, issues []model.ValidationIssue) []string {
	var recs []string

	switch level {
	case model.RiskCritical:
		recs = append(recs,
			"REJECT: risk score is critical, do not rely on this document",
			"Escalate to a fraud investigation team with the full report attached")
	case model.RiskHigh:
		recs = append(recs,
			"HOLD: suspend processing until a manual forensic review completes",
			"Request the original capture from the submitter")
	case model.RiskMedium:
		recs = append(recs, "REVIEW: queue for manual review before acceptance")
	default:
		recs = append(recs, "ACCEPT: no significant risk indicators found")
	}

	if findings != nil {
		if findings.HasTamperEvidence() {
			recs = append(recs, "Treat pixel-level tamper indicators as grounds for a fraud investigation")
		}
		if findings.HasTag(model.TagClone) {
			recs = append(recs, "Inspect the image for duplicated regions (clone-stamp editing)")
		}
		if findings.HasTag(model.TagResampling) {
			recs = append(recs, "Verify the stated capture device: the image shows resampling artifacts")
		}
		if findings.ELAInterpretation.Level == model.ELAHighRisk {
			recs = append(recs, "Compare against a second copy of the document if one exists")
		}
	}
	for _, issue := range issues {
		if issue.Severity == model.SeverityCritical {
			recs = append(recs, fmt.Sprintf("Resolve critical %s issue: %s", issue.Category, issue.Description))
		}
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// weightedScore renormalizes the domain weights over the domains that
// actually contributed.
func weightedScore(domainScores map[string]float64) float64 {
	var sum, weightSum float64
	for _, domain := range []string{"image_forensics", "format", "structure", "content"} {
		score, ok := domainScores[domain]
		if !ok {
			continue
		}
		w := domainWeight(domain)
		sum += score * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

func domainWeight(domain string) float64 {
	switch domain {
	case "image_forensics":
		return weightImage
	case "format":
		return weightFormat
	case "structure":
		return weightStructure
	default:
		return weightContent
	}
}

// issueDomain maps an issue category onto a scoring domain. Unknown
// categories score as content.
func issueDomain(category string) string {
	switch category {
	case "format", "structure":
		return category
	case "metadata", "forensic":
		return "image_forensics"
	default:
		return "content"
	}
}

func severityForImpact(impact float64) model.Severity {
	switch {
	case impact >= 12:
		return model.SeverityHigh
	case impact >= 6:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// confidenceFor grows confidence with the number of independent domains
// that contributed, capped below certainty.
func confidenceFor(domains int) float64 {
	return math.Min(0.95, 0.55+0.1*float64(domains))
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
