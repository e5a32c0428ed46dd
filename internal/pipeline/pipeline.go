// Package pipeline orchestrates a full corroboration run: load or
// fetch the image, run the forensic probes, match compression
// profiles, score, and assemble the report.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/veriscope/veriscope/internal/cache"
	"github.com/veriscope/veriscope/internal/forensic"
	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/llm"
	"github.com/veriscope/veriscope/internal/model"
	"github.com/veriscope/veriscope/internal/profile"
	"github.com/veriscope/veriscope/internal/score"
)

// Pipeline orchestrates the complete analysis. It is safe for
// concurrent use: every analysis works on its own sample and report,
// and a failed analysis never corrupts another.
type Pipeline struct {
	engine     *forensic.Engine
	matcher    *profile.Matcher
	scorer     *score.Scorer
	fetcher    *Fetcher
	reports    cache.Cache
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	config     *model.Config
}

// NewPipeline creates a pipeline with the given configuration.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	reports, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		engine:     forensic.NewEngine(cfg.Concurrency.ProbeWorkers),
		matcher:    profile.NewMatcher(),
		scorer:     score.NewScorer(cfg.Thresholds),
		fetcher:    NewFetcher(cfg.HTTP),
		reports:    reports,
		renderer:   NewRenderer(cfg.Output.IncludeFooter, cfg.Output.Pretty),
		summarizer: summarizer,
		config:     cfg,
	}, nil
}

// AnalyzeFile analyzes an image file on disk.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string, external *model.ExternalInput) (*model.Report, error) {
	sample, data, err := imaging.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p.analyze(ctx, path, data, sample, external)
}

// AnalyzeURL fetches and analyzes a remote image.
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string, external *model.ExternalInput) (*model.Report, error) {
	fetched, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	sample, err := imaging.DecodeBytes(fetched.Body, true)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return p.analyze(ctx, fetched.FinalURL, fetched.Body, sample, external)
}

// AnalyzeBytes analyzes raw image bytes already in memory.
func (p *Pipeline) AnalyzeBytes(ctx context.Context, source string, data []byte, remote bool, external *model.ExternalInput) (*model.Report, error) {
	sample, err := imaging.DecodeBytes(data, remote)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return p.analyze(ctx, source, data, sample, external)
}

// analyze runs the engines and assembles the report. The cache is
// consulted first, keyed by the raw bytes; external inputs vary per
// call, so cached reports are only served when none are supplied.
func (p *Pipeline) analyze(ctx context.Context, source string, data []byte, sample *model.ImageSample, external *model.ExternalInput) (*model.Report, error) {
	cacheable := p.reports != nil && external == nil
	key := ""
	if cacheable {
		key = cache.CacheKey(data)
		if raw, found := p.reports.Get(key); found {
			var cached model.Report
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			// A corrupt entry is dropped and the analysis redone.
			p.reports.Delete(key)
		}
	}

	started := time.Now()

	findings, err := p.engine.Detect(ctx, sample, p.config.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("forensic analysis: %w", err)
	}

	profiles := p.matcher.Match(findings.ELAVariance, sample.Width, sample.Height)

	var externalIssues []model.ValidationIssue
	if external != nil {
		externalIssues = external.Issues
	}

	risk, err := p.scorer.Score(findings, profiles, externalIssues)
	if err != nil {
		return nil, fmt.Errorf("risk scoring: %w", err)
	}

	report := p.assembleReport(source, started, sample, findings, profiles, risk, external)

	// Narrative summary runs after scoring and never affects it.
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM summary generation failed: %v\n", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	if cacheable {
		if raw, err := json.Marshal(report); err == nil {
			p.reports.Set(key, raw, p.config.Cache.TTL)
		}
	}

	return report, nil
}

// RenderReport renders the report to the configured outputs.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}

// assembleReport builds the externally visible report from the engine
// outputs.
func (p *Pipeline) assembleReport(source string, started time.Time, sample *model.ImageSample, findings *model.ForensicFindings, profiles []model.CompressionProfileMatch, risk *model.RiskScore, external *model.ExternalInput) *model.Report {
	forensicIssues := flattenForensicIssues(findings)
	metadataIssues := flattenMetadataIssues(sample, findings)

	report := &model.Report{
		DocumentID:     uuid.NewString(),
		Source:         source,
		AnalyzedAt:     time.Now().UTC(),
		Forensic:       findings,
		ProfileMatches: profiles,
		Risk:           *risk,
		MetadataIssues: metadataIssues,
		ForensicIssues: forensicIssues,
		IsTampered:     findings.HasTamperEvidence(),
		EnginesUsed:    []string{"forensic", "profile", "score"},
	}

	report.TamperingConfidence = tamperingConfidence(findings)
	report.IsAuthentic = !report.IsTampered && risk.RiskLevel == model.RiskLow

	if external != nil {
		report.ExternalIssues = external.Issues
		report.IsAIGenerated = external.IsAIGenerated
		report.AIDetectionConfidence = external.AIDetectionConfidence
		report.ReverseImageMatches = external.ReverseImageMatches
	}
	if p.summarizer.IsEnabled() {
		report.EnginesUsed = append(report.EnginesUsed, "llm")
	}

	total := len(metadataIssues) + len(forensicIssues) + len(report.ExternalIssues)
	critical := 0
	for _, lists := range [][]model.ValidationIssue{metadataIssues, forensicIssues, report.ExternalIssues} {
		for _, issue := range lists {
			if issue.Severity == model.SeverityCritical {
				critical++
			}
		}
	}
	report.Summary = model.ReportSummary{
		TotalIssues:          total,
		CriticalIssues:       critical,
		RequiresManualReview: risk.OverallScore >= p.config.Thresholds.RiskReviewThreshold,
	}

	report.ProcessingSeconds = time.Since(started).Seconds()
	return report
}

// flattenForensicIssues converts triggered indicators into the uniform
// issue shape downstream consumers expect.
func flattenForensicIssues(findings *model.ForensicFindings) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, tag := range findings.IndicatorTags {
		issues = append(issues, model.ValidationIssue{
			Category:    "forensic",
			Severity:    severityForTag(tag),
			Description: descriptionForTag(tag, findings),
		})
	}
	if findings.ELAInterpretation.RiskBoost > 0 {
		issues = append(issues, model.ValidationIssue{
			Category:    "forensic",
			Severity:    model.SeverityMedium,
			Description: findings.ELAInterpretation.Message,
			Details:     map[string]interface{}{"ela_variance": findings.ELAVariance},
		})
	}
	return issues
}

// flattenMetadataIssues reports anomalies in the container rather than
// the pixels.
func flattenMetadataIssues(sample *model.ImageSample, findings *model.ForensicFindings) []model.ValidationIssue {
	var issues []model.ValidationIssue
	if findings.QuantizationSignal != nil {
		issues = append(issues, model.ValidationIssue{
			Category:    "metadata",
			Severity:    model.SeverityLow,
			Description: fmt.Sprintf("unusual JPEG quantization tables: %s", findings.QuantizationSignal.Label),
			Details: map[string]interface{}{
				"average":  findings.QuantizationSignal.Average,
				"variance": findings.QuantizationSignal.Variance,
			},
		})
	}
	if sample.SourceIsJPEG && len(sample.QuantizationTables) == 0 {
		issues = append(issues, model.ValidationIssue{
			Category:    "metadata",
			Severity:    model.SeverityLow,
			Description: "JPEG quantization tables could not be recovered",
		})
	}
	return issues
}

func severityForTag(tag model.IndicatorTag) model.Severity {
	switch tag {
	case model.TagClone, model.TagResampling:
		return model.SeverityHigh
	case model.TagMedianFilter, model.TagNoiseInconsistency, model.TagColorTemperature, model.TagEdgeInconsistency:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func descriptionForTag(tag model.IndicatorTag, findings *model.ForensicFindings) string {
	switch tag {
	case model.TagClone:
		return fmt.Sprintf("duplicated regions detected (%d clone matches)", findings.CloneMatches)
	case model.TagResampling:
		return "periodic frequency peaks indicate resampling"
	case model.TagMedianFilter:
		return "image appears median-filtered or denoised"
	case model.TagNoiseInconsistency:
		return fmt.Sprintf("regional noise levels are inconsistent (ratio %.1f)", findings.NoiseRatio)
	case model.TagColorTemperature:
		return "color temperature inconsistent with a single capture"
	case model.TagLowColorCorrelation:
		return fmt.Sprintf("low color channel correlation (%.2f)", findings.ColorCorrelation)
	case model.TagEdgeInconsistency:
		return "edge structure differs between independent operators"
	default:
		return string(tag)
	}
}

// tamperingConfidence grows with the number of independent tamper
// indicators, deterministically.
func tamperingConfidence(findings *model.ForensicFindings) float64 {
	count := 0
	for _, tag := range model.TamperTags {
		if findings.HasTag(tag) {
			count++
		}
	}
	if count == 0 {
		return 0
	}
	confidence := 0.5 + 0.15*float64(count)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}
