package llm

import (
	"context"
	"fmt"

	"github.com/veriscope/veriscope/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a narrative summary of a corroboration report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the corroboration report to summarize. The summary is
	// generated after scoring and never feeds back into the score.
	Report model.Report

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int

	// Warnings lists guardrail violations that were stripped or flagged
	Warnings []string
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// BuildPrompt constructs the default summarization prompt. The rules
// keep the narrative descriptive: the model restates computed signals
// and must never assert authenticity or tampering beyond them.
func BuildPrompt(report model.Report) string {
	prompt := fmt.Sprintf(`You are summarizing a document forensic corroboration report. The report describes computed signals only - it never proves authenticity or forgery.

CRITICAL RULES:
1. Describe ONLY the signals listed below. Do not speculate about signals that were not computed.
2. Never declare the document "authentic", "genuine", "forged" or "fake". Describe risk, not verdicts.
3. If a signal is absent or inconclusive, say so explicitly.
4. Use phrases like:
   - "The error-level analysis shows..."
   - "No clone-stamp evidence was found..."
   - "The compression history is consistent with..."

Report:
- Source: %s
- Overall risk score: %.0f/100 (%s)
- Scoring confidence: %.2f
- Tamper indicators: %d
- Issues recorded: %d (%d critical)
`, report.Source, report.Risk.OverallScore, report.Risk.RiskLevel, report.Risk.Confidence,
		tamperIndicatorCount(report), report.Summary.TotalIssues, report.Summary.CriticalIssues)

	// Top contributing factors only; the full list bloats the context.
	for i, factor := range report.Risk.ContributingFactors {
		if i >= 5 {
			break
		}
		prompt += fmt.Sprintf("- %s: %s (impact %.0f)\n", factor.Component, factor.Factor, factor.Impact)
	}
	if report.Risk.NormalizationNote != "" {
		prompt += fmt.Sprintf("- Normalization: %s\n", report.Risk.NormalizationNote)
	}

	prompt += "\nProvide a 3-4 sentence summary of the computed risk signals for a document reviewer."

	return prompt
}

func tamperIndicatorCount(report model.Report) int {
	if report.Forensic == nil {
		return 0
	}
	return len(report.Forensic.IndicatorTags)
}
