package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/veriscope/veriscope/internal/model"
)

// Renderer writes reports as JSON, Markdown and a colored terminal
// summary.
type Renderer struct {
	includeFooter bool
	pretty        bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter, pretty bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, pretty: pretty}
}

// RenderJSON writes the report as JSON to the given path.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	var data []byte
	var err error
	if r.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report to the given path.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Forensic Corroboration Report\n\n")
	fmt.Fprintf(&b, "- **Document:** `%s`\n", report.Source)
	fmt.Fprintf(&b, "- **Report ID:** `%s`\n", report.DocumentID)
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Engines:** %s\n\n", strings.Join(report.EnginesUsed, ", "))

	fmt.Fprintf(&b, "## Risk\n\n")
	fmt.Fprintf(&b, "| Score | Level | Confidence |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| %.1f/100 | %s | %.2f |\n\n", report.Risk.OverallScore, report.Risk.RiskLevel, report.Risk.Confidence)
	if report.Risk.NormalizationNote != "" {
		fmt.Fprintf(&b, "> %s\n\n", report.Risk.NormalizationNote)
	}

	if len(report.Risk.ContributingFactors) > 0 {
		fmt.Fprintf(&b, "## Contributing Factors\n\n")
		fmt.Fprintf(&b, "| Component | Factor | Severity | Impact |\n|---|---|---|---|\n")
		for _, f := range report.Risk.ContributingFactors {
			fmt.Fprintf(&b, "| %s | %s | %s | %.1f |\n", f.Component, f.Factor, f.Severity, f.Impact)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(report.ProfileMatches) > 0 {
		fmt.Fprintf(&b, "## Compression Profiles\n\n")
		for _, m := range report.ProfileMatches {
			fmt.Fprintf(&b, "- %s (`%s`, confidence %s)\n", m.Label, m.ProfileID, m.Confidence)
		}
		fmt.Fprintf(&b, "\n")
	}

	writeIssueSection(&b, "Forensic Findings", report.ForensicIssues)
	writeIssueSection(&b, "Metadata Issues", report.MetadataIssues)
	writeIssueSection(&b, "External Issues", report.ExternalIssues)

	if len(report.Risk.Recommendations) > 0 {
		fmt.Fprintf(&b, "## Recommendations\n\n")
		for _, rec := range report.Risk.Recommendations {
			fmt.Fprintf(&b, "1. %s\n", rec)
		}
		fmt.Fprintf(&b, "\n")
	}

	if report.LLM != nil && report.LLM.Enabled {
		fmt.Fprintf(&b, "## Narrative Summary\n\n")
		fmt.Fprintf(&b, "%s\n\n", report.LLM.SummaryMD)
		for _, w := range report.LLM.Warnings {
			fmt.Fprintf(&b, "> Warning: %s\n", w)
		}
		fmt.Fprintf(&b, "\n_Generated by %s (%s); descriptive only, does not affect the score._\n\n", report.LLM.Provider, report.LLM.Model)
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\n")
		fmt.Fprintf(&b, "Analysis completed in %.2fs. Risk scores describe computed signals, not verdicts.\n", report.ProcessingSeconds)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeIssueSection(b *strings.Builder, title string, issues []model.ValidationIssue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, issue := range issues {
		fmt.Fprintf(b, "- **[%s]** %s\n", strings.ToUpper(string(issue.Severity)), issue.Description)
	}
	fmt.Fprintf(b, "\n")
}

// RenderSummary prints a colored one-screen summary to stdout.
func (r *Renderer) RenderSummary(report *model.Report) {
	levelColor := colorForLevel(report.Risk.RiskLevel)

	fmt.Println()
	fmt.Printf("Document: %s\n", report.Source)
	fmt.Printf("Risk:     %s (%.1f/100, confidence %.2f)\n",
		levelColor(string(report.Risk.RiskLevel)), report.Risk.OverallScore, report.Risk.Confidence)

	if report.IsTampered {
		fmt.Printf("Verdict:  %s (confidence %.2f)\n",
			color.New(color.FgRed, color.Bold).Sprint("TAMPER EVIDENCE"), report.TamperingConfidence)
	} else if report.IsAuthentic {
		fmt.Printf("Verdict:  %s\n", color.New(color.FgGreen).Sprint("no tamper evidence"))
	}

	if report.Risk.NormalizationNote != "" {
		fmt.Printf("Note:     %s\n", report.Risk.NormalizationNote)
	}
	fmt.Printf("Issues:   %d total, %d critical\n", report.Summary.TotalIssues, report.Summary.CriticalIssues)
	if report.Summary.RequiresManualReview {
		fmt.Printf("          %s\n", color.New(color.FgYellow).Sprint("manual review required"))
	}

	for i, rec := range report.Risk.Recommendations {
		if i >= 3 {
			break
		}
		fmt.Printf("  %d. %s\n", i+1, rec)
	}
	fmt.Println()
}

func colorForLevel(level model.RiskLevel) func(a ...interface{}) string {
	switch level {
	case model.RiskCritical:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case model.RiskHigh:
		return color.New(color.FgRed).SprintFunc()
	case model.RiskMedium:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgGreen).SprintFunc()
	}
}
