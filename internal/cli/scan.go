package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriscope/veriscope/internal/model"
	"github.com/veriscope/veriscope/internal/pipeline"
)

var (
	outJSON      string
	outMD        string
	timeout      time.Duration
	userAgent    string
	maxBytes     int64
	noCache      bool
	noFooter     bool
	externalFile string
	llmEnabled   bool
	llmModel     string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <path|url>",
	Short: "Analyze a single document image and generate a risk report",
	Long: `Scan runs the full corroboration pipeline on one image:
- Pixel-level tampering probes (error-level analysis, clone detection,
  resampling, filtering, noise and color consistency, JPEG quantization)
- Compression profile matching against known distribution channels
- Transparent risk scoring with per-signal contributing factors
- Optional external validator results folded into the score

Example:
  veriscope scan ./invoice.jpg
  veriscope scan https://example.com/receipt.png --json report.json --md report.md
  veriscope scan ./scan.jpg --external format-check.json
  veriscope scan ./scan.jpg --llm --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// HTTP flags
	scanCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	scanCmd.Flags().StringVar(&userAgent, "ua", "Veriscope/0.1 (+https://github.com/veriscope/veriscope)", "HTTP User-Agent")
	scanCmd.Flags().Int64Var(&maxBytes, "max-bytes", 20_000_000, "max image bytes to download")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report cache (force fresh analysis)")
	scanCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// External collaborator input
	scanCmd.Flags().StringVar(&externalFile, "external", "", "JSON file with external validator results to fold into the score")

	// LLM flags
	scanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM narrative summary (never affects the score)")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", target)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.IncludeFooter = !noFooter

	if llmEnabled {
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = llmModel
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	external, err := loadExternalInput(externalFile)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	var report *model.Report
	if isURL(target) {
		report, err = p.AnalyzeURL(ctx, target, external)
	} else {
		report, err = p.AnalyzeFile(ctx, target, external)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Ran %d forensic probes\n", 9)
		fmt.Fprintf(os.Stderr, "✓ Matched %d compression profiles\n", len(report.ProfileMatches))
		fmt.Fprintf(os.Stderr, "✓ Risk score: %.1f/100 (%s)\n", report.Risk.OverallScore, report.Risk.RiskLevel)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated narrative summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// loadExternalInput parses external validator results from a JSON file.
func loadExternalInput(path string) (*model.ExternalInput, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read external input: %w", err)
	}

	var input model.ExternalInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse external input: %w", err)
	}
	return &input, nil
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
