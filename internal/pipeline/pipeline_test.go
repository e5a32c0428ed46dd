package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veriscope/veriscope/internal/model"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	path := filepath.Join(dir, "sample.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func TestPipeline_AnalyzeFile_EndToEnd(t *testing.T) {
	p, err := NewPipeline(testConfig())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	path := writeTestPNG(t, t.TempDir(), 200, 150)
	report, err := p.AnalyzeFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}

	if report.DocumentID == "" {
		t.Error("expected a document id")
	}
	if report.Source != path {
		t.Errorf("expected source %s, got %s", path, report.Source)
	}
	if report.Forensic == nil {
		t.Fatal("expected forensic findings")
	}
	if report.IsTampered {
		t.Error("flat synthetic image must not show tamper evidence")
	}
	if report.Risk.OverallScore < 0 || report.Risk.OverallScore > 100 {
		t.Errorf("score out of range: %.1f", report.Risk.OverallScore)
	}
	if len(report.EnginesUsed) == 0 {
		t.Error("expected engines list")
	}
	if report.Forensic.QuantizationSignal != nil {
		t.Error("PNG input must not carry a quantization signal")
	}
}

func TestPipeline_AnalyzeFile_MissingFile(t *testing.T) {
	p, err := NewPipeline(testConfig())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	if _, err := p.AnalyzeFile(context.Background(), "/nonexistent/image.png", nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPipeline_CacheServesRepeatAnalyses(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = "memory"

	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	path := writeTestPNG(t, t.TempDir(), 120, 120)

	first, err := p.AnalyzeFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("first analysis: %v", err)
	}
	second, err := p.AnalyzeFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("second analysis: %v", err)
	}

	if first.DocumentID != second.DocumentID {
		t.Error("expected cache hit to return the same report")
	}
}

func TestPipeline_ExternalInputBypassesCacheAndContributes(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = "memory"

	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	path := writeTestPNG(t, t.TempDir(), 120, 120)

	plain, err := p.AnalyzeFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("plain analysis: %v", err)
	}

	external := &model.ExternalInput{
		Issues: []model.ValidationIssue{
			{Category: "structure", Severity: model.SeverityCritical, Description: "page count mismatch"},
		},
		IsAIGenerated:         true,
		AIDetectionConfidence: 0.9,
	}
	enriched, err := p.AnalyzeFile(context.Background(), path, external)
	if err != nil {
		t.Fatalf("enriched analysis: %v", err)
	}

	if enriched.DocumentID == plain.DocumentID {
		t.Error("external input must bypass the cache")
	}
	if enriched.Risk.OverallScore <= plain.Risk.OverallScore {
		t.Errorf("critical external issue should raise the score: %.1f <= %.1f",
			enriched.Risk.OverallScore, plain.Risk.OverallScore)
	}
	if !enriched.IsAIGenerated || enriched.AIDetectionConfidence != 0.9 {
		t.Error("external AI detection fields must pass through unchanged")
	}
	if len(enriched.ExternalIssues) != 1 {
		t.Errorf("expected 1 external issue, got %d", len(enriched.ExternalIssues))
	}
}

func TestRenderer_JSONRoundTrip(t *testing.T) {
	p, err := NewPipeline(testConfig())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	dir := t.TempDir()
	path := writeTestPNG(t, dir, 100, 100)
	report, err := p.AnalyzeFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}

	jsonPath := filepath.Join(dir, "report.json")
	renderer := NewRenderer(true, true)
	if err := renderer.RenderJSON(report, jsonPath); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if decoded.DocumentID != report.DocumentID {
		t.Error("round-tripped report lost its document id")
	}
	if decoded.Risk.RiskLevel != report.Risk.RiskLevel {
		t.Error("round-tripped report lost its risk level")
	}
}

func TestRenderer_MarkdownContainsRiskSections(t *testing.T) {
	p, err := NewPipeline(testConfig())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	dir := t.TempDir()
	path := writeTestPNG(t, dir, 100, 100)
	report, err := p.AnalyzeFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}

	mdPath := filepath.Join(dir, "report.md")
	renderer := NewRenderer(true, true)
	if err := renderer.RenderMarkdown(report, mdPath); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	data, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	md := string(data)

	for _, want := range []string{"# Forensic Corroboration Report", "## Risk", report.DocumentID, string(report.Risk.RiskLevel)} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}
