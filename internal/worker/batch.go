package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/veriscope/veriscope/internal/model"
)

// Analyzer runs a full analysis for one target. The pipeline implements
// it; the indirection keeps this package free of a dependency cycle.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string, external *model.ExternalInput) (*model.Report, error)
	AnalyzeURL(ctx context.Context, url string, external *model.ExternalInput) (*model.Report, error)
}

// BatchResult is the outcome for one target. Exactly one of Report and
// Error is set.
type BatchResult struct {
	Target string
	Report *model.Report
	Error  error
}

// BatchProcessor analyzes multiple targets concurrently. Per-target
// failures are recorded in the results, not propagated: one broken
// image must not abort the rest of the batch.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// Process analyzes all targets and returns results in input order.
// Targets may be local paths or http(s) URLs.
func (b *BatchProcessor) Process(ctx context.Context, targets []string) []*BatchResult {
	results := make([]*BatchResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			var report *model.Report
			var err error
			if isURL(target) {
				report, err = b.analyzer.AnalyzeURL(gctx, target, nil)
			} else {
				report, err = b.analyzer.AnalyzeFile(gctx, target, nil)
			}
			results[i] = &BatchResult{Target: target, Report: report, Error: err}
			return nil
		})
	}

	g.Wait()

	// A cancelled context can leave unstarted slots; fill them so the
	// caller always gets one result per target.
	for i, r := range results {
		if r == nil {
			results[i] = &BatchResult{Target: targets[i], Error: ctx.Err()}
		}
	}
	return results
}

// ProcessFile reads targets from a file (one per line) and analyzes
// them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	targets, err := ReadTargetsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return b.Process(ctx, targets), nil
}

// ProcessDir analyzes every image file directly inside a directory.
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*BatchResult, error) {
	targets, err := CollectImageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("collect images: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}
	return b.Process(ctx, targets), nil
}

// ReadTargetsFromFile reads targets from a file (one per line),
// skipping blanks, comments and duplicates.
func ReadTargetsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var targets []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			targets = append(targets, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return targets, nil
}

// CollectImageFiles lists the image files directly inside a directory,
// sorted by name.
func CollectImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
