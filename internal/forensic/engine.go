package forensic

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
	"github.com/veriscope/veriscope/internal/worker"
)

// Engine runs the independent tampering probes over an image sample.
// It holds no mutable state: Detect is a pure function of the sample
// and the calibration thresholds, so concurrent analyses never
// interfere.
type Engine struct {
	workers int
}

// NewEngine creates an engine whose probes run on a pool bounded to the
// given worker count.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{workers: workers}
}

// probeOutcome is the deferred application of one probe's result.
// Outcomes are applied to the findings in canonical probe order after
// all probes finish, so repeated runs yield bit-identical findings
// regardless of scheduling.
type probeOutcome struct {
	order int
	apply func(*model.ForensicFindings)
	note  string
}

func (o *probeOutcome) GetError() error { return nil }

type probeJob struct {
	order int
	run   func(ctx context.Context) *probeOutcome
}

func (j *probeJob) Execute(ctx context.Context) worker.Result {
	if ctx.Err() != nil {
		return &probeOutcome{order: j.order}
	}
	return j.run(ctx)
}

// Detect runs all forensic probes and aggregates their findings. The
// sample is never mutated. Probes with unmet preconditions degrade to a
// diagnostic note instead of failing the analysis; a cancelled context
// returns an error and never a partial findings record.
func (e *Engine) Detect(ctx context.Context, sample *model.ImageSample, th model.Thresholds) (*model.ForensicFindings, error) {
	if !sample.Valid() {
		return nil, fmt.Errorf("detect: invalid image sample")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Shared read-only views computed once, used by several probes.
	gray := imaging.GrayFromSample(sample)
	rgba := imaging.ToRGBA(sample)

	jobs := e.buildJobs(sample, gray, rgba, th)

	pool := worker.NewPool(ctx, e.workers)
	pool.Start()
	for _, j := range jobs {
		pool.Submit(j)
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(results) != len(jobs) {
		return nil, fmt.Errorf("detect: %d of %d probes did not complete", len(jobs)-len(results), len(jobs))
	}

	outcomes := make([]*probeOutcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, r.(*probeOutcome))
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].order < outcomes[j].order })

	findings := &model.ForensicFindings{ColorCorrelation: 1.0, NoiseRatio: 1.0}
	for _, o := range outcomes {
		if o.apply != nil {
			o.apply(findings)
		}
		if o.note != "" {
			findings.Notes = append(findings.Notes, o.note)
		}
	}
	return findings, nil
}

// buildJobs wires each probe into a pool job. The order index fixes the
// canonical application order: ELA, clone, resampling, median filter,
// color correlation, color temperature, noise, edges, quantization.
func (e *Engine) buildJobs(sample *model.ImageSample, gray *imaging.Gray, rgba *image.RGBA, th model.Thresholds) []*probeJob {
	return []*probeJob{
		{order: 0, run: func(ctx context.Context) *probeOutcome {
			return runELA(sample, rgba, th)
		}},
		{order: 1, run: func(ctx context.Context) *probeOutcome {
			return runCloneDetection(gray, th)
		}},
		{order: 2, run: func(ctx context.Context) *probeOutcome {
			return runResamplingDetection(gray, th)
		}},
		{order: 3, run: func(ctx context.Context) *probeOutcome {
			return runMedianFilterDetection(gray, th)
		}},
		{order: 4, run: func(ctx context.Context) *probeOutcome {
			return runColorCorrelation(sample, th)
		}},
		{order: 5, run: func(ctx context.Context) *probeOutcome {
			return runColorTemperature(sample, th)
		}},
		{order: 6, run: func(ctx context.Context) *probeOutcome {
			return runNoiseAnalysis(gray, th)
		}},
		{order: 7, run: func(ctx context.Context) *probeOutcome {
			return runEdgeConsistency(gray, th)
		}},
		{order: 8, run: func(ctx context.Context) *probeOutcome {
			return runQuantizationAnalysis(sample, th)
		}},
	}
}
