package forensic

import (
	"math"
	"testing"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

func noisyGray(w, h int, seed uint32) *imaging.Gray {
	r := &lcg{state: seed}
	g := imaging.NewGray(w, h)
	for i := range g.Pix {
		g.Pix[i] = float64(r.next())
	}
	return g
}

func applyOutcome(t *testing.T, o *probeOutcome) *model.ForensicFindings {
	t.Helper()
	findings := &model.ForensicFindings{ColorCorrelation: 1.0, NoiseRatio: 1.0}
	if o.apply != nil {
		o.apply(findings)
	}
	if o.note != "" {
		findings.Notes = append(findings.Notes, o.note)
	}
	return findings
}

func TestRunCloneDetection_TooSmallImage(t *testing.T) {
	th := model.DefaultThresholds()
	o := runCloneDetection(noisyGray(40, 40, 1), th)

	findings := applyOutcome(t, o)
	if len(findings.Notes) == 0 {
		t.Error("expected diagnostic note for too-small image")
	}
	if findings.HasTag(model.TagClone) {
		t.Error("too-small image must not be tagged")
	}
}

func TestRunCloneDetection_FlatBlocksIgnored(t *testing.T) {
	th := model.DefaultThresholds()
	g := imaging.NewGray(256, 256)
	for i := range g.Pix {
		g.Pix[i] = 100
	}

	findings := applyOutcome(t, runCloneDetection(g, th))
	if findings.CloneMatches != 0 {
		t.Errorf("flat blocks must not collide, got %d matches", findings.CloneMatches)
	}
}

func TestRunCloneDetection_DuplicatedBlock(t *testing.T) {
	th := model.DefaultThresholds()
	g := noisyGray(256, 256, 11)

	block := th.CloneBlockSize
	for y := 0; y < block; y++ {
		for x := 0; x < block; x++ {
			g.Set(x+192, y+192, g.At(x, y))
		}
	}

	findings := applyOutcome(t, runCloneDetection(g, th))
	if !findings.HasTag(model.TagClone) {
		t.Errorf("expected CLONE tag for duplicated block, matches %d", findings.CloneMatches)
	}
}

func TestRunResamplingDetection_PeriodicPattern(t *testing.T) {
	th := model.DefaultThresholds()

	// Strong sinusoid over low-level noise: the spectrum shows sharp
	// peaks far above the noise floor median.
	r := &lcg{state: 5}
	g := imaging.NewGray(256, 256)
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			v := 128 + 100*math.Sin(2*math.Pi*float64(x)*32/256) + float64(r.next()%16)
			g.Set(x, y, v)
		}
	}

	findings := applyOutcome(t, runResamplingDetection(g, th))
	if !findings.IsResampled {
		t.Error("expected periodic pattern to read as resampled")
	}
	if !findings.HasTag(model.TagResampling) {
		t.Error("expected RESAMPLING_DETECTED tag")
	}
}

func TestRunResamplingDetection_NoiseNotFlagged(t *testing.T) {
	th := model.DefaultThresholds()

	findings := applyOutcome(t, runResamplingDetection(noisyGray(256, 256, 99), th))
	if findings.IsResampled {
		t.Error("white noise must not read as resampled")
	}
}

func TestRunMedianFilterDetection_PreFilteredImage(t *testing.T) {
	th := model.DefaultThresholds()

	// A smooth gradient survives median filtering almost unchanged,
	// which is exactly the signature of prior smoothing.
	g := imaging.NewGray(128, 128)
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			g.Set(x, y, float64(x+y))
		}
	}

	findings := applyOutcome(t, runMedianFilterDetection(g, th))
	if !findings.IsMedianFiltered {
		t.Error("expected smooth image to read as median filtered")
	}
	if !findings.HasTag(model.TagMedianFilter) {
		t.Error("expected MEDIAN_FILTER_DETECTED tag")
	}
}

func TestRunMedianFilterDetection_NoisyImageNotFlagged(t *testing.T) {
	th := model.DefaultThresholds()

	findings := applyOutcome(t, runMedianFilterDetection(noisyGray(128, 128, 21), th))
	if findings.IsMedianFiltered {
		t.Error("heavy noise must not read as median filtered")
	}
}

func TestRunMedianFilterDetection_TexturelessInconclusive(t *testing.T) {
	th := model.DefaultThresholds()
	g := imaging.NewGray(64, 64)

	findings := applyOutcome(t, runMedianFilterDetection(g, th))
	if findings.HasTag(model.TagMedianFilter) {
		t.Error("textureless image must not be tagged")
	}
	if len(findings.Notes) == 0 {
		t.Error("expected an inconclusive note")
	}
}

func TestRunColorCorrelation_DecoupledChannels(t *testing.T) {
	th := model.DefaultThresholds()

	// Independent noise per channel: pairwise correlation near zero.
	r := &lcg{state: 31}
	sample := &model.ImageSample{Width: 64, Height: 64, Pixels: make([]uint8, 64*64*3)}
	for i := range sample.Pixels {
		sample.Pixels[i] = r.next()
	}

	findings := applyOutcome(t, runColorCorrelation(sample, th))
	if !findings.HasTag(model.TagLowColorCorrelation) {
		t.Errorf("expected low-correlation tag, correlation %.2f", findings.ColorCorrelation)
	}
}

func TestRunColorCorrelation_GrayscaleContent(t *testing.T) {
	th := model.DefaultThresholds()

	// Equal channels correlate perfectly.
	sample := texturedSample(64, 64, 17)
	findings := applyOutcome(t, runColorCorrelation(sample, th))
	if findings.HasTag(model.TagLowColorCorrelation) {
		t.Errorf("equal channels must not read as decorrelated, got %.2f", findings.ColorCorrelation)
	}
}

func TestRunColorTemperature_RedShift(t *testing.T) {
	th := model.DefaultThresholds()

	sample := &model.ImageSample{Width: 32, Height: 32, Pixels: make([]uint8, 32*32*3)}
	for i := 0; i < 32*32; i++ {
		sample.Pixels[i*3] = 200
		sample.Pixels[i*3+1] = 100
		sample.Pixels[i*3+2] = 100
	}

	findings := applyOutcome(t, runColorTemperature(sample, th))
	if !findings.ColorTemperatureIssue {
		t.Error("expected color temperature issue for strong red shift")
	}
	if !findings.HasTag(model.TagColorTemperature) {
		t.Error("expected COLOR_TEMPERATURE tag")
	}
}

func TestRunNoiseAnalysis_CompositeImage(t *testing.T) {
	th := model.DefaultThresholds()

	// Left half smooth, right half noisy: regional noise variance is
	// wildly inconsistent.
	r := &lcg{state: 13}
	g := imaging.NewGray(200, 100)
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			g.Set(x, y, float64(r.next()))
		}
	}

	findings := applyOutcome(t, runNoiseAnalysis(g, th))
	if !findings.HasTag(model.TagNoiseInconsistency) {
		t.Errorf("expected noise inconsistency tag, ratio %.1f", findings.NoiseRatio)
	}
}

func TestRunNoiseAnalysis_UniformNoise(t *testing.T) {
	th := model.DefaultThresholds()

	findings := applyOutcome(t, runNoiseAnalysis(noisyGray(400, 400, 77), th))
	if findings.HasTag(model.TagNoiseInconsistency) {
		t.Errorf("uniform noise distribution must not be tagged, ratio %.1f", findings.NoiseRatio)
	}
}

func TestRunQuantizationAnalysis_HighQuantization(t *testing.T) {
	th := model.DefaultThresholds()

	tables := map[int][]int{0: make([]int, 64)}
	for i := range tables[0] {
		tables[0][i] = 50 + i
	}
	sample := &model.ImageSample{Width: 8, Height: 8, Pixels: make([]uint8, 8*8*3), SourceIsJPEG: true, QuantizationTables: tables}

	findings := applyOutcome(t, runQuantizationAnalysis(sample, th))
	if findings.QuantizationSignal == nil {
		t.Fatal("expected quantization signal")
	}
	if findings.QuantizationSignal.Label != "HIGH_QUANTIZATION" {
		t.Errorf("expected HIGH_QUANTIZATION, got %s", findings.QuantizationSignal.Label)
	}
	if !findings.HasTag(model.TagHighQuantization) {
		t.Error("expected HIGH_QUANTIZATION tag")
	}
}

func TestRunQuantizationAnalysis_UniformTables(t *testing.T) {
	th := model.DefaultThresholds()

	tables := map[int][]int{0: make([]int, 64)}
	for i := range tables[0] {
		tables[0][i] = 25
	}
	sample := &model.ImageSample{Width: 8, Height: 8, Pixels: make([]uint8, 8*8*3), SourceIsJPEG: true, QuantizationTables: tables}

	findings := applyOutcome(t, runQuantizationAnalysis(sample, th))
	if findings.QuantizationSignal == nil {
		t.Fatal("expected quantization signal")
	}
	if findings.QuantizationSignal.Label != "UNIFORM_QUANTIZATION_LOW_VAR" {
		t.Errorf("expected UNIFORM_QUANTIZATION_LOW_VAR, got %s", findings.QuantizationSignal.Label)
	}
}

func TestRunQuantizationAnalysis_NormalTables(t *testing.T) {
	th := model.DefaultThresholds()

	// Typical quality ~90 table: low average, spread values.
	tables := map[int][]int{0: make([]int, 64)}
	for i := range tables[0] {
		tables[0][i] = 2 + (i%8)*3
	}
	sample := &model.ImageSample{Width: 8, Height: 8, Pixels: make([]uint8, 8*8*3), SourceIsJPEG: true, QuantizationTables: tables}

	findings := applyOutcome(t, runQuantizationAnalysis(sample, th))
	if findings.QuantizationSignal != nil {
		t.Errorf("typical table must not produce a signal, got %s", findings.QuantizationSignal.Label)
	}
}

func TestRunQuantizationAnalysis_MissingTables(t *testing.T) {
	th := model.DefaultThresholds()

	sample := &model.ImageSample{Width: 8, Height: 8, Pixels: make([]uint8, 8*8*3), SourceIsJPEG: true}
	findings := applyOutcome(t, runQuantizationAnalysis(sample, th))
	if findings.QuantizationSignal != nil {
		t.Error("missing tables must not produce a signal")
	}
	if len(findings.Notes) == 0 {
		t.Error("expected diagnostic note for unrecoverable tables")
	}
}

func TestRunEdgeConsistency_UniformImage(t *testing.T) {
	th := model.DefaultThresholds()

	g := imaging.NewGray(64, 64)
	findings := applyOutcome(t, runEdgeConsistency(g, th))
	if findings.EdgeConsistencyIssue {
		t.Error("flat image must not show an edge consistency issue")
	}
}
