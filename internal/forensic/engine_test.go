package forensic

import (
	"context"
	"reflect"
	"testing"

	"github.com/veriscope/veriscope/internal/model"
)

// lcg is a tiny deterministic pseudorandom generator for synthetic
// test textures.
type lcg struct{ state uint32 }

func (r *lcg) next() uint8 {
	r.state = r.state*1664525 + 1013904223
	return uint8(r.state >> 24)
}

func uniformSample(w, h int, v uint8) *model.ImageSample {
	pixels := make([]uint8, w*h*3)
	for i := range pixels {
		pixels[i] = v
	}
	return &model.ImageSample{Pixels: pixels, Width: w, Height: h}
}

func texturedSample(w, h int, seed uint32) *model.ImageSample {
	r := &lcg{state: seed}
	pixels := make([]uint8, w*h*3)
	for i := 0; i < w*h; i++ {
		v := r.next()
		pixels[i*3] = v
		pixels[i*3+1] = v
		pixels[i*3+2] = v
	}
	return &model.ImageSample{Pixels: pixels, Width: w, Height: h}
}

func TestEngine_Detect_UniformImageHasNoTamperTags(t *testing.T) {
	engine := NewEngine(4)
	sample := uniformSample(800, 600, 128)

	findings, err := engine.Detect(context.Background(), sample, model.DefaultThresholds())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if findings.HasTamperEvidence() {
		t.Errorf("uniform image must not show tamper evidence, got tags %v", findings.IndicatorTags)
	}
	if findings.CloneMatches != 0 {
		t.Errorf("expected 0 clone matches on a flat image, got %d", findings.CloneMatches)
	}
	if findings.IsResampled {
		t.Error("flat image must not read as resampled")
	}
	if findings.QuantizationSignal != nil {
		t.Error("non-JPEG sample must not carry a quantization signal")
	}
}

func TestEngine_Detect_ClonedBlocksAreTagged(t *testing.T) {
	engine := NewEngine(4)
	th := model.DefaultThresholds()

	// Textured background with one 32px block copied far away.
	sample := texturedSample(256, 256, 7)
	block := th.CloneBlockSize
	for y := 0; y < block; y++ {
		for x := 0; x < block; x++ {
			src := (y*sample.Width + x) * 3
			dst := ((y+128)*sample.Width + (x + 128)) * 3
			copy(sample.Pixels[dst:dst+3], sample.Pixels[src:src+3])
		}
	}

	findings, err := engine.Detect(context.Background(), sample, th)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if !findings.HasTag(model.TagClone) {
		t.Errorf("expected CLONE tag, got tags %v (matches %d)", findings.IndicatorTags, findings.CloneMatches)
	}
	if !findings.HasTamperEvidence() {
		t.Error("clone tag must count as tamper evidence")
	}
}

func TestEngine_Detect_Deterministic(t *testing.T) {
	engine := NewEngine(4)
	th := model.DefaultThresholds()
	sample := texturedSample(200, 150, 42)

	first, err := engine.Detect(context.Background(), sample, th)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Detect(context.Background(), sample, th)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("repeated detection produced different findings")
		}
	}
}

func TestEngine_Detect_CancelledContext(t *testing.T) {
	engine := NewEngine(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Detect(ctx, uniformSample(64, 64, 200), model.DefaultThresholds())
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestEngine_Detect_InvalidSample(t *testing.T) {
	engine := NewEngine(4)

	_, err := engine.Detect(context.Background(), &model.ImageSample{}, model.DefaultThresholds())
	if err == nil {
		t.Fatal("expected error for invalid sample")
	}
}

func TestEngine_Detect_SampleNotMutated(t *testing.T) {
	engine := NewEngine(4)
	sample := texturedSample(128, 128, 3)

	before := make([]uint8, len(sample.Pixels))
	copy(before, sample.Pixels)

	if _, err := engine.Detect(context.Background(), sample, model.DefaultThresholds()); err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if !reflect.DeepEqual(before, sample.Pixels) {
		t.Error("detection mutated the sample pixels")
	}
}
