package model

import (
	"fmt"
	"time"
)

// Config is the complete Veriscope configuration. It is loaded once,
// treated as immutable, and passed explicitly into every component so
// concurrent analyses with different calibration profiles cannot
// interfere.
type Config struct {
	Thresholds  Thresholds        `yaml:"thresholds" mapstructure:"thresholds"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
}

// Thresholds holds every empirically calibrated probe constant. The
// defaults are a starting calibration, not ground truth; operators are
// expected to recalibrate against a labeled corpus.
type Thresholds struct {
	// ELA variance bands
	ELAVeryLow  float64 `yaml:"ela_very_low" mapstructure:"ela_very_low"`
	ELALow      float64 `yaml:"ela_low" mapstructure:"ela_low"`
	ELAHigh     float64 `yaml:"ela_high" mapstructure:"ela_high"`
	ELAVeryHigh float64 `yaml:"ela_very_high" mapstructure:"ela_very_high"`

	// ELA re-encode quality and contextual adjustment
	ELAQuality          int     `yaml:"ela_quality" mapstructure:"ela_quality"`
	ELARemoteVeryLowAdj float64 `yaml:"ela_remote_very_low_adj" mapstructure:"ela_remote_very_low_adj"`
	ELARemoteLowAdj     float64 `yaml:"ela_remote_low_adj" mapstructure:"ela_remote_low_adj"`
	SmallImagePixels    int     `yaml:"small_image_pixels" mapstructure:"small_image_pixels"`

	// Clone detection
	CloneBlockSize         int     `yaml:"clone_block_size" mapstructure:"clone_block_size"`
	CloneMinDistanceBlocks float64 `yaml:"clone_min_distance_blocks" mapstructure:"clone_min_distance_blocks"`
	CloneMatchThreshold    int     `yaml:"clone_match_threshold" mapstructure:"clone_match_threshold"`
	CloneFlatBlockVariance float64 `yaml:"clone_flat_block_variance" mapstructure:"clone_flat_block_variance"`

	// Resampling detection
	ResamplingPeakRatio float64 `yaml:"resampling_peak_ratio" mapstructure:"resampling_peak_ratio"`
	ResamplingMaxDim    int     `yaml:"resampling_max_dim" mapstructure:"resampling_max_dim"`

	// Median filter detection
	MedianFilterMaxDiff float64 `yaml:"median_filter_max_diff" mapstructure:"median_filter_max_diff"`

	// Color channel checks
	ColorCorrLow       float64 `yaml:"color_corr_low" mapstructure:"color_corr_low"`
	ColorTempRatioDiff float64 `yaml:"color_temp_ratio_diff" mapstructure:"color_temp_ratio_diff"`

	// Regional noise analysis
	NoiseRatioMax   float64 `yaml:"noise_ratio_max" mapstructure:"noise_ratio_max"`
	NoiseRegionSize int     `yaml:"noise_region_size" mapstructure:"noise_region_size"`

	// Edge consistency
	EdgeConsistencyDiff float64 `yaml:"edge_consistency_diff" mapstructure:"edge_consistency_diff"`

	// JPEG quantization heuristics
	QuantAvgHigh     float64 `yaml:"quant_avg_high" mapstructure:"quant_avg_high"`
	QuantVarLow      float64 `yaml:"quant_var_low" mapstructure:"quant_var_low"`
	QuantAvgModerate float64 `yaml:"quant_avg_moderate" mapstructure:"quant_avg_moderate"`

	// Compression normalization keep-factors, tiered by ELA variance
	NormKeepLow     float64 `yaml:"norm_keep_low" mapstructure:"norm_keep_low"`
	NormKeepMid     float64 `yaml:"norm_keep_mid" mapstructure:"norm_keep_mid"`
	NormKeepHigh    float64 `yaml:"norm_keep_high" mapstructure:"norm_keep_high"`
	NormELALowBound float64 `yaml:"norm_ela_low_bound" mapstructure:"norm_ela_low_bound"`
	NormELAMidBound float64 `yaml:"norm_ela_mid_bound" mapstructure:"norm_ela_mid_bound"`

	// Score at or above which a report is flagged for manual review
	RiskReviewThreshold float64 `yaml:"risk_review_threshold" mapstructure:"risk_review_threshold"`
}

// HTTPConfig controls remote image fetching.
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// ConcurrencyConfig bounds the worker pools.
type ConcurrencyConfig struct {
	ProbeWorkers int `yaml:"probe_workers" mapstructure:"probe_workers"`
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// CacheConfig controls the orchestrator-boundary report cache. The
// engine itself never persists state; caching applies only to the
// assembled report, keyed by a hash of the raw image bytes.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Pretty        bool `yaml:"pretty" mapstructure:"pretty"`
}

// LLMConfig controls the optional narrative summarizer.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the built-in calibration and settings.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: DefaultThresholds(),
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "Veriscope/0.1 (+https://github.com/veriscope/veriscope)",
			MaxBodyBytes:      20_000_000,
			RespectRobots:     true,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Concurrency: ConcurrencyConfig{
			ProbeWorkers: 4,
			BatchWorkers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			TTL:     time.Hour,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Pretty:        true,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 1000,
		},
	}
}

// DefaultThresholds returns the default probe calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ELAVeryLow:  15,
		ELALow:      40,
		ELAHigh:     600,
		ELAVeryHigh: 1000,

		ELAQuality:          90,
		ELARemoteVeryLowAdj: 0.9,
		ELARemoteLowAdj:     0.95,
		SmallImagePixels:    1_000_000,

		CloneBlockSize:         32,
		CloneMinDistanceBlocks: 2,
		CloneMatchThreshold:    1,
		CloneFlatBlockVariance: 2.0,

		ResamplingPeakRatio: 8.0,
		ResamplingMaxDim:    512,

		MedianFilterMaxDiff: 1.0,

		ColorCorrLow:       0.85,
		ColorTempRatioDiff: 0.2,

		NoiseRatioMax:   3.0,
		NoiseRegionSize: 100,

		EdgeConsistencyDiff: 20,

		QuantAvgHigh:     40,
		QuantVarLow:      20,
		QuantAvgModerate: 20,

		NormKeepLow:     0.40,
		NormKeepMid:     0.50,
		NormKeepHigh:    0.65,
		NormELALowBound: 100,
		NormELAMidBound: 200,

		RiskReviewThreshold: 50,
	}
}

// Validate checks the configuration for values that would make the
// analysis meaningless.
func (c *Config) Validate() error {
	t := c.Thresholds
	if t.ELAVeryLow >= t.ELALow || t.ELAHigh >= t.ELAVeryHigh || t.ELALow >= t.ELAHigh {
		return fmt.Errorf("ela bands must be strictly ordered: very_low < low < high < very_high")
	}
	if t.ELAQuality < 1 || t.ELAQuality > 100 {
		return fmt.Errorf("ela_quality must be in [1,100], got %d", t.ELAQuality)
	}
	if t.CloneBlockSize < 8 {
		return fmt.Errorf("clone_block_size must be >= 8, got %d", t.CloneBlockSize)
	}
	if t.NormKeepLow <= 0 || t.NormKeepLow > 1 || t.NormKeepMid <= 0 || t.NormKeepMid > 1 || t.NormKeepHigh <= 0 || t.NormKeepHigh > 1 {
		return fmt.Errorf("normalization keep-factors must be in (0,1]")
	}
	switch c.Cache.Backend {
	case "", "memory", "disk", "layered":
	default:
		return fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered)", c.Cache.Backend)
	}
	return nil
}
