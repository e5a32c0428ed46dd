// Package profile matches an image's error-level variance against the
// compression signatures of known distribution channels. A match means
// the image's compression history is consistent with passing through
// that channel, which lowers the suspicion attached to low error
// levels.
package profile

import (
	"sort"

	"github.com/veriscope/veriscope/internal/model"
)

// channelProfile is one known channel's signature: the ELA variance
// range it typically produces and the dimensions it typically emits.
type channelProfile struct {
	id             model.ProfileID
	label          string
	varMin, varMax float64
	width, height  int
}

// Channel signatures calibrated against images round-tripped through
// each platform's ingestion pipeline.
var channelProfiles = []channelProfile{
	{model.ProfileMessagingLow, "Messaging app recompression (heavy)", 10, 50, 1280, 1280},
	{model.ProfileSocialSquare, "Social feed square crop", 80, 180, 1080, 1080},
	{model.ProfileSocialWide, "Social feed wide upload", 120, 280, 2048, 2048},
	{model.ProfileMicroblog, "Microblog inline image", 60, 160, 1200, 675},
	{model.ProfileCameraOriginal, "Camera original (lightly compressed)", 150, 450, 4000, 3000},
}

// sizeEnvelope is the per-axis tolerance around a channel's typical
// dimensions, as a fraction.
const sizeEnvelope = 0.5

// Matcher matches ELA variance and dimensions against the channel
// table.
type Matcher struct {
	profiles []channelProfile
}

// NewMatcher creates a matcher over the built-in channel table.
func NewMatcher() *Matcher {
	return &Matcher{profiles: channelProfiles}
}

// Match returns every channel whose variance range contains the given
// ELA variance, narrowest range first. Confidence is HIGH when the
// dimensions also fall inside the channel's size envelope, MEDIUM
// otherwise.
func (m *Matcher) Match(elaVariance float64, width, height int) []model.CompressionProfileMatch {
	type candidate struct {
		match model.CompressionProfileMatch
		span  float64
	}
	var candidates []candidate

	for _, p := range m.profiles {
		if elaVariance < p.varMin || elaVariance > p.varMax {
			continue
		}

		sizeMatch := withinEnvelope(width, p.width) && withinEnvelope(height, p.height)
		confidence := model.MatchMedium
		if sizeMatch {
			confidence = model.MatchHigh
		}

		candidates = append(candidates, candidate{
			match: model.CompressionProfileMatch{
				ProfileID:  p.id,
				Label:      p.label,
				Confidence: confidence,
				SizeMatch:  sizeMatch,
			},
			span: p.varMax - p.varMin,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].span < candidates[j].span })

	matches := make([]model.CompressionProfileMatch, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, c.match)
	}
	return matches
}

func withinEnvelope(actual, typical int) bool {
	lo := float64(typical) * (1 - sizeEnvelope)
	hi := float64(typical) * (1 + sizeEnvelope)
	return float64(actual) >= lo && float64(actual) <= hi
}
