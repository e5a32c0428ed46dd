package model

// ProfileID identifies a known distribution channel compression
// signature.
type ProfileID string

const (
	ProfileMessagingLow   ProfileID = "messaging-low"
	ProfileSocialSquare   ProfileID = "social-square"
	ProfileSocialWide     ProfileID = "social-wide"
	ProfileMicroblog      ProfileID = "microblog"
	ProfileCameraOriginal ProfileID = "camera-original"
)

// MatchConfidence grades how well an image fits a compression profile.
type MatchConfidence string

const (
	MatchHigh   MatchConfidence = "HIGH"
	MatchMedium MatchConfidence = "MEDIUM"
)

// CompressionProfileMatch records that an image's ELA variance falls
// inside a known channel's signature range. Confidence is HIGH when the
// dimensions also fall inside the channel's typical envelope.
type CompressionProfileMatch struct {
	ProfileID  ProfileID       `json:"profile_id"`
	Label      string          `json:"label"`
	Confidence MatchConfidence `json:"confidence"`
	SizeMatch  bool            `json:"size_match"`
}

// IsLossyChannel reports whether the profile represents a lossy
// re-distribution channel rather than an original camera capture.
func (m CompressionProfileMatch) IsLossyChannel() bool {
	return m.ProfileID != ProfileCameraOriginal
}
