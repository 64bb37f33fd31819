package types

import "strings"

// LanguageUnknown is reported when the engine could not detect a language.
const LanguageUnknown = "unknown"

type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// CleanText is the text as it appears in every output artifact.
func (s Segment) CleanText() string { return strings.TrimSpace(s.Text) }

// ModelTier selects the speech model size. Larger tiers are slower and more accurate.
type ModelTier string

const (
	TierTiny   ModelTier = "tiny"
	TierBase   ModelTier = "base"
	TierSmall  ModelTier = "small"
	TierMedium ModelTier = "medium"
	TierLarge  ModelTier = "large"
)

// ModelTiers lists the tiers from fastest to most accurate.
var ModelTiers = []ModelTier{TierTiny, TierBase, TierSmall, TierMedium, TierLarge}

func ParseModelTier(s string) (ModelTier, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range ModelTiers {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type CaptionMode int

const (
	ModeBurnIn CaptionMode = iota
	ModeSoftEmbed
)

func (m CaptionMode) String() string {
	if m == ModeSoftEmbed {
		return "soft-embed"
	}
	return "burn-in"
}

// Artifacts lists the files a run produces.
type Artifacts struct {
	Audio      string `json:"-"`
	Subtitles  string `json:"subtitles"`
	Transcript string `json:"transcript"`
	Video      string `json:"video"`
}
