package rubric

// Tier is the ordinal achievement bucket a score falls into.
type Tier string

const (
	TierPoor      Tier = "poor"
	TierFair      Tier = "fair"
	TierGood      Tier = "good"
	TierExcellent Tier = "excellent"
)

// Tier breakpoints as fractions of the criterion's own maximum.
const (
	fairThreshold      = 0.40
	goodThreshold      = 0.60
	excellentThreshold = 0.80
)

// tierColors maps tiers onto the display color tokens every region uses.
var tierColors = map[Tier]string{
	TierPoor:      "red",
	TierFair:      "amber",
	TierGood:      "blue",
	TierExcellent: "green",
}

// Classification carries the display artifacts derived from one score.
type Classification struct {
	Tier        Tier    `json:"tier"`
	Color       string  `json:"color"`
	FillPercent float64 `json:"fillPercent"`
}

// Classify buckets an achieved value against a maximum. Total function: a
// non-positive max classifies as poor with an empty bar, values beyond the
// maximum clamp to a full bar.
func Classify(achieved, max float64) Classification {
	if max <= 0 {
		return Classification{Tier: TierPoor, Color: tierColors[TierPoor], FillPercent: 0}
	}

	fraction := achieved / max
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	tier := TierPoor
	switch {
	case fraction >= excellentThreshold:
		tier = TierExcellent
	case fraction >= goodThreshold:
		tier = TierGood
	case fraction >= fairThreshold:
		tier = TierFair
	}

	return Classification{
		Tier:        tier,
		Color:       tierColors[tier],
		FillPercent: fraction * 100,
	}
}
