package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Breakpoints(t *testing.T) {
	tests := []struct {
		name     string
		achieved float64
		max      float64
		wantTier Tier
		wantFill float64
	}{
		{"zero of forty", 0, 40, TierPoor, 0},
		{"just below fair", 15.9, 40, TierPoor, 39.75},
		{"fair lower bound", 16, 40, TierFair, 40},
		{"just below good", 23.9, 40, TierFair, 59.75},
		{"good lower bound", 24, 40, TierGood, 60},
		{"education system score", 28, 40, TierGood, 70},
		{"excellent lower bound", 32, 40, TierExcellent, 80},
		{"education override", 35, 40, TierExcellent, 87.5},
		{"full marks", 40, 40, TierExcellent, 100},
		{"potential midrange", 9, 15, TierGood, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.achieved, tt.max)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.InDelta(t, tt.wantFill, got.FillPercent, 0.001)
		})
	}
}

func TestClassify_TotalFunction(t *testing.T) {
	// Degenerate inputs must classify, never error.
	assert.Equal(t, TierPoor, Classify(0, 0).Tier)
	assert.Equal(t, 0.0, Classify(0, 0).FillPercent)

	assert.Equal(t, TierPoor, Classify(5, -1).Tier)

	// Out-of-range values clamp to the bar.
	over := Classify(50, 40)
	assert.Equal(t, TierExcellent, over.Tier)
	assert.Equal(t, 100.0, over.FillPercent)

	under := Classify(-3, 40)
	assert.Equal(t, TierPoor, under.Tier)
	assert.Equal(t, 0.0, under.FillPercent)
}

func TestClassify_ColorsFollowTier(t *testing.T) {
	assert.Equal(t, "red", Classify(0, 10).Color)
	assert.Equal(t, "amber", Classify(4, 10).Color)
	assert.Equal(t, "blue", Classify(6, 10).Color)
	assert.Equal(t, "green", Classify(8, 10).Color)
}
