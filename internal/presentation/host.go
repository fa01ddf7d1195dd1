// Package presentation owns the attach points reconciliation writes into:
// the set of visual regions currently mounted per candidate, and the rendered
// values each one displays.
package presentation

import "context"

// RegionType names one mountable visual region.
type RegionType string

const (
	// RegionListRow is the candidate's summary row in the list view.
	RegionListRow RegionType = "list-row"
	// RegionDetailHeader shows both totals at the top of the detail view.
	RegionDetailHeader RegionType = "detail-header"
	// RegionCriterionBreakdown shows per-criterion bars and override badges.
	RegionCriterionBreakdown RegionType = "criterion-breakdown"
	// RegionTotalsPanel shows the rule-based/AI-enhanced comparison panel.
	RegionTotalsPanel RegionType = "totals-panel"
)

// KnownRegions returns every region type reconciliation considers.
func KnownRegions() []RegionType {
	return []RegionType{RegionListRow, RegionDetailHeader, RegionCriterionBreakdown, RegionTotalsPanel}
}

// Valid reports whether r names a known region type.
func (r RegionType) Valid() bool {
	switch r {
	case RegionListRow, RegionDetailHeader, RegionCriterionBreakdown, RegionTotalsPanel:
		return true
	}
	return false
}

// Host exposes the mounted regions. The console never assumes a region
// exists; Write on an unmounted region is a safe no-op.
type Host interface {
	IsMounted(ctx context.Context, candidateID string, region RegionType) (bool, error)
	Write(ctx context.Context, candidateID string, region RegionType, rendered interface{}) error
}
