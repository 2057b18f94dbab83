// Package match ranks electricity plans by their projected annual cost for a
// given bill.
package match

import (
	"sort"

	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"github.com/jj82931/Cost-of-Living-saver/pkg/simulate"
)

// DefaultLimit is the number of results returned when the caller has no
// preference.
const DefaultLimit = constants.DefaultMatchLimit

// Ranked pairs a comparison result with the full simulation behind it.
type Ranked struct {
	billing.ComparisonResult
	Simulation simulate.Result
}

// Match annualizes the bill under every plan and returns the cheapest limit
// results in ascending cost order. Ties keep catalog order. A limit of zero or
// less yields an empty, non-nil slice. plans is not modified.
func Match(bill billing.ElectricityBillExtract, plans []billing.Plan, limit int) []billing.ComparisonResult {
	ranked := Rank(bill, plans, limit)
	out := make([]billing.ComparisonResult, len(ranked))
	for i, r := range ranked {
		out[i] = r.ComparisonResult
	}
	return out
}

// Rank is Match keeping each plan's simulation breakdown.
func Rank(bill billing.ElectricityBillExtract, plans []billing.Plan, limit int) []Ranked {
	if limit <= 0 || len(plans) == 0 {
		return []Ranked{}
	}

	ranked := make([]Ranked, 0, len(plans))
	for _, plan := range plans {
		sim := simulate.AnnualizeFromBill(plan, bill)
		ranked = append(ranked, Ranked{
			ComparisonResult: billing.ComparisonResult{
				PlanID:      plan.ID,
				AnnualCost:  sim.AnnualCost,
				Assumptions: sim.Assumptions,
			},
			Simulation: sim,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AnnualCost < ranked[j].AnnualCost
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
