// Package report condenses ranked comparison results into a human readable
// summary.
package report

import (
	"fmt"
	"sort"

	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/mathutil"
)

// HeadlineNoPlans is the headline used when there is nothing to compare.
const HeadlineNoPlans = "No comparable plans found"

// BestPlan is the cheapest result joined back to its catalog entry.
type BestPlan struct {
	PlanID        string   `json:"planId"`
	Name          string   `json:"name"`
	AnnualCost    float64  `json:"annualCost"`
	SavingsVsBill *float64 `json:"savingsVsBill,omitempty"`
}

// Summary is the reduced view of a comparison. Best is nil iff there were no
// results.
type Summary struct {
	Headline    string    `json:"headline"`
	Best        *BestPlan `json:"best,omitempty"`
	Assumptions []string  `json:"assumptions"`
	Details     []string  `json:"details"`
}

// Summarize picks the cheapest of results, which need not be sorted, and
// describes it against the bill. Plans are looked up by id to recover names;
// an id missing from the catalog falls back to showing the raw cost.
func Summarize(bill billing.ElectricityBillExtract, plans []billing.Plan, results []billing.ComparisonResult) Summary {
	assumptions := collectAssumptions(results)
	details := []string{
		fmt.Sprintf("Retailer: %s", bill.Retailer),
		fmt.Sprintf("Bill period: %s to %s", bill.BillingPeriod.Start, bill.BillingPeriod.End),
	}

	if len(results) == 0 {
		return Summary{
			Headline:    HeadlineNoPlans,
			Assumptions: assumptions,
			Details:     details,
		}
	}

	sorted := make([]billing.ComparisonResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AnnualCost < sorted[j].AnnualCost
	})
	best := sorted[0]

	var savings *float64
	if bill.TotalInclGST != nil {
		savings = billing.Float64(mathutil.Round(*bill.TotalInclGST - best.AnnualCost))
		details = append(details, fmt.Sprintf("Bill total (incl. GST): $%.2f", *bill.TotalInclGST))
	}

	bp := &BestPlan{
		PlanID:        best.PlanID,
		Name:          best.PlanID,
		AnnualCost:    mathutil.Round(best.AnnualCost),
		SavingsVsBill: savings,
	}

	var headline string
	if plan, ok := billing.FindPlan(plans, best.PlanID); ok {
		bp.Name = plan.Name
		headline = fmt.Sprintf("Best plan: %s — est. $%.2f/yr", plan.Name, best.AnnualCost)
		details = append(details, fmt.Sprintf("Plan supply: $%.2f/day", plan.SupplyChargePerDay))
	} else {
		headline = fmt.Sprintf("Best annual cost: $%.2f/yr", best.AnnualCost)
	}

	return Summary{
		Headline:    headline,
		Best:        bp,
		Assumptions: assumptions,
		Details:     details,
	}
}

// collectAssumptions returns the distinct non-empty assumptions in sorted
// order.
func collectAssumptions(results []billing.ComparisonResult) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range results {
		for _, a := range r.Assumptions {
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}
