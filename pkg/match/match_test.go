package match

import (
	"fmt"
	"sort"
	"testing"

	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
)

func testBill() billing.ElectricityBillExtract {
	return billing.ElectricityBillExtract{
		Retailer:           "Example Energy",
		BillingPeriod:      billing.BillingPeriod{Start: "2025-02-01", End: "2025-02-28"},
		Usage:              billing.Usage{PeakKWh: 280, OffpeakKWh: billing.Float64(56)},
		SupplyChargePerDay: 1.1,
		UsageRates:         billing.UsageRates{Peak: 0.28, Offpeak: billing.Float64(0.2)},
		Confidence:         1,
	}
}

func testPlans() []billing.Plan {
	return []billing.Plan{
		{ID: "expensive", Name: "Expensive", SupplyChargePerDay: 1.5, UsageRates: billing.UsageRates{Peak: 0.35, Offpeak: billing.Float64(0.25)}},
		{ID: "cheap", Name: "Cheap", SupplyChargePerDay: 0.8, UsageRates: billing.UsageRates{Peak: 0.25, Offpeak: billing.Float64(0.15)}},
		{ID: "flat", Name: "Flat", SupplyChargePerDay: 0.7, UsageRates: billing.UsageRates{Peak: 0.27}},
		{ID: "middle", Name: "Middle", SupplyChargePerDay: 1.0, UsageRates: billing.UsageRates{Peak: 0.3, Offpeak: billing.Float64(0.2)}},
	}
}

func TestMatchSortedAndTruncated(t *testing.T) {
	bill := testBill()
	plans := testPlans()

	tests := []struct {
		limit    int
		expected int
	}{
		{1, 1},
		{2, 2},
		{4, 4},
		{DefaultLimit, 4},
		{100, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d", tt.limit), func(t *testing.T) {
			results := Match(bill, plans, tt.limit)
			if len(results) != tt.expected {
				t.Fatalf("len(Match(limit=%d)) = %d, expected %d", tt.limit, len(results), tt.expected)
			}
			if !sort.SliceIsSorted(results, func(i, j int) bool { return results[i].AnnualCost < results[j].AnnualCost }) {
				t.Errorf("Match results not sorted: %+v", results)
			}
			if results[0].PlanID != "flat" {
				t.Errorf("Match best = %s, expected flat", results[0].PlanID)
			}
		})
	}
}

func TestMatchNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		results := Match(testBill(), testPlans(), limit)
		if results == nil || len(results) != 0 {
			t.Errorf("Match(limit=%d) = %v, expected empty non-nil slice", limit, results)
		}
	}
}

func TestMatchEmptyCatalog(t *testing.T) {
	results := Match(testBill(), nil, DefaultLimit)
	if results == nil || len(results) != 0 {
		t.Errorf("Match(no plans) = %v, expected empty non-nil slice", results)
	}
}

func TestMatchStableTies(t *testing.T) {
	same := billing.UsageRates{Peak: 0.3}
	plans := []billing.Plan{
		{ID: "b", SupplyChargePerDay: 1, UsageRates: same},
		{ID: "a", SupplyChargePerDay: 1, UsageRates: same},
		{ID: "c", SupplyChargePerDay: 1, UsageRates: same},
	}

	results := Match(testBill(), plans, 3)
	for i, expected := range []string{"b", "a", "c"} {
		if results[i].PlanID != expected {
			t.Errorf("results[%d].PlanID = %s, expected %s", i, results[i].PlanID, expected)
		}
	}
}

func TestMatchDoesNotMutatePlans(t *testing.T) {
	plans := testPlans()
	before := fmt.Sprintf("%+v", plans)
	offpeak := *plans[0].UsageRates.Offpeak

	Match(testBill(), plans, 2)

	if after := fmt.Sprintf("%+v", plans); after != before {
		t.Errorf("plans changed:\nbefore %s\nafter  %s", before, after)
	}
	if *plans[0].UsageRates.Offpeak != offpeak {
		t.Errorf("offpeak rate changed to %v", *plans[0].UsageRates.Offpeak)
	}
}

func TestMatchCarriesAssumptions(t *testing.T) {
	results := Match(testBill(), testPlans(), DefaultLimit)
	for _, r := range results {
		if len(r.Assumptions) == 0 || r.Assumptions[0] != "Annualized from 28 day bill period" {
			t.Errorf("%s assumptions = %v, expected annualization note first", r.PlanID, r.Assumptions)
		}
		if r.PlanID == "flat" && len(r.Assumptions) != 2 {
			t.Errorf("flat assumptions = %v, expected off-peak mismatch", r.Assumptions)
		}
	}
}

func TestRankKeepsBreakdown(t *testing.T) {
	ranked := Rank(testBill(), testPlans(), 1)
	if len(ranked) != 1 {
		t.Fatalf("len(Rank) = %d, expected 1", len(ranked))
	}
	b := ranked[0].Simulation.Breakdown
	if got := b.Supply + b.Usage - b.Credits; got != ranked[0].AnnualCost {
		t.Errorf("breakdown total %v != AnnualCost %v", got, ranked[0].AnnualCost)
	}
}
