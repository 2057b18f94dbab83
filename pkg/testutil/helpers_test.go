package testutil

import (
	"testing"

	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
)

func TestFindResult(t *testing.T) {
	results := []billing.ComparisonResult{
		{PlanID: "a", AnnualCost: 100},
		{PlanID: "b", AnnualCost: 200},
	}

	found := FindResult(results, "b")
	if found == nil {
		t.Fatal("FindResult(b) returned nil")
	}
	if found.AnnualCost != 200 {
		t.Errorf("FindResult(b).AnnualCost = %v, expected 200", found.AnnualCost)
	}

	// The pointer refers to the slice element.
	found.AnnualCost = 250
	if results[1].AnnualCost != 250 {
		t.Error("FindResult should return a pointer into the slice")
	}

	if FindResult(results, "missing") != nil {
		t.Error("FindResult(missing) should be nil")
	}
	if FindResult(nil, "a") != nil {
		t.Error("FindResult(nil) should be nil")
	}
}

func TestFindPlanCost(t *testing.T) {
	rep := pipeline.Report{Plans: []pipeline.PlanCost{{Rank: 1, PlanID: "a"}, {Rank: 2, PlanID: "b"}}}

	if pc := FindPlanCost(rep, "b"); pc == nil || pc.Rank != 2 {
		t.Errorf("FindPlanCost(b) = %+v, expected rank 2", pc)
	}
	if FindPlanCost(pipeline.Report{}, "a") != nil {
		t.Error("FindPlanCost on empty report should be nil")
	}
}

func TestContainsString(t *testing.T) {
	list := []string{"x", "y"}
	if !ContainsString(list, "y") {
		t.Error("ContainsString(y) = false, expected true")
	}
	if ContainsString(list, "z") || ContainsString(nil, "x") {
		t.Error("ContainsString matched a missing value")
	}
}
