// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
)

// FindResult finds a comparison result by plan id.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []billing.ComparisonResult, planID string) *billing.ComparisonResult {
	for i := range results {
		if results[i].PlanID == planID {
			return &results[i]
		}
	}
	return nil
}

// FindPlanCost finds a ranked plan in a report by plan id.
func FindPlanCost(rep pipeline.Report, planID string) *pipeline.PlanCost {
	for i := range rep.Plans {
		if rep.Plans[i].PlanID == planID {
			return &rep.Plans[i]
		}
	}
	return nil
}

// ContainsString reports whether list holds s.
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
