package billing

import "testing"

func TestBillingPeriodKnown(t *testing.T) {
	tests := []struct {
		period   BillingPeriod
		expected bool
	}{
		{BillingPeriod{Start: "2025-01-01", End: "2025-01-31"}, true},
		{BillingPeriod{Start: "2025-01-01"}, false},
		{BillingPeriod{End: "2025-01-31"}, false},
		{BillingPeriod{}, false},
	}

	for _, tt := range tests {
		if got := tt.period.Known(); got != tt.expected {
			t.Errorf("Known(%v) = %v, expected %v", tt.period, got, tt.expected)
		}
	}
}

func TestPlanOptionalRates(t *testing.T) {
	tests := []struct {
		name       string
		plan       Plan
		offpeak    float64
		hasOffpeak bool
		fit        float64
		hasFit     bool
	}{
		{"absent", Plan{}, 0, false, 0, false},
		{"zero counts as absent", Plan{UsageRates: UsageRates{Offpeak: Float64(0)}, FitPerKWh: Float64(0)}, 0, false, 0, false},
		{"present", Plan{UsageRates: UsageRates{Offpeak: Float64(0.18)}, FitPerKWh: Float64(0.05)}, 0.18, true, 0.05, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, ok := tt.plan.OffpeakRate()
			if off != tt.offpeak || ok != tt.hasOffpeak {
				t.Errorf("OffpeakRate() = %v, %v, expected %v, %v", off, ok, tt.offpeak, tt.hasOffpeak)
			}
			fit, ok := tt.plan.FeedInRate()
			if fit != tt.fit || ok != tt.hasFit {
				t.Errorf("FeedInRate() = %v, %v, expected %v, %v", fit, ok, tt.fit, tt.hasFit)
			}
		})
	}
}

func TestFindPlan(t *testing.T) {
	plans := []Plan{{ID: "a", Name: "First"}, {ID: "b", Name: "Second"}, {ID: "a", Name: "Duplicate"}}

	p, ok := FindPlan(plans, "a")
	if !ok || p.Name != "First" {
		t.Errorf("FindPlan(a) = %v, %v, expected the first match", p, ok)
	}
	if _, ok := FindPlan(plans, "z"); ok {
		t.Error("FindPlan(z) found a plan")
	}
	if _, ok := FindPlan(nil, "a"); ok {
		t.Error("FindPlan(nil) found a plan")
	}
}

func TestPointerHelpers(t *testing.T) {
	if Value(nil) != 0 {
		t.Errorf("Value(nil) = %v, expected 0", Value(nil))
	}
	if Value(Float64(1.5)) != 1.5 {
		t.Errorf("Value(Float64(1.5)) = %v, expected 1.5", Value(Float64(1.5)))
	}
	if *String("N1") != "N1" {
		t.Errorf("String(N1) = %v", *String("N1"))
	}
}
