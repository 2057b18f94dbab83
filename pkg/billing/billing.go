// Package billing defines the records exchanged between the extraction,
// simulation, matching and reporting stages.
package billing

// BillingPeriod is the date range a bill covers. Start and End are canonical
// YYYY-MM-DD dates or empty when unknown.
type BillingPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Known reports whether both endpoints are present.
func (p BillingPeriod) Known() bool {
	return p.Start != "" && p.End != ""
}

// Usage holds observed consumption in kWh. A nil OffpeakKWh means off-peak
// usage was not billed or not observed, which is distinct from zero.
type Usage struct {
	PeakKWh    float64  `json:"peakKWh"`
	OffpeakKWh *float64 `json:"offpeakKWh,omitempty"`
}

// UsageRates are prices in dollars per kWh.
type UsageRates struct {
	Peak    float64  `json:"peak"`
	Offpeak *float64 `json:"offpeak,omitempty"`
}

// ElectricityBillExtract is the structured result of parsing one bill.
type ElectricityBillExtract struct {
	Retailer           string        `json:"retailer"`
	NMI                *string       `json:"nmi,omitempty"`
	BillingPeriod      BillingPeriod `json:"billingPeriod"`
	Usage              Usage         `json:"usage"`
	SupplyChargePerDay float64       `json:"supplyChargePerDay"`
	UsageRates         UsageRates    `json:"usageRates"`
	FitPerKWh          *float64      `json:"fitPerKWh,omitempty"`
	TotalInclGST       *float64      `json:"totalInclGst,omitempty"`
	Confidence         float64       `json:"confidence"`
}

// Plan is a retail electricity offer from the plan catalog.
type Plan struct {
	ID                 string     `json:"id" yaml:"id"`
	Name               string     `json:"name" yaml:"name"`
	SupplyChargePerDay float64    `json:"supplyChargePerDay" yaml:"supplyChargePerDay"`
	UsageRates         UsageRates `json:"usageRates" yaml:"usageRates"`
	FitPerKWh          *float64   `json:"fitPerKWh,omitempty" yaml:"fitPerKWh,omitempty"`
}

// OffpeakRate returns the plan's off-peak rate and whether one is charged.
// A zero rate counts as no rate.
func (p Plan) OffpeakRate() (float64, bool) {
	if p.UsageRates.Offpeak == nil || *p.UsageRates.Offpeak == 0 {
		return 0, false
	}
	return *p.UsageRates.Offpeak, true
}

// FeedInRate returns the plan's feed-in tariff and whether one is paid.
// A zero tariff counts as no tariff.
func (p Plan) FeedInRate() (float64, bool) {
	if p.FitPerKWh == nil || *p.FitPerKWh == 0 {
		return 0, false
	}
	return *p.FitPerKWh, true
}

// ComparisonResult is one evaluated plan. PlanID refers back to the catalog.
type ComparisonResult struct {
	PlanID      string   `json:"planId"`
	AnnualCost  float64  `json:"annualCost"`
	Assumptions []string `json:"assumptions"`
}

// FindPlan returns the catalog entry with the given id.
func FindPlan(plans []Plan, id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Value dereferences p, returning zero when it is nil.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
