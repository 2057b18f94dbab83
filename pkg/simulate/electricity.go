// Package simulate projects the cost of an electricity plan over a number of
// days from per-day usage.
package simulate

import (
	"fmt"
	"math"

	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"github.com/jj82931/Cost-of-Living-saver/pkg/datetime"
	"github.com/jj82931/Cost-of-Living-saver/pkg/mathutil"
)

// Assumption strings attached to results when usage cannot be priced.
const (
	AssumptionNoOffpeakRate = "Off-peak usage present but plan has no off-peak rate."
	AssumptionNoFeedInRate  = "Feed-in provided but plan has no FiT."
)

// DefaultDays is the projection length used for annualized costs.
const DefaultDays = constants.DaysPerYear

// DailyUsage is average consumption per day. Nil optional components mean
// none was observed.
type DailyUsage struct {
	PeakKWh    float64
	OffpeakKWh *float64
	FeedInKWh  *float64
}

// Breakdown splits a projected cost into its parts.
type Breakdown struct {
	Supply  float64 `json:"supply"`
	Usage   float64 `json:"usage"`
	Credits float64 `json:"credits"`
}

// Result is a projected cost. AnnualCost = Supply + Usage - Credits and may
// be negative when feed-in credits exceed charges.
type Result struct {
	AnnualCost  float64   `json:"annualCost"`
	Assumptions []string  `json:"assumptions"`
	Breakdown   Breakdown `json:"breakdown"`
	// SpanDays is the bill period length used to derive daily usage. Zero
	// when the result did not come from a bill.
	SpanDays int `json:"spanDays,omitempty"`
	// LowConfidenceSpan is set when the bill period could not be read and
	// SpanDays fell back to one day. The annualized figure is then an
	// extreme over-estimate.
	LowConfidenceSpan bool `json:"lowConfidenceSpan,omitempty"`
}

// RoundDays converts a fractional day count to the whole number of days
// Simulate charges for, never less than one.
func RoundDays(days float64) int {
	d := int(math.Round(days))
	if d < 1 {
		return 1
	}
	return d
}

// Simulate prices daily usage under plan for the given number of days.
// days below one is treated as one. Usage the plan cannot price (off-peak
// without an off-peak rate, exports without a feed-in tariff) is left out of
// the cost and reported as an assumption instead.
func Simulate(plan billing.Plan, daily DailyUsage, days int) Result {
	if days < 1 {
		days = 1
	}
	d := float64(days)
	assumptions := []string{}

	peakPerDay := mathutil.NonNegative(daily.PeakKWh)
	offPerDay := mathutil.NonNegative(billing.Value(daily.OffpeakKWh))
	feedInPerDay := mathutil.NonNegative(billing.Value(daily.FeedInKWh))

	supply := plan.SupplyChargePerDay * d

	usage := peakPerDay * plan.UsageRates.Peak * d
	offRate, hasOffRate := plan.OffpeakRate()
	if hasOffRate {
		usage += offPerDay * offRate * d
	}

	credits := 0.0
	fit, hasFit := plan.FeedInRate()
	if hasFit {
		credits = fit * feedInPerDay * d
	}

	if !hasOffRate && offPerDay > 0 {
		assumptions = append(assumptions, AssumptionNoOffpeakRate)
	}
	if !hasFit && feedInPerDay > 0 {
		assumptions = append(assumptions, AssumptionNoFeedInRate)
	}

	return Result{
		AnnualCost:  supply + usage - credits,
		Assumptions: assumptions,
		Breakdown:   Breakdown{Supply: supply, Usage: usage, Credits: credits},
	}
}

// BillSpanDays returns the inclusive length of the bill period in days and
// whether it could be read. Unreadable or reversed periods yield one day.
func BillSpanDays(period billing.BillingPeriod) (int, bool) {
	start, errStart := datetime.ParseISODate(period.Start)
	end, errEnd := datetime.ParseISODate(period.End)
	if errStart != nil || errEnd != nil {
		return 1, false
	}
	span := datetime.DaysBetween(start, end) + 1
	if span < 1 {
		return 1, true
	}
	return span, true
}

// AnnualizeFromBill spreads the bill's usage evenly over its period and
// projects a year under plan.
//
// A bill without a readable period is treated as covering a single day. That
// preserves the established output but inflates the projection, so the result
// is flagged with LowConfidenceSpan.
func AnnualizeFromBill(plan billing.Plan, bill billing.ElectricityBillExtract) Result {
	span, known := BillSpanDays(bill.BillingPeriod)
	perDay := float64(span)

	daily := DailyUsage{PeakKWh: bill.Usage.PeakKWh / perDay}
	if off := billing.Value(bill.Usage.OffpeakKWh); off != 0 {
		daily.OffpeakKWh = billing.Float64(off / perDay)
	}

	res := Simulate(plan, daily, DefaultDays)
	res.Assumptions = append([]string{fmt.Sprintf("Annualized from %d day bill period", span)}, res.Assumptions...)
	res.SpanDays = span
	res.LowConfidenceSpan = !known
	return res
}
