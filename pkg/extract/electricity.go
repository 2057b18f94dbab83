// Package extract recognizes billing facts in the plain text of an
// electricity bill.
//
// Recognition is a fixed, ordered table of independent rules. Each rule
// pattern-matches the whole text, sets one field of the bill when it
// succeeds, and contributes a fixed weight to the confidence score. Labelled
// patterns are always tried before generic fallbacks because the fallbacks
// (a bare "N kWh", for instance) also match unrelated numbers.
package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"github.com/jj82931/Cost-of-Living-saver/pkg/datetime"
	"github.com/jj82931/Cost-of-Living-saver/pkg/mathutil"
)

// Field names reported by Recognize.
const (
	FieldRetailer      = "retailer"
	FieldNMI           = "nmi"
	FieldBillingPeriod = "billingPeriod"
	FieldPeakUsage     = "peakUsage"
	FieldOffpeakUsage  = "offpeakUsage"
	FieldSupplyCharge  = "supplyCharge"
	FieldPeakRate      = "peakRate"
	FieldOffpeakRate   = "offpeakRate"
	FieldFeedIn        = "feedIn"
	FieldTotal         = "total"
)

var (
	reRetailer = regexp.MustCompile(`(?i)Retailer\s*:\s*(.+)`)
	reNMI      = regexp.MustCompile(`(?i)\bNMI\s*[:#]?\s*([A-Z0-9]+)`)

	rePeriodLabel = regexp.MustCompile(`(?im)Billing\s*Period\s*:\s*([^\n]+?)\s*[-–—]\s*([^\n]+)`)
	rePeriodFrom  = regexp.MustCompile(`(?i)from\s+(.+?)\s+to\s+(.+?)(?:[\n\r]|$)`)

	rePeakUsage = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Usage[^\n]*?Peak[^\n]*?(\d+(?:\.\d+)?)\s*kWh`),
		regexp.MustCompile(`(?i)\bPeak[^\n]*?(\d+(?:\.\d+)?)\s*kWh\b`),
		regexp.MustCompile(`(?i)\b(\d+)\s*kWh\b`),
	}
	reOffpeakUsage = regexp.MustCompile(`(?i)Off[-\s]?peak[^\n]*?(\d+(?:\.\d+)?)\s*kWh`)

	supplyCharge = moneyPatterns{
		dollars: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Supply\s*Charge[^\n]*?\$\s*([\d.]+)\s*/?\s*day`),
		},
		units: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Supply\s*Charge[^\n]*?([\d.]+)\s*(c|\$)\s*/?\s*day`),
		},
	}
	peakRate = moneyPatterns{
		dollars: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Peak\s*Rate[^\n]*?\$\s*([\d.]+)\s*/?\s*kWh`),
			regexp.MustCompile(`(?i)\bPeak\b[^\n]*?\$\s*([\d.]+)\s*/?\s*kWh`),
		},
		units: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Peak\s*Rate[^\n]*?([\d.]+)\s*(c|\$)\s*/\s*kWh`),
			regexp.MustCompile(`(?i)\bPeak\b[^\n]*?([\d.]+)\s*(c|\$)\s*/?\s*kWh`),
		},
	}
	offpeakRate = moneyPatterns{
		dollars: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Off[-\s]?peak[^\n]*?\$\s*([\d.]+)\s*/?\s*kWh`),
		},
		units: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Off[-\s]?peak[^\n]*?([\d.]+)\s*(c|\$)\s*/\s*kWh`),
		},
	}
	feedInRate = moneyPatterns{
		dollars: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Feed[-\s]?in\s*Tariff[^\n]*?\$\s*([\d.]+)\s*/?\s*kWh`),
		},
		units: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Feed[-\s]?in\s*Tariff[^\n]*?([\d.]+)\s*(c|\$)\s*/\s*kWh`),
		},
	}
	reTotal = regexp.MustCompile(`(?i)Total\s*\(incl\.?\s*GST\)\s*:\s*\$?([\d.]+)`)

	reNumberPrefix = regexp.MustCompile(`^(\d+(?:\.\d+)?|\.\d+)`)
	centsPerDollar = decimal.NewFromInt(constants.CentsPerDollar)
)

// rule recognizes one field. apply sets the field on bill and reports
// whether the field counts towards confidence.
type rule struct {
	field  string
	weight float64
	apply  func(text string, bill *billing.ElectricityBillExtract) bool
}

var rules = []rule{
	{FieldRetailer, 0.10, applyRetailer},
	{FieldNMI, 0.10, applyNMI},
	{FieldBillingPeriod, 0.25, applyBillingPeriod},
	{FieldPeakUsage, 0.15, applyPeakUsage},
	{FieldOffpeakUsage, 0.05, applyOffpeakUsage},
	{FieldSupplyCharge, 0.15, applySupplyCharge},
	{FieldPeakRate, 0.10, applyPeakRate},
	{FieldOffpeakRate, 0.05, applyOffpeakRate},
	{FieldFeedIn, 0.05, applyFeedIn},
	{FieldTotal, 0.05, applyTotal},
}

// Extraction is a parsed bill plus the fields that contributed to its
// confidence, in rule order.
type Extraction struct {
	Bill   billing.ElectricityBillExtract
	Fields []string
}

// Extract parses rawText into a bill record. It never fails: fields that are
// not recognized keep their zero value and lower the confidence.
func Extract(rawText string) billing.ElectricityBillExtract {
	return Recognize(rawText).Bill
}

// Recognize runs every rule over rawText in order.
func Recognize(rawText string) Extraction {
	var result Extraction
	confidence := decimal.Zero
	for _, r := range rules {
		if r.apply(rawText, &result.Bill) {
			confidence = confidence.Add(decimal.NewFromFloat(r.weight))
			result.Fields = append(result.Fields, r.field)
		}
	}
	result.Bill.Confidence = mathutil.Clamp(confidence.InexactFloat64(), 0, 1)
	return result
}

// Weights returns the confidence weight of every rule keyed by field name.
func Weights() map[string]float64 {
	weights := make(map[string]float64, len(rules))
	for _, r := range rules {
		weights[r.field] = r.weight
	}
	return weights
}

func applyRetailer(text string, bill *billing.ElectricityBillExtract) bool {
	m := reRetailer.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	bill.Retailer = strings.TrimSpace(m[1])
	return bill.Retailer != ""
}

func applyNMI(text string, bill *billing.ElectricityBillExtract) bool {
	m := reNMI.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	bill.NMI = billing.String(m[1])
	return true
}

// applyBillingPeriod prefers the labelled form. The free-text sentence is only
// consulted when no label is present at all.
func applyBillingPeriod(text string, bill *billing.ElectricityBillExtract) bool {
	m := rePeriodLabel.FindStringSubmatch(text)
	if m == nil {
		m = rePeriodFrom.FindStringSubmatch(text)
	}
	if m == nil {
		return false
	}
	start, okStart := datetime.ParseBillDate(m[1])
	end, okEnd := datetime.ParseBillDate(m[2])
	if !okStart || !okEnd {
		return false
	}
	bill.BillingPeriod = billing.BillingPeriod{Start: start.String(), End: end.String()}
	return true
}

func applyPeakUsage(text string, bill *billing.ElectricityBillExtract) bool {
	for _, re := range rePeakUsage {
		if m := re.FindStringSubmatch(text); m != nil {
			v, ok := parseNumber(m[1])
			if !ok {
				return false
			}
			bill.Usage.PeakKWh = v.InexactFloat64()
			return bill.Usage.PeakKWh > 0
		}
	}
	return false
}

func applyOffpeakUsage(text string, bill *billing.ElectricityBillExtract) bool {
	m := reOffpeakUsage.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	v, ok := parseNumber(m[1])
	if !ok || v.IsZero() {
		return false
	}
	bill.Usage.OffpeakKWh = billing.Float64(v.InexactFloat64())
	return true
}

func applySupplyCharge(text string, bill *billing.ElectricityBillExtract) bool {
	v, ok := supplyCharge.find(text)
	if !ok {
		return false
	}
	bill.SupplyChargePerDay = v
	return v > 0
}

func applyPeakRate(text string, bill *billing.ElectricityBillExtract) bool {
	v, ok := peakRate.find(text)
	if !ok {
		return false
	}
	bill.UsageRates.Peak = v
	return v > 0
}

// applyOffpeakRate counts a matched rate even when it is zero, but only a
// non-zero rate is recorded on the bill.
func applyOffpeakRate(text string, bill *billing.ElectricityBillExtract) bool {
	v, ok := offpeakRate.find(text)
	if !ok {
		return false
	}
	if v != 0 {
		bill.UsageRates.Offpeak = billing.Float64(v)
	}
	return true
}

func applyFeedIn(text string, bill *billing.ElectricityBillExtract) bool {
	v, ok := feedInRate.find(text)
	if !ok {
		return false
	}
	bill.FitPerKWh = billing.Float64(v)
	return true
}

func applyTotal(text string, bill *billing.ElectricityBillExtract) bool {
	m := reTotal.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	v, ok := parseNumber(m[1])
	if !ok {
		return false
	}
	bill.TotalInclGST = billing.Float64(v.InexactFloat64())
	return true
}

// moneyPatterns holds the two shapes a price takes on a bill: an explicit
// dollar amount ("$0.27 / kWh") and a number followed by a unit character
// ("28 c/kWh", "1.10 $/day"). Dollar patterns win over unit patterns.
type moneyPatterns struct {
	dollars []*regexp.Regexp
	units   []*regexp.Regexp
}

func (p moneyPatterns) find(text string) (float64, bool) {
	for _, re := range p.dollars {
		if m := re.FindStringSubmatch(text); m != nil {
			v, ok := parseNumber(m[1])
			return v.InexactFloat64(), ok
		}
	}
	for _, re := range p.units {
		if m := re.FindStringSubmatch(text); m != nil {
			v, ok := parseNumber(m[1])
			if !ok {
				return 0, false
			}
			return toDollars(v, m[2]).InexactFloat64(), true
		}
	}
	return 0, false
}

// toDollars converts a cent amount exactly; "$" amounts pass through.
func toDollars(v decimal.Decimal, unit string) decimal.Decimal {
	if strings.EqualFold(unit, "c") {
		return v.Div(centsPerDollar)
	}
	return v
}

// parseNumber reads the leading numeric part of s, so a capture such as
// "1.10." still yields 1.10. A capture with no digits is rejected.
func parseNumber(s string) (decimal.Decimal, bool) {
	prefix := reNumberPrefix.FindString(s)
	if prefix == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}
