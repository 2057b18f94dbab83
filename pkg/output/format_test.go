package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/report"
	"github.com/xuri/excelize/v2"
)

func testReport() pipeline.Report {
	bill := billing.ElectricityBillExtract{
		Retailer:           "Example Energy",
		NMI:                billing.String("N1234567890"),
		BillingPeriod:      billing.BillingPeriod{Start: "2025-02-01", End: "2025-02-28"},
		Usage:              billing.Usage{PeakKWh: 350.5, OffpeakKWh: billing.Float64(120)},
		SupplyChargePerDay: 1.1,
		UsageRates:         billing.UsageRates{Peak: 0.28, Offpeak: billing.Float64(0.2)},
		FitPerKWh:          billing.Float64(0.05),
		TotalInclGST:       billing.Float64(123.45),
		Confidence:         1,
	}
	plans := []pipeline.PlanCost{
		{Rank: 1, PlanID: "flat", Name: "Flat, \"Simple\"", AnnualCost: 1234.5, Supply: 365, Usage: 869.5, Assumptions: []string{"Annualized from 28 day bill period", "Off-peak usage present but plan has no off-peak rate."}},
		{Rank: 2, PlanID: "tou", Name: "Time of Use", AnnualCost: 1500.25, Supply: 401.5, Usage: 1120, Credits: 21.25, Assumptions: []string{"Annualized from 28 day bill period"}},
	}
	results := []billing.ComparisonResult{
		{PlanID: "flat", AnnualCost: 1234.5, Assumptions: plans[0].Assumptions},
		{PlanID: "tou", AnnualCost: 1500.25, Assumptions: plans[1].Assumptions},
	}
	catalog := []billing.Plan{
		{ID: "flat", Name: plans[0].Name, SupplyChargePerDay: 1},
		{ID: "tou", Name: plans[1].Name, SupplyChargePerDay: 1.1},
	}
	return pipeline.Report{
		Bill:    bill,
		DocType: "electricity",
		Results: results,
		Plans:   plans,
		Summary: report.Summarize(bill, catalog, results),
	}
}

func TestPrettyFormat(t *testing.T) {
	rep := testReport()
	rep.Explanation = "Flat is cheapest."

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, rep); err != nil {
		t.Fatalf("PrettyFormat() error: %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Bill from Example Energy (confidence 100%) ---",
		"NMI: N1234567890",
		"Billing period: 2025-02-01 to 2025-02-28",
		"Usage: peak 350.5 kWh, off-peak 120 kWh",
		"Supply charge: $1.10/day",
		"Rates: peak 28.00 c/kWh, off-peak 20.00 c/kWh, feed-in 5.00 c/kWh",
		"Total (incl. GST): $123.45",
		"Rank | Plan | Annual Cost | Supply | Usage | Credits",
		"1 | Flat, \"Simple\" | $1,234.50 | $365.00 | $869.50 | $0.00",
		"2 | Time of Use | $1,500.25 | $401.50 | $1,120.00 | $21.25",
		"Best plan: Flat, \"Simple\" — est. $1234.50/yr",
		"Bill total minus best estimate: -$1,111.05",
		"  Plan supply: $1.00/day",
		" - Off-peak usage present but plan has no off-peak rate.",
		"Flat is cheapest.",
	}
	for _, e := range expected {
		if !strings.Contains(output, e) {
			t.Errorf("PrettyFormat missing %q in:\n%s", e, output)
		}
	}
	if strings.Contains(output, "Warning:") {
		t.Errorf("PrettyFormat unexpected warning in:\n%s", output)
	}
}

func TestPrettyFormatEmptyReport(t *testing.T) {
	rep := pipeline.Report{
		Summary:           report.Summarize(billing.ElectricityBillExtract{}, nil, nil),
		LowConfidence:     true,
		LowConfidenceSpan: true,
	}

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, rep); err != nil {
		t.Fatalf("PrettyFormat() error: %v", err)
	}
	output := buf.String()

	for _, e := range []string{
		"--- Bill from unknown retailer (confidence 0%) ---",
		"Billing period: unknown",
		"Rates: peak 0.00 c/kWh, off-peak -, feed-in -",
		"Warning: few fields were recognized",
		"Warning: billing period unreadable",
		report.HeadlineNoPlans,
	} {
		if !strings.Contains(output, e) {
			t.Errorf("PrettyFormat missing %q in:\n%s", e, output)
		}
	}
	if strings.Contains(output, "Rank | Plan") {
		t.Errorf("PrettyFormat printed a table for no plans")
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, testReport()); err != nil {
		t.Fatalf("CsvFormat() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("CSV has %d records, expected 3", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(CsvHeader, ",") {
		t.Errorf("CSV header = %v", records[0])
	}

	expected := []string{"1", "flat", "Flat, \"Simple\"", "1234.50", "365.00", "869.50", "0.00",
		"Annualized from 28 day bill period; Off-peak usage present but plan has no off-peak rate."}
	for i, v := range expected {
		if records[1][i] != v {
			t.Errorf("CSV row 1 col %d = %q, expected %q", i, records[1][i], v)
		}
	}
	if records[2][1] != "tou" || records[2][6] != "21.25" {
		t.Errorf("CSV row 2 = %v", records[2])
	}
}

func TestCsvFormatNoPlans(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, pipeline.Report{}); err != nil {
		t.Fatalf("CsvFormat() error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(CsvHeader, ",") {
		t.Errorf("CsvFormat(empty) = %q, expected header only", got)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, testReport()); err != nil {
		t.Fatalf("JSONFormat() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output does not parse: %v", err)
	}
	bill, _ := decoded["bill"].(map[string]any)
	if bill["totalInclGst"] != 123.45 {
		t.Errorf("bill.totalInclGst = %v", bill["totalInclGst"])
	}
	summary, _ := decoded["summary"].(map[string]any)
	best, _ := summary["best"].(map[string]any)
	if best["planId"] != "flat" {
		t.Errorf("summary.best.planId = %v", best["planId"])
	}
	results, _ := decoded["results"].([]any)
	if len(results) != 2 {
		t.Errorf("results has %d entries, expected 2", len(results))
	}
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(testReport())
	if err != nil {
		t.Fatalf("XLSX() error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetComparison || sheets[1] != SheetBill {
		t.Errorf("sheets = %v, expected [%s %s]", sheets, SheetComparison, SheetBill)
	}

	cells := []struct {
		sheet    string
		cell     string
		expected string
	}{
		{SheetComparison, "A1", "Rank"},
		{SheetComparison, "B2", "flat"},
		{SheetComparison, "C3", "Time of Use"},
		{SheetComparison, "D2", "1234.5"},
		{SheetComparison, "B5", "Best plan: Flat, \"Simple\" — est. $1234.50/yr"},
		{SheetComparison, "B6", "Retailer: Example Energy"},
		{SheetBill, "B2", "Example Energy"},
		{SheetBill, "B3", "N1234567890"},
		{SheetBill, "B4", "2025-02-01"},
	}
	for _, c := range cells {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Errorf("GetCellValue(%s, %s) error: %v", c.sheet, c.cell, err)
			continue
		}
		if got != c.expected {
			t.Errorf("%s!%s = %q, expected %q", c.sheet, c.cell, got, c.expected)
		}
	}
}
