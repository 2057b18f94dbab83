package output

import (
	"fmt"
	"strings"

	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/mathutil"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the XLSX workbook.
const (
	SheetComparison = "Comparison"
	SheetBill       = "Bill"
)

// XLSX renders the report as a workbook with a ranked comparison sheet and a
// sheet of extracted bill fields.
func XLSX(rep pipeline.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// NewFile starts with Sheet1; rename it so the comparison opens first.
	if err := f.SetSheetName("Sheet1", SheetComparison); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetBill); err != nil {
		return nil, fmt.Errorf("xlsx add sheet: %w", err)
	}

	headers := []string{"Rank", "Plan ID", "Plan", "Annual Cost", "Supply", "Usage", "Credits", "Assumptions"}
	if err := writeRow(f, SheetComparison, 1, toCells(headers)); err != nil {
		return nil, err
	}
	for i, pc := range rep.Plans {
		row := []any{
			pc.Rank,
			pc.PlanID,
			pc.Name,
			mathutil.Round(pc.AnnualCost),
			mathutil.Round(pc.Supply),
			mathutil.Round(pc.Usage),
			mathutil.Round(pc.Credits),
			strings.Join(pc.Assumptions, "; "),
		}
		if err := writeRow(f, SheetComparison, i+2, row); err != nil {
			return nil, err
		}
	}

	summaryRow := len(rep.Plans) + 3
	if err := writeRow(f, SheetComparison, summaryRow, []any{"Summary", rep.Summary.Headline}); err != nil {
		return nil, err
	}
	for i, d := range rep.Summary.Details {
		if err := writeRow(f, SheetComparison, summaryRow+1+i, []any{"", d}); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(SheetComparison, "A", "A", 8)
	_ = f.SetColWidth(SheetComparison, "B", "B", 16)
	_ = f.SetColWidth(SheetComparison, "C", "C", 28)
	_ = f.SetColWidth(SheetComparison, "D", "G", 14)
	_ = f.SetColWidth(SheetComparison, "H", "H", 60)

	for i, kv := range billRows(rep.Bill) {
		if err := writeRow(f, SheetBill, i+1, kv); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(SheetBill, "A", "A", 24)
	_ = f.SetColWidth(SheetBill, "B", "B", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func billRows(bill billing.ElectricityBillExtract) [][]any {
	rows := [][]any{
		{"Field", "Value"},
		{"Retailer", bill.Retailer},
		{"NMI", optionalString(bill.NMI)},
		{"Billing period start", bill.BillingPeriod.Start},
		{"Billing period end", bill.BillingPeriod.End},
		{"Peak usage (kWh)", bill.Usage.PeakKWh},
		{"Off-peak usage (kWh)", optionalNumber(bill.Usage.OffpeakKWh)},
		{"Supply charge ($/day)", bill.SupplyChargePerDay},
		{"Peak rate ($/kWh)", bill.UsageRates.Peak},
		{"Off-peak rate ($/kWh)", optionalNumber(bill.UsageRates.Offpeak)},
		{"Feed-in tariff ($/kWh)", optionalNumber(bill.FitPerKWh)},
		{"Total incl. GST ($)", optionalNumber(bill.TotalInclGST)},
		{"Confidence", bill.Confidence},
	}
	return rows
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("xlsx cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("xlsx set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func optionalNumber(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
