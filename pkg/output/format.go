// Package output provides utilities for formatting and displaying comparison reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, rep pipeline.Report) error {
	p := message.NewPrinter(language.English)
	bill := rep.Bill

	retailer := bill.Retailer
	if retailer == "" {
		retailer = "unknown retailer"
	}
	lines := []string{
		fmt.Sprintf("--- Bill from %s (confidence %s) ---", retailer, format.Percent(bill.Confidence)),
	}
	if bill.NMI != nil {
		lines = append(lines, fmt.Sprintf("NMI: %s", *bill.NMI))
	}
	lines = append(lines,
		fmt.Sprintf("Billing period: %s", periodText(bill.BillingPeriod)),
		fmt.Sprintf("Usage: peak %s, off-peak %s", format.KWh(bill.Usage.PeakKWh), optionalKWh(bill.Usage.OffpeakKWh)),
		fmt.Sprintf("Supply charge: %s", format.PerDay(bill.SupplyChargePerDay)),
		fmt.Sprintf("Rates: peak %s, off-peak %s, feed-in %s",
			format.CentsPerKWh(bill.UsageRates.Peak),
			format.OptionalCentsPerKWh(bill.UsageRates.Offpeak),
			format.OptionalCentsPerKWh(bill.FitPerKWh)),
	)
	if bill.TotalInclGST != nil {
		lines = append(lines, fmt.Sprintf("Total (incl. GST): %s", format.Currency(*bill.TotalInclGST)))
	}
	if rep.LowConfidence {
		lines = append(lines, "Warning: few fields were recognized; check the bill text.")
	}
	if rep.LowConfidenceSpan {
		lines = append(lines, "Warning: billing period unreadable; annual costs assume a one day bill.")
	}
	lines = append(lines, "")

	if len(rep.Plans) > 0 {
		lines = append(lines,
			"Rank | Plan | Annual Cost | Supply | Usage | Credits",
			"____ | ____ | ___________ | ______ | _____ | _______",
		)
		for _, pc := range rep.Plans {
			lines = append(lines, p.Sprintf("%d | %s | $%.2f | $%.2f | $%.2f | $%.2f",
				pc.Rank, pc.Name, pc.AnnualCost, pc.Supply, pc.Usage, pc.Credits))
		}
		lines = append(lines, "")
	}

	lines = append(lines, rep.Summary.Headline)
	if best := rep.Summary.Best; best != nil && best.SavingsVsBill != nil {
		lines = append(lines, fmt.Sprintf("Bill total minus best estimate: %s", format.Currency(*best.SavingsVsBill)))
	}
	for _, d := range rep.Summary.Details {
		lines = append(lines, "  "+d)
	}
	if len(rep.Summary.Assumptions) > 0 {
		lines = append(lines, "Assumptions:")
		for _, a := range rep.Summary.Assumptions {
			lines = append(lines, " - "+a)
		}
	}
	if rep.Explanation != "" {
		lines = append(lines, "", rep.Explanation)
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// CsvHeader is the first row written by CsvFormat.
var CsvHeader = []string{"rank", "plan id", "plan name", "annual cost", "supply", "usage", "credits", "assumptions"}

// CsvFormat writes one row per ranked plan in comma-separated value format.
func CsvFormat(w io.Writer, rep pipeline.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CsvHeader); err != nil {
		return err
	}
	for _, pc := range rep.Plans {
		row := []string{
			fmt.Sprintf("%d", pc.Rank),
			pc.PlanID,
			pc.Name,
			fmt.Sprintf("%.2f", pc.AnnualCost),
			fmt.Sprintf("%.2f", pc.Supply),
			fmt.Sprintf("%.2f", pc.Usage),
			fmt.Sprintf("%.2f", pc.Credits),
			strings.Join(pc.Assumptions, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat writes the report as indented JSON.
func JSONFormat(w io.Writer, rep pipeline.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func periodText(p billing.BillingPeriod) string {
	if !p.Known() {
		return "unknown"
	}
	return fmt.Sprintf("%s to %s", p.Start, p.End)
}

func optionalKWh(v *float64) string {
	if v == nil {
		return "-"
	}
	return format.KWh(*v)
}
