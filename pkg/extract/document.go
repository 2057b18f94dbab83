package extract

import (
	"regexp"
	"strings"
)

// DocType is a coarse classification of OCR text used for routing.
type DocType string

const (
	DocTypeElectricity DocType = "electricity"
	DocTypeUnknown     DocType = "unknown"
)

var (
	reNMIWord       = regexp.MustCompile(`\bnmi\b`)
	reBillingPeriod = regexp.MustCompile(`\bbilling\s*period\b`)
	reKWh           = regexp.MustCompile(`kwh\b`)

	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// DetectDocType reports whether text looks like an electricity bill.
func DetectDocType(text string) DocType {
	s := strings.ToLower(text)
	if reNMIWord.MatchString(s) || reBillingPeriod.MatchString(s) || reKWh.MatchString(s) {
		return DocTypeElectricity
	}
	return DocTypeUnknown
}

// NormalizeText collapses noisy OCR whitespace. Line breaks are kept because
// the recognizers are line scoped; runs of blank lines become one.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
