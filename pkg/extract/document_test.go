package extract

import "testing"

func TestDetectDocType(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected DocType
	}{
		{"NMI mention", "Your NMI is 4103", DocTypeElectricity},
		{"Billing period", "billing period: 1/1/25 - 31/1/25", DocTypeElectricity},
		{"kWh usage", "Used 300 KWH this quarter", DocTypeElectricity},
		{"Grocery receipt", "Milk $2.00\nBread $3.50", DocTypeUnknown},
		{"Word containing nmi", "unmixed", DocTypeUnknown},
		{"Empty", "", DocTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDocType(tt.text); got != tt.expected {
				t.Errorf("DetectDocType(%q) = %s, expected %s", tt.text, got, tt.expected)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", ""},
		{"CRLF and tabs", "Retailer:\tAcme\r\nPeak   Rate 28 c/kWh  \r\n", "Retailer: Acme\nPeak Rate 28 c/kWh"},
		{"Blank line runs", "a\n\n\n\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.expected {
				t.Errorf("NormalizeText(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizedTextExtractsSameFields(t *testing.T) {
	raw := "Retailer:\tExample Energy\r\nSupply Charge   110 c/day\r\n"
	res := Extract(NormalizeText(raw))
	if res.Retailer != "Example Energy" {
		t.Errorf("Retailer = %q, expected Example Energy", res.Retailer)
	}
	if res.SupplyChargePerDay != 1.1 {
		t.Errorf("SupplyChargePerDay = %v, expected 1.1", res.SupplyChargePerDay)
	}
}
