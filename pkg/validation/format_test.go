package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{"Valid pretty format", "pretty", false},
		{"Valid csv format", "csv", false},
		{"Valid json format", "json", false},
		{"Valid xlsx format", "xlsx", false},
		{"Empty format", "", true},
		{"Case sensitive - uppercase", "PRETTY", true},
		{"Case sensitive - CSV uppercase", "CSV", true},
		{"Leading/trailing spaces", " pretty ", true},
		{"Similar but incorrect format", "prettyprint", true},
		{"XML format not supported", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateOutputFormat(%q) expected error, got nil", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error: %v", tt.format, err)
			}
		})
	}
}
