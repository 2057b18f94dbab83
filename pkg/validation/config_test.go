package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateMatchLimit(t *testing.T) {
	tests := []struct {
		limit      int
		expectWarn bool
	}{
		{5, false},
		{1, false},
		{0, true},
		{-2, true},
	}
	for _, tt := range tests {
		if got := ValidateMatchLimit(tt.limit); (got != "") != tt.expectWarn {
			t.Errorf("ValidateMatchLimit(%d) = %q, expected warning %v", tt.limit, got, tt.expectWarn)
		}
	}
}

func TestValidateMinConfidence(t *testing.T) {
	tests := []struct {
		threshold  float64
		expectWarn bool
	}{
		{0, false},
		{0.5, false},
		{1, false},
		{-0.1, true},
		{1.5, true},
	}
	for _, tt := range tests {
		if got := ValidateMinConfidence(tt.threshold); (got != "") != tt.expectWarn {
			t.Errorf("ValidateMinConfidence(%v) = %q, expected warning %v", tt.threshold, got, tt.expectWarn)
		}
	}
}

func TestValidateCatalogPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plans.yaml")
	if err := os.WriteFile(file, []byte("- id: a\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		contains string
	}{
		{"Empty path uses sample", "", ""},
		{"Existing file", file, ""},
		{"Missing file", filepath.Join(dir, "missing.yaml"), "does not exist"},
		{"Directory", dir, "is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateCatalogPath(tt.path)
			if tt.contains == "" && got != "" {
				t.Errorf("ValidateCatalogPath(%q) = %q, expected no warning", tt.path, got)
			}
			if tt.contains != "" && !strings.Contains(got, tt.contains) {
				t.Errorf("ValidateCatalogPath(%q) = %q, expected to contain %q", tt.path, got, tt.contains)
			}
		})
	}
}

func TestValidateAll(t *testing.T) {
	cv := &ConfigValidator{
		OutputFormat:  "xml",
		CatalogPath:   filepath.Join(t.TempDir(), "none.yaml"),
		MatchLimit:    0,
		MinConfidence: 2,
		LLMEnabled:    true,
	}

	warnings := cv.ValidateAll()
	if len(warnings) != 5 {
		t.Fatalf("ValidateAll() = %v, expected 5 warnings", warnings)
	}

	clean := &ConfigValidator{OutputFormat: "pretty", MatchLimit: 5, MinConfidence: 0.5}
	if got := clean.ValidateAll(); len(got) != 0 {
		t.Errorf("ValidateAll() = %v, expected no warnings", got)
	}
}
