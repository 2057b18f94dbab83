// Package validation provides configuration validation utilities.
package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ValidateMatchLimit warns when a result limit would produce no results.
func ValidateMatchLimit(limit int) string {
	if limit <= 0 {
		return fmt.Sprintf("Match limit %d returns no plans; use a positive limit", limit)
	}
	return ""
}

// ValidateMinConfidence warns when a confidence threshold can never or will
// always trigger.
func ValidateMinConfidence(threshold float64) string {
	if threshold < 0 || threshold > 1 {
		return fmt.Sprintf("Minimum confidence %.2f is outside 0..1", threshold)
	}
	return ""
}

// ValidateCatalogPath warns when a configured catalog file cannot be found.
// An empty path selects the bundled sample catalog and is not a problem.
func ValidateCatalogPath(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Sprintf("Plan catalog '%s' does not exist", path)
		}
		return fmt.Sprintf("Plan catalog '%s' is not readable: %v", path, err)
	}
	if info.IsDir() {
		return fmt.Sprintf("Plan catalog '%s' is a directory", path)
	}
	return ""
}

// ConfigValidator collects the settings that are checked together.
type ConfigValidator struct {
	OutputFormat  string
	CatalogPath   string
	MatchLimit    int
	MinConfidence float64
	LLMEnabled    bool
	LLMAPIKey     string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if cv.OutputFormat != "" {
		if err := ValidateOutputFormat(cv.OutputFormat); err != nil {
			warnings = append(warnings, fmt.Sprintf("Output format: %v", err))
		}
	}

	for _, w := range []string{
		ValidateCatalogPath(cv.CatalogPath),
		ValidateMatchLimit(cv.MatchLimit),
		ValidateMinConfidence(cv.MinConfidence),
	} {
		if w != "" {
			warnings = append(warnings, w)
		}
	}

	if cv.LLMEnabled && cv.LLMAPIKey == "" {
		warnings = append(warnings, "Explanations are enabled but no API key is configured (set llm.apiKey or OPENROUTER_API_KEY)")
	}

	return warnings
}
