// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
)

// OutputFormats lists the supported output formats in display order.
var OutputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatXLSX,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	for _, f := range OutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("expected output format of %s, got %s",
		strings.Join(OutputFormats, ", "), format)
}
