// Package constants provides shared constants for the Cost-of-Living saver.
package constants

// DateLayout is the canonical calendar date format used for bill periods.
const DateLayout = "2006-01-02"

// Simulation constants
const (
	// DaysPerYear is the number of days an annualized projection covers
	DaysPerYear = 365

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CentsPerDollar converts cent-denominated rates into dollars
	CentsPerDollar = 100

	// DefaultMatchLimit is the default number of ranked plans returned
	DefaultMatchLimit = 5

	// DefaultMinConfidence is the extraction confidence below which a warning is logged
	DefaultMinConfidence = 0.5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX is the spreadsheet output format
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides of configuration keys
	EnvPrefix = "COLS"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for bill text (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRequestsPerMinute is the default API rate limit
	DefaultRequestsPerMinute = 120
)

// Text-generation client defaults
const (
	// DefaultLLMBaseURL is the default OpenAI-compatible endpoint
	DefaultLLMBaseURL = "https://openrouter.ai/api/v1"

	// DefaultLLMModel is the model requested when none is configured
	DefaultLLMModel = "openrouter/auto"

	// DefaultLLMTemperature is the sampling temperature used when unset
	DefaultLLMTemperature = 0.2

	// DefaultLLMMaxTokens is the completion budget used when unset
	DefaultLLMMaxTokens = 512

	// DefaultLLMTimeoutMillis is the per-attempt request timeout
	DefaultLLMTimeoutMillis = 20000

	// DefaultLLMRetries is the number of retries after the first attempt
	DefaultLLMRetries = 1

	// DefaultLLMBackoffMillis is the base linear backoff between attempts
	DefaultLLMBackoffMillis = 300
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)
