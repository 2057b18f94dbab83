// Package catalog loads the plan catalog that bills are compared against.
//
// Catalogs are YAML or JSON lists of plans. Values are coerced leniently:
// numbers given as strings are parsed, anything non-numeric or missing reads
// as zero, and the optional off-peak rate and feed-in tariff are kept only
// when the source lists them.
package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Supported catalog encodings.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

const samplePath = "data/electricity/plans.sample.yaml"

//go:embed data/electricity/plans.sample.yaml
var sampleFiles embed.FS

// ErrEmptyCatalog is returned when a catalog holds no plans.
var ErrEmptyCatalog = errors.New("plan catalog is empty")

const planSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id"],
    "properties": {
      "id": {"type": ["string", "number"]},
      "name": {"type": ["string", "number", "null"]},
      "usageRates": {"type": ["object", "null"]}
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("plans.json", strings.NewReader(planSchema)); err != nil {
		panic(fmt.Sprintf("add plan schema: %v", err))
	}
	return compiler.MustCompile("plans.json")
}

// Load reads a catalog file. The format follows the file extension; anything
// other than .json is read as YAML.
func Load(path string) ([]billing.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	plans, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plans, nil
}

// LoadSample returns the catalog bundled with the binary.
func LoadSample() ([]billing.Plan, error) {
	data, err := sampleFiles.ReadFile(samplePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample catalog: %w", err)
	}
	return Parse(data, FormatYAML)
}

// Parse decodes a catalog in the given format ("yaml", "yml", "json", or ""
// to sniff). The document must be a list of objects each carrying an id.
func Parse(data []byte, format string) ([]billing.Plan, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("unable to decode plan catalog: %w", err)
	}
	if raw == nil {
		return nil, ErrEmptyCatalog
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("plan catalog does not match schema: %w", err)
	}

	entries, _ := raw.([]any)
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	plans := make([]billing.Plan, 0, len(entries))
	for _, entry := range entries {
		m, _ := entry.(map[string]any)
		plans = append(plans, coercePlan(m))
	}
	return plans, nil
}

func toJSON(data []byte, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return data, nil
	case FormatYAML, "yml":
	case "":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
			return data, nil
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unable to decode plan catalog: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unable to convert plan catalog: %w", err)
	}
	return out, nil
}

func coercePlan(m map[string]any) billing.Plan {
	plan := billing.Plan{
		ID:                 cast.ToString(m["id"]),
		Name:               cast.ToString(m["name"]),
		SupplyChargePerDay: number(m["supplyChargePerDay"]),
	}

	rates, _ := m["usageRates"].(map[string]any)
	plan.UsageRates.Peak = number(rates["peak"])
	if v, ok := rates["offpeak"]; ok && v != nil {
		plan.UsageRates.Offpeak = billing.Float64(number(v))
	}
	if v, ok := m["fitPerKWh"]; ok && v != nil {
		plan.FitPerKWh = billing.Float64(number(v))
	}
	return plan
}

// number coerces v to a float, reading failures as zero.
func number(v any) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return f
}

// Validate reports data problems that do not stop a comparison but are worth
// surfacing: blank or repeated ids, blank names and negative prices.
func Validate(plans []billing.Plan) []string {
	var warnings []string
	seen := make(map[string]int, len(plans))

	for i, p := range plans {
		label := fmt.Sprintf("Plan %d", i+1)
		if p.ID == "" {
			warnings = append(warnings, fmt.Sprintf("%s has no id", label))
		} else {
			label = fmt.Sprintf("Plan '%s'", p.ID)
			if first, dup := seen[p.ID]; dup {
				warnings = append(warnings, fmt.Sprintf("%s duplicates the id of plan %d; only the first is used for names", label, first+1))
			} else {
				seen[p.ID] = i
			}
		}
		if strings.TrimSpace(p.Name) == "" {
			warnings = append(warnings, fmt.Sprintf("%s has no name", label))
		}
		if p.SupplyChargePerDay < 0 {
			warnings = append(warnings, fmt.Sprintf("%s has a negative supply charge (%.4f)", label, p.SupplyChargePerDay))
		}
		if p.UsageRates.Peak < 0 {
			warnings = append(warnings, fmt.Sprintf("%s has a negative peak rate (%.4f)", label, p.UsageRates.Peak))
		}
		if p.UsageRates.Offpeak != nil && *p.UsageRates.Offpeak < 0 {
			warnings = append(warnings, fmt.Sprintf("%s has a negative off-peak rate (%.4f)", label, *p.UsageRates.Offpeak))
		}
		if p.FitPerKWh != nil && *p.FitPerKWh < 0 {
			warnings = append(warnings, fmt.Sprintf("%s has a negative feed-in tariff (%.4f)", label, *p.FitPerKWh))
		}
	}
	return warnings
}
