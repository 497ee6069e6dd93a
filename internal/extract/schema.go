package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// the three record shapes. It is NOT used to reject model output (the
// parser always yields a typed record); a mismatch marks the record
// as needing review before the human confirmation step.
func BuildRecordJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}

	testResult := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"test_name":       nullableString,
			"value":           map[string]any{"type": []string{"number", "string", "null"}},
			"unit":            nullableString,
			"reference_range": nullableString,
			"abnormal_flag":   map[string]any{"enum": []any{"high", "low", "normal", nil}},
		},
	}
	medication := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"medicine_name": nullableString,
			"dosage":        nullableString,
			"frequency":     nullableString,
			"duration":      nullableString,
			"instructions":  nullableString,
		},
	}

	return map[string]any{
		"oneOf": []any{
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"document_type":  map[string]any{"const": "medical_test_report"},
					"patient_name":   nullableString,
					"patient_age":    nullableString,
					"patient_gender": nullableString,
					"report_date":    nullableString,
					"lab_name":       nullableString,
					"doctor_name":    nullableString,
					"test_results":   map[string]any{"type": "array", "items": testResult},
				},
				"required": []string{"document_type", "test_results"},
			},
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"document_type": map[string]any{"const": "prescription"},
					"patient_name":  nullableString,
					"age":           nullableString,
					"date":          nullableString,
					"doctor_name":   nullableString,
					"hospital_name": nullableString,
					"medications":   map[string]any{"type": "array", "items": medication},
				},
				"required": []string{"document_type", "medications"},
			},
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"document_type": map[string]any{"const": "unknown"},
				},
				"required": []string{"document_type"},
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
