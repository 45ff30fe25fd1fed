package classify

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opentriage/triage/internal/providers"
)

// ResponseSchema is the JSON schema for the classification envelope.
// It is sent to schema-capable providers as the response format and also
// compiled locally for envelope validation; local validation stays
// authoritative because not every backend enforces the schema.
//
// Priority is deliberately a bare string here: an invalid-but-present
// priority is coerced by the validator, not rejected by the schema.
var ResponseSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "issue_triage_classification",
		"strict": false,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{
					"type":        "string",
					"enum":        IssueTypes,
					"description": "Issue classification",
				},
				"priority": map[string]any{
					"type":        "string",
					"description": "Priority, p0 (critical) through p4 (trivial)",
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "Classification confidence from 0.0 to 1.0",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Cleaned-up issue title",
				},
				"template_key": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Key of the issue-form template the issue matches",
				},
				"fields": map[string]any{
					"type":        "object",
					"description": "Values for the selected template's fields, keyed by field key",
				},
			},
			"required":             []string{"type", "priority", "template_key", "fields"},
			"additionalProperties": false,
		},
	},
}

// envelopeSchema is the compiled inner schema used for local validation.
var envelopeSchema = compileEnvelopeSchema()

func compileEnvelopeSchema() *jsonschema.Schema {
	inner, err := json.Marshal(ResponseSchema["json_schema"].(map[string]any)["schema"])
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("classification.json", bytes.NewReader(inner)); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile("classification.json")
	if err != nil {
		panic(err)
	}
	return schema
}

// ResponseFormat returns the provider response format for classification
// requests.
func ResponseFormat() *providers.ResponseFormat {
	raw, _ := json.Marshal(ResponseSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: raw,
	}
}
