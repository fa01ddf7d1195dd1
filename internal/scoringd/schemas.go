package scoringd

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Request bodies are validated against JSON Schema before any range or
// existence checks, so malformed payloads fail with a structural message.
const overrideRequestSchema = `{
	"type": "object",
	"required": ["score", "reason"],
	"properties": {
		"score": {"type": "number"},
		"reason": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

const potentialRequestSchema = `{
	"type": "object",
	"required": ["value"],
	"properties": {
		"value": {"type": "number"}
	},
	"additionalProperties": false
}`

type requestSchemas struct {
	override  *gojsonschema.Schema
	potential *gojsonschema.Schema
}

func compileSchemas() (*requestSchemas, error) {
	override, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(overrideRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile override schema: %w", err)
	}
	potential, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(potentialRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile potential schema: %w", err)
	}
	return &requestSchemas{override: override, potential: potential}, nil
}

// validate runs a schema against a raw body and flattens the failures into
// one message.
func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msg := "invalid request body"
	for _, desc := range result.Errors() {
		msg = desc.String()
		break
	}
	return fmt.Errorf("%s", msg)
}
