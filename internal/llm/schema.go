package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildTripJSONSchema returns the JSON Schema for an extracted partial trip.
// Family-keyed objects list the roster ids as known properties but accept any
// key, since the model sometimes invents ids that the normalizer then ignores.
func BuildTripJSONSchema(familyIDs []string) map[string]any {
	str := map[string]any{"type": "string"}
	date := map[string]any{"type": "string", "pattern": `^(\d{4}-\d{2}-\d{2}|\d{2}[-/]\d{2})?$`}

	flight := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"departureDate": str, "airline": str, "flightNumber": str,
			"departureAirport": str, "departureTime": str,
			"arrivalAirport": str, "arrivalTime": str,
		},
	}
	stay := map[string]any{
		"type":       "object",
		"properties": map[string]any{"checkIn": str, "details": str},
	}
	transfer := map[string]any{
		"type":       "object",
		"properties": map[string]any{"toAirport": str, "fromAirport": str},
	}
	event := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"day": str, "time": str, "title": str, "note": str,
		},
	}

	props := map[string]any{
		"tripStartDate": date,
		"tripEndDate":   date,
		"flights": byFamily(familyIDs, map[string]any{"anyOf": []any{
			str,
			flight,
			map[string]any{"type": "array", "items": map[string]any{"anyOf": []any{str, flight}}},
		}}),
		"accommodations": byFamily(familyIDs, map[string]any{"type": "array", "items": stay}),
		"accommodationSantorini": byFamily(familyIDs, map[string]any{"anyOf": []any{
			str, map[string]any{"type": "array", "items": stay},
		}}),
		"accommodationCrete": byFamily(familyIDs, map[string]any{"anyOf": []any{
			str, map[string]any{"type": "array", "items": stay},
		}}),
		"transfers":        byFamily(familyIDs, transfer),
		"schedule":         map[string]any{"type": "array", "items": event},
		"gettingAround":    str,
		"importantNumbers": str,
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func byFamily(ids []string, value map[string]any) map[string]any {
	known := make(map[string]any, len(ids))
	for _, id := range ids {
		known[id] = value
	}
	return map[string]any{
		"type":                 "object",
		"properties":           known,
		"additionalProperties": value,
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
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
