package vertex

import (
	"cloud.google.com/go/vertexai/genai"
)

// toSchema converts a JSON-schema map into the OpenAPI subset genai accepts.
// Keywords genai has no field for (pattern, additionalProperties) are
// dropped; DecodeArguments enforces them after the call.
func toSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	switch t := m["type"].(type) {
	case string:
		s.Type = schemaType(t)
	case []any:
		for _, v := range t {
			if name, _ := v.(string); name == "null" {
				s.Nullable = true
			} else if name != "" {
				s.Type = schemaType(name)
			}
		}
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if f, ok := m["format"].(string); ok {
		s.Format = f
	}
	switch enum := m["enum"].(type) {
	case []string:
		s.Enum = append(s.Enum, enum...)
	case []any:
		for _, v := range enum {
			if e, ok := v.(string); ok {
				s.Enum = append(s.Enum, e)
			}
		}
	}
	switch req := m["required"].(type) {
	case []string:
		s.Required = append(s.Required, req...)
	case []any:
		for _, v := range req {
			if r, ok := v.(string); ok {
				s.Required = append(s.Required, r)
			}
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for k, v := range props {
			if pm, ok := v.(map[string]any); ok {
				s.Properties[k] = toSchema(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toSchema(items)
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	}
	return genai.TypeUnspecified
}
