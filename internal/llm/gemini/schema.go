package gemini

import (
	"fmt"

	"google.golang.org/genai"

	"warranty-copilot/internal/llm"
)

// ToSchema converts a response shape to the genai OpenAPI subset. All object
// properties are required and keep their declaration order.
func ToSchema(t *llm.Type) *genai.Schema {
	if t == nil {
		return nil
	}
	s := &genai.Schema{
		Type:        kindToType(t.Kind),
		Description: t.Description,
	}
	if t.Nullable {
		nullable := true
		s.Nullable = &nullable
	}
	// The API only accepts enums on strings.
	if t.Kind == llm.KindString {
		for _, v := range t.Enum {
			s.Enum = append(s.Enum, fmt.Sprint(v))
		}
	}
	switch t.Kind {
	case llm.KindObject:
		s.Properties = make(map[string]*genai.Schema, len(t.Properties))
		for _, p := range t.Properties {
			s.Properties[p.Name] = ToSchema(p.Type)
			s.PropertyOrdering = append(s.PropertyOrdering, p.Name)
			s.Required = append(s.Required, p.Name)
		}
	case llm.KindArray:
		s.Items = ToSchema(t.Items)
	}
	return s
}

func kindToType(k llm.Kind) genai.Type {
	switch k {
	case llm.KindObject:
		return genai.TypeObject
	case llm.KindArray:
		return genai.TypeArray
	case llm.KindInteger:
		return genai.TypeInteger
	case llm.KindNumber:
		return genai.TypeNumber
	case llm.KindBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
