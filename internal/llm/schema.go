package llm

// Kind is a JSON schema primitive type.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

// Schema names a response shape.
type Schema struct {
	Name string
	Root *Type
}

// Type describes one node of a response shape. Object properties keep their
// declaration order.
type Type struct {
	Kind        Kind
	Description string
	Nullable    bool
	Properties  []Property
	Items       *Type
	Enum        []any
}

// Property is a named object field.
type Property struct {
	Name string
	Type *Type
}

// Object builds an object type from properties.
func Object(props ...Property) *Type { return &Type{Kind: KindObject, Properties: props} }

// Array builds an array type.
func Array(items *Type) *Type { return &Type{Kind: KindArray, Items: items} }

// Prop builds a property.
func Prop(name string, t *Type) Property { return Property{Name: name, Type: t} }

func String() *Type  { return &Type{Kind: KindString} }
func Integer() *Type { return &Type{Kind: KindInteger} }
func Number() *Type  { return &Type{Kind: KindNumber} }
func Boolean() *Type { return &Type{Kind: KindBoolean} }

// Null returns a nullable copy of t.
func Null(t *Type) *Type {
	cp := *t
	cp.Nullable = true
	return &cp
}

// Describe returns a copy of t with a description.
func Describe(t *Type, description string) *Type {
	cp := *t
	cp.Description = description
	return &cp
}

// StrictJSON renders t as a strict structured-output JSON schema: every
// property is required, objects reject extra keys, and nullable types are
// expressed as a type union with "null".
func (t *Type) StrictJSON() map[string]any {
	if t == nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if t.Nullable {
		out["type"] = []string{string(t.Kind), "null"}
	} else {
		out["type"] = string(t.Kind)
	}
	if t.Description != "" {
		out["description"] = t.Description
	}
	if len(t.Enum) > 0 {
		enum := append([]any(nil), t.Enum...)
		if t.Nullable {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	}
	switch t.Kind {
	case KindObject:
		props := make(map[string]any, len(t.Properties))
		required := make([]string, 0, len(t.Properties))
		for _, p := range t.Properties {
			props[p.Name] = p.Type.StrictJSON()
			required = append(required, p.Name)
		}
		out["properties"] = props
		out["required"] = required
		out["additionalProperties"] = false
	case KindArray:
		out["items"] = t.Items.StrictJSON()
	}
	return out
}
