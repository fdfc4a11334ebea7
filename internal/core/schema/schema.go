// Package schema builds the JSON Schema documents that record payloads are
// validated against.
package schema

type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeNumber  PropertyType = "number"
	TypeInteger PropertyType = "integer"
	TypeArray   PropertyType = "array"
	TypeObject  PropertyType = "object"
)

type Property struct {
	Type        PropertyType         `json:"type"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Format      string               `json:"format,omitempty"`
	Enum        []interface{}        `json:"enum,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty"`
	Maximum     *float64             `json:"maximum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// String is a non-empty string.
func String() *Property {
	one := 1
	return &Property{Type: TypeString, MinLength: &one}
}

func Email() *Property {
	p := String()
	p.Format = "email"
	return p
}

// OptionalString may be empty.
func OptionalString() *Property {
	return &Property{Type: TypeString}
}

func DateTime() *Property {
	return &Property{Type: TypeString, Format: "date-time"}
}

// Enum restricts a string to values, usually a filter field's allowed list.
func Enum(values ...string) *Property {
	p := &Property{Type: TypeString}
	for _, v := range values {
		p.Enum = append(p.Enum, v)
	}
	return p
}

// Number is a number no lower than floor.
func Number(floor float64) *Property {
	return &Property{Type: TypeNumber, Minimum: &floor}
}

func Integer(floor float64) *Property {
	return &Property{Type: TypeInteger, Minimum: &floor}
}

// Between is a number within [lo, hi].
func Between(lo, hi float64) *Property {
	return &Property{Type: TypeNumber, Minimum: &lo, Maximum: &hi}
}

func ArrayOf(items *Property) *Property {
	return &Property{Type: TypeArray, Items: items}
}

func Object(properties map[string]*Property, required ...string) *Property {
	return &Property{Type: TypeObject, Properties: properties, Required: required}
}

// Titled sets the human-readable title and returns p.
func (p *Property) Titled(title string) *Property {
	p.Title = title
	return p
}

// New returns a record schema. The id and timestamp properties every record
// carries are added automatically and need not be listed.
func New(title string, properties map[string]*Property, required ...string) map[string]interface{} {
	props := map[string]interface{}{
		"id":        OptionalString(),
		"createdAt": DateTime(),
		"updatedAt": DateTime(),
	}
	for k, v := range properties {
		props[k] = v
	}

	s := map[string]interface{}{
		"type":       "object",
		"title":      title,
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
