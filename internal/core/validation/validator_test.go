package validation

import (
	"errors"
	"fmt"
	"testing"
)

var productSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"name":  map[string]interface{}{"type": "string", "minLength": 1},
		"price": map[string]interface{}{"type": "number", "minimum": 0},
	},
	"required": []interface{}{"name", "price"},
}

func TestSchemaValidate(t *testing.T) {
	v := NewValidator()
	s, err := v.Compile("products", productSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if err := s.Validate(map[string]interface{}{"name": "Pen", "price": 1.5}); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}

	err = s.Validate(map[string]interface{}{"name": "", "price": -1})
	ve := GetValidationErrors(err)
	if ve == nil {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(ve.Errors) != 2 {
		t.Errorf("expected 2 violations, got %d: %v", len(ve.Errors), ve)
	}
}

func TestSchemaValidatePatch(t *testing.T) {
	s, err := NewValidator().Compile("products", productSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if err := s.ValidatePatch(map[string]interface{}{"price": 3}); err != nil {
		t.Errorf("patch without required fields rejected: %v", err)
	}
	if err := s.Validate(map[string]interface{}{"price": 3}); !IsValidationError(err) {
		t.Errorf("full validation should require name, got %v", err)
	}
	if err := s.ValidatePatch(map[string]interface{}{"price": "free"}); !IsValidationError(err) {
		t.Errorf("patch type mismatch accepted: %v", err)
	}
}

func TestCompileCachesByName(t *testing.T) {
	v := NewValidator()
	a, _ := v.Compile("products", productSchema)
	b, _ := v.Compile("products", nil)
	if a != b {
		t.Error("second Compile should return the cached schema")
	}
}

func TestEmptySchemaAcceptsAnything(t *testing.T) {
	s, err := NewValidator().Compile("free", nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := s.Validate(map[string]interface{}{"anything": true}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidationErrors(t *testing.T) {
	ve := &ValidationErrors{}
	if ve.Err() != nil {
		t.Error("empty errors should be nil")
	}

	ve.Add("sortBy", "field %q is not sortable", "email")
	ve.Add("filters.status", "value %q is not allowed", "gone")

	err := fmt.Errorf("query: %w", ve.Err())
	if !IsValidationError(err) {
		t.Fatal("wrapped error not recognised")
	}
	if got := err.Error(); got != `query: sortBy: field "email" is not sortable; filters.status: value "gone" is not allowed` {
		t.Errorf("Error() = %s", got)
	}
	if fields := GetValidationErrors(err).Fields(); len(fields) != 2 || fields[1] != "filters.status" {
		t.Errorf("Fields() = %v", fields)
	}
	if GetValidationErrors(errors.New("other")) != nil {
		t.Error("unrelated error matched")
	}
}
