package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every violation found in one pass.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationErrors) Add(field, format string, args ...interface{}) {
	e.Errors = append(e.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e, or nil when nothing was added.
func (e *ValidationErrors) Err() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Fields lists the offending fields in the order they were reported.
func (e *ValidationErrors) Fields() []string {
	out := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err.Field
	}
	return out
}

// Schema is a compiled record schema. The patch variant drops "required" so
// partial updates can be checked on their own.
type Schema struct {
	full  *gojsonschema.Schema
	patch *gojsonschema.Schema
}

func (s *Schema) Validate(data map[string]interface{}) error {
	return check(s.full, data)
}

func (s *Schema) ValidatePatch(data map[string]interface{}) error {
	return check(s.patch, data)
}

func check(schema *gojsonschema.Schema, data map[string]interface{}) error {
	if schema == nil {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationErrors{}
	for _, desc := range result.Errors() {
		ve.Add(desc.Field(), "%s", desc.Description())
	}
	return ve
}

// Validator compiles schemas once per name and reuses them.
type Validator struct {
	mu      sync.Mutex
	schemas map[string]*Schema
}

func NewValidator() *Validator {
	return &Validator{schemas: make(map[string]*Schema)}
}

// Compile returns the compiled schema registered under name, compiling it on
// first use. An empty schema accepts any document.
func (v *Validator) Compile(name string, schema map[string]interface{}) (*Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.schemas[name]; ok {
		return s, nil
	}

	s := &Schema{}
	if len(schema) > 0 {
		full, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}

		partial := make(map[string]interface{}, len(schema))
		for k, val := range schema {
			if k != "required" {
				partial[k] = val
			}
		}
		patch, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(partial))
		if err != nil {
			return nil, fmt.Errorf("compile %s patch schema: %w", name, err)
		}
		s.full, s.patch = full, patch
	}

	v.schemas[name] = s
	return s, nil
}

func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

func GetValidationErrors(err error) *ValidationErrors {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
