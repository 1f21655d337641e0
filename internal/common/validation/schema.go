// Package validation checks request bodies and job payloads against JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "franchise-service/internal/common/errors"
)

// A name must contain at least one non-whitespace character.
const nameProperty = `{"type": "string", "pattern": "\\S", "maxLength": 255}`

const stockProperty = `{"type": "integer", "minimum": 0}`

var (
	// NameRequest is the body of every create/rename request.
	NameRequest = MustCompile("name request", `{
		"type": "object",
		"required": ["name"],
		"properties": {"name": `+nameProperty+`}
	}`)

	StockRequest = MustCompile("stock request", `{
		"type": "object",
		"required": ["stock"],
		"properties": {"stock": `+stockProperty+`}
	}`)

	ProductRequest = MustCompile("product request", `{
		"type": "object",
		"required": ["name", "stock"],
		"properties": {"name": `+nameProperty+`, "stock": `+stockProperty+`}
	}`)

	// FranchiseCommand is the variable set of a franchise.command job. Which
	// ids are needed depends on the operation; the worker checks that.
	FranchiseCommand = MustCompile("franchise command", `{
		"type": "object",
		"required": ["operation"],
		"properties": {
			"operation":   {"type": "string", "minLength": 1},
			"franchiseId": {"type": "string"},
			"branchId":    {"type": "string"},
			"productId":   {"type": "string"},
			"name":        `+nameProperty+`,
			"stock":       {"type": ["integer", "null"]}
		}
	}`)
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema literal and panics if it is malformed.
func MustCompile(name, source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("validation: compile %s schema: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// ValidateBytes validates a raw JSON document.
func (s *Schema) ValidateBytes(data []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(data))
}

// Validate validates an already decoded document (map, struct or slice).
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(doc))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) *ValidationResult {
	result, err := s.schema.Validate(loader)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "invalid_json",
		}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		// required errors are reported on the parent object
		if prop, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" {
			field = prop
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out
}

// Err turns a failed result into an INVALID_ARGUMENT error naming the first
// offending field. It returns nil for a valid result.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}

	field := "(root)"
	msgs := make([]string, 0, len(r.Errors))
	for i, e := range r.Errors {
		if i == 0 {
			field = e.Field
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	stdErr := apperrors.NewInvalidArgumentError(field, nil, fmt.Errorf("%s", strings.Join(msgs, "; ")))
	stdErr.Metadata["validationErrors"] = r.Errors
	return stdErr
}
