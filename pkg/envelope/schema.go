package envelope

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed envelope.schema.json
var schemaJSON []byte

var (
	ErrInvalid   = errors.New("invalid envelope")
	ErrMalformed = errors.New("malformed envelope")
)

// Schema returns the JSON Schema the envelope is validated against.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fieldErr := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fieldErr.Field, fieldErr.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return compiled, compileErr
}

// Validate checks an encoded envelope for required fields, field types and alert levels.
// It returns a *ValidationError listing every violation, or an error wrapping
// ErrMalformed when data is not a single JSON document.
func Validate(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile envelope schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}

	return validationErr
}
