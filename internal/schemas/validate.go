// Package schemas provides JSON Schema validation for pipeline artifacts and LLM replies.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	rootschemas "github.com/jonathan/signal-agent/schemas"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Schema != "" {
		sb.WriteString(fmt.Sprintf("validation against %s failed:\n", ve.Schema))
	} else {
		sb.WriteString("validation failed:\n")
	}
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.RWMutex
)

// Compiled returns the embedded schema with the given file name, compiling it on first use.
func Compiled(name string) (*gojsonschema.Schema, error) {
	compiledMu.RLock()
	if s, ok := compiled[name]; ok {
		compiledMu.RUnlock()
		return s, nil
	}
	compiledMu.RUnlock()

	data, err := rootschemas.FS.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "embedded schema not found", Cause: err}
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema failed to compile", Cause: err}
	}

	compiledMu.Lock()
	compiled[name] = s
	compiledMu.Unlock()

	return s, nil
}

// ValidateBytes validates a JSON document against an embedded schema
func ValidateBytes(name string, doc []byte) error {
	v, err := Embedded(name)
	if err != nil {
		return err
	}
	return v.Validate(doc)
}

// Validator checks JSON documents against one compiled schema
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Embedded returns a Validator for the embedded schema with the given file name
func Embedded(name string) (*Validator, error) {
	s, err := Compiled(name)
	if err != nil {
		return nil, err
	}
	return &Validator{name: name, schema: s}, nil
}

// LoadFile compiles a JSON Schema file on disk
func LoadFile(schemaPath string) (*Validator, error) {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaAbsPath))
	if err != nil {
		return nil, &SchemaLoadError{
			Path:    schemaAbsPath,
			Message: "schema failed to compile",
			Cause:   err,
		}
	}

	return &Validator{name: filepath.Base(schemaAbsPath), schema: s}, nil
}

// Name is the schema file name used in validation errors
func (v *Validator) Name() string {
	return v.name
}

// Validate checks doc against the schema. Malformed JSON is reported as an error.
func (v *Validator) Validate(doc []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	return toValidationError(v.name, result)
}

func toValidationError(schema string, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: schema,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
