// Package gen provides the compiled schema graph, data registry and output
// manifest for tabula table generation.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a schema definition error.
	ErrInvalidSchema = errors.New("tabula: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("tabula: missing configuration")
	// ErrSerializeFailed indicates a table serialization failure.
	ErrSerializeFailed = errors.New("tabula: serialization failed")
	// ErrGenerationFailed indicates an artifact generation failure.
	ErrGenerationFailed = errors.New("tabula: artifact generation failed")
	// ErrNotReady indicates that a hook fired before the pipeline state
	// it depends on was initialized.
	ErrNotReady = errors.New("tabula: pipeline state not ready")
)

// SchemaError represents a schema definition error.
type SchemaError struct {
	Type    string // entity type name
	Field   string // field name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("tabula: schema error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(typeName, fieldName, message string, cause error) *SchemaError {
	return &SchemaError{
		Type:    typeName,
		Field:   fieldName,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error. Configuration errors are
// always fatal: the build aborts rather than continuing with a partially
// resolved configuration.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("tabula: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("tabula: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// SerializeError represents a table serialization failure.
type SerializeError struct {
	Table   string // fully-qualified table identity
	Codec   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SerializeError) Error() string {
	var b strings.Builder
	b.WriteString("tabula: serialize error")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Codec != "" {
		fmt.Fprintf(&b, " (codec: %s)", e.Codec)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SerializeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SerializeError.
func (e *SerializeError) Is(target error) bool {
	return target == ErrSerializeFailed
}

// NewSerializeError creates a new SerializeError.
func NewSerializeError(table, codec, message string, cause error) *SerializeError {
	return &SerializeError{
		Table:   table,
		Codec:   codec,
		Message: message,
		Cause:   cause,
	}
}

// GenerationError represents an artifact generation error.
type GenerationError struct {
	Phase    string // "code", "data"
	Artifact string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("tabula: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.Artifact != "" {
		b.WriteString(" (artifact: ")
		b.WriteString(e.Artifact)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, artifact, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:    phase,
		Artifact: artifact,
		Message:  message,
		Cause:    cause,
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsSerializeError reports whether the error is a SerializeError.
func IsSerializeError(err error) bool {
	var serErr *SerializeError
	return errors.As(err, &serErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
