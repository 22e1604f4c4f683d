package errors

import (
	stderrors "errors"
	"fmt"
)

// ComponentError identifies a single component that could not be compiled.
// Both unsupported components and emission failures use it.
type ComponentError struct {
	*BaseError
	Component string
	Type      string
}

// NewUnsupportedComponentError reports that no registration writer claimed a definition.
func NewUnsupportedComponentError(component, typeName string) *ComponentError {
	message := fmt.Sprintf("unsupported component '%s' of type '%s': no registration writer claims it", component, typeName)
	return &ComponentError{
		BaseError: New(UnsupportedComponentErrorCode, message).
			WithContext("component", component).
			WithContext("type", typeName).
			WithSuggestion("Register a supplier that recognizes this definition shape before the default supplier"),
		Component: component,
		Type:      typeName,
	}
}

// WrapEmissionError wraps a writer failure with the component and its definition.
func WrapEmissionError(component, typeName string, definition interface{}, cause error) *ComponentError {
	message := fmt.Sprintf("failed to emit registration for component '%s' of type '%s'", component, typeName)
	base := Wrap(EmissionErrorCode, message, cause).
		WithContext("component", component).
		WithContext("type", typeName)
	if definition != nil {
		base.WithContext("definition", definition)
	}
	return &ComponentError{
		BaseError: base,
		Component: component,
		Type:      typeName,
	}
}

// ContributionError reports a manifest contributor that failed on one target.
type ContributionError struct {
	*BaseError
	Contributor string
	Target      string
}

// WrapContributionError wraps a contributor failure. Target is a descriptor name,
// or empty when the contributor processed the whole container.
func WrapContributionError(contributor, target string, cause error) *ContributionError {
	subject := "container"
	if target != "" {
		subject = fmt.Sprintf("descriptor '%s'", target)
	}
	message := fmt.Sprintf("manifest contributor '%s' failed on %s", contributor, subject)
	return &ContributionError{
		BaseError: Wrap(ContributionErrorCode, message, cause).
			WithContext("contributor", contributor).
			WithContext("target", target),
		Contributor: contributor,
		Target:      target,
	}
}

// StructuralError means the input snapshot itself is unusable. It always aborts compilation.
type StructuralError struct {
	*BaseError
	Operation string
}

// WrapStructuralError wraps a failure to read the container snapshot.
func WrapStructuralError(operation string, cause error) *StructuralError {
	return &StructuralError{
		BaseError: Wrap(StructuralErrorCode, fmt.Sprintf("malformed container snapshot: cannot %s", operation), cause).
			WithContext("operation", operation),
		Operation: operation,
	}
}

// SyntaxError reports unparseable input text such as a member reference.
type SyntaxError struct {
	*BaseError
	Input string
}

// WrapSyntaxError wraps a parse failure for the given input.
func WrapSyntaxError(input string, cause error) *SyntaxError {
	return &SyntaxError{
		BaseError: Wrap(SyntaxErrorCode, fmt.Sprintf("failed to parse '%s'", input), cause).
			WithContext("input", input),
		Input: input,
	}
}

// NewValidationError reports an invalid field value
func NewValidationError(field, message string) *BaseError {
	return New(ValidationErrorCode, fmt.Sprintf("invalid %s: %s", field, message)).
		WithContext("field", field)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapGenerateError wraps a failure to render generated output
func WrapGenerateError(item string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s", item), cause).
		WithContext("item", item)
}

// FromPanic converts a recovered panic value into an error.
func FromPanic(value interface{}) error {
	if err, ok := value.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", value)
}

// IsCode reports whether err, or anything it wraps, carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var axonErr AxonError
	for err != nil {
		if stderrors.As(err, &axonErr) && axonErr.ErrorCode() == code {
			return true
		}
		if axonErr == nil {
			return false
		}
		err = axonErr.Unwrap()
		axonErr = nil
	}
	return false
}
