package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseError(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(FileSystemErrorCode, "failed to write file", cause).
		WithContext("path", "aot/zz_aot_register.go").
		WithContext("operation", "write").
		WithSuggestion("check permissions").
		WithSuggestion("pick another output dir")

	assert.Equal(t, "failed to write file: permission denied", err.Error())
	assert.Equal(t, FileSystemErrorCode, err.ErrorCode())
	assert.Equal(t, "write", err.Context()["operation"])
	assert.Len(t, err.Suggestions(), 2)
	assert.ErrorIs(t, err, cause)

	plain := New(ValidationErrorCode, "bad input")
	assert.Equal(t, "bad input", plain.Error())
	assert.NotNil(t, plain.Context())
	assert.Nil(t, plain.Unwrap())
}

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{UnsupportedComponentErrorCode, "UnsupportedComponent"},
		{EmissionErrorCode, "EmissionError"},
		{ContributionErrorCode, "ContributionError"},
		{StructuralErrorCode, "StructuralError"},
		{ErrorCode(99), "UnknownError"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.code.String())
	}
}

func TestComponentErrors(t *testing.T) {
	unsupported := NewUnsupportedComponentError("opaque", "example.com/app/svc.Plain")
	assert.Equal(t, UnsupportedComponentErrorCode, unsupported.ErrorCode())
	assert.Equal(t, "opaque", unsupported.Component)
	assert.Equal(t, "opaque", unsupported.Context()["component"])
	assert.NotEmpty(t, unsupported.Suggestions())

	cause := fmt.Errorf("property 'missing' has no setter or field")
	emission := WrapEmissionError("broken", "example.com/app/svc.Plain", nil, cause)
	assert.Contains(t, emission.Error(), "component 'broken'")
	assert.ErrorIs(t, emission, cause)
	assert.NotContains(t, emission.Context(), "definition")

	var component *ComponentError
	require.True(t, stderrors.As(fmt.Errorf("outer: %w", emission), &component))
	assert.Equal(t, "broken", component.Component)
}

func TestContributionError(t *testing.T) {
	cause := fmt.Errorf("boom")

	onTarget := WrapContributionError("web-handlers", "api", cause)
	assert.Equal(t, "manifest contributor 'web-handlers' failed on descriptor 'api': boom", onTarget.Error())

	onContainer := WrapContributionError("web-handlers", "", cause)
	assert.Contains(t, onContainer.Error(), "failed on container")
}

func TestMultipleErrors(t *testing.T) {
	all := NewMultipleErrors()
	assert.Nil(t, all.ErrorOrNil())
	assert.Equal(t, UnknownErrorCode, all.ErrorCode())

	all.Add(NewUnsupportedComponentError("a", "pkg.A"))
	assert.Equal(t, all.Errors[0].Error(), all.Error())

	all.Add(WrapEmissionError("b", "pkg.B", nil, fmt.Errorf("no constructor")))
	assert.Equal(t, 2, all.Count())
	assert.Contains(t, all.Error(), "multiple errors (2 total)")
	assert.True(t, IsCode(all, UnsupportedComponentErrorCode))
	assert.Equal(t, "a", all.Context()["error_0_component"])
	assert.Error(t, all.ErrorOrNil())

	var nilErrors *MultipleErrors
	assert.Nil(t, nilErrors.ErrorOrNil())
}

func TestIsCode(t *testing.T) {
	inner := WrapStructuralError("decode snapshot", fmt.Errorf("yaml: bad indent"))
	outer := WrapConfigurationError("snapshot", "load", inner)

	assert.True(t, IsCode(outer, ConfigurationErrorCode))
	assert.True(t, IsCode(outer, StructuralErrorCode))
	assert.True(t, IsCode(fmt.Errorf("context: %w", outer), StructuralErrorCode))
	assert.False(t, IsCode(outer, EmissionErrorCode))
	assert.False(t, IsCode(fmt.Errorf("plain"), EmissionErrorCode))
	assert.False(t, IsCode(nil, EmissionErrorCode))
}

func TestFromPanic(t *testing.T) {
	cause := fmt.Errorf("nil map")
	assert.ErrorIs(t, FromPanic(cause), cause)
	assert.EqualError(t, FromPanic("oops"), "panic: oops")
}
