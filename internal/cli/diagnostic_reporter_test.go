package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/toyz/axon-aot/internal/errors"
)

func newTestReporter(verbose bool) (*DiagnosticReporter, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	reporter := NewDiagnosticReporter(verbose)
	reporter.SetOutput(&out, &errOut)
	return reporter, &out, &errOut
}

func TestDiagnosticReporter_ReportWarning(t *testing.T) {
	reporter, _, errOut := newTestReporter(false)

	reporter.ReportWarning("manifest contributor 'web-handlers' failed")

	assert.Equal(t, "! manifest contributor 'web-handlers' failed\n", errOut.String())
}

func TestDiagnosticReporter_ReportComponentError(t *testing.T) {
	reporter, _, errOut := newTestReporter(false)

	reporter.ReportError(errors.NewUnsupportedComponentError("opaque", "example.com/app/svc.Plain"))

	output := errOut.String()
	for _, expected := range []string{
		"ERROR: Compilation Failed",
		"Type: Unsupported Component",
		"Message: unsupported component 'opaque' of type 'example.com/app/svc.Plain'",
		"Component: opaque",
		"Type Name: example.com/app/svc.Plain",
		"Suggestions:",
		"1. Register a supplier",
		"Run with --verbose",
	} {
		assert.Contains(t, output, expected)
	}
	assert.NotContains(t, output, "Context:")
}

func TestDiagnosticReporter_ReportMultipleErrors(t *testing.T) {
	reporter, _, errOut := newTestReporter(true)

	all := errors.NewMultipleErrors()
	all.Add(errors.NewUnsupportedComponentError("opaque", "example.com/app/svc.Plain"))
	all.Add(errors.WrapEmissionError("broken", "example.com/app/svc.Plain", nil,
		fmt.Errorf("property 'missing' has no setter or field")))
	reporter.ReportError(all)

	output := errOut.String()
	for _, expected := range []string{
		"2 errors:",
		"1) Type: Unsupported Component",
		"2) Type: Emission Error",
		"Context:\n   Component: broken\n   Type: example.com/app/svc.Plain\n",
		"Error Chain:\n   1. property 'missing' has no setter or field\n",
	} {
		assert.Contains(t, output, expected)
	}
	assert.NotContains(t, output, "Run with --verbose")
}

func TestDiagnosticReporter_ReportBasicError(t *testing.T) {
	reporter, _, errOut := newTestReporter(false)

	reporter.ReportError(fmt.Errorf("disk on fire"))

	assert.Contains(t, errOut.String(), "Message: disk on fire\n")
}

func TestDiagnosticReporter_Debug(t *testing.T) {
	quiet, _, quietOut := newTestReporter(false)
	quiet.Debug("hidden %d", 1)
	assert.Empty(t, quietOut.String())

	verbose, _, verboseOut := newTestReporter(true)
	verbose.Debug("shown %d", 2)
	assert.Equal(t, "[DEBUG] shown 2\n", verboseOut.String())
}

func TestDiagnosticReporter_ReportSuccess(t *testing.T) {
	reporter, out, _ := newTestReporter(false)

	reporter.ReportSuccess(GenerationSummary{
		Components:      3,
		Processed:       2,
		Excluded:        1,
		ManifestEntries: 4,
		GeneratedFiles:  []string{"aot/zz_aot_register.go"},
	})

	output := out.String()
	assert.Contains(t, output, "Compiled 2 of 3 components\n")
	assert.Contains(t, output, "Excluded 1 components\n")
	assert.Contains(t, output, "Recorded 4 manifest entries\n")
	assert.Contains(t, output, "  - aot/zz_aot_register.go\n")
}
