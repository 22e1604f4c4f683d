package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/axon-aot/internal/errors"
)

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

// NewDiagnosticReporter creates a new diagnostic reporter
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose: verbose,
		out:     color.Output,
		errOut:  color.Error,
	}
}

// SetOutput redirects the reporter, typically to a buffer in tests
func (r *DiagnosticReporter) SetOutput(out, errOut io.Writer) {
	r.out = out
	r.errOut = errOut
}

var warningColor = color.New(color.FgYellow, color.Bold)

// ReportWarning prints a one-line warning
func (r *DiagnosticReporter) ReportWarning(message string) {
	warningColor.Fprint(r.errOut, "! ")
	fmt.Fprintf(r.errOut, "%s\n", message)
}

// ReportError prints err with its code, context and suggestions. Collected
// errors are reported one by one.
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(r.errOut, "\nERROR: Compilation Failed\n")
	fmt.Fprintf(r.errOut, "=========================\n\n")

	var multi *errors.MultipleErrors
	switch {
	case stderrors.As(err, &multi) && multi.Count() > 1:
		fmt.Fprintf(r.errOut, "%d errors:\n\n", multi.Count())
		for i, e := range multi.Errors {
			fmt.Fprintf(r.errOut, "%d) ", i+1)
			r.reportAxonError(e)
		}
	default:
		var axonErr errors.AxonError
		if stderrors.As(err, &axonErr) {
			r.reportAxonError(axonErr)
		} else {
			fmt.Fprintf(r.errOut, "Message: %s\n\n", err.Error())
		}
	}

	if !r.verbose {
		fmt.Fprintf(r.errOut, "Run with --verbose for more detailed output\n")
	}
	fmt.Fprintf(r.errOut, "\n")
}

func (r *DiagnosticReporter) reportAxonError(err errors.AxonError) {
	title := errorTitle(err.ErrorCode())
	fmt.Fprintf(r.errOut, "Type: %s\n", title)
	fmt.Fprintf(r.errOut, "%s\n\n", strings.Repeat("-", len(title)+6))
	fmt.Fprintf(r.errOut, "Message: %s\n\n", err.Error())

	var ce *errors.ComponentError
	if stderrors.As(err, &ce) {
		fmt.Fprintf(r.errOut, "Component: %s\n", ce.Component)
		fmt.Fprintf(r.errOut, "Type Name: %s\n\n", ce.Type)
	}

	if r.verbose {
		r.printContext(err.Context())
	}
	if suggestions := err.Suggestions(); len(suggestions) > 0 {
		fmt.Fprintf(r.errOut, "Suggestions:\n")
		for i, s := range suggestions {
			fmt.Fprintf(r.errOut, "   %d. %s\n", i+1, s)
		}
		fmt.Fprintf(r.errOut, "\n")
	}
	if r.verbose {
		r.printErrorChain(err.Unwrap())
	}
}

func errorTitle(code errors.ErrorCode) string {
	switch code {
	case errors.UnsupportedComponentErrorCode:
		return "Unsupported Component"
	case errors.EmissionErrorCode:
		return "Emission Error"
	case errors.ContributionErrorCode:
		return "Manifest Contribution Error"
	case errors.StructuralErrorCode:
		return "Malformed Snapshot"
	case errors.SyntaxErrorCode:
		return "Syntax Error"
	case errors.ValidationErrorCode:
		return "Validation Error"
	case errors.GenerationErrorCode:
		return "Code Generation Error"
	case errors.FileSystemErrorCode:
		return "File System Error"
	case errors.ConfigurationErrorCode:
		return "Configuration Error"
	default:
		return "Unknown Error"
	}
}

// printContext prints context keys sorted, component and type first
func (r *DiagnosticReporter) printContext(context map[string]interface{}) {
	if len(context) == 0 {
		return
	}
	keys := make([]string, 0, len(context))
	for k := range context {
		if k != "component" && k != "type" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	fmt.Fprintf(r.errOut, "Context:\n")
	for _, k := range append([]string{"component", "type"}, keys...) {
		if v, ok := context[k]; ok {
			fmt.Fprintf(r.errOut, "   %s: %v\n", formatContextKey(k), v)
		}
	}
	fmt.Fprintf(r.errOut, "\n")
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *DiagnosticReporter) printErrorChain(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(r.errOut, "Error Chain:\n")
	for level := 1; err != nil; level++ {
		fmt.Fprintf(r.errOut, "   %d. %s\n", level, err.Error())
		err = stderrors.Unwrap(err)
	}
	fmt.Fprintf(r.errOut, "\n")
}

// Debug prints debug information when verbose mode is enabled
func (r *DiagnosticReporter) Debug(format string, args ...interface{}) {
	if r.verbose {
		fmt.Fprintf(r.errOut, "[DEBUG] "+format+"\n", args...)
	}
}

// ReportSuccess reports a successful compilation
func (r *DiagnosticReporter) ReportSuccess(summary GenerationSummary) {
	fmt.Fprintf(r.out, "\nCompilation Completed Successfully!\n")
	fmt.Fprintf(r.out, "===================================\n\n")

	fmt.Fprintf(r.out, "Compiled %d of %d components\n", summary.Processed, summary.Components)
	if summary.Excluded > 0 {
		fmt.Fprintf(r.out, "Excluded %d components\n", summary.Excluded)
	}
	if summary.ManifestEntries > 0 {
		fmt.Fprintf(r.out, "Recorded %d manifest entries\n", summary.ManifestEntries)
	}

	if len(summary.GeneratedFiles) > 0 {
		fmt.Fprintf(r.out, "\nGenerated files:\n")
		for _, file := range summary.GeneratedFiles {
			fmt.Fprintf(r.out, "  - %s\n", file)
		}
	}
}

// GenerationSummary contains information about one compile run
type GenerationSummary struct {
	RunID           string
	Components      int
	Processed       int
	Excluded        int
	Failed          int
	Units           int
	ManifestEntries int
	GeneratedFiles  []string
}
