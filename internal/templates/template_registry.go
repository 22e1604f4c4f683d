package templates

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	// FunctionUnitTemplate renders a function unit as one function
	FunctionUnitTemplate = "function-unit"
	// DeclarationsUnitTemplate renders a declarations unit verbatim
	DeclarationsUnitTemplate = "declarations-unit"
	// EntryTemplate renders the exported function calling every function unit
	EntryTemplate = "entry"
)

// TemplateRegistry provides a centralized way to access all file templates
type TemplateRegistry struct {
	templates map[string]*template.Template
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]*template.Template),
	}

	registry.register(FunctionUnitTemplate, functionUnitTemplate)
	registry.register(DeclarationsUnitTemplate, declarationsUnitTemplate)
	registry.register(EntryTemplate, entryTemplate)

	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (*template.Template, bool) {
	tmpl, exists := tr.templates[name]
	return tmpl, exists
}

// MustGet retrieves a template by name, panics if not found
func (tr *TemplateRegistry) MustGet(name string) *template.Template {
	tmpl, exists := tr.templates[name]
	if !exists {
		panic("template not found: " + name)
	}
	return tmpl
}

// Names lists the registered template names
func (tr *TemplateRegistry) Names() []string {
	return []string{FunctionUnitTemplate, DeclarationsUnitTemplate, EntryTemplate}
}

// register parses body together with the shared file header. The templates
// are constants, so a parse failure is a programming error.
func (tr *TemplateRegistry) register(name, body string) {
	tmpl := template.New(name).Funcs(template.FuncMap{"indent": indent})
	tmpl = template.Must(tmpl.Parse(headerTemplate))
	tmpl = template.Must(tmpl.Parse(body))
	tr.templates[name] = tmpl
}

// indent prefixes every non-empty line with a tab
func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "\t" + line
		}
	}
	return strings.Join(lines, "\n")
}

const headerTemplate = `{{define "header"}}// Code generated by axon-aot. DO NOT EDIT.

package {{.Package}}
{{with .Imports}}
import (
{{range .}}	{{if .Alias}}{{.Alias}} {{end}}{{printf "%q" .Path}}
{{end}})
{{end}}{{end}}`

const functionUnitTemplate = `{{template "header" .}}
func {{.Name}}(ctx *{{.Runtime}}.Context) {
{{range .Statements}}{{indent .}}
{{end}}}
`

const declarationsUnitTemplate = `{{template "header" .}}{{range .Statements}}
{{.}}
{{end}}`

const entryTemplate = `{{template "header" .}}
// {{.Name}} adds the compiled component graph to ctx.
func {{.Name}}(ctx *{{.Runtime}}.Context) {
{{range .Calls}}	{{.}}(ctx)
{{end}}}
`

// unitNotFound is returned by the renderer for unknown template names
func unitNotFound(name string) error {
	return fmt.Errorf("template not found: %s", name)
}
