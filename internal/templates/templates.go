// Package templates renders compiled code units into formatted Go files. Each
// unit becomes its own file so that import names chosen per unit never clash;
// the main namespace additionally gets an exported entry function that runs
// its function units in creation order.
package templates

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/models"
	"github.com/toyz/axon-aot/internal/registration"
	"github.com/toyz/axon-aot/internal/utils"
)

const (
	// FilePrefix starts the name of every generated file
	FilePrefix = "zz_aot_"

	// EntryFunction is the exported function generated in the main namespace
	EntryFunction = "Register"
)

// File is one rendered Go source file. Namespace is the import path of the
// package the file belongs to and Name its base file name.
type File struct {
	Namespace string
	Name      string
	Content   []byte
}

// Renderer turns code units into files
type Renderer struct {
	registry *TemplateRegistry
	runtime  string
}

// NewRenderer creates a renderer for code calling the default runtime package
func NewRenderer() *Renderer {
	return &Renderer{registry: NewTemplateRegistry(), runtime: registration.RuntimePackage}
}

type fileData struct {
	Package    string
	Imports    []codegen.Import
	Name       string
	Runtime    string
	Statements []string
	Calls      []string
}

// Render renders every unit of out plus the entry file of the main namespace.
// Files are ordered by namespace, main first, then by unit creation order.
func (r *Renderer) Render(out *codegen.Context) ([]File, error) {
	var files []File
	for _, ns := range out.Namespaces() {
		units := out.UnitsIn(ns)
		if ns == out.Namespace() {
			entry, err := r.RenderEntry(ns, units)
			if err != nil {
				return nil, err
			}
			files = append(files, entry)
		}
		for _, u := range units {
			f, err := r.RenderUnit(u)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

// RenderUnit renders one unit
func (r *Renderer) RenderUnit(u *codegen.Unit) (File, error) {
	imports := u.Imports().Clone()
	data := fileData{
		Package:    u.PackageName(),
		Name:       u.Name(),
		Statements: u.Statements(),
	}
	tmpl := DeclarationsUnitTemplate
	if u.Kind() == codegen.UnitFunction {
		tmpl = FunctionUnitTemplate
		data.Runtime = imports.AddImport(r.runtime)
	}
	data.Imports = imports.Imports()
	return r.render(u.Namespace(), FileName(u.Name()), tmpl, data)
}

// RenderEntry renders the exported entry function of a namespace. Only
// function units are called.
func (r *Renderer) RenderEntry(namespace string, units []*codegen.Unit) (File, error) {
	imports := codegen.NewImportManager(namespace)
	data := fileData{
		Package: models.PackageName(namespace),
		Name:    EntryFunction,
		Runtime: imports.AddImport(r.runtime),
	}
	for _, u := range units {
		if u.Kind() == codegen.UnitFunction {
			data.Calls = append(data.Calls, u.Name())
		}
	}
	data.Imports = imports.Imports()
	return r.render(namespace, FileName(EntryFunction), EntryTemplate, data)
}

func (r *Renderer) render(namespace, fileName, name string, data fileData) (File, error) {
	tmpl, ok := r.registry.Get(name)
	if !ok {
		return File{}, errors.WrapGenerateError(fileName, unitNotFound(name))
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return File{}, errors.WrapGenerateError(fileName, err)
	}
	content, err := utils.FixImports(fileName, buf.Bytes())
	if err != nil {
		return File{}, errors.WrapGenerateError(fileName, err)
	}
	return File{Namespace: namespace, Name: fileName, Content: content}, nil
}

// FileName derives the generated file name of a unit, for example
// "registerComponents0" becomes "zz_aot_register_components0.go".
func FileName(unit string) string {
	var b strings.Builder
	b.WriteString(FilePrefix)
	prev := '_'
	for _, r := range unit {
		switch {
		case unicode.IsUpper(r):
			if prev != '_' {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			r = '_'
		}
		if r == '_' && prev == '_' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.TrimSuffix(b.String(), "_") + ".go"
}

// IsGenerated reports whether a base file name belongs to generated output
func IsGenerated(name string) bool {
	return strings.HasPrefix(name, FilePrefix) &&
		(strings.HasSuffix(name, ".go") || name == ManifestFile)
}
