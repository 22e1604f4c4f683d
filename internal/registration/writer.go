package registration

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/models"
)

// beanWriter emits a ctx.Register call with a factory closure. bind is set for
// configuration-properties components.
type beanWriter struct {
	env  *Env
	name string
	def  *models.ComponentDefinition
	bind *string
}

func (w *beanWriter) Descriptor() (*models.ComponentDescriptor, error) {
	return w.env.Factory.Describe(w.def)
}

func (w *beanWriter) WriteRegistration(out *codegen.Context, unit *codegen.Unit) error {
	d, err := w.Descriptor()
	if err != nil {
		return err
	}
	host, err := hostPackage(d, w.env.Types)
	if err != nil {
		return err
	}
	if host == "" || host == unit.Namespace() {
		imports := unit.Imports().Clone()
		stmt, err := newEmitter(w.env, imports).register(w.name, w.def, d, w.bind)
		if err != nil {
			return err
		}
		unit.Imports().Replace(imports)
		unit.Add(stmt)
		return nil
	}
	return w.writeHosted(out, unit, host, d)
}

// writeHosted emits the registration as an exported function in the package
// owning the unexported parts, and calls it from unit.
func (w *beanWriter) writeHosted(out *codegen.Context, unit *codegen.Unit, host string, d *models.ComponentDescriptor) error {
	imports := codegen.NewImportManager(host)
	if existing, ok := out.Unit(host, DeclarationsUnit); ok {
		imports = existing.Imports().Clone()
	}
	e := newEmitter(w.env, imports)
	stmt, err := e.register(w.name, w.def, d, w.bind)
	if err != nil {
		return err
	}

	fn := out.UniqueName(host, "Register"+ExportedIdentifier(w.name))
	var b codegen.Block
	b.Line("// %s registers component %q.", fn, w.name)
	b.Open("func %s(ctx *%s.Context) {", fn, e.rt)
	b.Line("%s", stmt)
	b.Close("}")

	decl := out.UnitFor(host, DeclarationsUnit, codegen.UnitDeclarations)
	decl.Imports().Replace(imports)
	decl.Add(b.String())

	alias := unit.Imports().AddImport(host)
	unit.Addf("%s.%s(ctx)", alias, fn)
	return nil
}

// internalWriter registers a runtime-provided service
type internalWriter struct {
	env  *Env
	name string
	def  *models.ComponentDefinition
}

func (w *internalWriter) Descriptor() (*models.ComponentDescriptor, error) {
	return w.env.Factory.Describe(w.def)
}

func (w *internalWriter) WriteRegistration(_ *codegen.Context, unit *codegen.Unit) error {
	kind := w.def.Instantiation.Internal
	if kind == "" {
		return fmt.Errorf("internal component '%s' has no service kind", w.name)
	}
	unit.Addf("ctx.RegisterInternal(%q, %q)", w.name, kind)
	return nil
}

// ExportedIdentifier turns a component name such as "order-service.impl" into
// an exported Go identifier ("OrderServiceImpl").
func ExportedIdentifier(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" || unicode.IsDigit([]rune(id)[0]) {
		id = "Component" + id
	}
	return id
}
