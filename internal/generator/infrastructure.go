package generator

import (
	"fmt"
	"strings"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/container"
	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
	"github.com/toyz/axon-aot/internal/registration"
)

// InfrastructureUnit names the leading unit that prepares the runtime context
const InfrastructureUnit = "registerInfrastructure"

// writeInfrastructure emits the container setup that has to run before any
// component is registered: import origins, destroy methods and the lookup
// order. Each import origin also needs the importing type's source as a
// resource, and every destroy method needs invoke access.
func writeInfrastructure(out *codegen.Context, unit *codegen.Unit, src container.Container, defs []namedDefinition, env *registration.Env, reg *manifest.Registry) error {
	if aware, ok := src.(container.ImportAware); ok {
		for _, origin := range aware.ImportOrigins() {
			unit.Addf("ctx.RegisterImportOrigin(%q, %q)", origin.Importing, origin.Imported)
			if pattern := sourcePattern(origin.Importing); pattern != "" {
				if err := reg.AddResource(pattern); err != nil {
					return err
				}
			}
		}
	}

	for _, nd := range defs {
		for _, method := range nd.def.DestroyMethods {
			if err := grantDestroy(env.Types, nd.def, method, reg); err != nil {
				return err
			}
			writeDestroy(out, unit, env, nd, method)
		}
	}

	unit.Add("ctx.UseRegistrationOrder()")
	return nil
}

// writeDestroy registers a closure calling one destroy method. Methods found
// in the type index are called on the component's produced type; others go
// through an interface check. When the call needs unexported names it is
// hosted as a function in the package declaring them.
func writeDestroy(out *codegen.Context, unit *codegen.Unit, env *registration.Env, nd namedDefinition, method string) {
	userType := models.BaseTypeName(models.UserType(env.Types, nd.def.Type))
	produced, _ := env.ProducedType(nd.name)
	receiver := models.MethodReceiver(env.Types, produced, userType)
	owner, m, typed := models.FindMethod(env.Types, userType, method)
	typed = typed && len(m.Params) == 0

	host := ""
	if !models.IsExportedName(method) {
		host = models.PackageOf(userType)
		if owner != nil {
			host = models.PackageOf(owner.Name)
		}
	}
	if typed {
		if pkg := restrictedPackage(receiver); pkg != "" {
			switch host {
			case "":
				host = pkg
			case pkg:
			default:
				typed = false
			}
		}
	}

	body := func(b *codegen.Block, imports *codegen.ImportManager) {
		if typed {
			destroyCall(b, imports.Qualify(receiver), m)
			return
		}
		destroyCheck(b, imports.AddImport(registration.RuntimePackage), method)
	}

	if host == "" || host == unit.Namespace() {
		var b codegen.Block
		b.Open("ctx.RegisterDestroyMethod(%q, %q, func(bean any) error {", nd.name, method)
		body(&b, unit.Imports())
		b.Close("})")
		unit.Add(b.String())
		return
	}

	decl := out.UnitFor(host, registration.DeclarationsUnit, codegen.UnitDeclarations)
	fn := out.UniqueName(host, "Destroy"+registration.ExportedIdentifier(nd.name)+registration.ExportedIdentifier(method))
	var b codegen.Block
	b.Line("// %s runs destroy method %q of component %q.", fn, method, nd.name)
	b.Open("func %s(bean any) error {", fn)
	body(&b, decl.Imports())
	b.Close("}")
	decl.Add(b.String())

	alias := unit.Imports().AddImport(host)
	unit.Addf("ctx.RegisterDestroyMethod(%q, %q, %s.%s)", nd.name, method, alias, fn)
}

func destroyCall(b *codegen.Block, receiver string, m models.MethodInfo) {
	call := fmt.Sprintf("bean.(%s).%s()", receiver, m.Name)
	switch {
	case m.ReturnsError() && len(m.Results) == 1:
		b.Line("return %s", call)
	case m.ReturnsError():
		b.Line("%serr := %s", strings.Repeat("_, ", len(m.Results)-1), call)
		b.Line("return err")
	default:
		b.Line("%s", call)
		b.Line("return nil")
	}
}

func destroyCheck(b *codegen.Block, rt, method string) {
	b.Line("switch b := bean.(type) {")
	b.Line("case interface{ %s() error }:", method)
	b.Line("\treturn b.%s()", method)
	b.Line("case interface{ %s() }:", method)
	b.Line("\tb.%s()", method)
	b.Line("\treturn nil")
	b.Line("}")
	b.Line("return %s.MissingMethod(bean, %q)", rt, method)
}

// restrictedPackage returns the package of an unexported named type in expr
func restrictedPackage(expr string) string {
	base := models.BaseTypeName(expr)
	if base == "" || models.IsBuiltin(base) || models.IsExportedName(models.LocalName(base)) {
		return ""
	}
	return models.PackageOf(base)
}

func grantDestroy(types models.TypeResolver, def *models.ComponentDefinition, method string, reg *manifest.Registry) error {
	userType := models.BaseTypeName(models.UserType(types, def.Type))
	owner, m, ok := models.FindMethod(types, userType, method)
	if !ok {
		return reg.AddReflection(manifest.ReflectionEntry{
			Type:    userType,
			Methods: []manifest.Member{{Name: method, Exported: models.IsExportedName(method)}},
		})
	}
	return reg.AddReflection(manifest.ReflectionEntry{
		Type: owner.Name,
		Methods: []manifest.Member{{
			Name:     m.Name,
			Params:   append([]string(nil), m.Params...),
			Exported: m.Exported,
		}},
	})
}

// sourcePattern maps "example.com/app/config.AppConfig" to
// "example.com/app/config/AppConfig.go"
func sourcePattern(typeName string) string {
	pkg, local := models.SplitTypeName(typeName)
	if local == "" {
		return ""
	}
	if pkg == "" {
		return local + ".go"
	}
	return pkg + "/" + local + ".go"
}
