package generator

import (
	"fmt"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
)

// EventListenersUnit names the unit listener registrations are written to
const EventListenersUnit = "registerEventListeners"

// DefaultEmitters returns the built-in graph emitters
func DefaultEmitters() []GraphEmitter {
	return []GraphEmitter{EventListeners{}}
}

// EventListeners registers every listener-marked method of the compiled
// components with the runtime, in definition order. Methods generated code can
// call are wired to a closure; the rest are registered without one. Every
// listener method gets invoke access.
type EventListeners struct{}

func (EventListeners) Name() string { return "event-listeners" }

func (EventListeners) Emit(env *EmitEnv, descriptors []*models.ComponentDescriptor) error {
	var unit *codegen.Unit
	for _, d := range descriptors {
		if d.Name() == "" {
			continue
		}
		userType := models.BaseTypeName(d.UserType())
		root, ok := env.Types.Lookup(userType)
		if !ok {
			continue
		}

		shadowed := make(map[string]bool)
		for _, owner := range models.Promoted(env.Types, userType) {
			for _, m := range owner.Methods {
				if shadowed[m.Name] {
					continue
				}
				shadowed[m.Name] = true
				if !m.HasMarker(models.MarkerListener) {
					continue
				}

				if unit == nil {
					unit = env.Output.UnitFor(env.Output.Namespace(), EventListenersUnit, codegen.UnitFunction)
				}
				unit.Add(listenerStatement(unit.Imports(), env.Types, d, root, m))

				err := env.Manifest.AddReflection(manifest.ReflectionEntry{
					Type: owner.Name,
					Methods: []manifest.Member{{
						Name:     m.Name,
						Params:   append([]string(nil), m.Params...),
						Exported: m.Exported,
					}},
				})
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func listenerStatement(imports *codegen.ImportManager, types models.TypeResolver, d *models.ComponentDescriptor, root *models.TypeInfo, m models.MethodInfo) string {
	component := d.Name()
	if !directlyCallable(root, m) {
		return fmt.Sprintf("ctx.AddEventListener(%q, %q, nil)", component, m.Name)
	}

	produced, ok := models.ProducedType(types, d)
	if !ok || restrictedPackage(produced) != "" {
		produced = ""
	}
	receiver := imports.Qualify(models.MethodReceiver(types, produced, root.Name))
	arg := "event"
	if param := m.Params[0]; param != "any" && param != "interface{}" {
		arg = "event.(" + imports.Qualify(param) + ")"
	}

	var b codegen.Block
	b.Open("ctx.AddEventListener(%q, %q, func(event any) {", component, m.Name)
	b.Line("ctx.Bean(%q).(%s).%s(%s)", component, receiver, m.Name, arg)
	b.Close("})")
	return b.String()
}

// directlyCallable reports whether generated code outside the component's
// package can call m with a single event argument
func directlyCallable(root *models.TypeInfo, m models.MethodInfo) bool {
	if !m.Exported || !root.Exported || len(m.Params) != 1 || len(m.Results) > 0 {
		return false
	}
	param := m.Params[0]
	if param == "any" || param == "interface{}" {
		return true
	}
	base := models.BaseTypeName(param)
	if base == "" {
		return false
	}
	return models.IsBuiltin(base) || models.IsExportedName(models.LocalName(base))
}
