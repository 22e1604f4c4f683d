package contrib

import (
	"encoding"
	"encoding/gob"
	"reflect"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"github.com/labstack/echo/v4"

	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
	"github.com/toyz/axon-aot/pkg/aot"
)

// qualifiedName renders a reflected named type the way the type index names it
func qualifiedName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

var (
	proxyInterface       = qualifiedName(reflect.TypeFor[aot.Proxy]())
	advisedInterface     = qualifiedName(reflect.TypeFor[aot.Advised]())
	synthesizedInterface = qualifiedName(reflect.TypeFor[aot.SynthesizedAnnotation]())
)

// TransactionalProxies derives the proxy a transactional component needs.
// Marked interfaces that declare methods are proxied together with the
// runtime's proxy interfaces. Otherwise a marker on the class, its methods or
// the methods of its interfaces proxies the class itself. Marked interfaces
// without methods need no proxy.
type TransactionalProxies struct{}

func (TransactionalProxies) Name() string { return "transactional-proxies" }

func (TransactionalProxies) ContributeContainer(env *Env, reg *manifest.Registry) error {
	comps, err := env.Components()
	if err != nil {
		return err
	}
	for _, c := range comps {
		entry, ok := transactionalProxy(env, c.UserType)
		if !ok {
			continue
		}
		if err := reg.AddProxy(entry); err != nil {
			return err
		}
	}
	return nil
}

func transactionalProxy(env *Env, userType string) (manifest.ProxyEntry, bool) {
	hierarchy := env.Hierarchy(userType)
	if len(hierarchy) == 0 {
		return manifest.ProxyEntry{}, false
	}
	root := hierarchy[0]

	var interfaces []string
	classMarked := root.Kind != models.KindInterface && root.HasMarker(models.MarkerTransactional)
	for _, t := range hierarchy {
		for _, m := range t.Methods {
			if m.HasMarker(models.MarkerTransactional) {
				classMarked = true
			}
		}
		if t.Kind == models.KindInterface && t.HasMarker(models.MarkerTransactional) && len(t.Methods) > 0 {
			interfaces = append(interfaces, t.Name)
		}
	}

	switch {
	case len(interfaces) > 0:
		return manifest.ProxyEntry{
			ProxyKind:  manifest.InterfaceProxy,
			Interfaces: append(interfaces, proxyInterface, advisedInterface),
		}, true
	case classMarked && root.Kind != models.KindInterface:
		return manifest.ProxyEntry{
			ProxyKind:  manifest.ClassProxy,
			TargetType: root.Name,
			Features:   manifest.FeatureStatic,
		}, true
	}
	return manifest.ProxyEntry{}, false
}

// SynthesizedAnnotations proxies every annotation that is the target of an
// attribute alias, so merged attribute values can be synthesized at run time.
// Annotations are collected from component types, their methods and fields,
// and transitively from the annotations' own meta-annotations.
type SynthesizedAnnotations struct {
	// Ignore lists annotations that never need a proxy
	Ignore []string
}

func (SynthesizedAnnotations) Name() string { return "synthesized-annotations" }

func (s SynthesizedAnnotations) ContributeContainer(env *Env, reg *manifest.Registry) error {
	comps, err := env.Components()
	if err != nil {
		return err
	}
	ignored := make(map[string]bool, len(s.Ignore))
	for _, name := range s.Ignore {
		ignored[name] = true
	}

	for _, c := range comps {
		for _, target := range aliasTargets(env, collectAnnotations(env, c.UserType)) {
			if ignored[target] {
				continue
			}
			err := reg.AddProxy(manifest.ProxyEntry{
				ProxyKind:  manifest.InterfaceProxy,
				Interfaces: []string{target, synthesizedInterface},
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// collectAnnotations returns the annotation types used on the hierarchy of
// typeName, closed over meta-annotations
func collectAnnotations(env *Env, typeName string) []string {
	var queue []string
	for _, t := range env.Hierarchy(typeName) {
		queue = append(queue, t.Markers...)
		for _, m := range t.Methods {
			queue = append(queue, m.Markers...)
		}
		for _, f := range t.Fields {
			queue = append(queue, f.Markers...)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		t, ok := env.Types.Lookup(name)
		if !ok || t.Kind != models.KindAnnotation {
			continue
		}
		out = append(out, t.Name)
		queue = append(queue, t.Markers...)
	}
	return out
}

// aliasTargets resolves alias relationships to a fixed point. An annotation
// is a target when another annotation aliases one of its attributes, or when
// it aliases its own attributes. Targets are followed in turn, so chains of
// aliases are resolved completely. The result is sorted.
func aliasTargets(env *Env, annotations []string) []string {
	targets := make(map[string]bool)
	visited := make(map[string]bool)
	queue := append([]string(nil), annotations...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		t, ok := env.Types.Lookup(name)
		if !ok {
			continue
		}
		for _, attr := range t.Attributes {
			if attr.AliasFor == nil {
				continue
			}
			target := attr.AliasFor.Annotation
			if target == "" || target == t.Name {
				if attr.AliasFor.Attribute != "" && attr.AliasFor.Attribute != attr.Name {
					targets[t.Name] = true
				}
				continue
			}
			targets[target] = true
			queue = append(queue, target)
		}
	}

	out := make([]string, 0, len(targets))
	for name := range targets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// handlerTypes are the web framework types that mark a component as an HTTP
// handler
var handlerTypes = map[string]bool{
	qualifiedName(reflect.TypeFor[echo.Context]()):     true,
	qualifiedName(reflect.TypeFor[echo.HandlerFunc]()): true,
	qualifiedName(reflect.TypeFor[*gin.Context]()):     true,
	qualifiedName(reflect.TypeFor[gin.HandlerFunc]()):  true,
	qualifiedName(reflect.TypeFor[*fiber.Ctx]()):       true,
}

// WebHandlerResources are the resource patterns handler components serve from
var WebHandlerResources = []string{"static/**", "templates/**"}

// WebHandlers keeps every declared method of components whose methods or
// fields use echo, gin or fiber handler types, and registers the resource
// patterns handlers serve from.
type WebHandlers struct{}

func (WebHandlers) Name() string { return "web-handlers" }

func (WebHandlers) ContributeContainer(env *Env, reg *manifest.Registry) error {
	comps, err := env.Components()
	if err != nil {
		return err
	}
	found := false
	for _, c := range comps {
		if !touchesHandlerTypes(env, c.UserType) {
			continue
		}
		found = true
		if err := reg.AddReflection(manifest.ReflectionEntry{Type: c.UserType, Access: manifest.DeclaredMethods}); err != nil {
			return err
		}
	}
	if !found {
		return nil
	}
	for _, pattern := range WebHandlerResources {
		if err := reg.AddResource(pattern); err != nil {
			return err
		}
	}
	return nil
}

func touchesHandlerTypes(env *Env, typeName string) bool {
	for _, t := range env.Hierarchy(typeName) {
		if handlerTypes[t.Name] {
			return true
		}
		for _, m := range t.Methods {
			for _, p := range m.Params {
				if handlerTypes[models.BaseTypeName(p)] {
					return true
				}
			}
			for _, r := range m.Results {
				if handlerTypes[models.BaseTypeName(r)] {
					return true
				}
			}
		}
		for _, f := range t.Fields {
			if handlerTypes[models.BaseTypeName(f.Type)] {
				return true
			}
		}
	}
	return false
}

var serializableInterfaces = map[string]string{
	qualifiedName(reflect.TypeFor[gob.GobEncoder]()):           "GobEncode",
	qualifiedName(reflect.TypeFor[encoding.BinaryMarshaler]()): "MarshalBinary",
}

// SerializableTypes registers component types marked serializable, or
// implementing gob or binary marshalling, for serialization
type SerializableTypes struct{}

func (SerializableTypes) Name() string { return "serializable-types" }

func (SerializableTypes) ContributeContainer(env *Env, reg *manifest.Registry) error {
	comps, err := env.Components()
	if err != nil {
		return err
	}
	for _, c := range comps {
		if !isSerializable(env, c.UserType) {
			continue
		}
		if err := reg.AddSerialization(c.UserType); err != nil {
			return err
		}
	}
	return nil
}

func isSerializable(env *Env, typeName string) bool {
	hierarchy := env.Hierarchy(typeName)
	if len(hierarchy) == 0 {
		return false
	}
	for _, t := range hierarchy {
		if t.HasMarker(models.MarkerSerializable) {
			return true
		}
		for _, iface := range t.Implements {
			if _, ok := serializableInterfaces[iface]; ok {
				return true
			}
		}
	}
	for _, method := range serializableInterfaces {
		if m, ok := hierarchy[0].Method(method); ok && len(m.Params) == 0 {
			return true
		}
	}
	return false
}

// InitializationTiming records when component types, and packages listed in
// definition attributes, are initialized
type InitializationTiming struct{}

func (InitializationTiming) Name() string { return "initialization-timing" }

func (InitializationTiming) ContributeContainer(env *Env, reg *manifest.Registry) error {
	comps, err := env.Components()
	if err != nil {
		return err
	}
	for _, c := range comps {
		if t, ok := env.Types.Lookup(c.UserType); ok {
			for marker, timing := range map[string]manifest.Timing{
				models.MarkerBuildTimeInit: manifest.BuildTime,
				models.MarkerRuntimeInit:   manifest.RunTime,
			} {
				if !t.HasMarker(marker) {
					continue
				}
				if err := reg.AddInitialization(manifest.InitializationEntry{Target: t.Name, Timing: timing}); err != nil {
					return err
				}
			}
		}

		for attr, timing := range map[string]manifest.Timing{
			models.AttributeBuildTimeInit: manifest.BuildTime,
			models.AttributeRuntimeInit:   manifest.RunTime,
		} {
			value, _ := c.Definition.Attribute(attr)
			for _, pkg := range splitList(value) {
				err := reg.AddInitialization(manifest.InitializationEntry{Target: pkg, Package: true, Timing: timing})
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ResourcePatterns registers the resource patterns listed in each
// definition's resources attribute
type ResourcePatterns struct{}

func (ResourcePatterns) Name() string { return "resource-patterns" }

func (ResourcePatterns) ContributeContainer(env *Env, reg *manifest.Registry) error {
	comps, err := env.Components()
	if err != nil {
		return err
	}
	for _, c := range comps {
		value, _ := c.Definition.Attribute(models.AttributeResources)
		for _, pattern := range splitList(value) {
			if err := reg.AddResource(pattern); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitList splits a comma separated attribute, dropping empty items
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
