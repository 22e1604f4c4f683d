package contrib

import (
	"strings"

	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
)

// DescriptorReflection grants access to the creator, the injected members
// and the write accessors of a descriptor
type DescriptorReflection struct{}

func (DescriptorReflection) Name() string { return "descriptor-reflection" }

func (DescriptorReflection) ContributeDescriptor(d *models.ComponentDescriptor, _ *Env, reg *manifest.Registry) error {
	return reflectDescriptor(d, reg)
}

func reflectDescriptor(d *models.ComponentDescriptor, reg *manifest.Registry) error {
	if creator, ok := d.InstanceCreator(); ok {
		entry := manifest.ReflectionEntry{Type: models.BaseTypeName(creator.Owner)}
		if creator.Kind == models.MemberConstructor {
			entry.Constructors = []manifest.Member{member(creator)}
		} else {
			entry.Methods = []manifest.Member{member(creator)}
		}
		if err := reg.AddReflection(entry); err != nil {
			return err
		}
	}

	for _, ip := range d.InjectionPoints() {
		if ip.Kind == models.InjectConstructorArg {
			continue
		}
		if err := grantWrite(ip.Member, reg); err != nil {
			return err
		}
	}
	for _, p := range d.Properties() {
		if p.WriteAccessor == nil {
			continue
		}
		if err := grantWrite(*p.WriteAccessor, reg); err != nil {
			return err
		}
	}
	return nil
}

// grantWrite grants a write-enabled field or an invocable setter
func grantWrite(m models.MemberRef, reg *manifest.Registry) error {
	entry := manifest.ReflectionEntry{Type: models.BaseTypeName(m.Owner)}
	if m.Kind == models.MemberField {
		entry.Fields = []manifest.Field{{Name: m.Name, Exported: m.Exported, AllowWrite: true}}
	} else {
		entry.Methods = []manifest.Member{member(m)}
	}
	return reg.AddReflection(entry)
}

func member(m models.MemberRef) manifest.Member {
	return manifest.Member{
		Name:     m.Name,
		Params:   append([]string(nil), m.Params...),
		Exported: m.Exported,
	}
}

// NestedDescriptors applies the reflection and callback rules to every inner
// descriptor reachable from a descriptor
type NestedDescriptors struct{}

func (NestedDescriptors) Name() string { return "nested-descriptors" }

func (NestedDescriptors) ContributeDescriptor(d *models.ComponentDescriptor, _ *Env, reg *manifest.Registry) error {
	visited := map[*models.ComponentDescriptor]bool{d: true}
	queue := d.Nested()
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true

		if err := reflectDescriptor(next, reg); err != nil {
			return err
		}
		if err := grantCallbacks(next, reg); err != nil {
			return err
		}
		queue = append(queue, next.Nested()...)
	}
	return nil
}

// InitCallbacks grants invoke access to callbacks generated code cannot call
// directly
type InitCallbacks struct{}

func (InitCallbacks) Name() string { return "init-callbacks" }

func (InitCallbacks) ContributeDescriptor(d *models.ComponentDescriptor, _ *Env, reg *manifest.Registry) error {
	return grantCallbacks(d, reg)
}

func grantCallbacks(d *models.ComponentDescriptor, reg *manifest.Registry) error {
	for _, cb := range d.InitCallbacks() {
		if cb.Exported {
			continue
		}
		err := reg.AddReflection(manifest.ReflectionEntry{
			Type:    models.BaseTypeName(cb.Owner),
			Methods: []manifest.Member{member(cb)},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// MarkerHierarchy walks a component's supertypes. Types that carry framework
// markers, or are annotations themselves, can be queried; once any is found
// every non-stdlib type of the hierarchy gets its declared methods.
type MarkerHierarchy struct{}

func (MarkerHierarchy) Name() string { return "marker-hierarchy" }

func (MarkerHierarchy) ContributeDescriptor(d *models.ComponentDescriptor, env *Env, reg *manifest.Registry) error {
	hierarchy := env.Hierarchy(d.UserType())
	found := false
	for _, t := range hierarchy {
		if !isFrameworkMarked(t) {
			continue
		}
		found = true
		if err := reg.AddReflection(manifest.ReflectionEntry{Type: t.Name, Access: manifest.QueryPublicMethods}); err != nil {
			return err
		}
	}
	if !found {
		return nil
	}
	for _, t := range hierarchy {
		if models.IsStdlibPackage(t.Package()) {
			continue
		}
		if err := reg.AddReflection(manifest.ReflectionEntry{Type: t.Name, Access: manifest.DeclaredMethods}); err != nil {
			return err
		}
	}
	return nil
}

const markerPrefix = "axon::"

func isFrameworkMarked(t *models.TypeInfo) bool {
	if t.Kind == models.KindAnnotation {
		return true
	}
	for _, m := range t.Markers {
		if strings.HasPrefix(m, markerPrefix) {
			return true
		}
	}
	return false
}

// ConfigurationProperties opens configuration-properties types completely so
// they can be bound from configuration at run time
type ConfigurationProperties struct{}

func (ConfigurationProperties) Name() string { return "configuration-properties" }

func (ConfigurationProperties) ContributeDescriptor(d *models.ComponentDescriptor, env *Env, reg *manifest.Registry) error {
	userType := models.BaseTypeName(d.UserType())
	if !models.HierarchyHasMarker(env.Types, userType, models.MarkerConfig) {
		return nil
	}
	return reg.AddReflection(manifest.ReflectionEntry{
		Type: userType,
		Access: manifest.DeclaredConstructors | manifest.DeclaredMethods |
			manifest.DeclaredFields | manifest.DeclaredTypes,
	})
}
