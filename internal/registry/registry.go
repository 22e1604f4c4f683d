// Package registry holds the pluggable parts of a compilation: registration
// suppliers, manifest contributors and graph emitters. Tables keep
// registration order, which is the order the compiler consults them in.
package registry

import (
	"fmt"
	"strings"

	"github.com/toyz/axon-aot/internal/contrib"
	"github.com/toyz/axon-aot/internal/generator"
	"github.com/toyz/axon-aot/internal/registration"
)

// Registry groups the registration tables of one compiler
type Registry struct {
	Suppliers   NamedTable[registration.Supplier]
	Descriptors NamedTable[contrib.DescriptorContributor]
	Containers  NamedTable[contrib.ContainerContributor]
	Emitters    NamedTable[generator.GraphEmitter]
}

// New creates a registry with empty tables
func New() *Registry {
	return &Registry{
		Suppliers:   NewTable[registration.Supplier]("supplier"),
		Descriptors: NewTable[contrib.DescriptorContributor]("descriptor contributor"),
		Containers:  NewTable[contrib.ContainerContributor]("container contributor"),
		Emitters:    NewTable[generator.GraphEmitter]("graph emitter"),
	}
}

// NewDefault creates a registry populated with the built-in entries
func NewDefault() (*Registry, error) {
	r := New()
	if err := r.Suppliers.Register(registration.DefaultSuppliers()...); err != nil {
		return nil, err
	}
	if err := r.Descriptors.Register(contrib.DefaultDescriptorContributors()...); err != nil {
		return nil, err
	}
	if err := r.Containers.Register(contrib.DefaultContainerContributors()...); err != nil {
		return nil, err
	}
	if err := r.Emitters.Register(generator.DefaultEmitters()...); err != nil {
		return nil, err
	}
	return r, nil
}

// Disable removes contributors and emitters by name. Names may refer to any
// of those tables; unknown names are an error.
func (r *Registry) Disable(names ...string) error {
	var descriptors, containers, emitters, unknown []string
	for _, name := range names {
		switch {
		case r.Descriptors.Validate([]string{name}) == nil:
			descriptors = append(descriptors, name)
		case r.Containers.Validate([]string{name}) == nil:
			containers = append(containers, name)
		case r.Emitters.Validate([]string{name}) == nil:
			emitters = append(emitters, name)
		default:
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown contributor(s) or emitter(s): %s", strings.Join(unknown, ", "))
	}
	if err := r.Descriptors.Remove(descriptors...); err != nil {
		return err
	}
	if err := r.Containers.Remove(containers...); err != nil {
		return err
	}
	return r.Emitters.Remove(emitters...)
}

// Apply copies the tables into compiler options. Empty tables disable their
// stage rather than selecting the defaults.
func (r *Registry) Apply(opts generator.Options) generator.Options {
	opts.Suppliers = nonNil(r.Suppliers.List())
	opts.DescriptorContributors = nonNil(r.Descriptors.List())
	opts.ContainerContributors = nonNil(r.Containers.List())
	opts.Emitters = nonNil(r.Emitters.List())
	return opts
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
