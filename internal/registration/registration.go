// Package registration decides how each component's registration code is
// emitted. Suppliers are consulted in a fixed order and the first one that
// recognizes a definition's shape produces its Writer.
package registration

import (
	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/descriptor"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/models"
)

// RuntimePackage is the import path generated code calls into
const RuntimePackage = "github.com/toyz/axon-aot/pkg/aot"

// DeclarationsUnit names the per-package unit holding registrations that
// need package-private access.
const DeclarationsUnit = "aot_registrations"

// Writer emits the registration of one component and describes it. A Writer
// is created per component and discarded afterwards.
type Writer interface {
	WriteRegistration(out *codegen.Context, unit *codegen.Unit) error
	Descriptor() (*models.ComponentDescriptor, error)
}

// Supplier recognizes a definition shape
type Supplier interface {
	Name() string
	Supply(env *Env, name string, def *models.ComponentDefinition) (Writer, bool)
}

// Env is what suppliers and writers resolve against
type Env struct {
	Types   models.TypeResolver
	Factory *descriptor.Factory
	// Definitions looks up other components by name; nil when unavailable
	Definitions func(name string) (*models.ComponentDefinition, bool)
}

// ProducedType returns the Go type the named component's factory yields
func (e *Env) ProducedType(name string) (string, bool) {
	if e.Definitions == nil {
		return "", false
	}
	def, ok := e.Definitions(name)
	if !ok {
		return "", false
	}
	d, err := e.Factory.Describe(def)
	if err != nil {
		return "", false
	}
	return models.ProducedType(e.Types, d)
}

// NewEnv creates an environment over a type resolver and descriptor factory.
// A nil factory is replaced by one over types.
func NewEnv(types models.TypeResolver, factory *descriptor.Factory) *Env {
	if factory == nil {
		factory = descriptor.NewFactory(types)
	}
	if types == nil {
		types = factory.Types()
	}
	return &Env{Types: types, Factory: factory}
}

// Chain is an ordered list of suppliers
type Chain struct {
	suppliers []Supplier
}

// NewChain creates a chain; suppliers are consulted in the given order
func NewChain(suppliers ...Supplier) *Chain {
	return &Chain{suppliers: append([]Supplier(nil), suppliers...)}
}

// DefaultSuppliers returns the built-in suppliers in priority order
func DefaultSuppliers() []Supplier {
	return []Supplier{
		InternalServiceSupplier{},
		ConfigurationPropertiesSupplier{},
		DefaultSupplier{},
	}
}

// Suppliers returns the chain's suppliers in order
func (c *Chain) Suppliers() []Supplier {
	return append([]Supplier(nil), c.suppliers...)
}

// Resolve returns the writer of the first supplier that claims def. When no
// supplier claims it the component is reported as unsupported.
func (c *Chain) Resolve(env *Env, name string, def *models.ComponentDefinition) (Writer, error) {
	for _, s := range c.suppliers {
		if w, ok := s.Supply(env, name, def); ok {
			return w, nil
		}
	}
	return nil, errors.NewUnsupportedComponentError(name, def.Type)
}
