package registration

import (
	"github.com/toyz/axon-aot/internal/models"
)

// InternalServiceSupplier claims services the runtime provides itself
type InternalServiceSupplier struct{}

func (InternalServiceSupplier) Name() string { return "internal-service" }

func (InternalServiceSupplier) Supply(env *Env, name string, def *models.ComponentDefinition) (Writer, bool) {
	if def.Instantiation.Kind != models.InstantiateInternal {
		return nil, false
	}
	return &internalWriter{env: env, name: name, def: def}, true
}

// ConfigurationPropertiesSupplier claims struct-literal components whose type
// is marked as configuration properties. They are bound from configuration
// under the definition's prefix attribute.
type ConfigurationPropertiesSupplier struct{}

func (ConfigurationPropertiesSupplier) Name() string { return "configuration-properties" }

func (ConfigurationPropertiesSupplier) Supply(env *Env, name string, def *models.ComponentDefinition) (Writer, bool) {
	if def.Instantiation.Kind != models.InstantiateStruct {
		return nil, false
	}
	if !models.HierarchyHasMarker(env.Types, models.UserType(env.Types, def.Type), models.MarkerConfig) {
		return nil, false
	}
	prefix, _ := def.Attribute(models.AttributePrefix)
	return &beanWriter{env: env, name: name, def: def, bind: &prefix}, true
}

// DefaultSupplier claims constructor, factory-method and struct-literal components
type DefaultSupplier struct{}

func (DefaultSupplier) Name() string { return "default" }

func (DefaultSupplier) Supply(env *Env, name string, def *models.ComponentDefinition) (Writer, bool) {
	switch def.Instantiation.Kind {
	case models.InstantiateConstructor, models.InstantiateFactory, models.InstantiateStruct:
		return &beanWriter{env: env, name: name, def: def}, true
	default:
		return nil, false
	}
}
