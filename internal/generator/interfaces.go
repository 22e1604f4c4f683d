package generator

import (
	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
)

// ExclusionRule keeps a component out of the generated code. Excluded
// components are neither emitted nor described.
type ExclusionRule interface {
	Exclude(name string, def *models.ComponentDefinition) bool
}

// GraphEmitter runs once over every descriptor compiled in a pass, after all
// registrations have been written
type GraphEmitter interface {
	Name() string
	Emit(env *EmitEnv, descriptors []*models.ComponentDescriptor) error
}

// EmitEnv is what graph emitters write to
type EmitEnv struct {
	Types    models.TypeResolver
	Output   *codegen.Context
	Manifest *manifest.Registry
}
