// Package container holds the compiler's read-only view of a resolved
// dependency-injection container.
package container

import (
	"fmt"

	"github.com/toyz/axon-aot/internal/models"
)

// Container is a fully resolved container snapshot.
type Container interface {
	// Names lists component names in definition order.
	Names() ([]string, error)
	// Definition returns the resolved definition of a named component.
	Definition(name string) (*models.ComponentDefinition, error)
	// Types is the container's type-resolution context.
	Types() models.TypeResolver
}

// ImportAware is implemented by containers that recorded which type imported
// which configuration.
type ImportAware interface {
	ImportOrigins() []ImportOrigin
}

// ImportOrigin records that Importing pulled Imported into the container
type ImportOrigin struct {
	Importing string
	Imported  string
}

// Snapshot is an in-memory Container.
type Snapshot struct {
	types       *models.TypeIndex
	names       []string
	definitions map[string]*models.ComponentDefinition
	origins     []ImportOrigin
}

// NewSnapshot creates an empty snapshot over the type index. A nil index is
// replaced by an empty one.
func NewSnapshot(types *models.TypeIndex) *Snapshot {
	if types == nil {
		types = models.NewTypeIndex()
	}
	return &Snapshot{
		types:       types,
		definitions: make(map[string]*models.ComponentDefinition),
	}
}

// Register appends a definition. Names must be unique and non-empty.
func (s *Snapshot) Register(def *models.ComponentDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("component definition must have a name")
	}
	if _, exists := s.definitions[def.Name]; exists {
		return fmt.Errorf("component '%s' is already registered", def.Name)
	}
	s.names = append(s.names, def.Name)
	s.definitions[def.Name] = def
	return nil
}

// MustRegister registers definitions and panics on the first error.
func (s *Snapshot) MustRegister(defs ...*models.ComponentDefinition) *Snapshot {
	for _, def := range defs {
		if err := s.Register(def); err != nil {
			panic(err)
		}
	}
	return s
}

// AddImportOrigin records an import relationship
func (s *Snapshot) AddImportOrigin(importing, imported string) {
	s.origins = append(s.origins, ImportOrigin{Importing: importing, Imported: imported})
}

func (s *Snapshot) Names() ([]string, error) {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out, nil
}

func (s *Snapshot) Definition(name string) (*models.ComponentDefinition, error) {
	def, ok := s.definitions[name]
	if !ok {
		return nil, fmt.Errorf("no component named '%s'", name)
	}
	return def, nil
}

func (s *Snapshot) Types() models.TypeResolver {
	return s.types
}

// TypeIndex exposes the concrete index for callers that add types.
func (s *Snapshot) TypeIndex() *models.TypeIndex {
	return s.types
}

func (s *Snapshot) ImportOrigins() []ImportOrigin {
	return append([]ImportOrigin(nil), s.origins...)
}

// Len returns the number of registered components
func (s *Snapshot) Len() int {
	return len(s.names)
}
