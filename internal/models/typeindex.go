package models

import "sync"

// AliasRef points an annotation attribute at the attribute it aliases. An empty
// Annotation means the alias is local to the declaring annotation.
type AliasRef struct {
	Annotation string
	Attribute  string
}

// AttributeInfo is one attribute of an annotation type
type AttributeInfo struct {
	Name     string
	AliasFor *AliasRef
}

// MethodInfo describes a method or a constructor function
type MethodInfo struct {
	Name     string
	Params   []string
	Results  []string
	Exported bool
	Markers  []string
}

// HasMarker reports whether the method carries the marker
func (m MethodInfo) HasMarker(marker string) bool {
	return contains(m.Markers, marker)
}

// ReturnsError reports whether the last result is error
func (m MethodInfo) ReturnsError() bool {
	return len(m.Results) > 0 && m.Results[len(m.Results)-1] == "error"
}

// FieldInfo describes a struct field
type FieldInfo struct {
	Name     string
	Type     string
	Exported bool
	Markers  []string
}

// HasMarker reports whether the field carries the marker
func (f FieldInfo) HasMarker(marker string) bool {
	return contains(f.Markers, marker)
}

// TypeInfo is one entry of the pre-loaded type hierarchy index.
type TypeInfo struct {
	Name         string
	Kind         TypeKind
	Exported     bool
	Embeds       []string
	Implements   []string
	Methods      []MethodInfo
	Fields       []FieldInfo
	Constructors []MethodInfo
	Markers      []string
	Attributes   []AttributeInfo

	// Synthetic types are generated wrappers; UserType names the type they wrap.
	Synthetic bool
	UserType  string
}

// Package returns the import path of the type
func (t *TypeInfo) Package() string {
	return PackageOf(t.Name)
}

// HasMarker reports whether the type itself carries the marker
func (t *TypeInfo) HasMarker(marker string) bool {
	return contains(t.Markers, marker)
}

// Method looks up a method declared directly on the type
func (t *TypeInfo) Method(name string) (MethodInfo, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodInfo{}, false
}

// Field looks up a field declared directly on the type
func (t *TypeInfo) Field(name string) (FieldInfo, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// Supertypes returns embedded types followed by implemented interfaces.
func (t *TypeInfo) Supertypes() []string {
	out := make([]string, 0, len(t.Embeds)+len(t.Implements))
	out = append(out, t.Embeds...)
	return append(out, t.Implements...)
}

// TypeResolver is the container's type-resolution context.
type TypeResolver interface {
	Lookup(name string) (*TypeInfo, bool)
}

// TypeIndex is an in-memory TypeResolver that keeps insertion order.
type TypeIndex struct {
	mu    sync.RWMutex
	types map[string]*TypeInfo
	order []string
}

// NewTypeIndex creates an index holding the given types
func NewTypeIndex(types ...*TypeInfo) *TypeIndex {
	idx := &TypeIndex{types: make(map[string]*TypeInfo)}
	for _, t := range types {
		idx.Add(t)
	}
	return idx
}

// Add indexes a type, replacing any previous entry with the same name
func (i *TypeIndex) Add(t *TypeInfo) {
	if t == nil || t.Name == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.types[t.Name]; !exists {
		i.order = append(i.order, t.Name)
	}
	i.types[t.Name] = t
}

// Lookup resolves a type expression. Pointer and slice prefixes are ignored.
func (i *TypeIndex) Lookup(name string) (*TypeInfo, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if t, ok := i.types[name]; ok {
		return t, true
	}
	t, ok := i.types[BaseTypeName(name)]
	return t, ok
}

// Names returns the indexed type names in insertion order
func (i *TypeIndex) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// Len returns the number of indexed types
func (i *TypeIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.order)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
