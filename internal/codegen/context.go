package codegen

import (
	"fmt"
	"strconv"
)

// Context accumulates code units. Units keep their creation order, and the
// main namespace is always listed first. A Context is not safe for concurrent
// use.
type Context struct {
	main       string
	namespaces []string
	units      map[string][]*Unit
	byName     map[string]map[string]*Unit
	used       map[string]map[string]bool
	order      []*Unit
}

// NewContext creates a context whose main namespace is the given import path
func NewContext(namespace string) *Context {
	c := &Context{
		main:   namespace,
		units:  make(map[string][]*Unit),
		byName: make(map[string]map[string]*Unit),
		used:   make(map[string]map[string]bool),
	}
	c.addNamespace(namespace)
	return c
}

// Namespace returns the main namespace
func (c *Context) Namespace() string {
	return c.main
}

// NewUnit opens a unit in the main namespace. A second unit with the same name
// is an error.
func (c *Context) NewUnit(name string, kind UnitKind) (*Unit, error) {
	return c.NewUnitIn(c.main, name, kind)
}

// NewUnitIn opens a unit in the given namespace
func (c *Context) NewUnitIn(namespace, name string, kind UnitKind) (*Unit, error) {
	if name == "" {
		return nil, fmt.Errorf("code unit name cannot be empty")
	}
	if _, exists := c.byName[namespace][name]; exists {
		return nil, fmt.Errorf("code unit '%s' already exists in namespace '%s'", name, namespace)
	}
	c.addNamespace(namespace)

	u := newUnit(namespace, name, kind)
	c.units[namespace] = append(c.units[namespace], u)
	c.byName[namespace][name] = u
	c.used[namespace][name] = true
	c.order = append(c.order, u)
	return u, nil
}

// UnitFor returns the named unit of a namespace, creating it on first use
func (c *Context) UnitFor(namespace, name string, kind UnitKind) *Unit {
	if u, ok := c.byName[namespace][name]; ok {
		return u
	}
	u, _ := c.NewUnitIn(namespace, name, kind)
	return u
}

// Unit looks a unit up by namespace and name
func (c *Context) Unit(namespace, name string) (*Unit, bool) {
	u, ok := c.byName[namespace][name]
	return u, ok
}

// Units returns every unit in creation order
func (c *Context) Units() []*Unit {
	return append([]*Unit(nil), c.order...)
}

// UnitsIn returns the units of one namespace in creation order
func (c *Context) UnitsIn(namespace string) []*Unit {
	return append([]*Unit(nil), c.units[namespace]...)
}

// Namespaces returns the namespaces in first-use order, main first
func (c *Context) Namespaces() []string {
	return append([]string(nil), c.namespaces...)
}

// UniqueName reserves an identifier in a namespace: base itself when free,
// otherwise base2, base3 and so on.
func (c *Context) UniqueName(namespace, base string) string {
	c.addNamespace(namespace)
	used := c.used[namespace]
	name := base
	for i := 2; used[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	used[name] = true
	return name
}

func (c *Context) addNamespace(namespace string) {
	if _, ok := c.byName[namespace]; ok {
		return
	}
	c.namespaces = append(c.namespaces, namespace)
	c.byName[namespace] = make(map[string]*Unit)
	c.used[namespace] = make(map[string]bool)
}
