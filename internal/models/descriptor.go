package models

import "fmt"

// InjectionKind is the member kind of an injection point
type InjectionKind int

const (
	InjectConstructorArg InjectionKind = iota
	InjectField
	InjectSetter
)

func (k InjectionKind) String() string {
	switch k {
	case InjectConstructorArg:
		return "constructor-arg"
	case InjectField:
		return "field"
	case InjectSetter:
		return "setter"
	default:
		return fmt.Sprintf("InjectionKind(%d)", int(k))
	}
}

// SourceKind tags a ValueSource
type SourceKind int

const (
	SourceNull SourceKind = iota
	SourceLiteral
	SourceReference
	SourceInner
	SourceAutowired
	SourceList
	SourceMap
)

// ValueSource is where an injected or assigned value comes from.
type ValueSource struct {
	Kind    SourceKind
	Literal interface{}
	Ref     string
	Type    string
	Inner   *ComponentDescriptor
	Items   []ValueSource
	Keys    []string
}

// InjectionPoint is one member the container injects into.
type InjectionPoint struct {
	Member   MemberRef
	Kind     InjectionKind
	Index    int
	Type     string
	Source   ValueSource
	Required bool
}

// PropertyDescriptor is one property write. WriteAccessor is nil when the type
// index knows no setter or field for the property.
type PropertyDescriptor struct {
	Name          string
	WriteAccessor *MemberRef
	Type          string
	Value         ValueSource
}

// ComponentDescriptor summarizes the reflective touch-points of one component.
// It is immutable once built; use DescriptorBuilder to create one.
type ComponentDescriptor struct {
	name             string
	declaredType     string
	userType         string
	creator          *MemberRef
	factoryComponent string
	injectionPoints  []InjectionPoint
	properties       []PropertyDescriptor
	initCallbacks    []MemberRef
	built            bool
}

func (d *ComponentDescriptor) Name() string         { return d.name }
func (d *ComponentDescriptor) DeclaredType() string { return d.declaredType }

// UserType is the declared type with generated wrappers unwrapped.
func (d *ComponentDescriptor) UserType() string {
	if d.userType == "" {
		return d.declaredType
	}
	return d.userType
}

// InstanceCreator returns the constructor or factory method, if any.
func (d *ComponentDescriptor) InstanceCreator() (MemberRef, bool) {
	if d.creator == nil {
		return MemberRef{}, false
	}
	return *d.creator, true
}

// FactoryComponent names the component a factory method is invoked on.
func (d *ComponentDescriptor) FactoryComponent() string { return d.factoryComponent }

func (d *ComponentDescriptor) InjectionPoints() []InjectionPoint {
	return append([]InjectionPoint(nil), d.injectionPoints...)
}

func (d *ComponentDescriptor) Properties() []PropertyDescriptor {
	return append([]PropertyDescriptor(nil), d.properties...)
}

func (d *ComponentDescriptor) InitCallbacks() []MemberRef {
	return append([]MemberRef(nil), d.initCallbacks...)
}

// IsBuilt reports whether the descriptor has been sealed. Only a descriptor
// observed through a cycle while it is still being described is unbuilt.
func (d *ComponentDescriptor) IsBuilt() bool { return d.built }

// Nested returns the distinct inner descriptors referenced directly by this
// descriptor's injection points and properties, in declaration order.
func (d *ComponentDescriptor) Nested() []*ComponentDescriptor {
	var out []*ComponentDescriptor
	seen := make(map[*ComponentDescriptor]bool)
	var collect func(ValueSource)
	collect = func(v ValueSource) {
		switch v.Kind {
		case SourceInner:
			if v.Inner != nil && !seen[v.Inner] {
				seen[v.Inner] = true
				out = append(out, v.Inner)
			}
		case SourceList, SourceMap:
			for _, item := range v.Items {
				collect(item)
			}
		}
	}
	for _, ip := range d.injectionPoints {
		collect(ip.Source)
	}
	for _, p := range d.properties {
		collect(p.Value)
	}
	return out
}

func (d *ComponentDescriptor) String() string {
	name := d.name
	if name == "" {
		name = "(inner)"
	}
	return fmt.Sprintf("%s<%s>", name, d.UserType())
}

// DescriptorBuilder assembles a ComponentDescriptor. The descriptor pointer is
// available before Build so recursive descriptions can refer to it.
type DescriptorBuilder struct {
	d *ComponentDescriptor
}

// NewDescriptorBuilder starts a descriptor for the named component
func NewDescriptorBuilder(name, declaredType string) *DescriptorBuilder {
	return &DescriptorBuilder{d: &ComponentDescriptor{name: name, declaredType: declaredType}}
}

// Descriptor returns the descriptor being built
func (b *DescriptorBuilder) Descriptor() *ComponentDescriptor {
	return b.d
}

func (b *DescriptorBuilder) mutable() *ComponentDescriptor {
	if b.d.built {
		panic(fmt.Sprintf("descriptor %s is already built", b.d))
	}
	return b.d
}

func (b *DescriptorBuilder) UserType(t string) *DescriptorBuilder {
	b.mutable().userType = t
	return b
}

func (b *DescriptorBuilder) InstanceCreator(m MemberRef) *DescriptorBuilder {
	b.mutable().creator = &m
	return b
}

func (b *DescriptorBuilder) FactoryComponent(name string) *DescriptorBuilder {
	b.mutable().factoryComponent = name
	return b
}

func (b *DescriptorBuilder) AddInjectionPoint(ip InjectionPoint) *DescriptorBuilder {
	d := b.mutable()
	d.injectionPoints = append(d.injectionPoints, ip)
	return b
}

func (b *DescriptorBuilder) AddProperty(p PropertyDescriptor) *DescriptorBuilder {
	d := b.mutable()
	d.properties = append(d.properties, p)
	return b
}

func (b *DescriptorBuilder) AddInitCallback(m MemberRef) *DescriptorBuilder {
	d := b.mutable()
	d.initCallbacks = append(d.initCallbacks, m)
	return b
}

// Build seals and returns the descriptor. Further builder calls panic.
func (b *DescriptorBuilder) Build() *ComponentDescriptor {
	b.mutable().built = true
	return b.d
}
