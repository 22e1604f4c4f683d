// Package manifest accumulates the reflective, proxy, resource, serialization
// and initialization capabilities generated code still needs at run time.
package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// Access is a set of coarse reflection flags for one type
type Access uint32

const (
	DeclaredConstructors Access = 1 << iota
	PublicConstructors
	QueryDeclaredConstructors
	QueryPublicConstructors
	DeclaredMethods
	PublicMethods
	QueryDeclaredMethods
	QueryPublicMethods
	DeclaredFields
	PublicFields
	DeclaredTypes
	PublicTypes
)

var accessNames = []struct {
	flag Access
	name string
}{
	{DeclaredConstructors, "DeclaredConstructors"},
	{PublicConstructors, "PublicConstructors"},
	{QueryDeclaredConstructors, "QueryDeclaredConstructors"},
	{QueryPublicConstructors, "QueryPublicConstructors"},
	{DeclaredMethods, "DeclaredMethods"},
	{PublicMethods, "PublicMethods"},
	{QueryDeclaredMethods, "QueryDeclaredMethods"},
	{QueryPublicMethods, "QueryPublicMethods"},
	{DeclaredFields, "DeclaredFields"},
	{PublicFields, "PublicFields"},
	{DeclaredTypes, "DeclaredTypes"},
	{PublicTypes, "PublicTypes"},
}

// Has reports whether every flag in f is set
func (a Access) Has(f Access) bool {
	return a&f == f
}

func (a Access) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	for _, n := range accessNames {
		if a.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Member is a specific constructor or method granted invoke access.
type Member struct {
	Name     string
	Params   []string
	Exported bool
}

func (m Member) key() string {
	return m.Name + "(" + strings.Join(m.Params, ",") + ")"
}

func (m Member) String() string {
	return m.key()
}

// Field is a specific field. AllowWrite grants write access as well as read.
type Field struct {
	Name       string
	Exported   bool
	AllowWrite bool
}

// Kind identifies the entry kinds the registry holds
type Kind int

const (
	KindReflection Kind = iota
	KindProxy
	KindResource
	KindSerialization
	KindInitialization
)

func (k Kind) String() string {
	switch k {
	case KindReflection:
		return "reflection"
	case KindProxy:
		return "proxy"
	case KindResource:
		return "resource"
	case KindSerialization:
		return "serialization"
	case KindInitialization:
		return "initialization"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is one manifest entry of any kind
type Entry interface {
	Kind() Kind
}

// ReflectionEntry grants reflective access to a type.
type ReflectionEntry struct {
	Type         string
	Access       Access
	Constructors []Member
	Methods      []Member
	Fields       []Field
}

func (ReflectionEntry) Kind() Kind { return KindReflection }

// ProxyKind is the shape of a runtime proxy
type ProxyKind int

const (
	// InterfaceProxy implements a set of interfaces
	InterfaceProxy ProxyKind = iota
	// ClassProxy wraps a concrete target type
	ClassProxy
)

func (k ProxyKind) String() string {
	if k == ClassProxy {
		return "class"
	}
	return "interface"
}

// ProxyFeature is a bitmask of proxy features
type ProxyFeature uint8

const (
	FeatureStatic ProxyFeature = 1 << iota
	FeatureSerializable
)

// ProxyEntry declares a proxy shape. Interface order does not matter.
type ProxyEntry struct {
	ProxyKind  ProxyKind
	TargetType string
	Interfaces []string
	Features   ProxyFeature
}

func (ProxyEntry) Kind() Kind { return KindProxy }

func (p ProxyEntry) normalized() ProxyEntry {
	seen := make(map[string]bool, len(p.Interfaces))
	ifaces := make([]string, 0, len(p.Interfaces))
	for _, i := range p.Interfaces {
		if !seen[i] {
			seen[i] = true
			ifaces = append(ifaces, i)
		}
	}
	sort.Strings(ifaces)
	p.Interfaces = ifaces
	return p
}

func (p ProxyEntry) key() string {
	return fmt.Sprintf("%s|%s|%s|%d", p.ProxyKind, p.TargetType, strings.Join(p.Interfaces, ","), p.Features)
}

// ResourceEntry is a resource pattern
type ResourceEntry struct {
	Pattern string
}

func (ResourceEntry) Kind() Kind { return KindResource }

// SerializationEntry registers a type for serialization
type SerializationEntry struct {
	Type string
}

func (SerializationEntry) Kind() Kind { return KindSerialization }

// Timing is when a type or package is initialized
type Timing int

const (
	BuildTime Timing = iota
	RunTime
)

func (t Timing) String() string {
	if t == RunTime {
		return "run-time"
	}
	return "build-time"
}

// InitializationEntry sets the initialization timing of a type, or of a whole
// package when Package is set.
type InitializationEntry struct {
	Target  string
	Package bool
	Timing  Timing
}

func (InitializationEntry) Kind() Kind { return KindInitialization }

func (e InitializationEntry) key() string {
	if e.Package {
		return "package:" + e.Target
	}
	return "type:" + e.Target
}

// Manifest is a sorted, immutable view of a registry
type Manifest struct {
	Reflection     []ReflectionEntry
	Proxies        []ProxyEntry
	Resources      []ResourceEntry
	Serialization  []SerializationEntry
	Initialization []InitializationEntry
}

// Stats counts the entries of each kind
type Stats struct {
	Reflection     int
	Proxies        int
	Resources      int
	Serialization  int
	Initialization int
}

// Total returns the number of entries across all kinds
func (s Stats) Total() int {
	return s.Reflection + s.Proxies + s.Resources + s.Serialization + s.Initialization
}
