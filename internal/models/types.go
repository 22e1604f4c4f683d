package models

import "fmt"

// TypeKind is the shape of an indexed type
type TypeKind int

const (
	KindStruct TypeKind = iota
	KindInterface
	KindAnnotation
	KindBasic
)

var typeKindNames = map[TypeKind]string{
	KindStruct:     "struct",
	KindInterface:  "interface",
	KindAnnotation: "annotation",
	KindBasic:      "basic",
}

func (k TypeKind) String() string {
	if name, ok := typeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// ParseTypeKind converts the textual kind used in snapshots. Empty means struct.
func ParseTypeKind(s string) (TypeKind, error) {
	if s == "" {
		return KindStruct, nil
	}
	for kind, name := range typeKindNames {
		if name == s {
			return kind, nil
		}
	}
	return KindStruct, fmt.Errorf("unknown type kind %q", s)
}

// MemberKind distinguishes the members a MemberRef can point at
type MemberKind int

const (
	MemberConstructor MemberKind = iota
	MemberMethod
	MemberField
)

func (k MemberKind) String() string {
	switch k {
	case MemberConstructor:
		return "constructor"
	case MemberMethod:
		return "method"
	case MemberField:
		return "field"
	default:
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
}

// InstantiationKind is how the container builds a component instance
type InstantiationKind int

const (
	InstantiateConstructor InstantiationKind = iota
	InstantiateFactory
	InstantiateStruct
	InstantiateInternal
	InstantiateSupplier
)

var instantiationNames = map[InstantiationKind]string{
	InstantiateConstructor: "constructor",
	InstantiateFactory:     "factory",
	InstantiateStruct:      "struct",
	InstantiateInternal:    "internal",
	InstantiateSupplier:    "supplier",
}

func (k InstantiationKind) String() string {
	if name, ok := instantiationNames[k]; ok {
		return name
	}
	return fmt.Sprintf("InstantiationKind(%d)", int(k))
}

// Role mirrors the container's component roles
type Role int

const (
	RoleApplication Role = iota
	RoleSupport
	RoleInfrastructure
)

func (r Role) String() string {
	switch r {
	case RoleApplication:
		return "application"
	case RoleSupport:
		return "support"
	case RoleInfrastructure:
		return "infrastructure"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole converts the textual role used in snapshots. Empty means application.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "application":
		return RoleApplication, nil
	case "support":
		return RoleSupport, nil
	case "infrastructure":
		return RoleInfrastructure, nil
	}
	return RoleApplication, fmt.Errorf("unknown role %q", s)
}

// Scopes known to the runtime
const (
	ScopeSingleton = "singleton"
	ScopePrototype = "prototype"
)

// Marker names recognized by the default rules. They use the same
// //axon:: vocabulary the annotations are written with in source.
const (
	MarkerInject        = "axon::inject"
	MarkerInit          = "axon::init"
	MarkerComponent     = "axon::component"
	MarkerConfig        = "axon::config"
	MarkerTransactional = "axon::transactional"
	MarkerListener      = "axon::listener"
	MarkerSerializable  = "axon::serializable"
	MarkerBuildTimeInit = "axon::build_time_init"
	MarkerRuntimeInit   = "axon::runtime_init"
)

// Definition attributes read by the default rules
const (
	AttributePrefix        = "prefix"
	AttributeResources     = "resources"
	AttributeBuildTimeInit = "build_time_init"
	AttributeRuntimeInit   = "runtime_init"
)

// DefaultHierarchyDepth bounds every supertype walk.
const DefaultHierarchyDepth = 32
