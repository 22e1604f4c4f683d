package models

import "fmt"

// ValueKind tags a Value
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueLiteral
	ValueRef
	ValueInner
	ValueList
	ValueMap
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueLiteral:
		return "literal"
	case ValueRef:
		return "ref"
	case ValueInner:
		return "inner"
	case ValueList:
		return "list"
	case ValueMap:
		return "map"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a resolved argument or property value held by a definition.
type Value struct {
	Kind    ValueKind
	Literal interface{}
	Ref     string
	Inner   *ComponentDefinition
	Items   []Value
	Entries []MapEntry
}

// MapEntry is one entry of a map value
type MapEntry struct {
	Key   string
	Value Value
}

// Null returns the null value
func Null() Value { return Value{Kind: ValueNull} }

// Literal wraps a string, number or bool
func Literal(v interface{}) Value { return Value{Kind: ValueLiteral, Literal: v} }

// Ref references another named component
func Ref(name string) Value { return Value{Kind: ValueRef, Ref: name} }

// Inner embeds an unnamed definition
func Inner(def *ComponentDefinition) Value { return Value{Kind: ValueInner, Inner: def} }

// List groups values
func List(items ...Value) Value { return Value{Kind: ValueList, Items: items} }

// Map groups keyed values
func Map(entries ...MapEntry) Value { return Value{Kind: ValueMap, Entries: entries} }

// Instantiation is the container's resolved strategy for building an instance.
type Instantiation struct {
	Kind InstantiationKind

	// Member is the constructor function or factory method. Constructors may be
	// left empty and resolved from the type index by arity.
	Member *MemberRef

	// FactoryComponent names the component whose method builds the instance.
	FactoryComponent string

	// TypeArgs maps generic parameters to concrete types.
	TypeArgs map[string]string

	// Internal names the container-internal service kind.
	Internal string
}

// PropertyValue is a named property assignment
type PropertyValue struct {
	Name  string
	Value Value
}

// ComponentDefinition is the container's description of one component. The
// compiler never mutates it.
type ComponentDefinition struct {
	Name           string
	Type           string
	Scope          string
	Role           Role
	Primary        bool
	Lazy           bool
	Instantiation  Instantiation
	Args           []Value
	Properties     []PropertyValue
	InitMethods    []string
	DestroyMethods []string
	Attributes     map[string]string
}

// EffectiveScope returns the scope, defaulting to singleton
func (d *ComponentDefinition) EffectiveScope() string {
	if d.Scope == "" {
		return ScopeSingleton
	}
	return d.Scope
}

// Attribute returns a definition attribute
func (d *ComponentDefinition) Attribute(key string) (string, bool) {
	v, ok := d.Attributes[key]
	return v, ok
}

func (d *ComponentDefinition) String() string {
	return fmt.Sprintf("%s[type=%s, scope=%s, instantiation=%s]", d.Name, d.Type, d.EffectiveScope(), d.Instantiation.Kind)
}
