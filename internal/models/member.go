package models

import "strings"

// MemberRef points at a constructor function, method or field. Constructors are
// package-level functions living in Owner's package; Owner is the type they build.
type MemberRef struct {
	Owner        string
	Name         string
	Kind         MemberKind
	Params       []string
	ReturnsError bool
	Exported     bool
	// Result is the first non-error result of a constructor or method, empty
	// when unknown
	Result string
}

// NewMemberRef builds a reference and derives Exported from the name.
func NewMemberRef(kind MemberKind, owner, name string, params ...string) MemberRef {
	return MemberRef{
		Owner:    owner,
		Name:     name,
		Kind:     kind,
		Params:   append([]string(nil), params...),
		Exported: IsExportedName(name),
	}
}

// Package returns the import path the member is declared in
func (m MemberRef) Package() string {
	return PackageOf(m.Owner)
}

// String renders the reference in the Owner#Name(params) form used by snapshots.
func (m MemberRef) String() string {
	var b strings.Builder
	b.WriteString(m.Owner)
	b.WriteByte('#')
	b.WriteString(m.Name)
	if m.Kind != MemberField {
		b.WriteByte('(')
		b.WriteString(strings.Join(m.Params, ", "))
		b.WriteByte(')')
		if m.ReturnsError {
			b.WriteString(" error")
		}
	}
	return b.String()
}

// Signature identifies the member within its owner regardless of result types.
func (m MemberRef) Signature() string {
	if m.Kind == MemberField {
		return m.Name
	}
	return m.Name + "(" + strings.Join(m.Params, ",") + ")"
}

// IsZero reports whether the reference is unset
func (m MemberRef) IsZero() bool {
	return m.Owner == "" && m.Name == ""
}

// ResultOf returns the first result that is not error
func ResultOf(results []string) string {
	if len(results) == 0 || results[0] == "error" {
		return ""
	}
	return results[0]
}

// ProducedType returns the Go type a component's factory yields: the result
// of its creator when known, a pointer for struct types and the type itself
// for interfaces. It reports false when the type cannot be determined.
func ProducedType(types TypeResolver, d *ComponentDescriptor) (string, bool) {
	creator, hasCreator := d.InstanceCreator()
	if hasCreator && creator.Result != "" {
		return creator.Result, true
	}
	typ := BaseTypeName(d.UserType())
	if typ == "" {
		return "", false
	}
	if !hasCreator {
		return "*" + typ, true
	}
	t, ok := types.Lookup(typ)
	if !ok {
		return "", false
	}
	switch t.Kind {
	case KindInterface:
		return typ, true
	case KindStruct:
		return "*" + typ, true
	}
	return "", false
}

// MethodReceiver returns the type a component is asserted to before a method
// declared on owner is called on it. produced is the component's produced
// type, empty when unknown. An interface result is used only when it declares
// the method itself; otherwise the instance is taken to be a pointer to owner.
func MethodReceiver(types TypeResolver, produced, owner string) string {
	if produced != "" {
		base := BaseTypeName(produced)
		t, ok := types.Lookup(base)
		iface := ok && t.Kind == KindInterface && !strings.HasPrefix(produced, "*")
		if !iface || base == BaseTypeName(owner) {
			return produced
		}
	}
	if strings.HasPrefix(owner, "*") {
		return owner
	}
	if t, ok := types.Lookup(owner); ok && t.Kind == KindInterface {
		return owner
	}
	return "*" + owner
}
