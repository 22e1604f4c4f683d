package registration

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/toyz/axon-aot/internal/models"
)

var qualifiedName = regexp.MustCompile(`([A-Za-z0-9_.\-/]+)\.([A-Za-z_][A-Za-z0-9_]*)`)

// hostPackage returns the package whose unexported types or members the
// registration of d touches, or "" when everything is exported. Unexported
// parts from two different packages cannot be reached from any single
// package and are an error.
func hostPackage(d *models.ComponentDescriptor, types models.TypeResolver) (string, error) {
	pkgs := make(map[string]bool)
	collectRestricted(d, types, pkgs, make(map[*models.ComponentDescriptor]bool))

	switch len(pkgs) {
	case 0:
		return "", nil
	case 1:
		for pkg := range pkgs {
			return pkg, nil
		}
	}
	names := make([]string, 0, len(pkgs))
	for pkg := range pkgs {
		names = append(names, pkg)
	}
	sort.Strings(names)
	return "", fmt.Errorf("registration needs unexported members of several packages: %s", strings.Join(names, ", "))
}

func collectRestricted(d *models.ComponentDescriptor, types models.TypeResolver, pkgs map[string]bool, seen map[*models.ComponentDescriptor]bool) {
	if seen[d] {
		return
	}
	seen[d] = true

	member := func(m models.MemberRef) {
		if !m.IsZero() && !m.Exported {
			if pkg := m.Package(); pkg != "" {
				pkgs[pkg] = true
			}
		}
	}
	var value func(src models.ValueSource, typ string)
	value = func(src models.ValueSource, typ string) {
		restrictedTypes(typ, pkgs)
		switch src.Kind {
		case models.SourceInner:
			if src.Inner != nil {
				collectRestricted(src.Inner, types, pkgs, seen)
			}
		case models.SourceList, models.SourceMap:
			for _, item := range src.Items {
				value(item, "")
			}
		}
	}

	creator, hasCreator := d.InstanceCreator()
	if hasCreator {
		member(creator)
		if creator.Kind == models.MemberMethod {
			restrictedTypes(creator.Owner, pkgs)
		}
	} else {
		restrictedTypes(models.BaseTypeName(d.UserType()), pkgs)
	}

	for _, ip := range d.InjectionPoints() {
		if ip.Kind != models.InjectConstructorArg {
			member(ip.Member)
		}
		value(ip.Source, ip.Type)
	}
	for _, p := range d.Properties() {
		if p.WriteAccessor != nil {
			member(*p.WriteAccessor)
		}
		value(p.Value, p.Type)
	}
	for _, cb := range d.InitCallbacks() {
		member(cb)
	}
}

// restrictedTypes records the packages of unexported named types in expr
func restrictedTypes(expr string, pkgs map[string]bool) {
	for _, m := range qualifiedName.FindAllStringSubmatch(expr, -1) {
		if !models.IsExportedName(m[2]) {
			pkgs[m[1]] = true
		}
	}
}

// accessible reports whether code in package pkg can name the type expression
func accessible(expr, pkg string) bool {
	restricted := make(map[string]bool)
	restrictedTypes(expr, restricted)
	delete(restricted, pkg)
	return len(restricted) == 0
}
