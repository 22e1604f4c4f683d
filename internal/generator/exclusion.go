package generator

import "github.com/toyz/axon-aot/internal/models"

// ExclusionFunc adapts a function to ExclusionRule
type ExclusionFunc func(name string, def *models.ComponentDefinition) bool

func (f ExclusionFunc) Exclude(name string, def *models.ComponentDefinition) bool {
	return f(name, def)
}

// ExcludeNames excludes components by name
func ExcludeNames(names ...string) ExclusionRule {
	set := toSet(names)
	return ExclusionFunc(func(name string, _ *models.ComponentDefinition) bool {
		return set[name]
	})
}

// ExcludeTypes excludes components whose declared type is one of types.
// Pointer and slice prefixes are ignored on both sides.
func ExcludeTypes(types ...string) ExclusionRule {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[models.BaseTypeName(t)] = true
	}
	return ExclusionFunc(func(_ string, def *models.ComponentDefinition) bool {
		return def != nil && set[models.BaseTypeName(def.Type)]
	})
}

// ExcludeRoles excludes components with any of the given roles
func ExcludeRoles(roles ...models.Role) ExclusionRule {
	set := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return ExclusionFunc(func(_ string, def *models.ComponentDefinition) bool {
		return def != nil && set[def.Role]
	})
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
