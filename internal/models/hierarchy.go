package models

// Walk visits root and its supertypes (embeds, then interfaces) breadth first.
// Every type is visited at most once and nothing deeper than maxDepth is entered,
// so cyclic or very deep indexes terminate. Types missing from the index are
// skipped. Returning false from visit stops the walk.
func Walk(types TypeResolver, root string, maxDepth int, visit func(t *TypeInfo, depth int) bool) {
	walk(types, root, maxDepth, (*TypeInfo).Supertypes, visit)
}

// Hierarchy returns every type reachable from root in Walk order.
func Hierarchy(types TypeResolver, root string, maxDepth int) []*TypeInfo {
	var out []*TypeInfo
	Walk(types, root, maxDepth, func(t *TypeInfo, _ int) bool {
		out = append(out, t)
		return true
	})
	return out
}

// HierarchyHasMarker reports whether any type in root's hierarchy carries marker.
func HierarchyHasMarker(types TypeResolver, root, marker string) bool {
	found := false
	Walk(types, root, DefaultHierarchyDepth, func(t *TypeInfo, _ int) bool {
		found = t.HasMarker(marker)
		return !found
	})
	return found
}

// UserType unwraps generated wrapper types down to the type the user declared.
func UserType(types TypeResolver, name string) string {
	seen := make(map[string]bool)
	for !seen[name] {
		seen[name] = true
		t, ok := types.Lookup(name)
		if !ok || !t.Synthetic || t.UserType == "" {
			return name
		}
		name = t.UserType
	}
	return name
}

// FindMethod looks a method up on typeName or on the types it embeds, the way
// Go promotes methods. The owner is the type that declares the method.
func FindMethod(types TypeResolver, typeName, method string) (*TypeInfo, MethodInfo, bool) {
	var (
		owner *TypeInfo
		found MethodInfo
	)
	walk(types, typeName, DefaultHierarchyDepth, embedsOf, func(t *TypeInfo, _ int) bool {
		if m, ok := t.Method(method); ok {
			owner, found = t, m
			return false
		}
		return true
	})
	return owner, found, owner != nil
}

// FindField looks a field up on typeName or on the structs it embeds.
func FindField(types TypeResolver, typeName, field string) (*TypeInfo, FieldInfo, bool) {
	var (
		owner *TypeInfo
		found FieldInfo
	)
	walk(types, typeName, DefaultHierarchyDepth, embedsOf, func(t *TypeInfo, _ int) bool {
		if f, ok := t.Field(field); ok {
			owner, found = t, f
			return false
		}
		return true
	})
	return owner, found, owner != nil
}

// Promoted returns typeName followed by every type it embeds, breadth first.
// Members declared earlier in the list shadow later ones.
func Promoted(types TypeResolver, typeName string) []*TypeInfo {
	var out []*TypeInfo
	walk(types, typeName, DefaultHierarchyDepth, embedsOf, func(t *TypeInfo, _ int) bool {
		out = append(out, t)
		return true
	})
	return out
}

func embedsOf(t *TypeInfo) []string {
	return t.Embeds
}

func walk(types TypeResolver, root string, maxDepth int, next func(*TypeInfo) []string, visit func(*TypeInfo, int) bool) {
	if types == nil {
		return
	}
	type item struct {
		name  string
		depth int
	}
	visited := make(map[string]bool)
	queue := []item{{name: root}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		t, ok := types.Lookup(current.name)
		if !ok || visited[t.Name] {
			continue
		}
		visited[t.Name] = true
		if !visit(t, current.depth) {
			return
		}
		if current.depth >= maxDepth {
			continue
		}
		for _, super := range next(t) {
			queue = append(queue, item{name: super, depth: current.depth + 1})
		}
	}
}
