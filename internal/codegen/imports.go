package codegen

import (
	"fmt"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/axon-aot/internal/models"
)

// Import is one entry of an import block. Alias is empty when the package is
// imported under its own name.
type Import struct {
	Alias string
	Path  string
}

// ImportManager tracks the imports of one code unit and qualifies type
// expressions against them. Types living in the unit's own package stay
// unqualified.
type ImportManager struct {
	self    string
	byPath  map[string]string // path -> name used in code
	byAlias map[string]string // name used in code -> path
}

// NewImportManager creates an import manager for code living in package self
func NewImportManager(self string) *ImportManager {
	return &ImportManager{
		self:    self,
		byPath:  make(map[string]string),
		byAlias: make(map[string]string),
	}
}

// Package returns the import path of the package the unit lives in
func (im *ImportManager) Package() string {
	return im.self
}

// AddImport imports path and returns the identifier code must use for it.
// Importing the manager's own package returns "".
func (im *ImportManager) AddImport(path string) string {
	if path == "" || path == im.self {
		return ""
	}
	if name, ok := im.byPath[path]; ok {
		return name
	}

	base := models.PackageName(path)
	if token.IsKeyword(base) || base == "" || base == "_" {
		base += "pkg"
	}
	name := base
	for i := 2; ; i++ {
		if _, taken := im.byAlias[name]; !taken {
			break
		}
		name = base + strconv.Itoa(i)
	}
	im.byPath[path] = name
	im.byAlias[name] = path
	return name
}

// Qualify rewrites a fully qualified type expression such as
// "*example.com/app/svc.TypeX" or "map[string][]example.com/app/svc.TypeX"
// into source form, importing every package it mentions.
func (im *ImportManager) Qualify(expr string) string {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return ""
	case strings.HasPrefix(expr, "*"):
		return "*" + im.Qualify(expr[1:])
	case strings.HasPrefix(expr, "[]"):
		return "[]" + im.Qualify(expr[2:])
	case strings.HasPrefix(expr, "map["):
		end := matchingBracket(expr, 3)
		if end < 0 {
			return expr
		}
		return "map[" + im.Qualify(expr[4:end]) + "]" + im.Qualify(expr[end+1:])
	case strings.HasPrefix(expr, "["):
		end := matchingBracket(expr, 0)
		if end < 0 {
			return expr
		}
		return expr[:end+1] + im.Qualify(expr[end+1:])
	case strings.HasPrefix(expr, "func") || strings.HasPrefix(expr, "chan ") ||
		strings.HasPrefix(expr, "interface") || strings.HasPrefix(expr, "struct"):
		return expr
	}

	name, args := expr, ""
	if i := strings.Index(expr, "["); i > 0 && strings.HasSuffix(expr, "]") {
		name = expr[:i]
		parts := splitTopLevel(expr[i+1 : len(expr)-1])
		for j, p := range parts {
			parts[j] = im.Qualify(p)
		}
		args = "[" + strings.Join(parts, ", ") + "]"
	}

	pkg, local := models.SplitTypeName(name)
	if pkg == "" {
		return local + args
	}
	alias := im.AddImport(pkg)
	if alias == "" {
		return local + args
	}
	return alias + "." + local + args
}

// Imports returns the imports sorted by path
func (im *ImportManager) Imports() []Import {
	paths := make([]string, 0, len(im.byPath))
	for p := range im.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]Import, 0, len(paths))
	for _, p := range paths {
		imp := Import{Path: p}
		if name := im.byPath[p]; name != models.PackageName(p) {
			imp.Alias = name
		}
		out = append(out, imp)
	}
	return out
}

// Len returns the number of imported packages
func (im *ImportManager) Len() int {
	return len(im.byPath)
}

// Clone returns an independent copy with the same names
func (im *ImportManager) Clone() *ImportManager {
	clone := NewImportManager(im.self)
	for path, name := range im.byPath {
		clone.byPath[path] = name
		clone.byAlias[name] = path
	}
	return clone
}

// Replace makes im an exact copy of other. Names already handed out by im
// stay valid when other was cloned from im.
func (im *ImportManager) Replace(other *ImportManager) {
	clone := other.Clone()
	im.self = clone.self
	im.byPath = clone.byPath
	im.byAlias = clone.byAlias
}

// Merge adds every import of other, keeping other's names where they do not
// collide.
func (im *ImportManager) Merge(other *ImportManager) {
	if other == nil {
		return
	}
	for _, imp := range other.Imports() {
		im.AddImport(imp.Path)
	}
}

// GenerateImports renders the import section, standard library first.
func (im *ImportManager) GenerateImports() string {
	imports := im.Imports()
	if len(imports) == 0 {
		return ""
	}

	var std, external []string
	for _, imp := range imports {
		line := strconv.Quote(imp.Path)
		if imp.Alias != "" {
			line = imp.Alias + " " + line
		}
		if models.IsStdlibPackage(imp.Path) {
			std = append(std, line)
		} else {
			external = append(external, line)
		}
	}

	if len(imports) == 1 {
		return fmt.Sprintf("import %s\n", append(std, external...)[0])
	}

	var result strings.Builder
	result.WriteString("import (\n")
	for _, line := range std {
		result.WriteString("\t" + line + "\n")
	}
	if len(std) > 0 && len(external) > 0 {
		result.WriteString("\n")
	}
	for _, line := range external {
		result.WriteString("\t" + line + "\n")
	}
	result.WriteString(")\n")
	return result.String()
}

func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
