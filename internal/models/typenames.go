package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var builtinTypes = map[string]bool{
	"bool": true, "string": true, "error": true, "any": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// IsBuiltin reports whether expr names a predeclared Go type.
func IsBuiltin(expr string) bool {
	return builtinTypes[expr]
}

// BaseTypeName strips pointer, slice and array prefixes and type arguments from a
// type expression. Map, func and chan types have no single named base and yield "".
func BaseTypeName(expr string) string {
	expr = strings.TrimSpace(expr)
	for {
		switch {
		case strings.HasPrefix(expr, "*"):
			expr = expr[1:]
		case strings.HasPrefix(expr, "[]"):
			expr = expr[2:]
		case strings.HasPrefix(expr, "["):
			end := strings.Index(expr, "]")
			if end < 0 {
				return ""
			}
			expr = expr[end+1:]
		default:
			if strings.HasPrefix(expr, "map[") || strings.HasPrefix(expr, "func") || strings.HasPrefix(expr, "chan ") {
				return ""
			}
			if i := strings.Index(expr, "["); i > 0 {
				expr = expr[:i]
			}
			return expr
		}
	}
}

// SplitTypeName splits "example.com/app/svc.TypeX" into its package path and local name.
// Builtins and unqualified names return an empty package.
func SplitTypeName(name string) (pkg, local string) {
	base := BaseTypeName(name)
	slash := strings.LastIndex(base, "/")
	dot := strings.LastIndex(base, ".")
	if dot <= slash {
		return "", base
	}
	return base[:dot], base[dot+1:]
}

// PackageOf returns the import path portion of a qualified type name.
func PackageOf(name string) string {
	pkg, _ := SplitTypeName(name)
	return pkg
}

// LocalName returns the unqualified portion of a type name.
func LocalName(name string) string {
	_, local := SplitTypeName(name)
	return local
}

// PackageName guesses the declared package name from an import path: the last
// element, with a trailing major version element (v2, v3...) skipped.
func PackageName(path string) string {
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if len(parts) > 1 && len(name) > 1 && name[0] == 'v' && strings.Trim(name[1:], "0123456789") == "" {
		name = parts[len(parts)-2]
	}
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name
}

// IsExportedName reports whether a Go identifier is exported.
func IsExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// IsStdlibPackage reports whether an import path belongs to the standard library,
// using the same rule as the go command: no dot in the first path element.
func IsStdlibPackage(pkg string) bool {
	if pkg == "" {
		return false
	}
	first, _, _ := strings.Cut(pkg, "/")
	return !strings.Contains(first, ".")
}
