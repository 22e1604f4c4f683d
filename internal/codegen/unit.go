// Package codegen collects generated statements into named code units grouped
// by namespace. A namespace is the import path of the package the unit will be
// rendered into.
package codegen

import (
	"fmt"
	"strings"

	"github.com/toyz/axon-aot/internal/models"
)

// UnitKind says how a unit is rendered
type UnitKind int

const (
	// UnitFunction units become one function whose body is the statements.
	UnitFunction UnitKind = iota
	// UnitDeclarations units hold top-level declarations.
	UnitDeclarations
)

func (k UnitKind) String() string {
	if k == UnitDeclarations {
		return "declarations"
	}
	return "function"
}

// Unit is a named, ordered list of opaque statements
type Unit struct {
	name       string
	namespace  string
	kind       UnitKind
	statements []string
	imports    *ImportManager
}

func newUnit(namespace, name string, kind UnitKind) *Unit {
	return &Unit{
		name:      name,
		namespace: namespace,
		kind:      kind,
		imports:   NewImportManager(namespace),
	}
}

func (u *Unit) Name() string      { return u.name }
func (u *Unit) Namespace() string { return u.namespace }
func (u *Unit) Kind() UnitKind    { return u.kind }

// PackageName is the package clause name for the unit's namespace
func (u *Unit) PackageName() string {
	return models.PackageName(u.namespace)
}

// Imports returns the unit's import manager
func (u *Unit) Imports() *ImportManager {
	return u.imports
}

// Add appends a statement
func (u *Unit) Add(stmt string) {
	u.statements = append(u.statements, stmt)
}

// Addf appends a formatted statement
func (u *Unit) Addf(format string, args ...interface{}) {
	u.Add(fmt.Sprintf(format, args...))
}

// Statements returns a copy of the unit's statements
func (u *Unit) Statements() []string {
	return append([]string(nil), u.statements...)
}

// Len returns the number of statements
func (u *Unit) Len() int {
	return len(u.statements)
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s.%s(%s, %d statements)", u.namespace, u.name, u.kind, len(u.statements))
}

// Block builds a multi-line statement with tab indentation
type Block struct {
	lines []string
	depth int
}

// Line appends formatted text at the current depth. Every line of multi-line
// text is indented.
func (b *Block) Line(format string, args ...interface{}) *Block {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	indent := strings.Repeat("\t", b.depth)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.lines = append(b.lines, "")
			continue
		}
		b.lines = append(b.lines, indent+line)
	}
	return b
}

// Open appends a line and indents the following ones
func (b *Block) Open(format string, args ...interface{}) *Block {
	b.Line(format, args...)
	b.depth++
	return b
}

// Close dedents and appends a closing line
func (b *Block) Close(format string, args ...interface{}) *Block {
	if b.depth > 0 {
		b.depth--
	}
	return b.Line(format, args...)
}

func (b *Block) String() string {
	return strings.Join(b.lines, "\n")
}
