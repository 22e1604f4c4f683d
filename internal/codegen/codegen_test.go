package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainNS = "example.com/app/generated"

func TestContext_UnitsKeepCreationOrder(t *testing.T) {
	c := NewContext(mainNS)

	infra, err := c.NewUnit("infrastructure", UnitFunction)
	require.NoError(t, err)
	decls := c.UnitFor("example.com/app/svc", "zz_aot_registrations", UnitDeclarations)
	batch, err := c.NewUnit("registerComponents0", UnitFunction)
	require.NoError(t, err)

	assert.Equal(t, []*Unit{infra, decls, batch}, c.Units())
	assert.Equal(t, []*Unit{infra, batch}, c.UnitsIn(mainNS))
	assert.Equal(t, []string{mainNS, "example.com/app/svc"}, c.Namespaces())
	assert.Equal(t, "generated", infra.PackageName())
	assert.Equal(t, UnitDeclarations, decls.Kind())

	got, ok := c.Unit(mainNS, "registerComponents0")
	require.True(t, ok)
	assert.Same(t, batch, got)
}

func TestContext_DuplicateUnit(t *testing.T) {
	c := NewContext(mainNS)
	_, err := c.NewUnit("a", UnitFunction)
	require.NoError(t, err)

	_, err = c.NewUnit("a", UnitFunction)
	assert.Error(t, err)

	_, err = c.NewUnitIn("example.com/other", "a", UnitFunction)
	assert.NoError(t, err)

	_, err = c.NewUnit("", UnitFunction)
	assert.Error(t, err)

	first := c.UnitFor(mainNS, "a", UnitFunction)
	assert.Same(t, first, c.UnitFor(mainNS, "a", UnitFunction))
}

func TestContext_UniqueName(t *testing.T) {
	c := NewContext(mainNS)
	assert.Equal(t, "RegisterA", c.UniqueName("example.com/app/svc", "RegisterA"))
	assert.Equal(t, "RegisterA2", c.UniqueName("example.com/app/svc", "RegisterA"))
	assert.Equal(t, "RegisterA3", c.UniqueName("example.com/app/svc", "RegisterA"))
	assert.Equal(t, "RegisterA", c.UniqueName("example.com/app/other", "RegisterA"))

	_, err := c.NewUnit("init", UnitFunction)
	require.NoError(t, err)
	assert.Equal(t, "init2", c.UniqueName(mainNS, "init"))
}

func TestUnit_Statements(t *testing.T) {
	u := newUnit(mainNS, "u", UnitFunction)
	u.Add("a()")
	u.Addf("b(%q)", "x")

	stmts := u.Statements()
	assert.Equal(t, []string{"a()", `b("x")`}, stmts)
	stmts[0] = "changed"
	assert.Equal(t, "a()", u.Statements()[0])
	assert.Equal(t, 2, u.Len())
}

func TestBlock(t *testing.T) {
	var b Block
	b.Open("if err != nil {").Line("return %s", "err").Close("}")
	assert.Equal(t, "if err != nil {\n\treturn err\n}", b.String())
}

func TestImportManager_Qualify(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"string", "string"},
		{"*example.com/app/svc.TypeX", "*svc.TypeX"},
		{"[]*example.com/app/svc.TypeX", "[]*svc.TypeX"},
		{"[4]example.com/app/svc.TypeX", "[4]svc.TypeX"},
		{"map[string][]example.com/app/svc.TypeX", "map[string][]svc.TypeX"},
		{"map[example.com/app/svc.Key]int", "map[svc.Key]int"},
		{"example.com/app/svc.Box[example.com/app/svc.TypeX, int]", "svc.Box[svc.TypeX, int]"},
		{"time.Duration", "time.Duration"},
		{"example.com/app/generated.Local", "Local"},
		{"func()", "func()"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			im := NewImportManager(mainNS)
			assert.Equal(t, tt.want, im.Qualify(tt.expr))
		})
	}
}

func TestImportManager_Aliases(t *testing.T) {
	im := NewImportManager(mainNS)

	assert.Equal(t, "svc", im.AddImport("example.com/app/svc"))
	assert.Equal(t, "svc2", im.AddImport("example.com/other/svc"))
	assert.Equal(t, "svc", im.AddImport("example.com/app/svc"))
	assert.Equal(t, "echo", im.AddImport("github.com/labstack/echo/v4"))
	assert.Equal(t, "typepkg", im.AddImport("example.com/app/type"))
	assert.Equal(t, "", im.AddImport(mainNS))
	assert.Equal(t, "*svc2.T", im.Qualify("*example.com/other/svc.T"))

	assert.Equal(t, []Import{
		{Path: "example.com/app/svc"},
		{Alias: "typepkg", Path: "example.com/app/type"},
		{Alias: "svc2", Path: "example.com/other/svc"},
		{Path: "github.com/labstack/echo/v4"},
	}, im.Imports())
}

func TestImportManager_GenerateImports(t *testing.T) {
	im := NewImportManager(mainNS)
	assert.Equal(t, "", im.GenerateImports())

	im.AddImport("example.com/app/svc")
	assert.Equal(t, "import \"example.com/app/svc\"\n", im.GenerateImports())

	im.AddImport("strconv")
	im.AddImport("example.com/other/svc")
	want := "import (\n" +
		"\t\"strconv\"\n" +
		"\n" +
		"\t\"example.com/app/svc\"\n" +
		"\tsvc2 \"example.com/other/svc\"\n" +
		")\n"
	assert.Equal(t, want, im.GenerateImports())
}

func TestImportManager_Merge(t *testing.T) {
	a := NewImportManager(mainNS)
	a.AddImport("example.com/app/svc")
	b := NewImportManager(mainNS)
	b.AddImport("example.com/app/repo")
	b.AddImport("example.com/app/svc")

	a.Merge(b)
	a.Merge(nil)
	assert.Equal(t, 2, a.Len())
}

func TestBlock_MultiLine(t *testing.T) {
	var b Block
	b.Open("func() {").Line("a := f(func() {\n\tg()\n})").Close("}")
	assert.Equal(t, "func() {\n\ta := f(func() {\n\t\tg()\n\t})\n}", b.String())
}

func TestImportManager_CloneAndReplace(t *testing.T) {
	im := NewImportManager(mainNS)
	im.AddImport("example.com/app/svc")

	clone := im.Clone()
	assert.Equal(t, "svc2", clone.AddImport("example.com/other/svc"))
	assert.Equal(t, 1, im.Len())

	im.Replace(clone)
	assert.Equal(t, 2, im.Len())
	assert.Equal(t, "svc2", im.AddImport("example.com/other/svc"))
}
