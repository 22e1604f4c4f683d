package templates

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/manifest"
)

const header = "// Code generated by axon-aot. DO NOT EDIT.\n"

func sampleOutput(t *testing.T) *codegen.Context {
	t.Helper()
	out := codegen.NewContext("example.com/app/aot")

	infra, err := out.NewUnit("registerInfrastructure", codegen.UnitFunction)
	require.NoError(t, err)
	infra.Add("ctx.UseRegistrationOrder()")

	batch, err := out.NewUnit("registerComponents0", codegen.UnitFunction)
	require.NoError(t, err)
	svc := batch.Imports().AddImport("example.com/app/svc")
	batch.Addf("%s.RegisterHidden(ctx)", svc)

	decl, err := out.NewUnitIn("example.com/app/svc", "aot_registrations", codegen.UnitDeclarations)
	require.NoError(t, err)
	rt := decl.Imports().AddImport("github.com/toyz/axon-aot/pkg/aot")
	var b codegen.Block
	b.Line("// RegisterHidden registers component %q.", "hidden")
	b.Open("func RegisterHidden(ctx *%s.Context) {", rt)
	b.Line("ctx.RegisterInternal(%q, %q)", "hidden", "events")
	b.Close("}")
	decl.Add(b.String())
	return out
}

func parse(t *testing.T, f File) string {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), f.Name, f.Content, parser.ParseComments)
	require.NoError(t, err, string(f.Content))
	return file.Name.Name
}

func TestRender_FilesAndOrder(t *testing.T) {
	files, err := NewRenderer().Render(sampleOutput(t))
	require.NoError(t, err)

	var names, namespaces []string
	for _, f := range files {
		names = append(names, f.Name)
		namespaces = append(namespaces, f.Namespace)
		assert.True(t, strings.HasPrefix(string(f.Content), header), f.Name)
		assert.True(t, IsGenerated(f.Name), f.Name)
	}
	assert.Equal(t, []string{
		"zz_aot_register.go",
		"zz_aot_register_infrastructure.go",
		"zz_aot_register_components0.go",
		"zz_aot_aot_registrations.go",
	}, names)
	assert.Equal(t, []string{
		"example.com/app/aot",
		"example.com/app/aot",
		"example.com/app/aot",
		"example.com/app/svc",
	}, namespaces)

	assert.Equal(t, "aot", parse(t, files[0]))
	assert.Equal(t, "aot", parse(t, files[1]))
	assert.Equal(t, "aot", parse(t, files[2]))
	assert.Equal(t, "svc", parse(t, files[3]))
}

func TestRender_Entry(t *testing.T) {
	files, err := NewRenderer().Render(sampleOutput(t))
	require.NoError(t, err)

	entry := string(files[0].Content)
	assert.Contains(t, entry, `"github.com/toyz/axon-aot/pkg/aot"`)
	assert.Contains(t, entry, "// Register adds the compiled component graph to ctx.\n")
	assert.Contains(t, entry, "func Register(ctx *aot.Context) {\n\tregisterInfrastructure(ctx)\n\tregisterComponents0(ctx)\n}\n")
}

func TestRender_FunctionUnit(t *testing.T) {
	files, err := NewRenderer().Render(sampleOutput(t))
	require.NoError(t, err)

	infra := string(files[1].Content)
	assert.Contains(t, infra, "func registerInfrastructure(ctx *aot.Context) {\n\tctx.UseRegistrationOrder()\n}\n")

	batch := string(files[2].Content)
	assert.Contains(t, batch, `"example.com/app/svc"`)
	assert.Contains(t, batch, "func registerComponents0(ctx *aot.Context) {\n\tsvc.RegisterHidden(ctx)\n}\n")
}

func TestRender_DeclarationsUnit(t *testing.T) {
	files, err := NewRenderer().Render(sampleOutput(t))
	require.NoError(t, err)

	decl := string(files[3].Content)
	assert.Contains(t, decl, "package svc\n")
	assert.Contains(t, decl, "// RegisterHidden registers component \"hidden\".\nfunc RegisterHidden(ctx *aot.Context) {\n\tctx.RegisterInternal(\"hidden\", \"events\")\n}\n")
}

func TestRenderUnit_RuntimeAliasAvoidsClash(t *testing.T) {
	out := codegen.NewContext("example.com/app/gen")
	u, err := out.NewUnit("registerComponents0", codegen.UnitFunction)
	require.NoError(t, err)
	alias := u.Imports().AddImport("example.com/other/aot")
	u.Addf("%s.Setup(ctx)", alias)

	f, err := NewRenderer().RenderUnit(u)
	require.NoError(t, err)
	assert.Equal(t, "gen", parse(t, f))
	assert.Contains(t, string(f.Content), `aot2 "github.com/toyz/axon-aot/pkg/aot"`)
	assert.Contains(t, string(f.Content), "func registerComponents0(ctx *aot2.Context) {\n\taot.Setup(ctx)\n}\n")
}

func TestRenderUnit_MultiLineStatementsAreIndented(t *testing.T) {
	out := codegen.NewContext("example.com/app/aot")
	u, err := out.NewUnit("registerEventListeners", codegen.UnitFunction)
	require.NoError(t, err)
	var b codegen.Block
	b.Open("ctx.AddEventListener(%q, %q, func(event any) {", "orders", "OnCreated")
	b.Line("_ = event")
	b.Close("})")
	u.Add(b.String())

	f, err := NewRenderer().RenderUnit(u)
	require.NoError(t, err)
	assert.Equal(t, "zz_aot_register_event_listeners.go", f.Name)
	assert.Contains(t, string(f.Content),
		"\tctx.AddEventListener(\"orders\", \"OnCreated\", func(event any) {\n\t\t_ = event\n\t})\n")
}

func TestRenderUnit_InvalidStatement(t *testing.T) {
	out := codegen.NewContext("example.com/app/aot")
	u, err := out.NewUnit("registerComponents0", codegen.UnitFunction)
	require.NoError(t, err)
	u.Add("ctx.Register(")

	_, err = NewRenderer().RenderUnit(u)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.GenerationErrorCode))
	assert.Contains(t, err.Error(), "zz_aot_register_components0.go")
}

func TestRenderEntry_SkipsDeclarationUnits(t *testing.T) {
	out := codegen.NewContext("example.com/app/aot")
	_, err := out.NewUnit("registerInfrastructure", codegen.UnitFunction)
	require.NoError(t, err)
	_, err = out.NewUnit("aot_registrations", codegen.UnitDeclarations)
	require.NoError(t, err)

	f, err := NewRenderer().RenderEntry(out.Namespace(), out.UnitsIn(out.Namespace()))
	require.NoError(t, err)
	assert.Contains(t, string(f.Content), "func Register(ctx *aot.Context) {\n\tregisterInfrastructure(ctx)\n}\n")
}

func TestFileName(t *testing.T) {
	tests := []struct {
		unit     string
		expected string
	}{
		{"Register", "zz_aot_register.go"},
		{"registerComponents12", "zz_aot_register_components12.go"},
		{"registerInfrastructure", "zz_aot_register_infrastructure.go"},
		{"aot_registrations", "zz_aot_aot_registrations.go"},
		{"odd--name", "zz_aot_odd_name.go"},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(tt.unit))
		})
	}
}

func TestIsGenerated(t *testing.T) {
	assert.True(t, IsGenerated("zz_aot_register.go"))
	assert.True(t, IsGenerated(ManifestFile))
	assert.False(t, IsGenerated("zz_aot_notes.txt"))
	assert.False(t, IsGenerated("service.go"))
}

func TestTemplateRegistry(t *testing.T) {
	registry := NewTemplateRegistry()
	for _, name := range registry.Names() {
		_, ok := registry.Get(name)
		assert.True(t, ok, name)
	}
	_, ok := registry.Get("route")
	assert.False(t, ok)
	assert.Panics(t, func() { registry.MustGet("route") })
}

func TestRenderManifest(t *testing.T) {
	reg := manifest.NewRegistry()
	require.NoError(t, reg.AddReflection(manifest.ReflectionEntry{
		Type:         "example.com/app/svc.TypeX",
		Access:       manifest.QueryPublicMethods | manifest.PublicFields,
		Constructors: []manifest.Member{{Name: "newTypeX", Params: []string{"string"}}},
		Fields:       []manifest.Field{{Name: "id", AllowWrite: true}},
	}))
	require.NoError(t, reg.AddProxy(manifest.ProxyEntry{
		ProxyKind:  manifest.InterfaceProxy,
		Interfaces: []string{"example.com/app/svc.Service", "example.com/app/svc.Closer"},
		Features:   manifest.FeatureSerializable,
	}))
	require.NoError(t, reg.AddResource("static/**"))
	require.NoError(t, reg.AddSerialization("example.com/app/svc.Event"))
	require.NoError(t, reg.AddInitialization(manifest.InitializationEntry{
		Target:  "example.com/app/config",
		Package: true,
		Timing:  manifest.RunTime,
	}))

	data, err := RenderManifest(reg.Snapshot())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Code generated by axon-aot. DO NOT EDIT.\n"))

	var doc manifestDoc
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, manifestDoc{
		Reflection: []reflectionDoc{{
			Type:         "example.com/app/svc.TypeX",
			Access:       []string{"QueryPublicMethods", "PublicFields"},
			Constructors: []string{"newTypeX(string)"},
			Fields:       []fieldDoc{{Name: "id", Write: true}},
		}},
		Proxies: []proxyDoc{{
			Kind:       "interface",
			Interfaces: []string{"example.com/app/svc.Closer", "example.com/app/svc.Service"},
			Features:   []string{"serializable"},
		}},
		Resources:     []string{"static/**"},
		Serialization: []string{"example.com/app/svc.Event"},
		Initialization: []initializationDoc{{
			Target:  "example.com/app/config",
			Package: true,
			Timing:  "run-time",
		}},
	}, doc)
}

func TestRenderManifest_Empty(t *testing.T) {
	data, err := RenderManifest(manifest.NewRegistry().Snapshot())
	require.NoError(t, err)

	var doc manifestDoc
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, manifestDoc{}, doc)
}
