package container

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/models"
)

func TestSnapshot_RegisterKeepsOrder(t *testing.T) {
	snap := NewSnapshot(nil)
	snap.MustRegister(
		&models.ComponentDefinition{Name: "b", Type: "T"},
		&models.ComponentDefinition{Name: "a", Type: "T"},
	)

	names, err := snap.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names)

	names[0] = "mutated"
	again, _ := snap.Names()
	assert.Equal(t, "b", again[0])

	def, err := snap.Definition("a")
	require.NoError(t, err)
	assert.Equal(t, "a", def.Name)
	assert.Equal(t, 2, snap.Len())
	assert.NotNil(t, snap.Types())
}

func TestSnapshot_RegisterErrors(t *testing.T) {
	snap := NewSnapshot(nil)
	require.NoError(t, snap.Register(&models.ComponentDefinition{Name: "a"}))

	assert.Error(t, snap.Register(&models.ComponentDefinition{Name: "a"}))
	assert.Error(t, snap.Register(&models.ComponentDefinition{}))
	assert.Error(t, snap.Register(nil))

	_, err := snap.Definition("missing")
	assert.Error(t, err)

	assert.Panics(t, func() {
		snap.MustRegister(&models.ComponentDefinition{Name: "a"})
	})
}

const snapshotYAML = `
types:
  - name: example.com/app/svc.TypeX
    constructors:
      - name: NewTypeX
        params: [string]
  - name: example.com/app/svc.TypeY
    embeds: [example.com/app/svc.base]
    markers: ["axon::component"]
    constructors:
      - name: NewTypeY
        params: ["*example.com/app/svc.TypeX"]
        results: ["*example.com/app/svc.TypeY", error]
    methods:
      - name: start
        markers: ["axon::init"]
    fields:
      - name: Repo
        type: example.com/app/svc.Repository
        markers: ["axon::inject"]
  - name: example.com/app/svc.Cached
    kind: annotation
    attributes:
      - name: value
        alias_for: {annotation: example.com/app/svc.Cache, attribute: name}
components:
  - name: a
    type: example.com/app/svc.TypeX
    args:
      - value: hello
  - name: b
    type: example.com/app/svc.TypeY
    constructor: "example.com/app/svc.TypeY#NewTypeY(*example.com/app/svc.TypeX) error"
    scope: prototype
    role: support
    lazy: true
    args:
      - ref: a
    init: [start]
  - name: settings
    type: example.com/app/svc.Settings
    struct: true
    attributes:
      prefix: app.settings
    properties:
      - name: timeout
        value: 30
      - name: tags
        list:
          - value: x
          - null: true
      - name: limits
        map:
          zeta: {value: 1}
          alpha: {value: 2}
      - name: inner
        inner:
          type: example.com/app/svc.TypeX
          args:
            - value: nested
  - name: handler
    type: example.com/app/svc.Handler
    factory:
      component: config
      method: "example.com/app/svc.Config#Handler()"
  - name: env
    type: example.com/app/aot.Environment
    internal: environment
import_origins:
  - importing: example.com/app/svc.Config
    imported: example.com/app/svc.Settings
`

func TestLoad(t *testing.T) {
	snap, err := Load(strings.NewReader(snapshotYAML))
	require.NoError(t, err)

	names, _ := snap.Names()
	assert.Equal(t, []string{"a", "b", "settings", "handler", "env"}, names)
	assert.Equal(t, 3, snap.TypeIndex().Len())

	typeY, ok := snap.Types().Lookup("*example.com/app/svc.TypeY")
	require.True(t, ok)
	assert.True(t, typeY.Exported)
	assert.True(t, typeY.HasMarker(models.MarkerComponent))
	assert.True(t, typeY.Constructors[0].ReturnsError())
	assert.False(t, typeY.Methods[0].Exported)
	assert.True(t, typeY.Fields[0].Exported)

	cached, _ := snap.Types().Lookup("example.com/app/svc.Cached")
	assert.Equal(t, models.KindAnnotation, cached.Kind)
	require.NotNil(t, cached.Attributes[0].AliasFor)
	assert.Equal(t, "name", cached.Attributes[0].AliasFor.Attribute)

	a, _ := snap.Definition("a")
	assert.Equal(t, models.InstantiateConstructor, a.Instantiation.Kind)
	assert.Nil(t, a.Instantiation.Member)
	assert.Equal(t, []models.Value{models.Literal("hello")}, a.Args)

	b, _ := snap.Definition("b")
	require.NotNil(t, b.Instantiation.Member)
	assert.Equal(t, "NewTypeY", b.Instantiation.Member.Name)
	assert.True(t, b.Instantiation.Member.ReturnsError)
	assert.Equal(t, models.ScopePrototype, b.EffectiveScope())
	assert.Equal(t, models.RoleSupport, b.Role)
	assert.True(t, b.Lazy)
	assert.Equal(t, []models.Value{models.Ref("a")}, b.Args)
	assert.Equal(t, []string{"start"}, b.InitMethods)

	settings, _ := snap.Definition("settings")
	assert.Equal(t, models.InstantiateStruct, settings.Instantiation.Kind)
	prefix, _ := settings.Attribute(models.AttributePrefix)
	assert.Equal(t, "app.settings", prefix)
	require.Len(t, settings.Properties, 4)
	assert.Equal(t, models.Literal(30), settings.Properties[0].Value)
	assert.Equal(t, models.List(models.Literal("x"), models.Null()), settings.Properties[1].Value)
	limits := settings.Properties[2].Value
	require.Equal(t, models.ValueMap, limits.Kind)
	assert.Equal(t, "alpha", limits.Entries[0].Key)
	assert.Equal(t, "zeta", limits.Entries[1].Key)
	inner := settings.Properties[3].Value
	require.Equal(t, models.ValueInner, inner.Kind)
	assert.Empty(t, inner.Inner.Name)
	assert.Equal(t, "example.com/app/svc.TypeX", inner.Inner.Type)

	handler, _ := snap.Definition("handler")
	assert.Equal(t, models.InstantiateFactory, handler.Instantiation.Kind)
	assert.Equal(t, "config", handler.Instantiation.FactoryComponent)
	assert.Equal(t, models.MemberMethod, handler.Instantiation.Member.Kind)

	env, _ := snap.Definition("env")
	assert.Equal(t, models.InstantiateInternal, env.Instantiation.Kind)
	assert.Equal(t, "environment", env.Instantiation.Internal)

	assert.Equal(t, []ImportOrigin{{
		Importing: "example.com/app/svc.Config",
		Imported:  "example.com/app/svc.Settings",
	}}, snap.ImportOrigins())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown key", "components:\n  - name: a\n    type: T\n    colour: red\n"},
		{"missing name", "components:\n  - type: T\n"},
		{"missing type", "components:\n  - name: a\n"},
		{"duplicate name", "components:\n  - {name: a, type: T}\n  - {name: a, type: T}\n"},
		{"two instantiations", "components:\n  - {name: a, type: T, struct: true, supplier: true}\n"},
		{"bad member", "components:\n  - {name: a, type: T, constructor: 'not a member'}\n"},
		{"empty value", "components:\n  - name: a\n    type: T\n    args:\n      - {}\n"},
		{"two values", "components:\n  - name: a\n    type: T\n    args:\n      - {ref: b, value: 1}\n"},
		{"unknown kind", "types:\n  - {name: T, kind: enum}\n"},
		{"unknown role", "components:\n  - {name: a, type: T, role: admin}\n"},
		{"factory without component", "components:\n  - name: a\n    type: T\n    factory: {method: 'C#M()'}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	snap, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshotYAML), 0o644))

	snap, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.FileSystemErrorCode))
}
