package generator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/container"
	"github.com/toyz/axon-aot/internal/contrib"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
	"github.com/toyz/axon-aot/internal/registration"
)

const (
	svc = "example.com/app/svc."
	ns  = "example.com/app/aot"
)

func testTypes() *models.TypeIndex {
	return models.NewTypeIndex(
		&models.TypeInfo{
			Name:         svc + "TypeX",
			Exported:     true,
			Constructors: []models.MethodInfo{{Name: "NewTypeX", Params: []string{"string"}, Exported: true}},
		},
		&models.TypeInfo{
			Name:         svc + "TypeY",
			Exported:     true,
			Constructors: []models.MethodInfo{{Name: "NewTypeY", Params: []string{"*" + svc + "TypeX"}, Exported: true}},
		},
		&models.TypeInfo{Name: svc + "Plain", Exported: true},
		&models.TypeInfo{
			Name:     svc + "Repo",
			Exported: true,
			Methods: []models.MethodInfo{
				{Name: "Close", Results: []string{"error"}, Exported: true},
				{Name: "flush"},
			},
		},
		&models.TypeInfo{
			Name:     svc + "Orders",
			Exported: true,
			Methods: []models.MethodInfo{
				{Name: "OnCreated", Params: []string{svc + "Created"}, Exported: true, Markers: []string{models.MarkerListener}},
				{Name: "audit", Params: []string{"any"}, Markers: []string{models.MarkerListener}},
				{Name: "Total", Results: []string{"int"}, Exported: true},
			},
		},
		&models.TypeInfo{Name: svc + "Created", Exported: true},
		&models.TypeInfo{
			Name:         svc + "Ledger",
			Exported:     true,
			Constructors: []models.MethodInfo{{Name: "NewLedger", Results: []string{svc + "Ledger"}, Exported: true}},
			Methods: []models.MethodInfo{
				{Name: "OnCreated", Params: []string{svc + "Created"}, Exported: true, Markers: []string{models.MarkerListener}},
				{Name: "Entry", Results: []string{"*" + svc + "Plain"}, Exported: true},
				{Name: "Release", Results: []string{"int", "error"}, Exported: true},
			},
		},
		&models.TypeInfo{
			Name:     svc + "Tx",
			Exported: true,
			Methods:  []models.MethodInfo{{Name: "Save", Exported: true, Markers: []string{models.MarkerTransactional}}},
		},
	)
}

func endToEndSnapshot() *container.Snapshot {
	return container.NewSnapshot(testTypes()).MustRegister(
		&models.ComponentDefinition{Name: "a", Type: svc + "TypeX", Args: []models.Value{models.Literal("hello")}},
		&models.ComponentDefinition{Name: "b", Type: svc + "TypeY", Args: []models.Value{models.Ref("a")}},
	)
}

func plainSnapshot(n int) *container.Snapshot {
	snap := container.NewSnapshot(testTypes())
	for i := 0; i < n; i++ {
		snap.MustRegister(&models.ComponentDefinition{
			Name:          fmt.Sprintf("c%d", i),
			Type:          svc + "Plain",
			Instantiation: models.Instantiation{Kind: models.InstantiateStruct},
		})
	}
	return snap
}

func compile(t *testing.T, opts Options, src container.Container) *Result {
	t.Helper()
	if opts.Namespace == "" {
		opts.Namespace = ns
	}
	result, err := New(opts).Compile(context.Background(), src)
	require.NoError(t, err)
	return result
}

func unitNames(out *codegen.Context) []string {
	var names []string
	for _, u := range out.Units() {
		names = append(names, u.Name())
	}
	return names
}

// registrations concatenates the statements of every batch unit
func registrations(out *codegen.Context) []string {
	var stmts []string
	for _, u := range out.Units() {
		if strings.HasPrefix(u.Name(), batchUnitPrefix) {
			stmts = append(stmts, u.Statements()...)
		}
	}
	return stmts
}

func TestCompile_EndToEnd(t *testing.T) {
	result := compile(t, Options{}, endToEndSnapshot())
	require.NoError(t, result.Err())

	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, []string{InfrastructureUnit, "registerComponents0"}, unitNames(result.Output))

	infra, ok := result.Output.Unit(ns, InfrastructureUnit)
	require.True(t, ok)
	assert.Equal(t, []string{"ctx.UseRegistrationOrder()"}, infra.Statements())

	assert.Equal(t, []string{
		`ctx.Register("a", "example.com/app/svc.TypeX", func(ctx *aot.Context) (any, error) {
	return svc.NewTypeX("hello"), nil
}, aot.WithType[*svc.TypeX]())`,
		`ctx.Register("b", "example.com/app/svc.TypeY", func(ctx *aot.Context) (any, error) {
	return svc.NewTypeY(ctx.Bean("a").(*svc.TypeX)), nil
}, aot.WithType[*svc.TypeY]())`,
	}, registrations(result.Output))

	batch, _ := result.Output.Unit(ns, "registerComponents0")
	assert.Equal(t, []codegen.Import{
		{Path: "example.com/app/svc"},
		{Path: registration.RuntimePackage},
	}, batch.Imports().Imports())

	want := manifest.Manifest{
		Reflection: []manifest.ReflectionEntry{
			{
				Type:         svc + "TypeX",
				Constructors: []manifest.Member{{Name: "NewTypeX", Params: []string{"string"}, Exported: true}},
			},
			{
				Type:         svc + "TypeY",
				Constructors: []manifest.Member{{Name: "NewTypeY", Params: []string{"*" + svc + "TypeX"}, Exported: true}},
			},
		},
		Proxies:        []manifest.ProxyEntry{},
		Resources:      []manifest.ResourceEntry{},
		Serialization:  []manifest.SerializationEntry{},
		Initialization: []manifest.InitializationEntry{},
	}
	if diff := cmp.Diff(want, result.Manifest.Snapshot()); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, result.Descriptors, 2)
	assert.Equal(t, "a", result.Descriptors[0].Name())
	assert.Equal(t, "b", result.Descriptors[1].Name())
	assert.Equal(t, Summary{Total: 2, Processed: 2, Units: 2}, result.Summary)
}

func TestCompile_BatchSizeIndependence(t *testing.T) {
	src := plainSnapshot(7)
	reference := registrations(compile(t, Options{}, src).Output)
	require.Len(t, reference, 7)
	for i, stmt := range reference {
		assert.True(t, strings.HasPrefix(stmt, fmt.Sprintf("ctx.Register(\"c%d\",", i)), stmt)
	}

	tests := []struct {
		batchSize int
		units     int
	}{
		{batchSize: 1, units: 8},
		{batchSize: 2, units: 5},
		{batchSize: 3, units: 4},
		{batchSize: 7, units: 2},
		{batchSize: -1, units: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("batch %d", tt.batchSize), func(t *testing.T) {
			result := compile(t, Options{BatchSize: tt.batchSize}, src)
			assert.Equal(t, reference, registrations(result.Output))
			assert.Len(t, result.Output.Units(), tt.units)
			assert.Equal(t, tt.units, result.Summary.Units)
		})
	}

	names := unitNames(compile(t, Options{BatchSize: 3}, src).Output)
	assert.Equal(t, []string{InfrastructureUnit, "registerComponents0", "registerComponents1", "registerComponents2"}, names)
}

func TestCompile_Idempotent(t *testing.T) {
	compiler := New(Options{Namespace: ns})
	src := endToEndSnapshot()

	first, err := compiler.Compile(context.Background(), src)
	require.NoError(t, err)
	second, err := compiler.Compile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, registrations(first.Output), registrations(second.Output))
	if diff := cmp.Diff(first.Manifest.Snapshot(), second.Manifest.Snapshot()); diff != "" {
		t.Errorf("second compilation changed the manifest (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestCompile_Exclusions(t *testing.T) {
	src := container.NewSnapshot(testTypes()).MustRegister(
		&models.ComponentDefinition{Name: "a", Type: svc + "TypeX", Args: []models.Value{models.Literal("x")}},
		&models.ComponentDefinition{Name: "plain", Type: svc + "Plain", Instantiation: models.Instantiation{Kind: models.InstantiateStruct}},
		&models.ComponentDefinition{
			Name: "infra", Type: svc + "Plain", Role: models.RoleInfrastructure,
			Instantiation: models.Instantiation{Kind: models.InstantiateStruct},
		},
		&models.ComponentDefinition{
			Name: "repo", Type: svc + "Repo", DestroyMethods: []string{"Close"},
			Instantiation: models.Instantiation{Kind: models.InstantiateStruct},
		},
	)

	result := compile(t, Options{Exclusions: []ExclusionRule{
		ExcludeNames("plain"),
		ExcludeRoles(models.RoleInfrastructure),
		ExcludeTypes("*" + svc + "Repo"),
	}}, src)

	require.Len(t, result.Descriptors, 1)
	assert.Equal(t, "a", result.Descriptors[0].Name())
	assert.Equal(t, 3, result.Summary.Excluded)
	assert.Len(t, registrations(result.Output), 1)

	infra, _ := result.Output.Unit(ns, InfrastructureUnit)
	assert.Equal(t, []string{"ctx.UseRegistrationOrder()"}, infra.Statements())
	_, ok := result.Manifest.ReflectionFor(svc + "Repo")
	assert.False(t, ok)
}

func TestExclusionFunc(t *testing.T) {
	rule := ExclusionFunc(func(name string, def *models.ComponentDefinition) bool {
		return strings.HasPrefix(name, "test.")
	})
	assert.True(t, rule.Exclude("test.fixture", &models.ComponentDefinition{}))
	assert.False(t, rule.Exclude("fixture", &models.ComponentDefinition{}))
	assert.False(t, ExcludeTypes(svc+"TypeX").Exclude("x", nil))
}

func TestCompile_Infrastructure(t *testing.T) {
	src := container.NewSnapshot(testTypes()).MustRegister(&models.ComponentDefinition{
		Name:           "repo",
		Type:           svc + "Repo",
		Instantiation:  models.Instantiation{Kind: models.InstantiateStruct},
		DestroyMethods: []string{"Close", "flush", "Cleanup"},
	})
	src.AddImportOrigin("example.com/app/config.AppConfig", "example.com/app/config.DataConfig")

	result := compile(t, Options{}, src)

	infra, _ := result.Output.Unit(ns, InfrastructureUnit)
	assert.Equal(t, []string{
		`ctx.RegisterImportOrigin("example.com/app/config.AppConfig", "example.com/app/config.DataConfig")`,
		`ctx.RegisterDestroyMethod("repo", "Close", func(bean any) error {
	return bean.(*svc.Repo).Close()
})`,
		`ctx.RegisterDestroyMethod("repo", "flush", svc.DestroyRepoFlush)`,
		`ctx.RegisterDestroyMethod("repo", "Cleanup", func(bean any) error {
	switch b := bean.(type) {
	case interface{ Cleanup() error }:
		return b.Cleanup()
	case interface{ Cleanup() }:
		b.Cleanup()
		return nil
	}
	return aot.MissingMethod(bean, "Cleanup")
})`,
		"ctx.UseRegistrationOrder()",
	}, infra.Statements())

	decl, ok := result.Output.Unit("example.com/app/svc", registration.DeclarationsUnit)
	require.True(t, ok)
	assert.Equal(t, []string{`// DestroyRepoFlush runs destroy method "flush" of component "repo".
func DestroyRepoFlush(bean any) error {
	bean.(*Repo).flush()
	return nil
}`}, decl.Statements())

	assert.Equal(t, []manifest.ResourceEntry{{Pattern: "example.com/app/config/AppConfig.go"}}, result.Manifest.Resources())
	repo, ok := result.Manifest.ReflectionFor(svc + "Repo")
	require.True(t, ok)
	assert.Equal(t, []manifest.Member{{Name: "Cleanup", Exported: true}, {Name: "Close", Exported: true}, {Name: "flush"}}, repo.Methods)
}

func TestSourcePattern(t *testing.T) {
	assert.Equal(t, "example.com/app/config/AppConfig.go", sourcePattern("example.com/app/config.AppConfig"))
	assert.Equal(t, "Local.go", sourcePattern("Local"))
	assert.Equal(t, "", sourcePattern(""))
}

func TestCompile_EventListeners(t *testing.T) {
	src := container.NewSnapshot(testTypes()).MustRegister(&models.ComponentDefinition{
		Name:          "orders",
		Type:          svc + "Orders",
		Instantiation: models.Instantiation{Kind: models.InstantiateStruct},
	})

	result := compile(t, Options{}, src)
	assert.Equal(t, []string{InfrastructureUnit, "registerComponents0", EventListenersUnit}, unitNames(result.Output))

	listeners, ok := result.Output.Unit(ns, EventListenersUnit)
	require.True(t, ok)
	assert.Equal(t, []string{
		`ctx.AddEventListener("orders", "OnCreated", func(event any) {
	ctx.Bean("orders").(*svc.Orders).OnCreated(event.(svc.Created))
})`,
		`ctx.AddEventListener("orders", "audit", nil)`,
	}, listeners.Statements())

	orders, ok := result.Manifest.ReflectionFor(svc + "Orders")
	require.True(t, ok)
	assert.Equal(t, []manifest.Member{
		{Name: "OnCreated", Params: []string{svc + "Created"}, Exported: true},
		{Name: "audit", Params: []string{"any"}},
	}, orders.Methods)
}

func TestCompile_ValueTypedComponents(t *testing.T) {
	entry := models.NewMemberRef(models.MemberMethod, svc+"Ledger", "Entry")
	src := container.NewSnapshot(testTypes()).MustRegister(
		&models.ComponentDefinition{Name: "ledger", Type: svc + "Ledger", DestroyMethods: []string{"Release"}},
		&models.ComponentDefinition{
			Name: "entry",
			Type: svc + "Plain",
			Instantiation: models.Instantiation{
				Kind:             models.InstantiateFactory,
				Member:           &entry,
				FactoryComponent: "ledger",
			},
		},
	)

	result := compile(t, Options{}, src)
	require.NoError(t, result.Err())

	tests := []struct {
		name     string
		unit     string
		expected string
	}{
		{
			name:     "registration declares the value type",
			unit:     "registerComponents0",
			expected: "}, aot.WithType[svc.Ledger]())",
		},
		{
			name:     "factory method called on the value",
			unit:     "registerComponents0",
			expected: `return ctx.Bean("ledger").(svc.Ledger).Entry(), nil`,
		},
		{
			name:     "factory method result declared",
			unit:     "registerComponents0",
			expected: "}, aot.WithType[*svc.Plain]())",
		},
		{
			name:     "listener called on the value",
			unit:     EventListenersUnit,
			expected: `ctx.Bean("ledger").(svc.Ledger).OnCreated(event.(svc.Created))`,
		},
		{
			name: "destroy method called on the value",
			unit: InfrastructureUnit,
			expected: `ctx.RegisterDestroyMethod("ledger", "Release", func(bean any) error {
	_, err := bean.(svc.Ledger).Release()
	return err
})`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, ok := result.Output.Unit(ns, tt.unit)
			require.True(t, ok)
			assert.Contains(t, strings.Join(unit.Statements(), "\n"), tt.expected)
		})
	}
}

func TestCompile_NoListenersNoUnit(t *testing.T) {
	result := compile(t, Options{}, endToEndSnapshot())
	_, ok := result.Output.Unit(ns, EventListenersUnit)
	assert.False(t, ok)
}

func TestCompile_ProxyShapes(t *testing.T) {
	src := container.NewSnapshot(testTypes()).MustRegister(&models.ComponentDefinition{
		Name:          "tx",
		Type:          svc + "Tx",
		Instantiation: models.Instantiation{Kind: models.InstantiateStruct},
	})

	first := compile(t, Options{}, src).Manifest.Proxies()
	second := compile(t, Options{Parallelism: 4}, src).Manifest.Proxies()

	assert.Equal(t, []manifest.ProxyEntry{{
		ProxyKind:  manifest.ClassProxy,
		TargetType: svc + "Tx",
		Features:   manifest.FeatureStatic,
	}}, first)
	assert.Equal(t, first, second)
}

func failingSnapshot() *container.Snapshot {
	return container.NewSnapshot(testTypes()).MustRegister(
		&models.ComponentDefinition{Name: "a", Type: svc + "TypeX", Args: []models.Value{models.Literal("x")}},
		&models.ComponentDefinition{
			Name: "opaque", Type: svc + "Plain",
			Instantiation: models.Instantiation{Kind: models.InstantiateSupplier},
		},
		&models.ComponentDefinition{
			Name: "broken", Type: svc + "Plain",
			Instantiation: models.Instantiation{Kind: models.InstantiateStruct},
			Properties:    []models.PropertyValue{{Name: "missing", Value: models.Literal(1)}},
		},
		&models.ComponentDefinition{Name: "plain", Type: svc + "Plain", Instantiation: models.Instantiation{Kind: models.InstantiateStruct}},
	)
}

func TestCompile_FailuresAreAggregated(t *testing.T) {
	result := compile(t, Options{}, failingSnapshot())

	require.Len(t, result.Failures, 2)
	assert.Equal(t, "opaque", result.Failures[0].Component)
	assert.True(t, errors.IsCode(result.Failures[0], errors.UnsupportedComponentErrorCode))
	assert.Equal(t, "broken", result.Failures[1].Component)
	assert.True(t, errors.IsCode(result.Failures[1], errors.EmissionErrorCode))
	assert.Contains(t, result.Failures[1].Error(), "property 'missing' has no setter or field")

	assert.Len(t, result.Descriptors, 2)
	assert.Len(t, registrations(result.Output), 2)
	assert.Equal(t, Summary{Total: 4, Processed: 2, Failed: 2, Units: 2}, result.Summary)

	err := result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple errors (2 total)")
}

func TestCompile_FailFast(t *testing.T) {
	result, err := New(Options{Namespace: ns, FailFast: true}).Compile(context.Background(), failingSnapshot())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsCode(err, errors.UnsupportedComponentErrorCode))
	assert.Contains(t, err.Error(), "opaque")
}

type unreadable struct {
	*container.Snapshot
}

func (unreadable) Definition(name string) (*models.ComponentDefinition, error) {
	return nil, fmt.Errorf("definition %s is gone", name)
}

func TestCompile_StructuralFailureAborts(t *testing.T) {
	result, err := New(Options{}).Compile(context.Background(), unreadable{endToEndSnapshot()})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsCode(err, errors.StructuralErrorCode))
	assert.Contains(t, err.Error(), "read definition 'a'")

	_, err = New(Options{}).Compile(context.Background(), nil)
	assert.Error(t, err)
}

func TestCompile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Compile(ctx, endToEndSnapshot())
	assert.ErrorIs(t, err, context.Canceled)
}

type brokenContributor struct{}

func (brokenContributor) Name() string { return "broken" }

func (brokenContributor) ContributeDescriptor(*models.ComponentDescriptor, *contrib.Env, *manifest.Registry) error {
	return fmt.Errorf("cannot contribute")
}

type cancellingContributor struct {
	cancel context.CancelFunc
}

func (cancellingContributor) Name() string { return "cancelling" }

func (c cancellingContributor) ContributeDescriptor(*models.ComponentDescriptor, *contrib.Env, *manifest.Registry) error {
	c.cancel()
	return nil
}

func TestCompile_CancelledDuringContribution(t *testing.T) {
	tests := []struct {
		name        string
		parallelism int
	}{
		{name: "sequential", parallelism: 1},
		{name: "parallel", parallelism: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			result, err := New(Options{
				Namespace:              ns,
				Parallelism:            tt.parallelism,
				DescriptorContributors: []contrib.DescriptorContributor{cancellingContributor{cancel: cancel}},
			}).Compile(ctx, plainSnapshot(8))
			require.Error(t, err)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, result)
		})
	}
}

func TestCompile_ContributionFailuresDoNotFail(t *testing.T) {
	result := compile(t, Options{
		DescriptorContributors: []contrib.DescriptorContributor{brokenContributor{}, contrib.DescriptorReflection{}},
	}, endToEndSnapshot())

	require.NoError(t, result.Err())
	assert.Len(t, result.ContributionFailures, 2)
	assert.Equal(t, 2, result.Summary.ContributionFailures)
	assert.Equal(t, 2, result.Manifest.Stats().Reflection)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, DefaultNamespace, c.opts.Namespace)
	assert.Equal(t, DefaultBatchSize, c.opts.BatchSize)
	assert.Len(t, c.Suppliers(), len(registration.DefaultSuppliers()))
	assert.Len(t, c.Chain().DescriptorContributors(), len(contrib.DefaultDescriptorContributors()))

	none := New(Options{Emitters: []GraphEmitter{}, ContainerContributors: []contrib.ContainerContributor{}})
	assert.Empty(t, none.emitters)
	assert.Empty(t, none.Chain().ContainerContributors())
}
