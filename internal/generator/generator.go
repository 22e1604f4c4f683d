// Package generator compiles a container snapshot into registration code and
// the manifest of capabilities that code still needs at run time.
package generator

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/container"
	"github.com/toyz/axon-aot/internal/contrib"
	"github.com/toyz/axon-aot/internal/descriptor"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
	"github.com/toyz/axon-aot/internal/registration"
)

const (
	// DefaultBatchSize is the number of components written per batch unit
	DefaultBatchSize = 1000

	// DefaultNamespace is used when no output package is configured
	DefaultNamespace = "aot"

	batchUnitPrefix = "registerComponents"
)

// Options configures a Compiler. Nil slices select the built-in defaults;
// empty non-nil slices disable a stage.
type Options struct {
	// Namespace is the import path of the package the main units render into
	Namespace string
	// BatchSize bounds the registrations per batch unit. Non-positive values
	// select DefaultBatchSize.
	BatchSize int
	// FailFast aborts on the first component that cannot be compiled
	FailFast bool
	// Parallelism is passed to the descriptor contributor chain
	Parallelism int
	Logger      *zap.Logger

	Exclusions             []ExclusionRule
	Suppliers              []registration.Supplier
	Emitters               []GraphEmitter
	DescriptorContributors []contrib.DescriptorContributor
	ContainerContributors  []contrib.ContainerContributor
}

// Compiler turns container snapshots into code units and manifests. A
// Compiler holds no per-run state and may be reused.
type Compiler struct {
	opts      Options
	logger    *zap.Logger
	suppliers *registration.Chain
	chain     *contrib.Chain
	emitters  []GraphEmitter
}

// New creates a compiler
func New(opts Options) *Compiler {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	suppliers := opts.Suppliers
	if suppliers == nil {
		suppliers = registration.DefaultSuppliers()
	}
	emitters := opts.Emitters
	if emitters == nil {
		emitters = DefaultEmitters()
	}
	descriptors := opts.DescriptorContributors
	if descriptors == nil {
		descriptors = contrib.DefaultDescriptorContributors()
	}
	containers := opts.ContainerContributors
	if containers == nil {
		containers = contrib.DefaultContainerContributors()
	}

	chain := contrib.NewChain(descriptors, containers,
		contrib.WithLogger(logger),
		contrib.WithParallelism(opts.Parallelism))

	return &Compiler{
		opts:      opts,
		logger:    logger,
		suppliers: registration.NewChain(suppliers...),
		chain:     chain,
		emitters:  append([]GraphEmitter(nil), emitters...),
	}
}

type namedDefinition struct {
	name string
	def  *models.ComponentDefinition
}

// Compile compiles every component of src. Failing to read the snapshot
// aborts with a structural error and no result. Components that cannot be
// compiled are recorded in the result, unless FailFast is set.
func (c *Compiler) Compile(ctx context.Context, src container.Container) (*Result, error) {
	if src == nil {
		return nil, errors.NewValidationError("container", "container cannot be nil")
	}
	runID := uuid.New()
	logger := c.logger.With(zap.String("run", runID.String()))

	defs, err := readDefinitions(src)
	if err != nil {
		return nil, err
	}

	types := src.Types()
	env := registration.NewEnv(types, descriptor.NewFactory(types, descriptor.WithLogger(logger)))
	byName := make(map[string]*models.ComponentDefinition, len(defs))
	for _, nd := range defs {
		byName[nd.name] = nd.def
	}
	env.Definitions = func(name string) (*models.ComponentDefinition, bool) {
		def, ok := byName[name]
		return def, ok
	}
	out := codegen.NewContext(c.opts.Namespace)
	reg := manifest.NewRegistry()
	result := &Result{
		RunID:    runID,
		Output:   out,
		Manifest: reg,
		Summary:  Summary{Total: len(defs)},
	}

	excluded := make(map[string]bool)
	var included []namedDefinition
	for _, nd := range defs {
		if c.excluded(nd) {
			excluded[nd.name] = true
			continue
		}
		included = append(included, nd)
	}

	infra, err := out.NewUnit(InfrastructureUnit, codegen.UnitFunction)
	if err != nil {
		return nil, errors.WrapGenerateError("infrastructure unit", err)
	}
	if err := writeInfrastructure(out, infra, src, included, env, reg); err != nil {
		return nil, errors.WrapGenerateError("infrastructure unit", err)
	}

	var unit *codegen.Unit
	for i, nd := range defs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i%c.opts.BatchSize == 0 {
			unit, err = out.NewUnit(fmt.Sprintf("%s%d", batchUnitPrefix, i/c.opts.BatchSize), codegen.UnitFunction)
			if err != nil {
				return nil, errors.WrapGenerateError("batch unit", err)
			}
		}
		if excluded[nd.name] {
			result.Summary.Excluded++
			logger.Debug("component excluded", zap.String("component", nd.name))
			continue
		}

		d, failure := c.compileOne(env, out, unit, nd)
		if failure != nil {
			logger.Error("component could not be compiled",
				zap.String("component", nd.name),
				zap.String("type", nd.def.Type),
				zap.Error(failure))
			if c.opts.FailFast {
				return nil, failure
			}
			result.Failures = append(result.Failures, failure)
			continue
		}
		result.Descriptors = append(result.Descriptors, d)
	}

	emitEnv := &EmitEnv{Types: types, Output: out, Manifest: reg}
	for _, e := range c.emitters {
		if err := e.Emit(emitEnv, result.Descriptors); err != nil {
			return nil, errors.WrapGenerateError(fmt.Sprintf("graph emitter '%s'", e.Name()), err)
		}
	}

	result.ContributionFailures = c.chain.Contribute(ctx, contrib.NewEnv(src), result.Descriptors, reg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Summary.Processed = len(result.Descriptors)
	result.Summary.Failed = len(result.Failures)
	result.Summary.Units = len(out.Units())
	result.Summary.ContributionFailures = len(result.ContributionFailures)

	stats := reg.Stats()
	logger.Info("compilation finished",
		zap.Int("components", result.Summary.Total),
		zap.Int("processed", result.Summary.Processed),
		zap.Int("excluded", result.Summary.Excluded),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("units", result.Summary.Units),
		zap.Int("manifest_entries", stats.Total()))
	return result, nil
}

// readDefinitions fetches every definition up front so a malformed snapshot
// fails before anything is emitted
func readDefinitions(src container.Container) ([]namedDefinition, error) {
	names, err := src.Names()
	if err != nil {
		return nil, errors.WrapStructuralError("list component names", err)
	}
	defs := make([]namedDefinition, 0, len(names))
	for _, name := range names {
		def, err := src.Definition(name)
		if err != nil {
			return nil, errors.WrapStructuralError(fmt.Sprintf("read definition '%s'", name), err)
		}
		if def == nil {
			return nil, errors.WrapStructuralError(fmt.Sprintf("read definition '%s'", name),
				fmt.Errorf("container returned no definition"))
		}
		defs = append(defs, namedDefinition{name: name, def: def})
	}
	return defs, nil
}

func (c *Compiler) excluded(nd namedDefinition) bool {
	for _, rule := range c.opts.Exclusions {
		if rule.Exclude(nd.name, nd.def) {
			return true
		}
	}
	return false
}

// compileOne writes one registration and describes the component
func (c *Compiler) compileOne(env *registration.Env, out *codegen.Context, unit *codegen.Unit, nd namedDefinition) (d *models.ComponentDescriptor, failure *errors.ComponentError) {
	defer func() {
		if r := recover(); r != nil {
			d, failure = nil, errors.WrapEmissionError(nd.name, nd.def.Type, nd.def.String(), errors.FromPanic(r))
		}
	}()

	w, err := c.suppliers.Resolve(env, nd.name, nd.def)
	if err != nil {
		var ce *errors.ComponentError
		if stderrors.As(err, &ce) {
			return nil, ce
		}
		return nil, errors.WrapEmissionError(nd.name, nd.def.Type, nd.def.String(), err)
	}
	if err := w.WriteRegistration(out, unit); err != nil {
		return nil, errors.WrapEmissionError(nd.name, nd.def.Type, nd.def.String(), err)
	}
	d, err = w.Descriptor()
	if err != nil {
		return nil, errors.WrapEmissionError(nd.name, nd.def.Type, nd.def.String(), err)
	}
	return d, nil
}

// Suppliers returns the registration suppliers in consultation order
func (c *Compiler) Suppliers() []registration.Supplier {
	return c.suppliers.Suppliers()
}

// Chain returns the manifest contributor chain
func (c *Compiler) Chain() *contrib.Chain {
	return c.chain
}
