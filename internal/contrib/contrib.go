// Package contrib derives manifest entries from compiled descriptors and from
// the container as a whole. Contributors never abort compilation: a failing
// contributor is logged and recorded, and the chain moves on.
package contrib

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/axon-aot/internal/container"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
	"github.com/toyz/axon-aot/internal/utils"
)

// DescriptorContributor inspects one descriptor
type DescriptorContributor interface {
	Name() string
	ContributeDescriptor(d *models.ComponentDescriptor, env *Env, reg *manifest.Registry) error
}

// ContainerContributor inspects every component of the container
type ContainerContributor interface {
	Name() string
	ContributeContainer(env *Env, reg *manifest.Registry) error
}

// Component is one named definition with its user type resolved
type Component struct {
	Name       string
	Definition *models.ComponentDefinition
	UserType   string
}

// Env is the read-only view contributors work against. Hierarchy walks are
// memoized since several contributors walk the same types.
type Env struct {
	Container container.Container
	Types     models.TypeResolver

	hierarchy *utils.Cache[string, []*models.TypeInfo]
	once      sync.Once
	comps     []Component
	compsErr  error
}

// NewEnv creates an environment over a container
func NewEnv(c container.Container) *Env {
	env := &Env{
		Container: c,
		hierarchy: utils.NewCache[string, []*models.TypeInfo](),
	}
	if c != nil {
		env.Types = c.Types()
	}
	return env
}

// Hierarchy returns typeName and every supertype reachable from it, bounded
// by the default depth
func (e *Env) Hierarchy(typeName string) []*models.TypeInfo {
	typeName = models.BaseTypeName(typeName)
	return e.hierarchy.GetOrCompute(typeName, func() []*models.TypeInfo {
		return models.Hierarchy(e.Types, typeName, models.DefaultHierarchyDepth)
	})
}

// UserType unwraps generated wrapper types
func (e *Env) UserType(typeName string) string {
	return models.BaseTypeName(models.UserType(e.Types, typeName))
}

// Components lists the container's components in definition order
func (e *Env) Components() ([]Component, error) {
	e.once.Do(func() {
		if e.Container == nil {
			return
		}
		names, err := e.Container.Names()
		if err != nil {
			e.compsErr = err
			return
		}
		for _, name := range names {
			def, err := e.Container.Definition(name)
			if err != nil {
				e.compsErr = err
				return
			}
			e.comps = append(e.comps, Component{Name: name, Definition: def, UserType: e.UserType(def.Type)})
		}
	})
	return e.comps, e.compsErr
}

// Chain runs container contributors, then descriptor contributors
type Chain struct {
	descriptors []DescriptorContributor
	containers  []ContainerContributor
	logger      *zap.Logger
	parallelism int
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithLogger sets the logger failures are reported to
func WithLogger(logger *zap.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithParallelism processes up to n descriptors at once. Values below 2 keep
// processing sequential.
func WithParallelism(n int) ChainOption {
	return func(c *Chain) {
		c.parallelism = n
	}
}

// NewChain creates a chain. Contributors run in the given order.
func NewChain(descriptors []DescriptorContributor, containers []ContainerContributor, opts ...ChainOption) *Chain {
	c := &Chain{
		descriptors: append([]DescriptorContributor(nil), descriptors...),
		containers:  append([]ContainerContributor(nil), containers...),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DescriptorContributors returns the descriptor chain in order
func (c *Chain) DescriptorContributors() []DescriptorContributor {
	return append([]DescriptorContributor(nil), c.descriptors...)
}

// ContainerContributors returns the container chain in order
func (c *Chain) ContainerContributors() []ContainerContributor {
	return append([]ContainerContributor(nil), c.containers...)
}

// Contribute runs both chains and returns every recorded failure: container
// failures first, then descriptor failures in descriptor order. The result is
// the same whether descriptors are processed in parallel or not. In parallel
// mode a cancelled ctx stops further descriptors from being scheduled; callers
// check ctx.Err() afterwards.
func (c *Chain) Contribute(ctx context.Context, env *Env, descriptors []*models.ComponentDescriptor, reg *manifest.Registry) []*errors.ContributionError {
	var failures []*errors.ContributionError
	for _, contributor := range c.containers {
		if err := c.runContainer(contributor, env, reg); err != nil {
			failures = append(failures, err)
		}
	}

	perDescriptor := make([][]*errors.ContributionError, len(descriptors))
	process := func(i int) {
		for _, contributor := range c.descriptors {
			if err := c.runDescriptor(contributor, descriptors[i], env, reg); err != nil {
				perDescriptor[i] = append(perDescriptor[i], err)
			}
		}
	}

	if c.parallelism < 2 || len(descriptors) < 2 {
		for i := range descriptors {
			process(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.parallelism)
		for i := range descriptors {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				process(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, errs := range perDescriptor {
		failures = append(failures, errs...)
	}
	return failures
}

func (c *Chain) runContainer(contributor ContainerContributor, env *Env, reg *manifest.Registry) (failure *errors.ContributionError) {
	defer func() {
		if r := recover(); r != nil {
			failure = c.fail(contributor.Name(), "", errors.FromPanic(r))
		}
	}()
	if err := contributor.ContributeContainer(env, reg); err != nil {
		return c.fail(contributor.Name(), "", err)
	}
	return nil
}

func (c *Chain) runDescriptor(contributor DescriptorContributor, d *models.ComponentDescriptor, env *Env, reg *manifest.Registry) (failure *errors.ContributionError) {
	defer func() {
		if r := recover(); r != nil {
			failure = c.fail(contributor.Name(), d.String(), errors.FromPanic(r))
		}
	}()
	if d == nil {
		return c.fail(contributor.Name(), "", fmt.Errorf("nil descriptor"))
	}
	if err := contributor.ContributeDescriptor(d, env, reg); err != nil {
		return c.fail(contributor.Name(), d.String(), err)
	}
	return nil
}

func (c *Chain) fail(contributor, target string, err error) *errors.ContributionError {
	c.logger.Warn("manifest contributor failed",
		zap.String("contributor", contributor),
		zap.String("descriptor", target),
		zap.Error(err))
	return errors.WrapContributionError(contributor, target, err)
}

// DefaultDescriptorContributors returns the built-in descriptor chain
func DefaultDescriptorContributors() []DescriptorContributor {
	return []DescriptorContributor{
		DescriptorReflection{},
		NestedDescriptors{},
		InitCallbacks{},
		MarkerHierarchy{},
		ConfigurationProperties{},
	}
}

// DefaultContainerContributors returns the built-in container chain
func DefaultContainerContributors() []ContainerContributor {
	return []ContainerContributor{
		TransactionalProxies{},
		SynthesizedAnnotations{},
		WebHandlers{},
		SerializableTypes{},
		InitializationTiming{},
		ResourcePatterns{},
	}
}

// NewDefaultChain creates a chain of the built-in contributors
func NewDefaultChain(opts ...ChainOption) *Chain {
	return NewChain(DefaultDescriptorContributors(), DefaultContainerContributors(), opts...)
}
