package aot

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Context holds the registered factories and the instances built from them.
// Registration and Refresh are expected to run on one goroutine; a Context is
// not safe for concurrent use.
type Context struct {
	config *viper.Viper
	logger *zap.Logger

	order      []*registration
	byName     map[string]*registration
	singletons map[string]any
	creating   map[string]bool
	created    []string

	listeners         []listener
	origins           []ImportOrigin
	destroy           map[string][]destroyer
	registrationOrder bool
}

type destroyer struct {
	method string
	fn     func(bean any) error
}

type listener struct {
	component string
	method    string
	fn        func(event any)
}

// ContextOption configures a Context
type ContextOption func(*Context)

// WithConfig sets the configuration configuration-properties components bind from
func WithConfig(v *viper.Viper) ContextOption {
	return func(c *Context) {
		c.config = v
	}
}

// WithLogger sets the runtime logger
func WithLogger(logger *zap.Logger) ContextOption {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContext creates an empty context
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		logger:     zap.NewNop(),
		byName:     make(map[string]*registration),
		singletons: make(map[string]any),
		creating:   make(map[string]bool),
		destroy:    make(map[string][]destroyer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a component. Registering a name twice replaces the factory
// but keeps the original position.
func (c *Context) Register(name, typeName string, factory Factory, opts ...Option) {
	r := &registration{name: name, typeName: typeName, factory: factory}
	for _, opt := range opts {
		opt(r)
	}
	if existing, ok := c.byName[name]; ok {
		*existing = *r
		return
	}
	c.byName[name] = r
	c.order = append(c.order, r)
}

// RegisterInternal adds a service the runtime provides itself
func (c *Context) RegisterInternal(name, kind string) {
	opts := []Option{WithRole(RoleInfrastructure)}
	switch kind {
	case InternalContext, InternalPublisher:
		opts = append(opts, WithType[*Context]())
	case InternalEnvironment:
		opts = append(opts, WithType[*viper.Viper]())
	}
	c.Register(name, kind, func(ctx *Context) (any, error) {
		switch kind {
		case InternalContext, InternalPublisher:
			return ctx, nil
		case InternalEnvironment:
			if ctx.config == nil {
				return viper.New(), nil
			}
			return ctx.config, nil
		default:
			return nil, fmt.Errorf("unknown internal service kind %q", kind)
		}
	}, opts...)
	c.byName[name].internal = kind
}

// Bean returns the named component, creating it if needed. Failures panic
// with a *BeanError; Refresh and Get turn them back into errors.
func (c *Context) Bean(name string) any {
	r, ok := c.byName[name]
	if !ok {
		panic(newBeanError(name, "not registered", nil))
	}
	if r.singleton() {
		if v, ok := c.singletons[name]; ok {
			return v
		}
	}
	if c.creating[name] {
		panic(newBeanError(name, "is currently in creation; the dependency graph has a cycle", nil))
	}

	c.creating[name] = true
	defer delete(c.creating, name)

	v, err := r.factory(c)
	if err != nil {
		var beanErr *BeanError
		if errors.As(err, &beanErr) && beanErr.Name == name {
			panic(beanErr)
		}
		panic(newBeanError(name, "creation failed", err))
	}
	if r.singleton() {
		c.singletons[name] = v
		c.created = append(c.created, name)
	}
	c.logger.Debug("component created", zap.String("component", name), zap.String("type", r.typeName))
	return v
}

// Get returns the named component as T
func Get[T any](c *Context, name string) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	v := c.Bean(name)
	typed, ok := v.(T)
	if !ok {
		return value, newBeanError(name, fmt.Sprintf("is %T, not %T", v, value), nil)
	}
	return typed, nil
}

// BeanOf returns the single component assignable to T. Candidates are
// matched on the type declared with WithType, so only the chosen one is
// created; a registration without a declared type matches once its singleton
// exists. A primary candidate wins; otherwise more than one candidate is an
// error unless registration order is in use, in which case the first
// registered wins.
func BeanOf[T any](c *Context) T {
	var matches []*registration
	for _, r := range c.order {
		if c.creating[r.name] {
			continue
		}
		if produces[T](c, r) {
			matches = append(matches, r)
		}
	}

	var zero T
	want := fmt.Sprintf("%T", &zero)[1:]
	var chosen *registration
	switch {
	case len(matches) == 0:
		panic(newBeanError(want, "no component of this type is registered", nil))
	case len(matches) == 1:
		chosen = matches[0]
	default:
		for _, r := range matches {
			if r.primary {
				chosen = r
				break
			}
		}
		if chosen == nil && c.registrationOrder {
			chosen = matches[0]
		}
		if chosen == nil {
			panic(newBeanError(want, fmt.Sprintf("%d components match and none is primary", len(matches)), nil))
		}
	}

	v := c.Bean(chosen.name)
	typed, ok := v.(T)
	if !ok {
		panic(newBeanError(chosen.name, fmt.Sprintf("is %T, not %s", v, want), nil))
	}
	return typed
}

// produces reports whether r yields a T, without creating it
func produces[T any](c *Context, r *registration) bool {
	if r.typed {
		if _, same := r.ptr.(*T); same {
			return true
		}
		if _, anything := any((*T)(nil)).(*any); anything {
			return true
		}
		if r.zero != nil {
			_, ok := r.zero.(T)
			return ok
		}
	}
	v, ok := c.singletons[r.name]
	if !ok {
		return false
	}
	_, ok = v.(T)
	return ok
}

// Inner builds an unnamed component
func (c *Context) Inner(factory Factory) any {
	v, err := factory(c)
	if err != nil {
		panic(newBeanError("(inner)", "creation failed", err))
	}
	return v
}

// Bind fills target from the configuration under prefix. Without a
// configuration Bind leaves target untouched.
func (c *Context) Bind(target any, prefix string) error {
	if c.config == nil {
		return nil
	}
	if prefix == "" {
		return c.config.Unmarshal(target)
	}
	if !c.config.IsSet(prefix) {
		return nil
	}
	return c.config.UnmarshalKey(prefix, target)
}

// AddEventListener registers a listener method. fn is nil when the method
// cannot be called directly; it is then recorded but never invoked.
func (c *Context) AddEventListener(component, method string, fn func(event any)) {
	c.listeners = append(c.listeners, listener{component: component, method: method, fn: fn})
}

// Publish delivers event to every listener in registration order
func (c *Context) Publish(event any) error {
	for _, l := range c.listeners {
		if l.fn == nil {
			continue
		}
		if err := c.deliver(l, event); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) deliver(l listener, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener %s.%s: %w", l.component, l.method, recovered(r))
		}
	}()
	l.fn(event)
	return nil
}

// Listeners returns the registered listeners as component.method pairs
func (c *Context) Listeners() []string {
	out := make([]string, 0, len(c.listeners))
	for _, l := range c.listeners {
		out = append(out, l.component+"."+l.method)
	}
	return out
}

// RegisterImportOrigin records an import relationship of the source container
func (c *Context) RegisterImportOrigin(importing, imported string) {
	c.origins = append(c.origins, ImportOrigin{Importing: importing, Imported: imported})
}

// ImportOrigins returns the recorded import relationships
func (c *Context) ImportOrigins() []ImportOrigin {
	return append([]ImportOrigin(nil), c.origins...)
}

// RegisterDestroyMethod records a method Close calls on a component. fn
// receives the component instance.
func (c *Context) RegisterDestroyMethod(name, method string, fn func(bean any) error) {
	c.destroy[name] = append(c.destroy[name], destroyer{method: method, fn: fn})
}

// UseRegistrationOrder resolves ambiguous lookups by registration order
func (c *Context) UseRegistrationOrder() {
	c.registrationOrder = true
}

// Refresh creates every non-lazy singleton in registration order.
func (c *Context) Refresh() (err error) {
	var current string
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
			c.logger.Error("refresh failed", zap.String("component", current), zap.Error(err))
		}
	}()
	for _, r := range c.order {
		if !r.singleton() || r.lazy {
			continue
		}
		current = r.name
		c.Bean(r.name)
	}
	return nil
}

// Close runs destroy methods on created singletons in reverse creation order.
func (c *Context) Close() error {
	var errs []error
	for i := len(c.created) - 1; i >= 0; i-- {
		name := c.created[i]
		for _, d := range c.destroy[name] {
			if err := runDestroy(d, c.singletons[name]); err != nil {
				errs = append(errs, fmt.Errorf("destroy %s.%s: %w", name, d.method, err))
			}
		}
	}
	return errors.Join(errs...)
}

func runDestroy(d destroyer, bean any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return d.fn(bean)
}

// Names returns the registered names in order
func (c *Context) Names() []string {
	out := make([]string, 0, len(c.order))
	for _, r := range c.order {
		out = append(out, r.name)
	}
	return out
}

// Registrations describes every registration in order
func (c *Context) Registrations() []Registration {
	out := make([]Registration, 0, len(c.order))
	for _, r := range c.order {
		out = append(out, Registration{
			Name:     r.name,
			Type:     r.typeName,
			Scope:    r.scope,
			Primary:  r.primary,
			Lazy:     r.lazy,
			Role:     r.role,
			Internal: r.internal,
		})
	}
	return out
}
