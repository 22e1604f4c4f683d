// Package aot is the runtime the generated registration code calls. It holds
// the factories the compiler emitted and instantiates them in registration
// order, without scanning or reflection.
package aot

// Factory builds one component instance
type Factory func(ctx *Context) (any, error)

// Role mirrors the roles of the source container
type Role int

const (
	RoleApplication Role = iota
	RoleSupport
	RoleInfrastructure
)

// Scopes understood by the runtime. Any other scope behaves like prototype.
const (
	ScopeSingleton = "singleton"
	ScopePrototype = "prototype"
)

// Internal service kinds provided by the runtime itself
const (
	InternalContext     = "context"
	InternalEnvironment = "environment"
	InternalPublisher   = "event-publisher"
)

// Proxy is implemented by every runtime interception proxy
type Proxy interface {
	ProxyTarget() any
}

// Advised is implemented by proxies that carry interceptors
type Advised interface {
	Interceptors() []string
}

// SynthesizedAnnotation is implemented by merged annotation values built at
// run time from aliased attributes.
type SynthesizedAnnotation interface {
	AnnotationType() string
	Attribute(name string) (any, bool)
}

// Option configures a registration
type Option func(*registration)

// WithScope sets the component scope
func WithScope(scope string) Option {
	return func(r *registration) {
		r.scope = scope
	}
}

// WithPrimary marks the component as the preferred candidate for its type
func WithPrimary() Option {
	return func(r *registration) {
		r.primary = true
	}
}

// WithLazyInit defers creation until first lookup
func WithLazyInit() Option {
	return func(r *registration) {
		r.lazy = true
	}
}

// WithRole sets the component role
func WithRole(role Role) Option {
	return func(r *registration) {
		r.role = role
	}
}

// WithType declares the Go type the factory produces. Type lookups match the
// component against it without creating the instance.
func WithType[P any]() Option {
	return func(r *registration) {
		var zero P
		r.typed = true
		r.zero = zero
		r.ptr = (*P)(nil)
	}
}

type registration struct {
	name     string
	typeName string
	factory  Factory
	scope    string
	primary  bool
	lazy     bool
	role     Role
	internal string

	// typed is set by WithType. zero holds a zero P, nil when P is an
	// interface type, and ptr holds a nil *P.
	typed bool
	zero  any
	ptr   any
}

func (r *registration) singleton() bool {
	return r.scope == "" || r.scope == ScopeSingleton
}

// Registration describes a registered component
type Registration struct {
	Name     string
	Type     string
	Scope    string
	Primary  bool
	Lazy     bool
	Role     Role
	Internal string
}

// ImportOrigin records that Importing pulled Imported into the container
type ImportOrigin struct {
	Importing string
	Imported  string
}
