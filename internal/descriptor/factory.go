// Package descriptor builds ComponentDescriptors from container definitions.
package descriptor

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/models"
)

// Factory describes component definitions. Descriptors live in an arena and
// are keyed by definition identity, so every reference to one definition
// yields the same descriptor, including references reached through a cycle.
type Factory struct {
	types  models.TypeResolver
	logger *zap.Logger

	mu         sync.Mutex
	arena      []*models.ComponentDescriptor
	byDef      map[*models.ComponentDefinition]int
	inProgress map[*models.ComponentDefinition]*models.ComponentDescriptor
}

// Option configures a Factory
type Option func(*Factory)

// WithLogger sets the factory's logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFactory creates a factory resolving members against types.
func NewFactory(types models.TypeResolver, opts ...Option) *Factory {
	if types == nil {
		types = models.NewTypeIndex()
	}
	f := &Factory{
		types:      types,
		logger:     zap.NewNop(),
		byDef:      make(map[*models.ComponentDefinition]int),
		inProgress: make(map[*models.ComponentDefinition]*models.ComponentDescriptor),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Types returns the resolver the factory inspects
func (f *Factory) Types() models.TypeResolver {
	return f.types
}

// Describe returns the descriptor of def. A definition already described, or
// currently being described further up the recursion, is never re-entered:
// the existing descriptor is returned instead.
func (f *Factory) Describe(def *models.ComponentDefinition) (*models.ComponentDescriptor, error) {
	if def == nil {
		return nil, errors.NewValidationError("definition", "nil component definition")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.describe(def)
}

// Arena returns every descriptor built so far in completion order.
func (f *Factory) Arena() []*models.ComponentDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.ComponentDescriptor(nil), f.arena...)
}

func (f *Factory) describe(def *models.ComponentDefinition) (*models.ComponentDescriptor, error) {
	if idx, ok := f.byDef[def]; ok {
		return f.arena[idx], nil
	}
	if d, ok := f.inProgress[def]; ok {
		f.logger.Debug("definition re-entered while being described",
			zap.String("component", def.Name), zap.String("type", def.Type))
		return d, nil
	}

	b := models.NewDescriptorBuilder(def.Name, def.Type)
	f.inProgress[def] = b.Descriptor()
	defer delete(f.inProgress, def)

	if err := f.populate(b, def); err != nil {
		return nil, err
	}

	d := b.Build()
	f.byDef[def] = len(f.arena)
	f.arena = append(f.arena, d)
	return d, nil
}

func (f *Factory) populate(b *models.DescriptorBuilder, def *models.ComponentDefinition) error {
	if user := models.UserType(f.types, def.Type); user != def.Type {
		b.UserType(user)
	}
	typeName := models.BaseTypeName(b.Descriptor().UserType())

	creator, ok, err := f.resolveCreator(def)
	if err != nil {
		return err
	}
	if ok {
		b.InstanceCreator(creator)
	}
	if def.Instantiation.Kind == models.InstantiateFactory {
		b.FactoryComponent(def.Instantiation.FactoryComponent)
	}

	for i, arg := range def.Args {
		src, err := f.source(arg)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		ip := models.InjectionPoint{
			Member:   creator,
			Kind:     models.InjectConstructorArg,
			Index:    i,
			Source:   src,
			Required: arg.Kind != models.ValueNull,
		}
		if i < len(creator.Params) {
			ip.Type = creator.Params[i]
		}
		b.AddInjectionPoint(ip)
	}

	assigned := make(map[string]bool)
	for _, p := range def.Properties {
		pd, err := f.property(typeName, p)
		if err != nil {
			return fmt.Errorf("property '%s': %w", p.Name, err)
		}
		if pd.WriteAccessor != nil {
			assigned[pd.WriteAccessor.Name] = true
		}
		b.AddProperty(pd)
	}

	f.autowired(b, typeName, assigned)
	f.initCallbacks(b, typeName, def.InitMethods)
	return nil
}

// resolveCreator picks the constructor or factory method. Struct literal,
// internal and supplier instantiations have no creator.
func (f *Factory) resolveCreator(def *models.ComponentDefinition) (models.MemberRef, bool, error) {
	inst := def.Instantiation
	switch inst.Kind {
	case models.InstantiateFactory:
		if inst.Member == nil {
			return models.MemberRef{}, false, errors.NewValidationError("instantiation", "factory instantiation needs a factory method")
		}
		if inst.FactoryComponent == "" {
			return models.MemberRef{}, false, errors.NewValidationError("instantiation", "factory instantiation needs a factory component")
		}
		return substitute(f.withResult(*inst.Member), inst.TypeArgs), true, nil
	case models.InstantiateConstructor:
		if inst.Member != nil {
			return substitute(f.withResult(*inst.Member), inst.TypeArgs), true, nil
		}
		ref, err := f.constructorByArity(def)
		if err != nil {
			return models.MemberRef{}, false, err
		}
		return substitute(ref, inst.TypeArgs), true, nil
	default:
		return models.MemberRef{}, false, nil
	}
}

// withResult fills in the result type of an explicitly named creator from the
// type index when the reference does not carry it
func (f *Factory) withResult(ref models.MemberRef) models.MemberRef {
	if ref.Result != "" {
		return ref
	}
	switch ref.Kind {
	case models.MemberConstructor:
		if t, ok := f.types.Lookup(ref.Owner); ok {
			for _, c := range t.Constructors {
				if c.Name == ref.Name && len(c.Params) == len(ref.Params) {
					ref.Result = models.ResultOf(c.Results)
					break
				}
			}
		}
	case models.MemberMethod:
		if _, m, ok := models.FindMethod(f.types, ref.Owner, ref.Name); ok {
			ref.Result = models.ResultOf(m.Results)
		}
	}
	return ref
}

func (f *Factory) constructorByArity(def *models.ComponentDefinition) (models.MemberRef, error) {
	t, ok := f.types.Lookup(def.Type)
	if !ok {
		return models.MemberRef{}, errors.Newf(errors.ValidationErrorCode,
			"cannot resolve a constructor for unknown type '%s'", def.Type).
			WithSuggestion("Add the type and its constructors to the snapshot's type index")
	}

	var matches []models.MethodInfo
	for _, c := range t.Constructors {
		if len(c.Params) == len(def.Args) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 1:
		ref := models.NewMemberRef(models.MemberConstructor, t.Name, matches[0].Name, matches[0].Params...)
		ref.ReturnsError = matches[0].ReturnsError()
		ref.Result = models.ResultOf(matches[0].Results)
		return ref, nil
	case 0:
		return models.MemberRef{}, errors.Newf(errors.ValidationErrorCode,
			"type '%s' has no constructor taking %d argument(s)", t.Name, len(def.Args))
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Name)
		}
		return models.MemberRef{}, errors.Newf(errors.ValidationErrorCode,
			"type '%s' has ambiguous constructors for %d argument(s): %s", t.Name, len(def.Args), strings.Join(names, ", ")).
			WithSuggestion("Name the constructor explicitly in the definition")
	}
}

func (f *Factory) source(v models.Value) (models.ValueSource, error) {
	switch v.Kind {
	case models.ValueNull:
		return models.ValueSource{Kind: models.SourceNull}, nil
	case models.ValueLiteral:
		return models.ValueSource{Kind: models.SourceLiteral, Literal: v.Literal}, nil
	case models.ValueRef:
		return models.ValueSource{Kind: models.SourceReference, Ref: v.Ref}, nil
	case models.ValueInner:
		if v.Inner == nil {
			return models.ValueSource{}, errors.NewValidationError("value", "inner value without a definition")
		}
		inner, err := f.describe(v.Inner)
		if err != nil {
			return models.ValueSource{}, fmt.Errorf("inner %s: %w", v.Inner.Type, err)
		}
		return models.ValueSource{Kind: models.SourceInner, Inner: inner, Type: v.Inner.Type}, nil
	case models.ValueList:
		out := models.ValueSource{Kind: models.SourceList}
		for i, item := range v.Items {
			src, err := f.source(item)
			if err != nil {
				return models.ValueSource{}, fmt.Errorf("item %d: %w", i, err)
			}
			out.Items = append(out.Items, src)
		}
		return out, nil
	case models.ValueMap:
		out := models.ValueSource{Kind: models.SourceMap}
		for _, e := range v.Entries {
			src, err := f.source(e.Value)
			if err != nil {
				return models.ValueSource{}, fmt.Errorf("key %s: %w", e.Key, err)
			}
			out.Keys = append(out.Keys, e.Key)
			out.Items = append(out.Items, src)
		}
		return out, nil
	default:
		return models.ValueSource{}, fmt.Errorf("unknown value kind %s", v.Kind)
	}
}

// property resolves the write accessor: a Set<Name> setter, else a field
// named like the property. Properties without either are kept without an
// accessor.
func (f *Factory) property(typeName string, p models.PropertyValue) (models.PropertyDescriptor, error) {
	src, err := f.source(p.Value)
	if err != nil {
		return models.PropertyDescriptor{}, err
	}
	pd := models.PropertyDescriptor{Name: p.Name, Value: src}

	exported := capitalize(p.Name)
	if owner, m, ok := models.FindMethod(f.types, typeName, "Set"+exported); ok && len(m.Params) == 1 {
		ref := models.NewMemberRef(models.MemberMethod, owner.Name, m.Name, m.Params...)
		ref.ReturnsError = m.ReturnsError()
		pd.WriteAccessor = &ref
		pd.Type = m.Params[0]
		return pd, nil
	}
	for _, name := range []string{p.Name, exported} {
		if owner, field, ok := models.FindField(f.types, typeName, name); ok {
			ref := models.NewMemberRef(models.MemberField, owner.Name, field.Name)
			pd.WriteAccessor = &ref
			pd.Type = field.Type
			return pd, nil
		}
	}
	f.logger.Debug("no write accessor for property",
		zap.String("type", typeName), zap.String("property", p.Name))
	return pd, nil
}

// autowired adds injection points for inject-marked fields and setters,
// including promoted ones. Members already written by a property are skipped.
func (f *Factory) autowired(b *models.DescriptorBuilder, typeName string, assigned map[string]bool) {
	seen := make(map[string]bool)
	for _, t := range models.Promoted(f.types, typeName) {
		for _, field := range t.Fields {
			if seen[field.Name] {
				continue
			}
			seen[field.Name] = true
			if !field.HasMarker(models.MarkerInject) || assigned[field.Name] {
				continue
			}
			b.AddInjectionPoint(models.InjectionPoint{
				Member:   models.NewMemberRef(models.MemberField, t.Name, field.Name),
				Kind:     models.InjectField,
				Index:    -1,
				Type:     field.Type,
				Source:   models.ValueSource{Kind: models.SourceAutowired, Type: field.Type},
				Required: true,
			})
		}
		for _, m := range t.Methods {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			if !m.HasMarker(models.MarkerInject) || len(m.Params) != 1 || assigned[m.Name] {
				continue
			}
			ref := models.NewMemberRef(models.MemberMethod, t.Name, m.Name, m.Params...)
			ref.ReturnsError = m.ReturnsError()
			b.AddInjectionPoint(models.InjectionPoint{
				Member:   ref,
				Kind:     models.InjectSetter,
				Index:    -1,
				Type:     m.Params[0],
				Source:   models.ValueSource{Kind: models.SourceAutowired, Type: m.Params[0]},
				Required: true,
			})
		}
	}
}

// initCallbacks records the definition's init methods followed by init-marked
// methods. Unexported callbacks are kept; the manifest grants them access.
func (f *Factory) initCallbacks(b *models.DescriptorBuilder, typeName string, names []string) {
	seen := make(map[string]bool)
	add := func(ref models.MemberRef) {
		if seen[ref.Name] {
			return
		}
		seen[ref.Name] = true
		b.AddInitCallback(ref)
	}

	for _, name := range names {
		if owner, m, ok := models.FindMethod(f.types, typeName, name); ok {
			ref := models.NewMemberRef(models.MemberMethod, owner.Name, m.Name, m.Params...)
			ref.ReturnsError = m.ReturnsError()
			add(ref)
			continue
		}
		add(models.NewMemberRef(models.MemberMethod, typeName, name))
	}

	for _, t := range models.Promoted(f.types, typeName) {
		for _, m := range t.Methods {
			if !m.HasMarker(models.MarkerInit) {
				continue
			}
			ref := models.NewMemberRef(models.MemberMethod, t.Name, m.Name, m.Params...)
			ref.ReturnsError = m.ReturnsError()
			add(ref)
		}
	}
}

// substitute replaces generic parameters in a member's parameters and result.
func substitute(ref models.MemberRef, typeArgs map[string]string) models.MemberRef {
	if len(typeArgs) == 0 {
		return ref
	}
	params := make([]string, len(ref.Params))
	for i, p := range ref.Params {
		params[i] = substituteType(p, typeArgs)
	}
	ref.Params = params
	if ref.Result != "" {
		ref.Result = substituteType(ref.Result, typeArgs)
	}
	return ref
}

func substituteType(expr string, typeArgs map[string]string) string {
	prefix := ""
	rest := expr
	for {
		switch {
		case strings.HasPrefix(rest, "*"):
			prefix += "*"
			rest = rest[1:]
			continue
		case strings.HasPrefix(rest, "[]"):
			prefix += "[]"
			rest = rest[2:]
			continue
		}
		break
	}
	if concrete, ok := typeArgs[rest]; ok {
		return prefix + concrete
	}
	return expr
}

func capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
