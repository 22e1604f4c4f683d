package registration

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/models"
)

var roleNames = map[models.Role]string{
	models.RoleSupport:        "RoleSupport",
	models.RoleInfrastructure: "RoleInfrastructure",
}

// emitter renders descriptors as Go source against one import manager.
type emitter struct {
	env     *Env
	types   models.TypeResolver
	imports *codegen.ImportManager
	rt      string
	active  map[*models.ComponentDescriptor]bool
}

func newEmitter(env *Env, imports *codegen.ImportManager) *emitter {
	return &emitter{
		env:     env,
		types:   env.Types,
		imports: imports,
		rt:      imports.AddImport(RuntimePackage),
		active:  make(map[*models.ComponentDescriptor]bool),
	}
}

// register renders the full ctx.Register statement of a component
func (e *emitter) register(name string, def *models.ComponentDefinition, d *models.ComponentDescriptor, bind *string) (string, error) {
	factory, err := e.factory(d, bind)
	if err != nil {
		return "", err
	}

	var opts []string
	if def.Scope != "" && def.Scope != models.ScopeSingleton {
		opts = append(opts, fmt.Sprintf("%s.WithScope(%q)", e.rt, def.Scope))
	}
	if def.Primary {
		opts = append(opts, e.rt+".WithPrimary()")
	}
	if def.Lazy {
		opts = append(opts, e.rt+".WithLazyInit()")
	}
	if role, ok := roleNames[def.Role]; ok {
		opts = append(opts, fmt.Sprintf("%s.WithRole(%s.%s)", e.rt, e.rt, role))
	}
	if produced, ok := models.ProducedType(e.types, d); ok && accessible(produced, e.imports.Package()) {
		opts = append(opts, fmt.Sprintf("%s.WithType[%s]()", e.rt, e.imports.Qualify(produced)))
	}

	suffix := ""
	if len(opts) > 0 {
		suffix = ", " + strings.Join(opts, ", ")
	}
	return fmt.Sprintf("ctx.Register(%q, %q, %s%s)", name, def.Type, factory, suffix), nil
}

// factory renders func(ctx *aot.Context) (any, error) { ... } for d. A
// descriptor that is reached again while its own factory is being rendered
// cannot be expressed as a nested closure.
func (e *emitter) factory(d *models.ComponentDescriptor, bind *string) (string, error) {
	if e.active[d] {
		return "", fmt.Errorf("inner component %s refers back to itself and cannot be rendered as a nested factory", d)
	}
	e.active[d] = true
	defer delete(e.active, d)

	var b codegen.Block
	b.Open("func(ctx *%s.Context) (any, error) {", e.rt)
	if err := e.body(&b, d, bind); err != nil {
		return "", err
	}
	b.Close("}")
	return b.String(), nil
}

func (e *emitter) body(b *codegen.Block, d *models.ComponentDescriptor, bind *string) error {
	create, returnsErr, err := e.creation(d)
	if err != nil {
		return err
	}

	var steps codegen.Block
	if bind != nil {
		steps.Open("if err := ctx.Bind(bean, %q); err != nil {", *bind).Line("return nil, err").Close("}")
	}
	for _, p := range d.Properties() {
		if err := e.property(&steps, d, p); err != nil {
			return err
		}
	}
	for _, ip := range d.InjectionPoints() {
		if ip.Kind == models.InjectConstructorArg {
			continue
		}
		expr, err := e.value(ip.Source, ip.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", ip.Member.Name, err)
		}
		if ip.Kind == models.InjectField {
			steps.Line("bean.%s = %s", ip.Member.Name, expr)
		} else {
			e.call(&steps, ip.Member, expr)
		}
	}
	for _, cb := range d.InitCallbacks() {
		e.call(&steps, cb, "")
	}

	hasSteps := steps.String() != ""
	switch {
	case !hasSteps && !returnsErr:
		b.Line("return %s, nil", create)
		return nil
	case returnsErr:
		b.Line("bean, err := %s", create)
		b.Open("if err != nil {").Line("return nil, err").Close("}")
	default:
		b.Line("bean := %s", create)
	}
	if hasSteps {
		b.Line("%s", steps.String())
	}
	b.Line("return bean, nil")
	return nil
}

// creation renders the expression that builds the instance
func (e *emitter) creation(d *models.ComponentDescriptor) (string, bool, error) {
	var args []string
	for _, ip := range d.InjectionPoints() {
		if ip.Kind != models.InjectConstructorArg {
			continue
		}
		expr, err := e.value(ip.Source, ip.Type)
		if err != nil {
			return "", false, fmt.Errorf("argument %d: %w", ip.Index, err)
		}
		args = append(args, expr)
	}

	creator, ok := d.InstanceCreator()
	if !ok {
		if len(args) > 0 {
			return "", false, fmt.Errorf("struct literal component %s cannot take constructor arguments", d)
		}
		typ := models.BaseTypeName(d.UserType())
		if typ == "" {
			return "", false, fmt.Errorf("component %s has no type to instantiate", d)
		}
		return "&" + e.imports.Qualify(typ) + "{}", false, nil
	}

	joined := strings.Join(args, ", ")
	switch creator.Kind {
	case models.MemberConstructor:
		fn := creator.Name
		if alias := e.imports.AddImport(creator.Package()); alias != "" {
			fn = alias + "." + fn
		}
		return fmt.Sprintf("%s(%s)", fn, joined), creator.ReturnsError, nil
	case models.MemberMethod:
		if d.FactoryComponent() == "" {
			return "", false, fmt.Errorf("factory method %s has no factory component", creator)
		}
		return fmt.Sprintf("ctx.Bean(%q).(%s).%s(%s)", d.FactoryComponent(), e.receiver(d.FactoryComponent(), creator.Owner), creator.Name, joined),
			creator.ReturnsError, nil
	default:
		return "", false, fmt.Errorf("%s cannot create instances", creator)
	}
}

// receiver is the type a factory component is asserted to before its method
// is called
func (e *emitter) receiver(component, owner string) string {
	produced, ok := e.env.ProducedType(component)
	if !ok || !accessible(produced, e.imports.Package()) {
		produced = ""
	}
	return e.imports.Qualify(models.MethodReceiver(e.types, produced, owner))
}

func (e *emitter) property(b *codegen.Block, d *models.ComponentDescriptor, p models.PropertyDescriptor) error {
	if p.WriteAccessor == nil {
		return fmt.Errorf("property '%s' has no setter or field on %s", p.Name, d.UserType())
	}
	expr, err := e.value(p.Value, p.Type)
	if err != nil {
		return fmt.Errorf("property '%s': %w", p.Name, err)
	}
	if p.WriteAccessor.Kind == models.MemberField {
		b.Line("bean.%s = %s", p.WriteAccessor.Name, expr)
		return nil
	}
	e.call(b, *p.WriteAccessor, expr)
	return nil
}

// call renders bean.M(args), checking the error when M returns one
func (e *emitter) call(b *codegen.Block, m models.MemberRef, args string) {
	if m.ReturnsError {
		b.Open("if err := bean.%s(%s); err != nil {", m.Name, args).Line("return nil, err").Close("}")
		return
	}
	b.Line("bean.%s(%s)", m.Name, args)
}

// value renders a value source as an expression assignable to typ. An empty
// typ means the target type is unknown.
func (e *emitter) value(src models.ValueSource, typ string) (string, error) {
	switch src.Kind {
	case models.SourceNull:
		return e.zero(typ), nil
	case models.SourceLiteral:
		return e.literal(src.Literal, typ)
	case models.SourceReference:
		if isUntyped(typ) {
			return fmt.Sprintf("ctx.Bean(%q)", src.Ref), nil
		}
		return fmt.Sprintf("ctx.Bean(%q).(%s)", src.Ref, e.imports.Qualify(typ)), nil
	case models.SourceInner:
		if src.Inner == nil {
			return "", fmt.Errorf("inner value without a descriptor")
		}
		f, err := e.factory(src.Inner, nil)
		if err != nil {
			return "", err
		}
		expr := fmt.Sprintf("ctx.Inner(%s)", f)
		if isUntyped(typ) {
			return expr, nil
		}
		return fmt.Sprintf("%s.(%s)", expr, e.imports.Qualify(typ)), nil
	case models.SourceAutowired:
		target := typ
		if target == "" {
			target = src.Type
		}
		if target == "" {
			return "", fmt.Errorf("autowired value without a type")
		}
		return fmt.Sprintf("%s.BeanOf[%s](ctx)", e.rt, e.imports.Qualify(target)), nil
	case models.SourceList:
		return e.list(src, typ)
	case models.SourceMap:
		return e.mapValue(src, typ)
	default:
		return "", fmt.Errorf("unsupported value source %d", src.Kind)
	}
}

func (e *emitter) list(src models.ValueSource, typ string) (string, error) {
	elem := ""
	listType := "[]any"
	if strings.HasPrefix(typ, "[]") {
		elem = typ[2:]
		listType = "[]" + e.imports.Qualify(elem)
	}
	items := make([]string, 0, len(src.Items))
	for i, item := range src.Items {
		expr, err := e.value(item, elem)
		if err != nil {
			return "", fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, expr)
	}
	return listType + "{" + strings.Join(items, ", ") + "}", nil
}

func (e *emitter) mapValue(src models.ValueSource, typ string) (string, error) {
	keyType, valueType := "string", ""
	mapType := "map[string]any"
	if strings.HasPrefix(typ, "map[") {
		if end := closingBracket(typ, 3); end > 0 {
			keyType, valueType = typ[4:end], typ[end+1:]
			mapType = e.imports.Qualify(typ)
		}
	}
	entries := make([]string, 0, len(src.Items))
	for i, item := range src.Items {
		key, err := e.literal(src.Keys[i], keyType)
		if err != nil {
			return "", fmt.Errorf("key %s: %w", src.Keys[i], err)
		}
		expr, err := e.value(item, valueType)
		if err != nil {
			return "", fmt.Errorf("key %s: %w", src.Keys[i], err)
		}
		entries = append(entries, key+": "+expr)
	}
	return mapType + "{" + strings.Join(entries, ", ") + "}", nil
}

// zero renders the zero value of typ
func (e *emitter) zero(typ string) string {
	switch {
	case isUntyped(typ), typ == "error",
		strings.HasPrefix(typ, "*"), strings.HasPrefix(typ, "[]"), strings.HasPrefix(typ, "map["),
		strings.HasPrefix(typ, "func"), strings.HasPrefix(typ, "chan "):
		return "nil"
	case typ == "string":
		return `""`
	case typ == "bool":
		return "false"
	case models.IsBuiltin(typ):
		return "0"
	}
	if t, ok := e.types.Lookup(typ); ok && t.Kind == models.KindInterface {
		return "nil"
	}
	return "*new(" + e.imports.Qualify(typ) + ")"
}

// literal renders a string, number or bool for typ. Named non-builtin types
// get an explicit conversion.
func (e *emitter) literal(v interface{}, typ string) (string, error) {
	if isUntyped(typ) || models.IsBuiltin(typ) {
		return goLiteral(v, typ)
	}
	if strings.HasPrefix(typ, "*") || strings.HasPrefix(typ, "[") || strings.HasPrefix(typ, "map[") {
		return "", fmt.Errorf("cannot assign literal %v to %s", v, typ)
	}
	if t, ok := e.types.Lookup(typ); ok {
		switch t.Kind {
		case models.KindInterface:
			return goLiteral(v, "")
		case models.KindStruct:
			return "", fmt.Errorf("cannot assign literal %v to struct type %s", v, typ)
		}
	}
	lit, err := goLiteral(v, "")
	if err != nil {
		return "", err
	}
	return e.imports.Qualify(typ) + "(" + lit + ")", nil
}

// goLiteral formats v as a Go literal. When target is a builtin type, string
// values are parsed into it and numbers are formatted for it.
func goLiteral(v interface{}, target string) (string, error) {
	switch x := v.(type) {
	case string:
		switch {
		case isInteger(target):
			if _, err := strconv.ParseInt(strings.TrimSpace(x), 0, 64); err != nil {
				return "", fmt.Errorf("%q is not a valid %s", x, target)
			}
			return strings.TrimSpace(x), nil
		case isFloat(target):
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return "", fmt.Errorf("%q is not a valid %s", x, target)
			}
			return formatFloat(f)
		case target == "bool":
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return "", fmt.Errorf("%q is not a valid bool", x)
			}
			return strconv.FormatBool(b), nil
		}
		return strconv.Quote(x), nil
	case bool:
		if target == "string" {
			return strconv.Quote(strconv.FormatBool(x)), nil
		}
		return strconv.FormatBool(x), nil
	case int:
		return formatInt(int64(x), target), nil
	case int8:
		return formatInt(int64(x), target), nil
	case int16:
		return formatInt(int64(x), target), nil
	case int32:
		return formatInt(int64(x), target), nil
	case int64:
		return formatInt(x, target), nil
	case uint:
		return formatUint(uint64(x), target), nil
	case uint8:
		return formatUint(uint64(x), target), nil
	case uint16:
		return formatUint(uint64(x), target), nil
	case uint32:
		return formatUint(uint64(x), target), nil
	case uint64:
		return formatUint(x, target), nil
	case float32:
		return formatFloatFor(float64(x), target)
	case float64:
		return formatFloatFor(x, target)
	default:
		return "", fmt.Errorf("unsupported literal %v of type %T", v, v)
	}
}

func formatInt(i int64, target string) string {
	s := strconv.FormatInt(i, 10)
	if target == "string" {
		return strconv.Quote(s)
	}
	return s
}

func formatUint(u uint64, target string) string {
	s := strconv.FormatUint(u, 10)
	if target == "string" {
		return strconv.Quote(s)
	}
	return s
}

func formatFloatFor(f float64, target string) (string, error) {
	switch {
	case target == "string":
		return strconv.Quote(strconv.FormatFloat(f, 'g', -1, 64)), nil
	case isInteger(target):
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%v is not a valid %s", f, target)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return formatFloat(f)
}

// formatFloat renders a floating-point constant. NaN and infinities have no
// constant form.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%v has no Go constant form", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

func isInteger(t string) bool {
	switch t {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "byte", "rune":
		return true
	}
	return false
}

func isFloat(t string) bool {
	return t == "float32" || t == "float64"
}

func isUntyped(t string) bool {
	return t == "" || t == "any" || t == "interface{}"
}

func closingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
