package container

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/models"
	"github.com/toyz/axon-aot/internal/signature"
)

type document struct {
	Types         []typeDoc      `yaml:"types"`
	Components    []componentDoc `yaml:"components"`
	ImportOrigins []importDoc    `yaml:"import_origins"`
}

type typeDoc struct {
	Name         string         `yaml:"name"`
	Kind         string         `yaml:"kind"`
	Embeds       []string       `yaml:"embeds"`
	Implements   []string       `yaml:"implements"`
	Markers      []string       `yaml:"markers"`
	Methods      []methodDoc    `yaml:"methods"`
	Constructors []methodDoc    `yaml:"constructors"`
	Fields       []fieldDoc     `yaml:"fields"`
	Attributes   []attributeDoc `yaml:"attributes"`
	Synthetic    bool           `yaml:"synthetic"`
	UserType     string         `yaml:"user_type"`
}

type methodDoc struct {
	Name    string   `yaml:"name"`
	Params  []string `yaml:"params"`
	Results []string `yaml:"results"`
	Markers []string `yaml:"markers"`
}

type fieldDoc struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Markers []string `yaml:"markers"`
}

type attributeDoc struct {
	Name     string    `yaml:"name"`
	AliasFor *aliasDoc `yaml:"alias_for"`
}

type aliasDoc struct {
	Annotation string `yaml:"annotation"`
	Attribute  string `yaml:"attribute"`
}

type importDoc struct {
	Importing string `yaml:"importing"`
	Imported  string `yaml:"imported"`
}

type factoryDoc struct {
	Component string `yaml:"component"`
	Method    string `yaml:"method"`
}

type componentDoc struct {
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	Scope       string            `yaml:"scope"`
	Role        string            `yaml:"role"`
	Primary     bool              `yaml:"primary"`
	Lazy        bool              `yaml:"lazy"`
	Constructor string            `yaml:"constructor"`
	Factory     *factoryDoc       `yaml:"factory"`
	Struct      bool              `yaml:"struct"`
	Internal    string            `yaml:"internal"`
	Supplier    bool              `yaml:"supplier"`
	TypeArgs    map[string]string `yaml:"type_args"`
	Args        []valueDoc        `yaml:"args"`
	Properties  []propertyDoc     `yaml:"properties"`
	Init        []string          `yaml:"init"`
	Destroy     []string          `yaml:"destroy"`
	Attributes  map[string]string `yaml:"attributes"`
}

type propertyDoc struct {
	Name     string `yaml:"name"`
	valueDoc `yaml:",inline"`
}

type valueDoc struct {
	Value interface{}         `yaml:"value"`
	Ref   string              `yaml:"ref"`
	Inner *componentDoc       `yaml:"inner"`
	List  []valueDoc          `yaml:"list"`
	Map   map[string]valueDoc `yaml:"map"`
	Null  bool                `yaml:"null"`
}

// LoadFile reads a YAML container snapshot from disk
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("open", path, err)
	}
	defer f.Close()

	snap, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(errors.ValidationErrorCode, err, "invalid snapshot %s", path).
			WithContext("path", path)
	}
	return snap, nil
}

// Load decodes a YAML container snapshot. Unknown keys are rejected.
func Load(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	index := models.NewTypeIndex()
	for i, td := range doc.Types {
		t, err := td.toType()
		if err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}
		index.Add(t)
	}

	snap := NewSnapshot(index)
	for i, cd := range doc.Components {
		if cd.Name == "" {
			return nil, fmt.Errorf("components[%d]: name is required", i)
		}
		def, err := cd.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("component '%s': %w", cd.Name, err)
		}
		if err := snap.Register(def); err != nil {
			return nil, err
		}
	}

	for _, o := range doc.ImportOrigins {
		snap.AddImportOrigin(o.Importing, o.Imported)
	}
	return snap, nil
}

func (td typeDoc) toType() (*models.TypeInfo, error) {
	if td.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	kind, err := models.ParseTypeKind(td.Kind)
	if err != nil {
		return nil, err
	}

	t := &models.TypeInfo{
		Name:       td.Name,
		Kind:       kind,
		Exported:   models.IsExportedName(models.LocalName(td.Name)),
		Embeds:     td.Embeds,
		Implements: td.Implements,
		Markers:    td.Markers,
		Synthetic:  td.Synthetic,
		UserType:   td.UserType,
	}
	for _, m := range td.Methods {
		t.Methods = append(t.Methods, m.toMethod())
	}
	for _, c := range td.Constructors {
		t.Constructors = append(t.Constructors, c.toMethod())
	}
	for _, f := range td.Fields {
		t.Fields = append(t.Fields, models.FieldInfo{
			Name:     f.Name,
			Type:     f.Type,
			Exported: models.IsExportedName(f.Name),
			Markers:  f.Markers,
		})
	}
	for _, a := range td.Attributes {
		attr := models.AttributeInfo{Name: a.Name}
		if a.AliasFor != nil {
			attr.AliasFor = &models.AliasRef{Annotation: a.AliasFor.Annotation, Attribute: a.AliasFor.Attribute}
		}
		t.Attributes = append(t.Attributes, attr)
	}
	return t, nil
}

func (md methodDoc) toMethod() models.MethodInfo {
	return models.MethodInfo{
		Name:     md.Name,
		Params:   md.Params,
		Results:  md.Results,
		Exported: models.IsExportedName(md.Name),
		Markers:  md.Markers,
	}
}

func (cd *componentDoc) toDefinition() (*models.ComponentDefinition, error) {
	if cd.Type == "" {
		return nil, fmt.Errorf("type is required")
	}
	role, err := models.ParseRole(cd.Role)
	if err != nil {
		return nil, err
	}
	inst, err := cd.instantiation()
	if err != nil {
		return nil, err
	}

	def := &models.ComponentDefinition{
		Name:           cd.Name,
		Type:           cd.Type,
		Scope:          cd.Scope,
		Role:           role,
		Primary:        cd.Primary,
		Lazy:           cd.Lazy,
		Instantiation:  inst,
		InitMethods:    cd.Init,
		DestroyMethods: cd.Destroy,
		Attributes:     cd.Attributes,
	}
	for i, a := range cd.Args {
		v, err := a.toValue()
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		def.Args = append(def.Args, v)
	}
	for _, p := range cd.Properties {
		if p.Name == "" {
			return nil, fmt.Errorf("property name is required")
		}
		v, err := p.valueDoc.toValue()
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", p.Name, err)
		}
		def.Properties = append(def.Properties, models.PropertyValue{Name: p.Name, Value: v})
	}
	return def, nil
}

func (cd *componentDoc) instantiation() (models.Instantiation, error) {
	set := 0
	for _, present := range []bool{cd.Constructor != "", cd.Factory != nil, cd.Struct, cd.Internal != "", cd.Supplier} {
		if present {
			set++
		}
	}
	if set > 1 {
		return models.Instantiation{}, fmt.Errorf("constructor, factory, struct, internal and supplier are mutually exclusive")
	}

	inst := models.Instantiation{Kind: models.InstantiateConstructor, TypeArgs: cd.TypeArgs}
	switch {
	case cd.Constructor != "":
		ref, err := signature.ParseMember(cd.Constructor, models.MemberConstructor)
		if err != nil {
			return inst, err
		}
		inst.Member = &ref
	case cd.Factory != nil:
		if cd.Factory.Component == "" {
			return inst, fmt.Errorf("factory component is required")
		}
		ref, err := signature.ParseMember(cd.Factory.Method, models.MemberMethod)
		if err != nil {
			return inst, err
		}
		inst.Kind = models.InstantiateFactory
		inst.Member = &ref
		inst.FactoryComponent = cd.Factory.Component
	case cd.Struct:
		inst.Kind = models.InstantiateStruct
	case cd.Internal != "":
		inst.Kind = models.InstantiateInternal
		inst.Internal = cd.Internal
	case cd.Supplier:
		inst.Kind = models.InstantiateSupplier
	}
	return inst, nil
}

func (vd valueDoc) toValue() (models.Value, error) {
	set := 0
	for _, present := range []bool{vd.Value != nil, vd.Ref != "", vd.Inner != nil, vd.List != nil, vd.Map != nil, vd.Null} {
		if present {
			set++
		}
	}
	if set != 1 {
		return models.Value{}, fmt.Errorf("a value needs exactly one of value, ref, inner, list, map or null")
	}

	switch {
	case vd.Ref != "":
		return models.Ref(vd.Ref), nil
	case vd.Inner != nil:
		def, err := vd.Inner.toDefinition()
		if err != nil {
			return models.Value{}, fmt.Errorf("inner: %w", err)
		}
		return models.Inner(def), nil
	case vd.List != nil:
		items := make([]models.Value, 0, len(vd.List))
		for i, item := range vd.List {
			v, err := item.toValue()
			if err != nil {
				return models.Value{}, fmt.Errorf("list[%d]: %w", i, err)
			}
			items = append(items, v)
		}
		return models.List(items...), nil
	case vd.Map != nil:
		keys := make([]string, 0, len(vd.Map))
		for k := range vd.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]models.MapEntry, 0, len(keys))
		for _, k := range keys {
			v, err := vd.Map[k].toValue()
			if err != nil {
				return models.Value{}, fmt.Errorf("map[%s]: %w", k, err)
			}
			entries = append(entries, models.MapEntry{Key: k, Value: v})
		}
		return models.Map(entries...), nil
	case vd.Null:
		return models.Null(), nil
	default:
		return models.Literal(vd.Value), nil
	}
}
