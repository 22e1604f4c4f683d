package templates

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/manifest"
)

// ManifestFile is the base name of the rendered capability manifest
const ManifestFile = "zz_aot_manifest.yaml"

type manifestDoc struct {
	Reflection     []reflectionDoc     `yaml:"reflection,omitempty"`
	Proxies        []proxyDoc          `yaml:"proxies,omitempty"`
	Resources      []string            `yaml:"resources,omitempty"`
	Serialization  []string            `yaml:"serialization,omitempty"`
	Initialization []initializationDoc `yaml:"initialization,omitempty"`
}

type reflectionDoc struct {
	Type         string     `yaml:"type"`
	Access       []string   `yaml:"access,omitempty"`
	Constructors []string   `yaml:"constructors,omitempty"`
	Methods      []string   `yaml:"methods,omitempty"`
	Fields       []fieldDoc `yaml:"fields,omitempty"`
}

type fieldDoc struct {
	Name  string `yaml:"name"`
	Write bool   `yaml:"write,omitempty"`
}

type proxyDoc struct {
	Kind       string   `yaml:"kind"`
	Target     string   `yaml:"target,omitempty"`
	Interfaces []string `yaml:"interfaces,omitempty"`
	Features   []string `yaml:"features,omitempty"`
}

type initializationDoc struct {
	Target  string `yaml:"target"`
	Package bool   `yaml:"package,omitempty"`
	Timing  string `yaml:"timing"`
}

// RenderManifest renders a manifest snapshot as YAML
func RenderManifest(m manifest.Manifest) ([]byte, error) {
	var doc manifestDoc
	for _, e := range m.Reflection {
		rd := reflectionDoc{Type: e.Type}
		if e.Access != 0 {
			rd.Access = strings.Split(e.Access.String(), "|")
		}
		for _, c := range e.Constructors {
			rd.Constructors = append(rd.Constructors, c.String())
		}
		for _, mm := range e.Methods {
			rd.Methods = append(rd.Methods, mm.String())
		}
		for _, f := range e.Fields {
			rd.Fields = append(rd.Fields, fieldDoc{Name: f.Name, Write: f.AllowWrite})
		}
		doc.Reflection = append(doc.Reflection, rd)
	}
	for _, p := range m.Proxies {
		doc.Proxies = append(doc.Proxies, proxyDoc{
			Kind:       p.ProxyKind.String(),
			Target:     p.TargetType,
			Interfaces: p.Interfaces,
			Features:   featureNames(p.Features),
		})
	}
	for _, r := range m.Resources {
		doc.Resources = append(doc.Resources, r.Pattern)
	}
	for _, s := range m.Serialization {
		doc.Serialization = append(doc.Serialization, s.Type)
	}
	for _, i := range m.Initialization {
		doc.Initialization = append(doc.Initialization, initializationDoc{
			Target:  i.Target,
			Package: i.Package,
			Timing:  i.Timing.String(),
		})
	}

	var buf bytes.Buffer
	buf.WriteString("# Code generated by axon-aot. DO NOT EDIT.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.WrapGenerateError(ManifestFile, err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.WrapGenerateError(ManifestFile, err)
	}
	return buf.Bytes(), nil
}

func featureNames(f manifest.ProxyFeature) []string {
	var names []string
	if f&manifest.FeatureStatic != 0 {
		names = append(names, "static")
	}
	if f&manifest.FeatureSerializable != 0 {
		names = append(names, "serializable")
	}
	return names
}
