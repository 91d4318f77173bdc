package io

import (
	"fmt"
	"slices"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classgraph"
	errs "github.com/matzehuels/classscan/pkg/errors"
	"github.com/matzehuels/classscan/pkg/scan"
	"github.com/matzehuels/classscan/pkg/signature"
)

// FormatVersion is the snapshot layout version written by this package.
const FormatVersion = 1

// Snapshot is the serializable form of a scan.
type Snapshot struct {
	Version      int       `json:"version" yaml:"version"`
	ScanID       string    `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	Dependencies bool      `json:"dependencies" yaml:"dependencies"` // Dependency tracking was enabled
	Classes      []Class   `json:"classes" yaml:"classes"`
	Edges        []Edge    `json:"edges" yaml:"edges"`
	Failures     []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Class is one node of the graph.
type Class struct {
	Name         string       `json:"name" yaml:"name"`
	Kind         string       `json:"kind" yaml:"kind"`
	State        string       `json:"state" yaml:"state"`
	Flags        uint16       `json:"flags,omitempty" yaml:"flags,omitempty"`
	Modifiers    string       `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Superclass   string       `json:"superclass,omitempty" yaml:"superclass,omitempty"`
	Interfaces   []string     `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	OuterClass   string       `json:"outer_class,omitempty" yaml:"outer_class,omitempty"`
	Signature    string       `json:"signature,omitempty" yaml:"signature,omitempty"` // Rendered; not restored on import
	Annotations  []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Fields       []Member     `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods      []Member     `json:"methods,omitempty" yaml:"methods,omitempty"`
	Resource     string       `json:"resource,omitempty" yaml:"resource,omitempty"`
	Element      string       `json:"element,omitempty" yaml:"element,omitempty"`
	SourceFile   string       `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	MajorVersion uint16       `json:"major_version,omitempty" yaml:"major_version,omitempty"`
}

// Annotation is an annotation instance rendered as text.
type Annotation struct {
	Type    string `json:"type" yaml:"type"`
	Visible bool   `json:"visible" yaml:"visible"`
	Text    string `json:"text" yaml:"text"`
}

// Member is a field or method.
type Member struct {
	Name        string       `json:"name" yaml:"name"`
	Flags       uint16       `json:"flags,omitempty" yaml:"flags,omitempty"`
	Descriptor  string       `json:"descriptor" yaml:"descriptor"`
	Type        string       `json:"type,omitempty" yaml:"type,omitempty"` // Generic type when present
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// Edge is a dependency with the kinds of reference that produced it.
type Edge struct {
	From  string   `json:"from" yaml:"from"`
	To    string   `json:"to" yaml:"to"`
	Kinds []string `json:"kinds" yaml:"kinds"`
}

// Failure is a unit that did not make it into the graph.
type Failure struct {
	Resource string `json:"resource" yaml:"resource"`
	Class    string `json:"class,omitempty" yaml:"class,omitempty"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Error    string `json:"error" yaml:"error"`
}

// FromResult snapshots a scan result. A scan without dependency tracking
// has no edges.
func FromResult(res *scan.Result) *Snapshot {
	s := FromGraph(res.Graph())
	s.ScanID = res.ID()
	s.Dependencies = res.ClassDependencyMap() != nil
	if !s.Dependencies {
		s.Edges = nil
	}
	for _, u := range res.Failures() {
		s.Failures = append(s.Failures, Failure{
			Resource: u.Resource,
			Class:    u.ClassName,
			Code:     string(errs.GetCode(u.Err)),
			Error:    u.Err.Error(),
		})
	}
	return s
}

// FromGraph snapshots a graph. Classes and edges are sorted by name.
func FromGraph(g *classgraph.Graph) *Snapshot {
	s := &Snapshot{Version: FormatVersion, Dependencies: true}
	for _, c := range g.Classes() {
		s.Classes = append(s.Classes, fromClass(c))
	}
	for _, c := range g.Externals() {
		s.Classes = append(s.Classes, Class{Name: c.Name, Kind: c.Kind.String(), State: c.State.String()})
	}
	for _, e := range g.Edges() {
		s.Edges = append(s.Edges, Edge{From: e.From, To: e.To, Kinds: e.Kinds.Names()})
	}
	return s
}

func fromClass(c *classgraph.ClassInfo) Class {
	out := Class{
		Name:         c.Name,
		Kind:         c.Kind.String(),
		State:        c.State.String(),
		Flags:        uint16(c.Modifiers),
		Modifiers:    c.Modifiers.ClassModifiers(),
		Superclass:   c.SuperclassName,
		OuterClass:   c.OuterClassName,
		Annotations:  fromAnnotations(c.Annotations),
		Resource:     c.Resource,
		Element:      c.Element,
		SourceFile:   c.SourceFile,
		MajorVersion: c.MajorVersion,
	}
	if len(c.InterfaceNames) > 0 {
		out.Interfaces = slices.Clone(c.InterfaceNames)
	}
	if c.Signature != nil {
		out.Signature = c.Signature.String()
	}
	for _, f := range c.Fields {
		m := Member{Name: f.Name, Flags: uint16(f.Modifiers), Descriptor: f.Descriptor, Annotations: fromAnnotations(f.Annotations)}
		if f.GenericType != nil {
			m.Type = f.GenericType.String()
		}
		out.Fields = append(out.Fields, m)
	}
	for _, mi := range c.Methods {
		m := Member{Name: mi.Name, Flags: uint16(mi.Modifiers), Descriptor: mi.Descriptor, Annotations: fromAnnotations(mi.Annotations)}
		if mi.GenericType != nil {
			m.Type = mi.GenericType.String()
		}
		out.Methods = append(out.Methods, m)
	}
	return out
}

func fromAnnotations(anns []*classgraph.AnnotationInfo) []Annotation {
	var out []Annotation
	for _, a := range anns {
		out = append(out, Annotation{Type: a.TypeName, Visible: a.Visible, Text: a.String()})
	}
	return out
}

// Graph rebuilds a finalized graph from the snapshot. Edges whose source
// is not a resolved class of the snapshot are rejected.
func (s *Snapshot) Graph() (*classgraph.Graph, error) {
	if s.Version != FormatVersion {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported snapshot version %d", s.Version)
	}
	refs := make(map[string][]classgraph.Reference)
	for _, e := range s.Edges {
		refs[e.From] = append(refs[e.From], classgraph.Reference{Name: e.To, Kinds: edgeKinds(e.Kinds)})
	}

	g := classgraph.NewGraph()
	resolved := make(map[string]bool)
	for i, c := range s.Classes {
		if classgraph.ParseState(c.State) != classgraph.StateResolved {
			continue
		}
		info, err := toClass(c)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", c.Name, err)
		}
		if _, err := g.AddOrMerge(classgraph.NewRecord(info, refs[c.Name], i)); err != nil {
			return nil, fmt.Errorf("class %s: %w", c.Name, err)
		}
		resolved[c.Name] = true
	}
	for _, e := range s.Edges {
		if !resolved[e.From] {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "edge %s->%s: unknown source class", e.From, e.To)
		}
	}
	for _, c := range s.Classes {
		if !resolved[c.Name] {
			g.Placeholder(c.Name)
		}
	}
	g.Finalize(nil)
	return g, nil
}

func edgeKinds(names []string) classgraph.EdgeKind {
	var k classgraph.EdgeKind
	for _, n := range names {
		k |= classgraph.ParseEdgeKind(n)
	}
	return k
}

func toClass(c Class) (*classgraph.ClassInfo, error) {
	if c.Name == "" {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "class without a name")
	}
	info := &classgraph.ClassInfo{
		Name:           c.Name,
		Kind:           classgraph.ParseKind(c.Kind),
		State:          classgraph.StateResolved,
		Modifiers:      classfile.AccessFlags(c.Flags),
		SuperclassName: c.Superclass,
		InterfaceNames: c.Interfaces,
		OuterClassName: c.OuterClass,
		Annotations:    toAnnotations(c.Annotations),
		Resource:       c.Resource,
		Element:        c.Element,
		SourceFile:     c.SourceFile,
		MajorVersion:   c.MajorVersion,
	}
	for _, f := range c.Fields {
		t, err := signature.ParseTypeDescriptor(f.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		info.Fields = append(info.Fields, &classgraph.FieldInfo{
			ClassName:   c.Name,
			Name:        f.Name,
			Modifiers:   classfile.AccessFlags(f.Flags),
			Descriptor:  f.Descriptor,
			Type:        t,
			Annotations: toAnnotations(f.Annotations),
		})
	}
	for _, m := range c.Methods {
		t, err := signature.ParseMethodDescriptor(m.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		mi := &classgraph.MethodInfo{
			ClassName:   c.Name,
			Name:        m.Name,
			Modifiers:   classfile.AccessFlags(m.Flags),
			Descriptor:  m.Descriptor,
			Type:        t,
			Annotations: toAnnotations(m.Annotations),
		}
		for _, p := range t.Params {
			mi.Parameters = append(mi.Parameters, &classgraph.MethodParameterInfo{Type: p})
		}
		info.Methods = append(info.Methods, mi)
	}
	return info, nil
}

func toAnnotations(anns []Annotation) []*classgraph.AnnotationInfo {
	var out []*classgraph.AnnotationInfo
	for _, a := range anns {
		out = append(out, &classgraph.AnnotationInfo{TypeName: a.Type, Visible: a.Visible})
	}
	return out
}
