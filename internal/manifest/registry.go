package manifest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/toyz/axon-aot/internal/errors"
)

type reflectionState struct {
	access       Access
	constructors map[string]Member
	methods      map[string]Member
	fields       map[string]Field
}

// Registry accumulates manifest entries. Every Add merges under one lock and
// every merge is commutative, so the final contents do not depend on the
// order entries arrive in.
type Registry struct {
	mu             sync.Mutex
	reflection     map[string]*reflectionState
	proxies        map[string]ProxyEntry
	resources      map[string]bool
	serialization  map[string]bool
	initialization map[string]InitializationEntry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		reflection:     make(map[string]*reflectionState),
		proxies:        make(map[string]ProxyEntry),
		resources:      make(map[string]bool),
		serialization:  make(map[string]bool),
		initialization: make(map[string]InitializationEntry),
	}
}

// Add merges an entry of any kind
func (r *Registry) Add(entry Entry) error {
	switch e := entry.(type) {
	case ReflectionEntry:
		return r.AddReflection(e)
	case *ReflectionEntry:
		return r.AddReflection(*e)
	case ProxyEntry:
		return r.AddProxy(e)
	case *ProxyEntry:
		return r.AddProxy(*e)
	case ResourceEntry:
		return r.AddResource(e.Pattern)
	case SerializationEntry:
		return r.AddSerialization(e.Type)
	case InitializationEntry:
		return r.AddInitialization(e)
	case nil:
		return errors.NewValidationError("manifest entry", "entry cannot be nil")
	default:
		return errors.NewValidationError("manifest entry", fmt.Sprintf("unsupported entry %T", entry))
	}
}

// AddReflection unions flags and members into the entry for e.Type. Flags of
// a member or field reported more than once are ORed together. Members
// covered by a Declared flag, or exported members covered by a Public flag,
// are dropped.
func (r *Registry) AddReflection(e ReflectionEntry) error {
	if e.Type == "" {
		return errors.NewValidationError("reflection entry", "type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.reflection[e.Type]
	if !ok {
		state = &reflectionState{
			constructors: make(map[string]Member),
			methods:      make(map[string]Member),
			fields:       make(map[string]Field),
		}
		r.reflection[e.Type] = state
	}

	state.access |= e.Access
	for _, c := range e.Constructors {
		addMember(state.constructors, c)
	}
	for _, m := range e.Methods {
		addMember(state.methods, m)
	}
	for _, f := range e.Fields {
		if existing, ok := state.fields[f.Name]; ok {
			f.AllowWrite = f.AllowWrite || existing.AllowWrite
			f.Exported = f.Exported || existing.Exported
		}
		state.fields[f.Name] = f
	}
	state.prune()
	return nil
}

// addMember records m; a member reported twice keeps the widest flags
func addMember(members map[string]Member, m Member) {
	if existing, ok := members[m.key()]; ok {
		m.Exported = m.Exported || existing.Exported
	}
	members[m.key()] = m
}

func (s *reflectionState) prune() {
	pruneMembers(s.constructors, s.access, DeclaredConstructors, PublicConstructors)
	pruneMembers(s.methods, s.access, DeclaredMethods, PublicMethods)
	for name, f := range s.fields {
		if s.access.Has(DeclaredFields) || (f.Exported && s.access.Has(PublicFields)) {
			delete(s.fields, name)
		}
	}
}

func pruneMembers(members map[string]Member, access, declared, public Access) {
	for key, m := range members {
		if access.Has(declared) || (m.Exported && access.Has(public)) {
			delete(members, key)
		}
	}
}

// AddProxy records a proxy shape, deduplicated by kind, target, interface set
// and features.
func (r *Registry) AddProxy(e ProxyEntry) error {
	e = e.normalized()
	switch e.ProxyKind {
	case InterfaceProxy:
		if len(e.Interfaces) == 0 {
			return errors.NewValidationError("proxy entry", "interface proxy needs at least one interface")
		}
	case ClassProxy:
		if e.TargetType == "" {
			return errors.NewValidationError("proxy entry", "class proxy needs a target type")
		}
	default:
		return errors.NewValidationError("proxy entry", fmt.Sprintf("unknown proxy kind %d", e.ProxyKind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.proxies[e.key()] = e
	return nil
}

// AddResource records a resource pattern
func (r *Registry) AddResource(pattern string) error {
	if pattern == "" {
		return errors.NewValidationError("resource entry", "pattern cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[pattern] = true
	return nil
}

// AddSerialization records a serializable type
func (r *Registry) AddSerialization(typeName string) error {
	if typeName == "" {
		return errors.NewValidationError("serialization entry", "type cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serialization[typeName] = true
	return nil
}

// AddInitialization records initialization timing. Run time wins over build
// time for the same target.
func (r *Registry) AddInitialization(e InitializationEntry) error {
	if e.Target == "" {
		return errors.NewValidationError("initialization entry", "target cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := e.key()
	if existing, ok := r.initialization[key]; ok && existing.Timing == RunTime {
		return nil
	}
	r.initialization[key] = e
	return nil
}

// Merge adds every entry of other to r
func (r *Registry) Merge(other *Registry) error {
	if other == nil || other == r {
		return nil
	}
	m := other.Snapshot()
	var errs []error
	for _, e := range m.Reflection {
		errs = append(errs, r.AddReflection(e))
	}
	for _, e := range m.Proxies {
		errs = append(errs, r.AddProxy(e))
	}
	for _, e := range m.Resources {
		errs = append(errs, r.AddResource(e.Pattern))
	}
	for _, e := range m.Serialization {
		errs = append(errs, r.AddSerialization(e.Type))
	}
	for _, e := range m.Initialization {
		errs = append(errs, r.AddInitialization(e))
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ReflectionFor returns the merged reflection entry of a type
func (r *Registry) ReflectionFor(typeName string) (ReflectionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.reflection[typeName]
	if !ok {
		return ReflectionEntry{}, false
	}
	return state.entry(typeName), true
}

func (s *reflectionState) entry(typeName string) ReflectionEntry {
	e := ReflectionEntry{Type: typeName, Access: s.access}
	e.Constructors = sortedMembers(s.constructors)
	e.Methods = sortedMembers(s.methods)
	for _, f := range s.fields {
		e.Fields = append(e.Fields, f)
	}
	sort.Slice(e.Fields, func(i, j int) bool { return e.Fields[i].Name < e.Fields[j].Name })
	return e
}

func sortedMembers(members map[string]Member) []Member {
	if len(members) == 0 {
		return nil
	}
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Member, 0, len(keys))
	for _, k := range keys {
		m := members[k]
		m.Params = append([]string(nil), m.Params...)
		out = append(out, m)
	}
	return out
}

func (r *Registry) Reflection() []ReflectionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := sortedKeys(r.reflection)
	out := make([]ReflectionEntry, 0, len(types))
	for _, t := range types {
		out = append(out, r.reflection[t].entry(t))
	}
	return out
}

func (r *Registry) Proxies() []ProxyEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := sortedKeys(r.proxies)
	out := make([]ProxyEntry, 0, len(keys))
	for _, k := range keys {
		p := r.proxies[k]
		p.Interfaces = append([]string(nil), p.Interfaces...)
		out = append(out, p)
	}
	return out
}

func (r *Registry) Resources() []ResourceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResourceEntry, 0, len(r.resources))
	for _, p := range sortedKeys(r.resources) {
		out = append(out, ResourceEntry{Pattern: p})
	}
	return out
}

func (r *Registry) Serialization() []SerializationEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SerializationEntry, 0, len(r.serialization))
	for _, t := range sortedKeys(r.serialization) {
		out = append(out, SerializationEntry{Type: t})
	}
	return out
}

func (r *Registry) Initialization() []InitializationEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]InitializationEntry, 0, len(r.initialization))
	for _, k := range sortedKeys(r.initialization) {
		out = append(out, r.initialization[k])
	}
	return out
}

// Snapshot returns every entry, sorted
func (r *Registry) Snapshot() Manifest {
	return Manifest{
		Reflection:     r.Reflection(),
		Proxies:        r.Proxies(),
		Resources:      r.Resources(),
		Serialization:  r.Serialization(),
		Initialization: r.Initialization(),
	}
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Reflection:     len(r.reflection),
		Proxies:        len(r.proxies),
		Resources:      len(r.resources),
		Serialization:  len(r.serialization),
		Initialization: len(r.initialization),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
