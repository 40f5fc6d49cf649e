// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/buildeasy/buildeasy/lib/monitoring"
)

// Definition binds a module identifier to a registered type, plus optional
// construction and composition details.
type Definition struct {
	// Name is the unique module identifier.
	Name string
	// Type is the registered module type to construct from.
	// Empty means same as Name.
	Type string
	// Overrides take precedence over the type's default config values.
	Overrides map[string]interface{}
	// Mixins name registered mixins whose capabilities are merged into the
	// instance in declaration order. Own capabilities always win.
	Mixins []string
	// Statics are funcs attached as capabilities after the merge,
	// overwriting any same named capability.
	Statics map[string]interface{}
	// Path is the definition origin. Empty for code registered definitions.
	Path string
	// Loader names the component that produced the definition.
	// Empty means "code".
	Loader string
	// Doc is an optional human readable description, surfaced by
	// inspection tooling.
	Doc string
}

// Metrics are registry activity counters. Counters left nil still count,
// they are just not published anywhere.
type Metrics struct {
	InstanceCreated *monitoring.Counter
	CapabilityCall  *monitoring.Counter
	DynamicAdded    *monitoring.Counter
}

func (m Metrics) withDefaults() Metrics {
	if m.InstanceCreated == nil {
		m.InstanceCreated = &monitoring.Counter{}
	}
	if m.CapabilityCall == nil {
		m.CapabilityCall = &monitoring.Counter{}
	}
	if m.DynamicAdded == nil {
		m.DynamicAdded = &monitoring.Counter{}
	}
	return m
}

type typeEntry struct {
	constructor   moduleConstructor
	defaultConfig defaultConfigContainer
}

func newTypeEntry(newModule interface{}, newDefaultConfigOptional ...interface{}) typeEntry {
	expect(len(newDefaultConfigOptional) <= 1, "only one default config constructor could be passed")
	var newDefaultConfig interface{}
	if len(newDefaultConfigOptional) != 0 {
		newDefaultConfig = newDefaultConfigOptional[0]
	}
	constructor := newModuleConstructor(newModule)
	defaultConfig := newDefaultConfigContainer(reflect.TypeOf(newModule), newDefaultConfig)
	return typeEntry{constructor, defaultConfig}
}

// Registry is a module system: registered module types and mixins, module
// definitions, and lazily materialized singleton instances.
//
// Type, mixin and definition registration is expected at init time, and
// panics on invalid input. Instance, Materialize and Cached are safe for
// concurrent use.
type Registry struct {
	mu        sync.Mutex
	types     map[string]typeEntry
	mixins    map[string]typeEntry
	defs      map[string]Definition
	instances map[string]*Instance
	metrics   Metrics
}

func NewRegistry() *Registry {
	return &Registry{
		types:     map[string]typeEntry{},
		mixins:    map[string]typeEntry{},
		defs:      map[string]Definition{},
		instances: map[string]*Instance{},
		metrics:   Metrics{}.withDefaults(),
	}
}

// SetMetrics attaches activity counters. Instances materialized before the
// call keep counting capability calls into the previous counters.
func (r *Registry) SetMetrics(m Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m.withDefaults()
}

// RegisterType registers a module type with given name.
// newModule should be like func([config Conf]) (Impl[, error]), where Conf
// is config struct or struct pointer, and Impl is the implementation value.
// newDefaultConfigOptional is optional func() Conf returning the config that
// definition overrides are decoded onto.
func (r *Registry) RegisterType(name string, newModule interface{}, newDefaultConfigOptional ...interface{}) {
	expect(name != "", "module type name should not be empty")
	entry := newTypeEntry(newModule, newDefaultConfigOptional...)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.types[name]
	expect(!ok, "module type %q had been already registered", name)
	r.types[name] = entry
}

// RegisterMixin registers a capability donor type with given name.
// Constructor rules are same as for RegisterType. Mixins are constructed
// fresh with their default config for every instance that declares them.
func (r *Registry) RegisterMixin(name string, newMixin interface{}, newDefaultConfigOptional ...interface{}) {
	expect(name != "", "mixin name should not be empty")
	entry := newTypeEntry(newMixin, newDefaultConfigOptional...)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mixins[name]
	expect(!ok, "mixin %q had been already registered", name)
	r.mixins[name] = entry
}

// Register registers a module definition. The instance is not constructed
// until first Instance call with its name.
func (r *Registry) Register(def Definition) {
	expect(def.Name != "", "module name should not be empty")
	err := checkStatics(def)
	expect(err == nil, "%v", err)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.defs[def.Name]
	expect(!ok, "module %q had been already registered", def.Name)
	r.defs[def.Name] = normalizeDef(def)
}

// Instance returns the singleton instance registered under name,
// materializing it on first use. All calls with the same name return the
// same instance. A failed transformation is not cached, so a later call
// retries it.
//
// The transformation itself runs without the registry lock: override decode
// hooks and constructors may resolve other modules from this registry.
// Concurrent first calls may transform the same definition twice, but the
// first cached instance wins and is what every caller gets.
func (r *Registry) Instance(name string) (*Instance, error) {
	if name == "" {
		return nil, errors.WithStack(ErrEmptyIdentifier)
	}
	r.mu.Lock()
	if inst, ok := r.instances[name]; ok {
		r.mu.Unlock()
		return inst, nil
	}
	def, ok := r.defs[name]
	r.mu.Unlock()
	if !ok {
		return nil, errors.Errorf("no module has been registered for name %q", name)
	}
	inst, err := r.transform(def)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.instances[name]; ok {
		return cached, nil
	}
	r.instances[name] = inst
	r.metrics.InstanceCreated.Inc()
	return inst, nil
}

// Materialize registers def unless its name is already known, and returns
// the instance for it. A cached instance wins over def, then an earlier
// registered definition. Unlike Register it is safe at runtime and returns
// errors instead of panicking.
func (r *Registry) Materialize(def Definition) (*Instance, error) {
	if def.Name == "" {
		return nil, errors.WithStack(ErrEmptyIdentifier)
	}
	r.mu.Lock()
	if inst, ok := r.instances[def.Name]; ok {
		r.mu.Unlock()
		return inst, nil
	}
	if _, ok := r.defs[def.Name]; !ok {
		if err := checkStatics(def); err != nil {
			r.mu.Unlock()
			return nil, newTransformError(def.Name, err)
		}
		r.defs[def.Name] = normalizeDef(def)
	}
	r.mu.Unlock()
	return r.Instance(def.Name)
}

// Cached returns the instance for name, if it has been materialized already.
func (r *Registry) Cached(name string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[name]
	return inst, ok
}

// Lookup reports whether a definition with given name is registered.
func (r *Registry) Lookup(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.defs[name]
	return ok
}

// LookupType reports whether a module type with given name is registered.
func (r *Registry) LookupType(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.types[name]
	return ok
}

// LookupMixin reports whether a mixin with given name is registered.
func (r *Registry) LookupMixin(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mixins[name]
	return ok
}

// Names returns sorted names of all registered definitions.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.defs)
}

// TypeNames returns sorted names of all registered module types.
func (r *Registry) TypeNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MixinNames returns sorted names of all registered mixins.
func (r *Registry) MixinNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.mixins))
	for name := range r.mixins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) typeEntry(name string) (typeEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.types[name]
	return entry, ok
}

func (r *Registry) mixinEntry(name string) (typeEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.mixins[name]
	return entry, ok
}

func (r *Registry) currentMetrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

func normalizeDef(def Definition) Definition {
	if def.Type == "" {
		def.Type = def.Name
	}
	if def.Loader == "" {
		def.Loader = "code"
	}
	return def
}

func checkStatics(def Definition) error {
	for name, fn := range def.Statics {
		if name == InstanceCapability {
			return errors.Errorf("static capability name %q is reserved", name)
		}
		if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
			return errors.Errorf("static capability %q should be func, but have: %T", name, fn)
		}
	}
	return nil
}

func sortedKeys(defs map[string]Definition) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
