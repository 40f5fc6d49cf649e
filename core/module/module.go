// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"fmt"
	"reflect"
)

// RegisterType registers a module type in the default registry.
// newModule should be like func([config Conf]) (Impl[, error]), where Conf
// is a config struct or config struct pointer, and Impl is the
// implementation value whose exported methods become capabilities.
// newDefaultConfigOptional is an optional func() Conf returning default
// config. Panics on invalid input or name collision.
func RegisterType(name string, newModule interface{}, newDefaultConfigOptional ...interface{}) {
	defaultRegistry.RegisterType(name, newModule, newDefaultConfigOptional...)
}

// RegisterMixin registers a capability donor type in the default registry.
func RegisterMixin(name string, newMixin interface{}, newDefaultConfigOptional ...interface{}) {
	defaultRegistry.RegisterMixin(name, newMixin, newDefaultConfigOptional...)
}

// Register registers a module definition in the default registry.
func Register(def Definition) {
	defaultRegistry.Register(def)
}

// Get returns the singleton instance registered under name in the default
// registry, materializing it on first use.
func Get(name string) (*Instance, error) {
	return defaultRegistry.Instance(name)
}

// Materialize registers def in the default registry unless its name is
// already known, and returns the instance for it.
func Materialize(def Definition) (*Instance, error) {
	return defaultRegistry.Materialize(def)
}

// Cached returns the already materialized instance for name from the
// default registry.
func Cached(name string) (*Instance, bool) {
	return defaultRegistry.Cached(name)
}

// Lookup reports whether a definition with given name is registered in the
// default registry.
func Lookup(name string) bool { return defaultRegistry.Lookup(name) }

// LookupType reports whether a module type with given name is registered in
// the default registry.
func LookupType(name string) bool { return defaultRegistry.LookupType(name) }

// LookupMixin reports whether a mixin with given name is registered in the
// default registry.
func LookupMixin(name string) bool { return defaultRegistry.LookupMixin(name) }

// Names returns sorted definition names of the default registry.
func Names() []string { return defaultRegistry.Names() }

// TypeNames returns sorted module type names of the default registry.
func TypeNames() []string { return defaultRegistry.TypeNames() }

// MixinNames returns sorted mixin names of the default registry.
func MixinNames() []string { return defaultRegistry.MixinNames() }

// SetMetrics attaches activity counters to the default registry.
func SetMetrics(m Metrics) { defaultRegistry.SetMetrics(m) }

// DefaultRegistry returns the registry package level functions delegate to.
func DefaultRegistry() *Registry { return defaultRegistry }

// SetDefaultRegistry replaces the registry package level functions delegate
// to. Intended for tests that need registration isolation.
func SetDefaultRegistry(r *Registry) { defaultRegistry = r }

var defaultRegistry = NewRegistry()

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func expect(b bool, msg string, args ...interface{}) {
	if !b {
		panic(fmt.Sprintf("expectation failed: "+msg, args...))
	}
}
