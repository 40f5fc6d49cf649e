// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/buildeasy/buildeasy/lib/confutil"
)

var durationType = reflect.TypeOf(time.Duration(0))

// InstanceCapability is the reserved capability name that resolves to the
// instance itself. It cannot be shadowed by methods, mixins, statics or
// dynamic capabilities.
const InstanceCapability = "instance"

// Capability origins.
const (
	OriginMethod  = "method"
	OriginStatic  = "static"
	OriginDynamic = "dynamic"
	// Mixin capabilities have origin OriginMixinPrefix + mixin name.
	OriginMixinPrefix = "mixin:"
)

// Capability is one callable entry of a module instance capability table.
type Capability struct {
	// Name is the snake case capability name.
	Name string
	// Origin tells where the capability came from: "method", "static",
	// "dynamic" or "mixin:<name>".
	Origin string

	fn reflect.Value
}

// Func returns the capability func value.
func (c Capability) Func() interface{} { return c.fn.Interface() }

// Info is module instance identity: what it is named, what it was built
// from, and which component loaded it.
type Info struct {
	// Name is the module identifier.
	Name string
	// Type is the module type the instance was constructed from.
	Type string
	// Package is the Go package path of the implementation type.
	Package string
	// Path is the definition origin path, empty for code registered modules.
	Path string
	// Loader names the component that produced the definition.
	Loader string
	// Doc is the definition description, empty unless one was registered.
	Doc string
}

// Module is a materialized module singleton as config fields reference it:
// identity plus the callable capability table. *Instance implements it, and
// config fields of this type are resolved by moduleconfig hooks.
type Module interface {
	Info() Info
	Lookup(attr string) (interface{}, error)
	Call(attr string, args ...interface{}) ([]interface{}, error)
	AddCapability(name string, fn interface{}) error
	Capabilities() []string
	Describe() []Capability
	Impl() interface{}
}

var _ Module = (*Instance)(nil)

// Instance is a materialized module singleton: the constructed
// implementation value plus its capability table and identity info.
//
// All methods are safe for concurrent use.
type Instance struct {
	info Info
	impl interface{}

	mu      sync.RWMutex
	caps    map[string]Capability
	metrics Metrics
}

// Info returns module identity.
func (m *Instance) Info() Info { return m.info }

// Impl returns the underlying implementation value.
func (m *Instance) Impl() interface{} { return m.impl }

func (m *Instance) String() string {
	return fmt.Sprintf("module %q of type %q", m.info.Name, m.info.Type)
}

// Lookup resolves attr on the instance. The reserved "instance" name
// resolves to the instance itself, then capabilities are tried by name, then
// exported implementation struct fields. Capability hits return the bare
// func value, not the table entry. Miss returns *LookupError.
func (m *Instance) Lookup(attr string) (interface{}, error) {
	if attr == InstanceCapability {
		return m, nil
	}
	m.mu.RLock()
	c, ok := m.caps[attr]
	m.mu.RUnlock()
	if ok {
		return c.fn.Interface(), nil
	}
	if v, ok := m.field(attr); ok {
		return v, nil
	}
	return nil, errors.WithStack(&LookupError{Module: m.info.Name, Type: m.info.Type, Attr: attr})
}

// Call invokes capability attr with given args. Args are converted to
// parameter types where Go conversion rules or string parsing allow, so
// string args from config files and command line work for numeric and bool
// parameters. A trailing error output is split from the results.
func (m *Instance) Call(attr string, args ...interface{}) ([]interface{}, error) {
	m.mu.RLock()
	c, ok := m.caps[attr]
	metrics := m.metrics
	m.mu.RUnlock()
	if !ok {
		return nil, errors.WithStack(&LookupError{Module: m.info.Name, Type: m.info.Type, Attr: attr})
	}
	in, err := convertArgs(c.fn.Type(), args)
	if err != nil {
		return nil, errors.WithMessagef(err, "module %q capability %q", m.info.Name, attr)
	}
	metrics.CapabilityCall.Inc()
	out := c.fn.Call(in)
	results := make([]interface{}, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	if n := c.fn.Type().NumOut(); n > 0 && c.fn.Type().Out(n-1) == errorType {
		errResult := results[n-1]
		results = results[:n-1]
		if errResult != nil {
			return results, errResult.(error)
		}
	}
	return results, nil
}

// AddCapability attaches fn as a dynamic capability. Any existing entry
// with that name is a collision, whatever its origin, as is the reserved
// "instance" name. Collisions return ErrCapabilityExists. Dynamic
// capabilities resolve via Lookup and Call and show up in Describe, but
// do not extend the declared list returned by Capabilities.
func (m *Instance) AddCapability(name string, fn interface{}) error {
	if name == "" {
		return errors.WithStack(ErrEmptyIdentifier)
	}
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return errors.Errorf("capability %q should be func, but have: %T", name, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == InstanceCapability {
		return errors.Wrapf(ErrCapabilityExists, "module %q capability %q", m.info.Name, name)
	}
	if _, ok := m.caps[name]; ok {
		return errors.Wrapf(ErrCapabilityExists, "module %q capability %q", m.info.Name, name)
	}
	m.caps[name] = Capability{Name: name, Origin: OriginDynamic, fn: reflect.ValueOf(fn)}
	m.metrics.DynamicAdded.Inc()
	return nil
}

// Capabilities returns the declared capability names sorted, with the
// reserved "instance" name last. The list is fixed at transform time:
// mixin and dynamic capabilities resolve via Lookup and Call but are not
// listed.
func (m *Instance) Capabilities() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.caps)+1)
	for name, c := range m.caps {
		if c.Origin == OriginDynamic || strings.HasPrefix(c.Origin, OriginMixinPrefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return append(names, InstanceCapability)
}

// Describe returns the full capability table sorted by name, mixin entries
// included.
func (m *Instance) Describe() []Capability {
	m.mu.RLock()
	defer m.mu.RUnlock()
	caps := make([]Capability, 0, len(m.caps))
	for _, c := range m.caps {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps
}

// field resolves attr as an exported field of the implementation struct,
// accepting both capability style and exact Go field names.
func (m *Instance) field(attr string) (interface{}, bool) {
	val := reflect.ValueOf(m.impl)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, false
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, false
	}
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.PkgPath != "" {
			continue
		}
		if f.Name == attr || capabilityName(f.Name) == attr {
			return val.Field(i).Interface(), true
		}
	}
	return nil, false
}

func convertArgs(fnType reflect.Type, args []interface{}) ([]reflect.Value, error) {
	numIn := fnType.NumIn()
	if fnType.IsVariadic() {
		if len(args) < numIn-1 {
			return nil, errors.Errorf("want at least %v args, but have %v", numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, errors.Errorf("want %v args, but have %v", numIn, len(args))
	}
	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if fnType.IsVariadic() && i >= numIn-1 {
			paramType = fnType.In(numIn - 1).Elem()
		} else {
			paramType = fnType.In(i)
		}
		v, err := convertArg(arg, paramType)
		if err != nil {
			return nil, errors.WithMessagef(err, "arg %v", i)
		}
		in = append(in, v)
	}
	return in, nil
}

func convertArg(arg interface{}, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if s, ok := arg.(string); ok {
		if t == durationType {
			d, err := time.ParseDuration(s)
			if err != nil {
				return reflect.Value{}, errors.WithMessagef(err, "cannot use %q as %s", s, t)
			}
			return reflect.ValueOf(d), nil
		}
		casted, err := confutil.Cast(s, t)
		if err != nil {
			return reflect.Value{}, errors.WithMessagef(err, "cannot use %q as %s", s, t)
		}
		cv := reflect.ValueOf(casted)
		if !cv.Type().AssignableTo(t) {
			cv = cv.Convert(t)
		}
		return cv, nil
	}
	// Convert would turn numbers into rune strings, better to fail.
	if v.Type().ConvertibleTo(t) && t.Kind() != reflect.String {
		return v.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf("cannot use %T as %s", arg, t)
}
