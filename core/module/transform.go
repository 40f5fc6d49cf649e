// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/buildeasy/buildeasy/core/config"
)

// transform turns def into a module instance: resolves the config, runs the
// constructor, harvests exported methods as capabilities, merges mixin
// capabilities, injects statics and fills identity info.
// Runs without r.mu held: override decode hooks and constructors may
// resolve other modules from the registry.
func (r *Registry) transform(def Definition) (*Instance, error) {
	entry, ok := r.typeEntry(def.Type)
	if !ok {
		return nil, newTransformError(def.Name, errors.Errorf("no module type has been registered for name %q", def.Type))
	}
	var fillConf func(conf interface{}) error
	if len(def.Overrides) > 0 {
		fillConf = func(conf interface{}) error {
			return config.DecodeAndValidate(def.Overrides, conf)
		}
	}
	maybeConf, err := entry.defaultConfig.Get(fillConf)
	if err != nil {
		return nil, newTransformError(def.Name, errors.WithMessage(err, "config decode"))
	}
	impl, err := construct(entry.constructor, maybeConf)
	if err != nil {
		return nil, newTransformError(def.Name, err)
	}

	caps := harvest(impl, OriginMethod)
	own := make(map[string]bool, len(caps))
	for name := range caps {
		own[name] = true
	}
	for _, mixinName := range def.Mixins {
		mixin, ok := r.mixinEntry(mixinName)
		if !ok {
			return nil, newTransformError(def.Name, errors.Errorf("no mixin has been registered for name %q", mixinName))
		}
		maybeConf, err := mixin.defaultConfig.Get(nil)
		if err != nil {
			return nil, newTransformError(def.Name, errors.WithMessagef(err, "mixin %q config", mixinName))
		}
		mixinImpl, err := construct(mixin.constructor, maybeConf)
		if err != nil {
			return nil, newTransformError(def.Name, errors.WithMessagef(err, "mixin %q", mixinName))
		}
		// Later mixins overwrite earlier ones, but own capabilities and the
		// reserved instance name always win.
		for name, capability := range harvest(mixinImpl, OriginMixinPrefix+mixinName) {
			if own[name] {
				continue
			}
			caps[name] = capability
		}
	}
	for name, fn := range def.Statics {
		caps[name] = Capability{Name: name, Origin: OriginStatic, fn: reflect.ValueOf(fn)}
	}

	return &Instance{
		info: Info{
			Name:    def.Name,
			Type:    def.Type,
			Package: implPackage(reflect.TypeOf(impl)),
			Path:    def.Path,
			Loader:  def.Loader,
			Doc:     def.Doc,
		},
		impl:    impl,
		caps:    caps,
		metrics: r.currentMetrics(),
	}, nil
}

// construct runs the module constructor, recovering a constructor panic
// into an error.
func construct(c moduleConstructor, maybeConf []reflect.Value) (impl interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			impl, err = nil, errors.Errorf("constructor panic: %v", p)
		}
	}()
	impl, err = c.New(maybeConf)
	if err != nil {
		return nil, errors.WithMessage(err, "constructor failed")
	}
	val := reflect.ValueOf(impl)
	if impl == nil || (val.Kind() == reflect.Ptr && val.IsNil()) {
		return nil, errors.New("constructor returned nil implementation")
	}
	return impl, nil
}

// harvest collects bound exported methods of impl as capabilities under
// snake case names. A method named like the reserved instance capability
// is skipped.
func harvest(impl interface{}, origin string) map[string]Capability {
	val := reflect.ValueOf(impl)
	typ := val.Type()
	caps := make(map[string]Capability, typ.NumMethod())
	for i := 0; i < typ.NumMethod(); i++ {
		name := capabilityName(typ.Method(i).Name)
		if name == InstanceCapability {
			continue
		}
		caps[name] = Capability{Name: name, Origin: origin, fn: val.Method(i)}
	}
	return caps
}

// capabilityName converts an exported Go method name to its capability
// form: Greet to greet, SaveState to save_state, HTTPServe to http_serve.
func capabilityName(method string) string {
	rs := []rune(method)
	var b strings.Builder
	b.Grow(len(method) + 4)
	for i, r := range rs {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 && (!unicode.IsUpper(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func implPackage(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath()
}
