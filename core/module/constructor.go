// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"reflect"
)

// moduleConstructor wraps a valid module constructor func.
// Forms: func([config Conf]) (Impl[, error]), where Conf is struct or struct
// pointer, and Impl is the implementation value whose exported methods become
// capabilities.
type moduleConstructor struct {
	newModule reflect.Value
}

func newModuleConstructor(newModule interface{}) moduleConstructor {
	t := reflect.TypeOf(newModule)
	expect(t != nil, "constructor expected, but got nil")
	expect(t.Kind() == reflect.Func, "constructor should be func, but have: %T", newModule)
	expect(t.NumIn() <= 1, "constructor should accept config or nothing, but have %v input params", t.NumIn())
	expect(t.NumOut() >= 1, "constructor should return module implementation as first output param")
	expect(t.NumOut() <= 2, "constructor should return module implementation, and optionally error, but have %v output params", t.NumOut())
	if t.NumOut() == 2 {
		expect(t.Out(1) == errorType, "constructor should have no second output param, or it should be error")
	}
	expect(t.Out(0).Kind() != reflect.Func, "constructor should return implementation value, but have func")
	return moduleConstructor{reflect.ValueOf(newModule)}
}

// New calls the constructor with maybeConf and splits the optional trailing
// error output.
func (c moduleConstructor) New(maybeConf []reflect.Value) (impl interface{}, err error) {
	out := c.newModule.Call(maybeConf)
	impl = out[0].Interface()
	if len(out) > 1 {
		err, _ = out[1].Interface().(error)
	}
	return
}

func (c moduleConstructor) implType() reflect.Type { return c.newModule.Type().Out(0) }

// defaultConfigContainer holds and validates default config creation logic
// for a registered module or mixin type.
type defaultConfigContainer struct {
	constructorType reflect.Type
	newValue        reflect.Value
}

func newDefaultConfigContainer(constructorType reflect.Type, newDefaultConfig interface{}) defaultConfigContainer {
	if newDefaultConfig == nil {
		return defaultConfigContainer{constructorType, reflect.Value{}}
	}
	newDefaultConfigType := reflect.TypeOf(newDefaultConfig)
	expect(constructorType.NumIn() == 1, "constructor should accept config, to have default config")
	expect(newDefaultConfigType.Kind() == reflect.Func &&
		newDefaultConfigType.NumIn() == 0 &&
		newDefaultConfigType.NumOut() == 1 &&
		newDefaultConfigType.Out(0) == constructorType.In(0),
		"newDefaultConfig should be func that accepts nothing, and returns constructor argument type")
	return defaultConfigContainer{constructorType, reflect.ValueOf(newDefaultConfig)}
}

// Get returns constructor config arguments, if any. Config is created from
// the default config factory, or zero valued otherwise, and may be filled
// with overrides by non nil fillConf. When the constructor accepts no config,
// fillConf runs against an empty struct, so unused override keys still
// surface as a decode error.
func (e defaultConfigContainer) Get(fillConf func(conf interface{}) error) (maybeConf []reflect.Value, err error) {
	var fillAddr interface{}
	if e.configRequired() {
		maybeConf, fillAddr = e.new()
	} else {
		var emptyStruct struct{}
		fillAddr = &emptyStruct
	}
	if fillConf != nil {
		err = fillConf(fillAddr)
		if err != nil {
			return
		}
	}
	return
}

// new returns new config value and addr for filling.
func (e defaultConfigContainer) new() (maybeConf []reflect.Value, fillAddr interface{}) {
	if !e.configRequired() {
		panic("try to create conf, when config is not required")
	}
	confType := e.constructorType.In(0)
	var conf reflect.Value
	if e.newValue.IsValid() {
		conf = e.newValue.Call(nil)[0]
	} else {
		switch confType.Kind() {
		case reflect.Ptr:
			conf = reflect.New(confType.Elem())
		default:
			conf = reflect.Zero(confType)
		}
	}
	switch conf.Kind() {
	case reflect.Ptr:
		if conf.IsNil() {
			conf = reflect.New(confType.Elem())
		}
		fillAddr = conf.Interface()
	default:
		fillAddrVal := reflect.New(confType)
		fillAddrVal.Elem().Set(conf)
		conf = fillAddrVal.Elem()
		fillAddr = fillAddrVal.Interface()
	}
	maybeConf = []reflect.Value{conf}
	return
}

func (e defaultConfigContainer) configRequired() bool {
	return e.constructorType.NumIn() == 1
}
