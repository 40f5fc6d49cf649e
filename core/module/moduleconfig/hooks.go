// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package moduleconfig contains integration of module with config packages.
// Doing such integration in a separate package allows config and module
// packages not to depend on each other, and to set hooks when they are
// really needed.
package moduleconfig

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/buildeasy/buildeasy/core/config"
	"github.com/buildeasy/buildeasy/core/module"
	"github.com/buildeasy/buildeasy/lib/tag"
)

func AddHooks() {
	config.AddTypeHook(ModuleHook)
}

// Reserved keys of inline module definitions. All other keys become config
// overrides.
const (
	NameKey   = "name"
	TypeKey   = "type"
	MixinsKey = "mixins"
)

var moduleType = reflect.TypeOf((*module.Module)(nil)).Elem()

// ModuleHook resolves module.Module config fields. A string value is a
// registered module name. A map value is an inline definition: reserved
// keys name, type and mixins, plus config overrides, materialized through
// the default registry.
func ModuleHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if t != moduleType {
		return data, nil
	}
	if tag.Debug {
		zap.L().Debug("Parsing module instance config", zap.Reflect("conf", data))
	}
	if name, ok := data.(string); ok {
		return module.Get(name)
	}
	def, err := parseDef(data)
	if err != nil {
		return nil, err
	}
	return module.Materialize(def)
}

func parseDef(data interface{}) (def module.Definition, err error) {
	confData, err := toStringKeyMap(data)
	if err != nil {
		return
	}
	def.Loader = "config"
	def.Name, err = popString(confData, NameKey)
	if err != nil {
		return
	}
	if def.Name == "" {
		err = errors.Errorf("module %s expected", NameKey)
		return
	}
	def.Type, err = popString(confData, TypeKey)
	if err != nil {
		return
	}
	def.Mixins, err = popStringSlice(confData, MixinsKey)
	if err != nil {
		return
	}
	if len(confData) > 0 {
		def.Overrides = confData
	}
	return
}

// popString removes the value under key from confData, matching keys case
// insensitively like the config decoder does.
func popString(confData map[string]interface{}, key string) (string, error) {
	var vals []string
	for k, v := range confData {
		if strings.ToLower(k) != key {
			continue
		}
		strVal, ok := v.(string)
		if !ok {
			return "", errors.Errorf("%s has non-string value %v", key, v)
		}
		vals = append(vals, strVal)
		delete(confData, k)
	}
	if len(vals) > 1 {
		return "", errors.Errorf("too many %s keys", key)
	}
	if len(vals) == 0 {
		return "", nil
	}
	return vals[0], nil
}

func popStringSlice(confData map[string]interface{}, key string) ([]string, error) {
	var vals [][]string
	for k, v := range confData {
		if strings.ToLower(k) != key {
			continue
		}
		slice, err := toStringSlice(v)
		if err != nil {
			return nil, errors.WithMessage(err, key)
		}
		vals = append(vals, slice)
		delete(confData, k)
	}
	if len(vals) > 1 {
		return nil, errors.Errorf("too many %s keys", key)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return vals[0], nil
}

func toStringSlice(data interface{}) ([]string, error) {
	switch v := data.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Errorf("unexpected element type %T: %v", item, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.Errorf("unexpected value type %T: should be string slice", data)
}

func toStringKeyMap(data interface{}) (out map[string]interface{}, err error) {
	out, ok := data.(map[string]interface{})
	if ok {
		return
	}
	untypedKeyData, ok := data.(map[interface{}]interface{})
	if !ok {
		err = errors.Errorf("unexpected config type %T: should be map[string or interface{}]interface{}", data)
		return
	}
	out = make(map[string]interface{}, len(untypedKeyData))
	for key, val := range untypedKeyData {
		strKey, ok := key.(string)
		if !ok {
			err = errors.Errorf("unexpected key type %T: %v", key, key)
		}
		out[strKey] = val
	}
	return
}
