// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package register provides registration shortcuts over core/module.
package register

import (
	"github.com/buildeasy/buildeasy/core/module"
)

// Type registers a module type constructor under name in the default
// registry.
func Type(name string, newModule interface{}, newDefaultConfigOptional ...interface{}) {
	module.RegisterType(name, newModule, newDefaultConfigOptional...)
}

// Mixin registers a capability donor constructor under name in the default
// registry.
func Mixin(name string, newMixin interface{}, newDefaultConfigOptional ...interface{}) {
	module.RegisterMixin(name, newMixin, newDefaultConfigOptional...)
}

// Module registers a module type together with a same named definition, so
// the singleton is reachable under name without a separate Register call.
func Module(name string, newModule interface{}, newDefaultConfigOptional ...interface{}) {
	module.RegisterType(name, newModule, newDefaultConfigOptional...)
	module.Register(module.Definition{Name: name})
}
